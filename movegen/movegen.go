// Package movegen enumerates the legal groupmoves of a position and
// applies them.
package movegen

import (
	"errors"

	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
)

// MaxGroup is the largest number of own marbles that move together.
const MaxGroup = 3

var ErrIllegalMove = errors.New("illegal move")

// Child is a legal move together with the position it produces.
type Child struct {
	Move  move.Move
	Board board.Board
}

// GenAll returns every legal move for p. Inline moves come first, in
// cell order, then sidesteps. The order is deterministic.
func GenAll(b *board.Board, p board.Player) []move.Move {
	inline := make([]move.Move, 0, 64)
	sidesteps := make([]move.Move, 0, 32)
	for idx := 0; idx < board.NumCells; idx++ {
		if b.AtIndex(idx) != p {
			continue
		}
		c := board.CoordAt(idx)
		for _, axis := range board.Axes {
			inline, sidesteps = walk(b, p, c, axis, inline, sidesteps, true)
			inline, _ = walk(b, p, c, -axis, inline, nil, false)
		}
	}
	return append(inline, sidesteps...)
}

// GenChildren pairs every legal move with its resulting board.
func GenChildren(b *board.Board, p board.Player) []Child {
	moves := GenAll(b, p)
	children := make([]Child, len(moves))
	for i, m := range moves {
		children[i].Move = m
		children[i].Board = *b
		Apply(&children[i].Board, m)
	}
	return children
}

// walk looks for the inline move whose rearmost marble is from, heading
// in dir. When collect is set, every run of two or three own marbles met
// on the way is tried as a sidestep group.
func walk(b *board.Board, p board.Player, from board.Coord, dir board.Direction,
	inline, sidesteps []move.Move, collect bool) ([]move.Move, []move.Move) {

	var line [move.MaxLine]board.Coord
	line[0] = from
	own := 1
	next := from.Step(dir)
	for own < MaxGroup && next != board.NoCoord && b.At(next) == p {
		line[own] = next
		own++
		if collect {
			sidesteps = appendSidesteps(b, p, line[:own], dir, sidesteps)
		}
		next = next.Step(dir)
	}
	if next == board.NoCoord {
		// our own leading marble would fall off.
		return inline, sidesteps
	}
	if b.At(next) == p {
		// four in a row.
		return inline, sidesteps
	}
	n := own
	opp := p.Opponent()
	for next != board.NoCoord && b.At(next) == opp {
		if n-own+1 >= own {
			return inline, sidesteps
		}
		line[n] = next
		n++
		next = next.Step(dir)
	}
	if next != board.NoCoord && b.At(next) != board.Empty {
		// an own marble behind the opposing run.
		return inline, sidesteps
	}
	return append(inline, move.NewInline(p, line[:n], own, dir)), sidesteps
}

func appendSidesteps(b *board.Board, p board.Player, group []board.Coord,
	facing board.Direction, sidesteps []move.Move) []move.Move {

	for _, axis := range board.Axes {
		if axis == facing.Axis() {
			continue
		}
		for _, d := range [2]board.Direction{axis, -axis} {
			if sidestepClear(b, group, d) {
				sidesteps = append(sidesteps, move.NewSidestep(p, group, d))
			}
		}
	}
	return sidesteps
}

func sidestepClear(b *board.Board, group []board.Coord, d board.Direction) bool {
	for _, c := range group {
		dst := c.Step(d)
		if dst == board.NoCoord || b.At(dst) != board.Empty {
			return false
		}
	}
	return true
}

// IsLegal reports whether m is among the generated moves for its player.
func IsLegal(b *board.Board, m move.Move) bool {
	for _, legal := range GenAll(b, m.Player()) {
		if legal == m {
			return true
		}
	}
	return false
}

// HasMoves reports whether p has any legal move.
func HasMoves(b *board.Board, p board.Player) bool {
	return len(GenAll(b, p)) > 0
}

// Pushes keeps the inline moves that displace opposing marbles.
func Pushes(moves []move.Move) []move.Move {
	return lo.Filter(moves, func(m move.Move, _ int) bool {
		return m.Pushed() > 0
	})
}

// Captures keeps the moves that push an opposing marble off the board.
func Captures(moves []move.Move) []move.Move {
	return lo.Filter(moves, func(m move.Move, _ int) bool {
		return m.Captures()
	})
}
