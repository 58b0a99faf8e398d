package game

import (
	"strings"

	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
)

// Turn is one played move.
type Turn struct {
	Player   board.Player
	Move     move.Move
	Captured int
}

func (t Turn) String() string {
	s := t.Player.String() + " " + t.Move.String()
	if t.Captured > 0 {
		s += " (capture)"
	}
	return s
}

func (g *Game) History() []Turn {
	return g.history
}

// MoveList renders the moves played so far in move text, space separated.
func (g *Game) MoveList() string {
	return strings.Join(lo.Map(g.history, func(t Turn, _ int) string {
		return t.Move.String()
	}), " ")
}

// LastMove returns the most recent turn, if any.
func (g *Game) LastMove() (Turn, bool) {
	if len(g.history) == 0 {
		return Turn{}, false
	}
	return g.history[len(g.history)-1], true
}
