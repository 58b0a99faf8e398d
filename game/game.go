// Package game tracks a live game: the board, whose turn it is, each
// player's remaining turns and the move history.
package game

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/movegen"
)

const DefaultTurnLimit = 40

var (
	ErrGameOver     = errors.New("game is over")
	ErrNotOnTurn    = errors.New("player is not on turn")
	ErrNoHistory    = errors.New("no moves to undo")
	ErrBadTurnLimit = errors.New("turn limit must be positive")
)

type Game struct {
	layout    board.Layout
	board     *board.Board
	onturn    board.Player
	turnLimit int
	turnsLeft [2]int
	history   []Turn

	stateStack []stateBackup
}

// New sets up layout with each player allowed turnLimit moves. Black
// moves first.
func New(layout board.Layout, turnLimit int) (*Game, error) {
	if turnLimit <= 0 {
		return nil, ErrBadTurnLimit
	}
	g := &Game{
		layout:    layout,
		board:     board.FromLayout(layout),
		onturn:    board.Black,
		turnLimit: turnLimit,
		turnsLeft: [2]int{turnLimit, turnLimit},
	}
	log.Debug().Str("layout", layout.Name).Int("turn-limit", turnLimit).Msg("new-game")
	return g, nil
}

func (g *Game) Board() *board.Board { return g.board }
func (g *Game) Layout() board.Layout { return g.layout }
func (g *Game) PlayerOnTurn() board.Player { return g.onturn }
func (g *Game) TurnLimit() int { return g.turnLimit }
func (g *Game) TurnsRemaining(p board.Player) int { return g.turnsLeft[p] }

// Turn is the number of moves played so far.
func (g *Game) Turn() int { return len(g.history) }

// IsFirstMove reports whether no move has been played yet.
func (g *Game) IsFirstMove() bool { return len(g.history) == 0 }

func (g *Game) LegalMoves() []move.Move {
	return movegen.GenAll(g.board, g.onturn)
}

// GameOver is true once the player on turn has no turns or moves left,
// or either side is down to the losing marble count.
func (g *Game) GameOver() bool {
	if g.board.Count(board.Black) <= board.LosingMarbles ||
		g.board.Count(board.White) <= board.LosingMarbles {
		return true
	}
	if g.turnsLeft[g.onturn] <= 0 {
		return true
	}
	return !movegen.HasMoves(g.board, g.onturn)
}

// Winner is the player with more marbles left. ok is false while the
// game is in progress or when it ended level.
func (g *Game) Winner() (winner board.Player, ok bool) {
	if !g.GameOver() {
		return board.Empty, false
	}
	b, w := g.board.Count(board.Black), g.board.Count(board.White)
	switch {
	case b > w:
		return board.Black, true
	case w > b:
		return board.White, true
	}
	return board.Empty, false
}

// Captured is how many opposing marbles p has pushed off.
func (g *Game) Captured(p board.Player) int {
	return lo.SumBy(g.history, func(t Turn) int {
		if t.Player == p {
			return t.Captured
		}
		return 0
	})
}

// PlayMove plays a legal move for the player on turn, mutating the live
// board in place.
func (g *Game) PlayMove(m move.Move) error {
	if g.GameOver() {
		return ErrGameOver
	}
	if m.Player() != g.onturn {
		return fmt.Errorf("%w: %s to move, got a move for %s", ErrNotOnTurn, g.onturn, m.Player())
	}
	if !movegen.IsLegal(g.board, m) {
		return fmt.Errorf("%w: %s", movegen.ErrIllegalMove, m)
	}
	g.backupState()
	captured := movegen.Apply(g.board, m)
	g.history = append(g.history, Turn{
		Player:   g.onturn,
		Move:     m,
		Captured: captured,
	})
	g.turnsLeft[g.onturn]--
	g.onturn = g.onturn.Opponent()
	log.Debug().Str("move", m.String()).Int("captured", captured).
		Int("turn", len(g.history)).Msg("played-move")
	return nil
}

// PlayString parses move text and plays it.
func (g *Game) PlayString(s string) (move.Move, error) {
	m, err := move.FromString(s, g.board)
	if err != nil {
		return move.Move{}, err
	}
	if err := g.PlayMove(m); err != nil {
		return move.Move{}, err
	}
	return m, nil
}

// UnplayLastMove restores the position before the last move.
func (g *Game) UnplayLastMove() error {
	if len(g.stateStack) == 0 {
		return ErrNoHistory
	}
	g.restoreState()
	g.history = g.history[:len(g.history)-1]
	return nil
}
