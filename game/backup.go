package game

import (
	"github.com/sumito-ai/sumito/board"
)

// stateBackup is the part of Game a move changes.
type stateBackup struct {
	board     board.Board
	onturn    board.Player
	turnsLeft [2]int
}

func (g *Game) backupState() {
	g.stateStack = append(g.stateStack, stateBackup{
		board:     *g.board,
		onturn:    g.onturn,
		turnsLeft: g.turnsLeft,
	})
}

func (g *Game) restoreState() {
	st := g.stateStack[len(g.stateStack)-1]
	g.stateStack = g.stateStack[:len(g.stateStack)-1]
	g.board.CopyFrom(&st.board)
	g.onturn = st.onturn
	g.turnsLeft = st.turnsLeft
}
