package search

import (
	"fmt"
	"strings"

	"github.com/sumito-ai/sumito/move"
)

// PVLine is the principal variation: the best move at each ply of a
// completed iteration. The next iteration tries these moves first.
type PVLine struct {
	Moves []move.Move
	score float64
}

func (pv *PVLine) Clear() {
	pv.Moves = pv.Moves[:0]
}

// Update makes m followed by the child's line the new variation.
func (pv *PVLine) Update(m move.Move, child PVLine, score float64) {
	pv.Moves = append(pv.Moves[:0], m)
	pv.Moves = append(pv.Moves, child.Moves...)
	pv.score = score
}

// Hint returns the move recorded for ply, if any.
func (pv PVLine) Hint(ply int) (move.Move, bool) {
	if ply >= len(pv.Moves) {
		return move.Move{}, false
	}
	return pv.Moves[ply], true
}

func (pv PVLine) Copy() PVLine {
	return PVLine{Moves: append([]move.Move(nil), pv.Moves...), score: pv.score}
}

func (pv PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.4f; ", pv.score)
	for i, m := range pv.Moves {
		fmt.Fprintf(&sb, "%d: %s; ", i+1, m.String())
	}
	return sb.String()
}
