package movegen

import (
	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
)

// Apply plays m on b in place and returns how many marbles were pushed
// off. It starts from the leading marble so no marble lands on a cell
// that has not been vacated yet. m must be legal on b.
func Apply(b *board.Board, m move.Move) int {
	captured := 0
	dir := m.Direction()
	for i := m.Len() - 1; i >= 0; i-- {
		if b.Shift(m.Marble(i), dir) {
			captured++
		}
	}
	return captured
}

// Result returns a copy of b with m played. b is not modified.
func Result(b *board.Board, m move.Move) *board.Board {
	c := *b
	Apply(&c, m)
	return &c
}
