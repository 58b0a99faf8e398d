// Package testhelpers has fixtures shared by package tests.
package testhelpers

import (
	"lukechampine.com/frand"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/movegen"
)

// Config is the default config with unbounded in-memory caches, so tests
// do not size tables from the machine's memory.
func Config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigTtableMemoryFraction, 0)
	return cfg
}

// RandomPosition plays plies random moves from layout. The same seed
// always gives the same position. It stops early if the mover has no
// moves, and returns the player on turn.
func RandomPosition(layout board.Layout, plies int, seed [32]byte) (*board.Board, board.Player) {
	rng := frand.NewCustom(seed[:], 1024, 12)
	b := board.FromLayout(layout)
	p := board.Black
	for i := 0; i < plies; i++ {
		moves := movegen.GenAll(b, p)
		if len(moves) == 0 {
			break
		}
		movegen.Apply(b, moves[rng.Intn(len(moves))])
		p = p.Opponent()
	}
	return b, p
}
