package heuristic

import (
	"github.com/sumito-ai/sumito/board"
)

const MaterialName = "material"

// Material weighs marbles lost by each side against the Manhattan
// spread of each side around E5.
type Material struct {
	OwnDistance float64
	OppDistance float64
	OwnDelta    float64
	OppDelta    float64
}

func DefaultMaterial() Material {
	return Material{OwnDistance: -1, OppDistance: 1, OwnDelta: 20, OppDelta: -20}
}

func (Material) Name() string { return MaterialName }

func (m Material) Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error) {
	var dp, do int
	for i := 0; i < board.NumCells; i++ {
		o := b.AtIndex(i)
		if o == board.Empty {
			continue
		}
		c := board.CoordAt(i)
		d := abs(c.Col()-board.Center.Col()) + abs(c.Row()-board.Center.Row())
		if o == player {
			dp += d
		} else {
			do += d
		}
	}
	ownDelta := b.Count(player) - board.StartingMarbles
	oppDelta := b.Count(player.Opponent()) - board.StartingMarbles
	return m.OwnDistance*float64(dp) + m.OppDistance*float64(do) +
		m.OwnDelta*float64(ownDelta) + m.OppDelta*float64(oppDelta), nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
