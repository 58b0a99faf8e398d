package heuristic

import (
	"github.com/sumito-ai/sumito/board"
)

const CenterControlName = "center"

// CenterControl is the ratio of the opponent's summed distance from the
// center to ours. Keeping our marbles central raises it.
type CenterControl struct{}

func (CenterControl) Name() string { return CenterControlName }

func (CenterControl) Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error) {
	own, opp := ringDistance(b, player)
	if own == 0 {
		// a lone marble on E5.
		own = 1
	}
	return float64(opp) / float64(own), nil
}
