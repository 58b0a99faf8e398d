package heuristic

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sumito-ai/sumito/board"
)

const (
	WeightedName = "weighted"
	LuaName      = "lua"
)

// Weighted mixes normalized terms for material, center control and
// cohesion. Each term lies roughly in [-1, 1].
type Weighted struct {
	Score    float64 `yaml:"score"`
	Centre   float64 `yaml:"centre"`
	Grouping float64 `yaml:"grouping"`
	// Urgency scales the material term up as the game runs out of turns.
	Urgency float64 `yaml:"urgency"`
}

func DefaultWeighted() Weighted {
	return Weighted{Score: 1, Centre: 1, Grouping: 0.5, Urgency: 0}
}

// LoadWeightedProfile reads weights from a YAML file. Missing keys are
// zero.
func LoadWeightedProfile(path string) (Weighted, error) {
	var w Weighted
	data, err := os.ReadFile(path)
	if err != nil {
		return w, err
	}
	if err := yaml.Unmarshal(data, &w); err != nil {
		return w, fmt.Errorf("parsing weights %s: %w", path, err)
	}
	return w, nil
}

func (Weighted) Name() string { return WeightedName }

func (w Weighted) Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error) {
	opp := player.Opponent()
	score := float64(b.Count(player)-b.Count(opp)) / float64(board.StartingMarbles-board.LosingMarbles+2)
	if w.Urgency > 0 && turnsRemaining > 0 {
		score *= 1 + w.Urgency/float64(turnsRemaining)
	}

	ownDist, oppDist := ringDistance(b, player)
	const maxDistance = 4
	centre := (avg(oppDist, b.Count(opp)) - avg(ownDist, b.Count(player))) / maxDistance

	grouping := cohesion(b, player) - cohesion(b, opp)

	return w.Score*score + w.Centre*centre + w.Grouping*grouping, nil
}

func avg(sum, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// cohesion is the share of p's marbles' neighbor slots held by p's own
// marbles.
func cohesion(b *board.Board, p board.Player) float64 {
	n := b.Count(p)
	if n == 0 {
		return 0
	}
	pairs := 0
	for i := 0; i < board.NumCells; i++ {
		if b.AtIndex(i) != p {
			continue
		}
		c := board.CoordAt(i)
		for _, axis := range board.Axes {
			if b.At(c.Step(axis)) == p {
				pairs++
			}
		}
	}
	// each marble has at most six neighbors; each pair is counted once.
	return float64(2*pairs) / float64(6*n)
}
