// Package heuristic holds position evaluators for the search engine.
// The engine only depends on the Evaluator contract.
package heuristic

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sumito-ai/sumito/board"
)

// Evaluator scores a position; higher is better for player.
// turnsRemaining is the number of plies left in the game from this
// position. An error aborts the search that asked for the score.
type Evaluator interface {
	Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error)
	Name() string
}

// EvaluatorFunc adapts a plain function.
type EvaluatorFunc func(b *board.Board, turnsRemaining int, player board.Player) (float64, error)

func (f EvaluatorFunc) Evaluate(b *board.Board, turnsRemaining int, player board.Player) (float64, error) {
	return f(b, turnsRemaining, player)
}

func (f EvaluatorFunc) Name() string { return "func" }

var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Names lists the built-in evaluators. "lua:<file>" and
// "weighted:<profile.yaml>" are also accepted by ByName.
func Names() []string {
	return []string{CenterControlName, MaterialName, WeightedName}
}

// ByName builds an evaluator from its name.
func ByName(name string) (Evaluator, error) {
	kind, arg, _ := strings.Cut(name, ":")
	switch kind {
	case CenterControlName:
		return CenterControl{}, nil
	case MaterialName:
		return DefaultMaterial(), nil
	case WeightedName:
		if arg == "" {
			return DefaultWeighted(), nil
		}
		w, err := LoadWeightedProfile(arg)
		if err != nil {
			return nil, err
		}
		return w, nil
	case LuaName:
		if arg == "" {
			return nil, fmt.Errorf("%w: lua evaluator needs a script path", ErrUnknownHeuristic)
		}
		script, err := os.ReadFile(arg)
		if err != nil {
			return nil, err
		}
		e, err := NewLuaEvaluator(arg, string(script))
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHeuristic, name)
}

// ringDistance sums each side's distance from the center cell.
func ringDistance(b *board.Board, player board.Player) (own, opp int) {
	for i := 0; i < board.NumCells; i++ {
		o := b.AtIndex(i)
		if o == board.Empty {
			continue
		}
		d := board.Distance(board.CoordAt(i), board.Center)
		if o == player {
			own += d
		} else {
			opp += d
		}
	}
	return own, opp
}
