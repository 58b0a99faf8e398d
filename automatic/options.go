package automatic

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/heuristic"
)

// OptionsFromConfig builds a tournament from the autoplay-* keys.
// heuristics, when given, replace autoplay-heuristics. Seeds are read
// from autoplay-seeds-path or generated, and written to
// autoplay-save-seeds-path when it is set.
func OptionsFromConfig(cfg *config.Config, heuristics []string) (TournamentOptions, error) {
	names := heuristics
	if len(names) == 0 {
		names = cfg.GetList(config.ConfigAutoplayHeuristics)
	}
	if len(names) == 0 {
		names = heuristic.Names()
	}
	names = lo.Uniq(names)
	if len(names) < 2 {
		return TournamentOptions{}, errors.New("autoplay needs at least two distinct heuristics")
	}
	for _, n := range names {
		e, err := heuristic.ByName(n)
		if err != nil {
			return TournamentOptions{}, err
		}
		if c, ok := e.(io.Closer); ok {
			c.Close()
		}
	}

	var layouts []board.Layout
	for _, name := range cfg.GetList(config.ConfigAutoplayLayouts) {
		l, err := board.LayoutByName(name)
		if err != nil {
			return TournamentOptions{}, err
		}
		layouts = append(layouts, l)
	}
	if len(layouts) == 0 {
		return TournamentOptions{}, fmt.Errorf("%s is empty", config.ConfigAutoplayLayouts)
	}

	var timeLimits []time.Duration
	for _, s := range cfg.GetList(config.ConfigAutoplayTimeLimits) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return TournamentOptions{}, fmt.Errorf("%s: %w", config.ConfigAutoplayTimeLimits, err)
		}
		if d <= 0 {
			return TournamentOptions{}, fmt.Errorf("%s: %v is not positive", config.ConfigAutoplayTimeLimits, d)
		}
		timeLimits = append(timeLimits, d)
	}
	if len(timeLimits) == 0 {
		return TournamentOptions{}, fmt.Errorf("%s is empty", config.ConfigAutoplayTimeLimits)
	}

	var turnLimits []int
	for _, s := range cfg.GetList(config.ConfigAutoplayTurnLimits) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return TournamentOptions{}, fmt.Errorf("%s: %w", config.ConfigAutoplayTurnLimits, err)
		}
		if n <= 0 {
			return TournamentOptions{}, fmt.Errorf("%s: %d is not positive", config.ConfigAutoplayTurnLimits, n)
		}
		turnLimits = append(turnLimits, n)
	}
	if len(turnLimits) == 0 {
		turnLimits = []int{cfg.GetInt(config.ConfigTurnLimit)}
	}

	rounds := cfg.GetInt(config.ConfigAutoplayRounds)
	if rounds <= 0 {
		return TournamentOptions{}, fmt.Errorf("%s must be positive", config.ConfigAutoplayRounds)
	}

	var seeds [][32]byte
	if path := cfg.GetString(config.ConfigAutoplaySeedsPath); path != "" {
		var err error
		if seeds, err = LoadSeeds(path); err != nil {
			return TournamentOptions{}, err
		}
	} else {
		seeds = GenerateSeeds(rounds)
	}
	if path := cfg.GetString(config.ConfigAutoplaySaveSeeds); path != "" {
		if err := SaveSeeds(seeds, path); err != nil {
			return TournamentOptions{}, err
		}
	}

	return TournamentOptions{
		Pairings:    Pairings(names, layouts, turnLimits, timeLimits),
		Rounds:      rounds,
		Threads:     cfg.GetInt(config.ConfigAutoplayThreads),
		Seeds:       seeds,
		RandomPlies: cfg.GetInt(config.ConfigAutoplayRandomPlies),
		MaxDepth:    cfg.GetInt(config.ConfigAutoplayMaxDepth),
	}, nil
}
