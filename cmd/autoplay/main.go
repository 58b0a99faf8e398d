// Command autoplay runs a round-robin tournament between heuristics.
//
//	autoplay [--key=value ...] [heuristic ...]
//	autoplay [--key=value ...] analyze <game log>
//
// Tournament settings are the autoplay-* configuration keys, which may
// also come from the config file or SUMITO_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sumito-ai/sumito/automatic"
	"github.com/sumito-ai/sumito/config"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading-config")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var args []string
	for _, arg := range os.Args[1:] {
		if !strings.HasPrefix(arg, "--") {
			args = append(args, arg)
		}
	}

	if len(args) > 0 && args[0] == "analyze" {
		if len(args) != 2 {
			log.Fatal().Msg("usage: autoplay analyze <game log>")
		}
		out, err := automatic.AnalyzeLogFile(args[1])
		if err != nil {
			log.Fatal().Err(err).Msg("analyzing")
		}
		fmt.Print(out)
		return
	}

	opts, err := automatic.OptionsFromConfig(cfg, args)
	if err != nil {
		log.Fatal().Err(err).Msg("bad-options")
	}
	path := cfg.GetString(config.ConfigAutoplayLogPath)

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	results, gamePath, err := automatic.PlayTournamentToFiles(ctx, cfg, opts, path)
	if err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("tournament-failed")
	}
	log.Info().Str("moves", path).Str("games", gamePath).Msg("wrote-logs")
	fmt.Print(automatic.Summarize(results, 95).String())
}
