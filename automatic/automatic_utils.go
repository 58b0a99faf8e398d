package automatic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/zobrist"
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

var (
	playing   atomic.Int32
	gamesDone atomic.Int64
)

// GamesPlayed counts games finished by the running tournament.
func GamesPlayed() int64 { return gamesDone.Load() }

// Pairings returns every ordered pair of distinct heuristics crossed with
// the layouts, turn limits and time limits. Each heuristic plays each
// other one as Black and as White.
func Pairings(heuristics []string, layouts []board.Layout, turnLimits []int,
	timeLimits []time.Duration) []Pairing {

	var ps []Pairing
	for _, l := range layouts {
		for _, tl := range turnLimits {
			for _, tm := range timeLimits {
				for i, black := range heuristics {
					for j, white := range heuristics {
						if i == j {
							continue
						}
						ps = append(ps, Pairing{
							Black: black, White: white, Layout: l,
							TurnLimit: tl, TimeLimit: tm,
						})
					}
				}
			}
		}
	}
	return ps
}

type TournamentOptions struct {
	Pairings []Pairing
	// Rounds is how many times each pairing is played.
	Rounds  int
	Threads int
	// Seeds fix the random opening plies; round r uses Seeds[r%len(Seeds)].
	Seeds       [][32]byte
	RandomPlies int
	MaxDepth    int
	// MoveLog and GameLog receive CSV lines. Either may be nil.
	MoveLog io.Writer
	GameLog io.Writer
}

type job struct {
	pairing Pairing
	round   int
	seed    [32]byte
}

// PlayTournament plays every pairing opts.Rounds times across
// opts.Threads workers and returns the finished games. If ctx is
// cancelled the games finished so far are returned along with the error.
func PlayTournament(ctx context.Context, cfg *config.Config, opts TournamentOptions) ([]GameResult, error) {
	if !playing.CompareAndSwap(0, 1) {
		return nil, ErrAlreadyPlaying
	}
	defer playing.Store(0)
	gamesDone.Store(0)

	if opts.Rounds < 1 {
		opts.Rounds = 1
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if len(opts.Seeds) == 0 {
		opts.Seeds = GenerateSeeds(opts.Rounds)
	}

	z := zobrist.New()
	book, err := openingbook.Load(z, cfg.GetString(config.ConfigOpeningBookPath))
	if err != nil {
		return nil, err
	}

	log.Info().Int("pairings", len(opts.Pairings)).Int("rounds", opts.Rounds).
		Int("threads", opts.Threads).Msg("starting-tournament")

	jobs := make(chan job, 100)
	logChan := make(chan string, 100)
	resultChan := make(chan GameResult, 100)

	var writers sync.WaitGroup
	writers.Add(2)
	go func() {
		defer writers.Done()
		writeLines(opts.MoveLog, MoveLogHeader, logChan)
	}()
	var results []GameResult
	go func() {
		defer writers.Done()
		gameLines := make(chan string)
		done := make(chan struct{})
		go func() {
			writeLines(opts.GameLog, GameLogHeader, gameLines)
			close(done)
		}()
		for res := range resultChan {
			results = append(results, res)
			gameLines <- res.CSV()
		}
		close(gameLines)
		<-done
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.Threads; i++ {
		g.Go(func() error {
			r := NewGameRunner(logChan, cfg, z, book)
			r.SetMaxDepth(opts.MaxDepth)
			r.SetRandomPlies(opts.RandomPlies)
			defer r.Close()
			for j := range jobs {
				res, err := r.PlayGame(gctx, j.pairing, j.round, j.seed)
				if err != nil && gctx.Err() != nil && errors.Is(err, gctx.Err()) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("game %s: %w", GameID(j.pairing, j.round), err)
				}
				resultChan <- res
				gamesDone.Add(1)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(jobs)
		queued := 0
		for round := 0; round < opts.Rounds; round++ {
			for _, p := range opts.Pairings {
				select {
				case jobs <- job{pairing: p, round: round, seed: opts.Seeds[round%len(opts.Seeds)]}:
					queued++
				case <-gctx.Done():
					log.Info().Int("queued", queued).Msg("stop-signal-exiting-soon")
					return nil
				}
			}
		}
		log.Info().Int("queued", queued).Msg("finished-queueing-games")
		return nil
	})

	err = g.Wait()
	close(logChan)
	close(resultChan)
	writers.Wait()
	log.Info().Int("games", len(results)).Msg("all-games-finished")
	if err == nil {
		err = ctx.Err()
	}
	return results, err
}

func writeLines(w io.Writer, header string, lines <-chan string) {
	if w == nil {
		for range lines {
		}
		return
	}
	if _, err := io.WriteString(w, header); err != nil {
		log.Err(err).Msg("writing-log-header")
	}
	for line := range lines {
		if _, err := io.WriteString(w, line); err != nil {
			log.Err(err).Msg("writing-log-line")
		}
	}
}

// PlayTournamentToFiles is PlayTournament with the move log written to
// movePath and the game log to movePath with a .games suffix added
// before the extension.
func PlayTournamentToFiles(ctx context.Context, cfg *config.Config, opts TournamentOptions,
	movePath string) ([]GameResult, string, error) {

	moveFile, err := os.Create(movePath)
	if err != nil {
		return nil, "", err
	}
	defer moveFile.Close()
	gamePath := GameLogPath(movePath)
	gameFile, err := os.Create(gamePath)
	if err != nil {
		return nil, "", err
	}
	defer gameFile.Close()
	opts.MoveLog = moveFile
	opts.GameLog = gameFile
	res, err := PlayTournament(ctx, cfg, opts)
	return res, gamePath, err
}
