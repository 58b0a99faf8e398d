// Package automatic plays computer-vs-computer games between
// heuristics and summarizes the results.
package automatic

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/bot"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/game"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/search"
	"github.com/sumito-ai/sumito/ttable"
	"github.com/sumito-ai/sumito/zobrist"
)

// Pairing is one game setup. Black moves first.
type Pairing struct {
	Black     string
	White     string
	Layout    board.Layout
	TurnLimit int
	TimeLimit time.Duration
}

func (p Pairing) String() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", p.Black, p.White, p.Layout.Name,
		p.TurnLimit, p.TimeLimit.Milliseconds())
}

// GameID derives a stable id from the pairing and round.
func GameID(p Pairing, round int) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(fmt.Sprintf("%s#%d", p, round)))
}

type GameResult struct {
	ID      string
	Pairing Pairing
	Round   int
	// Winner is board.Empty for a draw.
	Winner       board.Player
	BlackMarbles int
	WhiteMarbles int
	Turns        int
	// Depths holds the search depth reached on each searched move.
	Depths []int
}

// WinnerName is the winning heuristic, or "draw".
func (r GameResult) WinnerName() string {
	switch r.Winner {
	case board.Black:
		return r.Pairing.Black
	case board.White:
		return r.Pairing.White
	}
	return "draw"
}

// GameRunner plays games one at a time. It keeps a solver and cache
// per (heuristic, color) across games.
type GameRunner struct {
	config  *config.Config
	logchan chan string
	zobrist *zobrist.Zobrist
	book    *openingbook.Book

	maxDepth    int
	randomPlies int
	solvers     map[string]*search.Solver
	closers     []io.Closer
}

func NewGameRunner(logchan chan string, cfg *config.Config, z *zobrist.Zobrist,
	book *openingbook.Book) *GameRunner {

	return &GameRunner{
		config:  cfg,
		logchan: logchan,
		zobrist: z,
		book:    book,
		solvers: make(map[string]*search.Solver),
	}
}

// SetMaxDepth caps every solver's search depth.
func (r *GameRunner) SetMaxDepth(d int) { r.maxDepth = d }

// SetRandomPlies makes the first n plies of every game uniformly random,
// seeded per game.
func (r *GameRunner) SetRandomPlies(n int) { r.randomPlies = n }

func (r *GameRunner) solver(name string, p board.Player) (*search.Solver, error) {
	key := bot.SolverKey(p, name)
	if s, ok := r.solvers[key]; ok {
		return s, nil
	}
	eval, err := heuristic.ByName(name)
	if err != nil {
		return nil, err
	}
	if c, ok := eval.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}
	cache := ttable.New()
	cache.Reset(r.config.GetFloat64(config.ConfigTtableMemoryFraction))
	s := search.NewSolver(r.zobrist, cache, r.book, eval)
	s.SetMaxDepth(r.maxDepth)
	s.SetRecklessFraction(r.config.GetFloat64(config.ConfigRecklessFraction))
	s.SetCarefulMargin(time.Duration(r.config.GetInt(config.ConfigCarefulMarginMs)) * time.Millisecond)
	r.solvers[key] = s
	return s, nil
}

// Close releases evaluators that hold resources.
func (r *GameRunner) Close() {
	for _, c := range r.closers {
		c.Close()
	}
	r.closers = nil
}

// PlayGame plays p to the end. The seed fixes any random opening plies.
func (r *GameRunner) PlayGame(ctx context.Context, p Pairing, round int, seed [32]byte) (GameResult, error) {
	g, err := game.New(p.Layout, p.TurnLimit)
	if err != nil {
		return GameResult{}, err
	}
	res := GameResult{ID: GameID(p, round), Pairing: p, Round: round}
	names := [2]string{p.Black, p.White}
	rng := frand.NewCustom(seed[:], 1024, 12)

	for !g.GameOver() {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		onturn := g.PlayerOnTurn()
		if g.Turn() < r.randomPlies {
			moves := g.LegalMoves()
			m := moves[rng.Intn(len(moves))]
			if err := g.PlayMove(m); err != nil {
				return res, err
			}
			r.logTurn(res.ID, g, names[onturn], search.Result{Move: m})
			continue
		}
		s, err := r.solver(names[onturn], onturn)
		if err != nil {
			return res, err
		}
		sr, err := s.Search(ctx, search.Request{
			Board:          g.Board(),
			Player:         onturn,
			TimeLimit:      p.TimeLimit,
			TurnsRemaining: g.TurnsRemaining(onturn),
			IsFirstMove:    g.IsFirstMove(),
		})
		if err != nil {
			return res, fmt.Errorf("%s searching for %s: %w", names[onturn], onturn, err)
		}
		if err := g.PlayMove(sr.Move); err != nil {
			return res, err
		}
		if !sr.FromBook {
			res.Depths = append(res.Depths, sr.Depth)
		}
		r.logTurn(res.ID, g, names[onturn], sr)
	}

	winner, ok := g.Winner()
	if !ok {
		winner = board.Empty
	}
	res.Winner = winner
	res.BlackMarbles = g.Board().Count(board.Black)
	res.WhiteMarbles = g.Board().Count(board.White)
	res.Turns = g.Turn()
	log.Debug().Str("game-id", res.ID).Str("winner", res.WinnerName()).
		Int("black", res.BlackMarbles).Int("white", res.WhiteMarbles).Msg("game-over")
	return res, nil
}

// MoveLogHeader names the columns of the per-move log.
const MoveLogHeader = "gameID,turn,player,heuristic,move,depth,score,elapsed,book,black,white\n"

func (r *GameRunner) logTurn(id string, g *game.Game, name string, sr search.Result) {
	if r.logchan == nil {
		return
	}
	last, _ := g.LastMove()
	r.logchan <- strings.Join([]string{
		id,
		fmt.Sprint(g.Turn()),
		last.Player.String(),
		name,
		sr.Move.String(),
		fmt.Sprint(sr.Depth),
		fmt.Sprintf("%.4f", sr.Score),
		fmt.Sprintf("%.3f", sr.Elapsed.Seconds()),
		fmt.Sprint(sr.FromBook),
		fmt.Sprint(g.Board().Count(board.Black)),
		fmt.Sprint(g.Board().Count(board.White)),
	}, ",") + "\n"
}
