// Package search picks a move for a position within a wall-clock budget
// using iterative-deepening alpha-beta.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/movegen"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/ttable"
	"github.com/sumito-ai/sumito/zobrist"
)

const (
	DefaultRecklessFraction = 0.05
	DefaultCarefulMargin    = 50 * time.Millisecond
)

// ErrNoMoves is returned for a position where the mover has no legal
// move. Callers should check for game over first.
var ErrNoMoves = errors.New("no legal moves")

type Request struct {
	Board  *board.Board
	Player board.Player
	// TimeLimit is the wall-clock budget for the whole search.
	TimeLimit time.Duration
	// TurnsRemaining is the mover's own remaining turn count.
	TurnsRemaining int
	IsFirstMove    bool
}

type Result struct {
	Move  move.Move
	Score float64
	// Depth is the deepest completed iteration; 0 when no iteration
	// finished and Move is the first generated move.
	Depth    int
	Elapsed  time.Duration
	FromBook bool
	PV       []move.Move
	Nodes    uint64
}

// Solver is not safe for concurrent searches. The cache it holds is
// written only by the goroutine running the current iteration.
type Solver struct {
	zobrist *zobrist.Zobrist
	cache   *ttable.TranspositionTable
	book    *openingbook.Book
	eval    heuristic.Evaluator

	maxDepth         int
	recklessFraction float64
	carefulMargin    time.Duration

	root  board.Player
	hints PVLine
	nodes atomic.Uint64
}

// NewSolver builds a solver. A nil cache gets a fresh unbounded one and
// a nil book disables book lookups.
func NewSolver(z *zobrist.Zobrist, cache *ttable.TranspositionTable,
	book *openingbook.Book, eval heuristic.Evaluator) *Solver {

	if cache == nil {
		cache = ttable.New()
	}
	return &Solver{
		zobrist:          z,
		cache:            cache,
		book:             book,
		eval:             eval,
		recklessFraction: DefaultRecklessFraction,
		carefulMargin:    DefaultCarefulMargin,
	}
}

// SetMaxDepth caps iterative deepening. 0 means no cap beyond the turn
// bound.
func (s *Solver) SetMaxDepth(d int) { s.maxDepth = d }

// SetRecklessFraction sets the share of the budget during which
// iterations run to completion with no deadline.
func (s *Solver) SetRecklessFraction(f float64) { s.recklessFraction = f }

// SetCarefulMargin sets how long before the budget a careful iteration
// is cancelled.
func (s *Solver) SetCarefulMargin(d time.Duration) { s.carefulMargin = d }

func (s *Solver) SetEvaluator(e heuristic.Evaluator) { s.eval = e }

func (s *Solver) Evaluator() heuristic.Evaluator { return s.eval }

func (s *Solver) Cache() *ttable.TranspositionTable { return s.cache }

// PlyBound is the number of plies left in the game: both players
// alternate, each with a personal turn counter, and Black moves first.
func PlyBound(turnsRemaining int, p board.Player) int {
	return turnsRemaining*2 - int(p)
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Search returns the best move found within the time limit. It always
// returns a legal move unless the mover has none. Evaluator errors abort
// the search.
func (s *Solver) Search(ctx context.Context, req Request) (Result, error) {
	tstart := time.Now()
	key := s.zobrist.Hash(req.Board)

	if req.IsFirstMove && req.Player == board.Black && s.book != nil {
		m, err := s.book.Pick(key)
		if err == nil {
			log.Debug().Str("move", m.String()).Msg("opening-book-move")
			return Result{Move: m, FromBook: true, Elapsed: time.Since(tstart)}, nil
		}
		if !errors.Is(err, openingbook.ErrNotInBook) {
			return Result{}, err
		}
	}

	children := movegen.GenChildren(req.Board, req.Player)
	if len(children) == 0 {
		return Result{}, ErrNoMoves
	}

	s.root = req.Player
	s.hints = PVLine{}
	s.nodes.Store(0)
	best := Result{Move: children[0].Move}

	bound := PlyBound(req.TurnsRemaining, req.Player)
	maxDepth := bound
	if s.maxDepth > 0 && s.maxDepth < maxDepth {
		maxDepth = s.maxDepth
	}
	reckless := time.Duration(s.recklessFraction * float64(req.TimeLimit))

	for depth := 1; depth <= maxDepth; depth++ {
		elapsed := time.Since(tstart)
		if elapsed >= req.TimeLimit || ctx.Err() != nil {
			break
		}
		log.Debug().Int("depth", depth).Dur("elapsed", elapsed).Msg("deepening-iteratively")

		var pv PVLine
		var val float64
		var err error
		if elapsed < reckless {
			val, err = s.iterate(ctx, req.Board, key, depth, bound, &pv)
		} else {
			remaining := req.TimeLimit - elapsed - s.carefulMargin
			if remaining <= 0 {
				break
			}
			val, err = s.iterateCarefully(ctx, req.Board, key, depth, bound, remaining, &pv)
		}
		if err != nil {
			if isCancellation(err) {
				log.Debug().Int("depth", depth).Msg("iteration-cancelled")
				break
			}
			return Result{}, err
		}

		best.Move = pv.Moves[0]
		best.Score = val
		best.Depth = depth
		best.PV = append(best.PV[:0], pv.Moves...)
		s.hints = pv.Copy()
		log.Debug().Float64("score", val).Int("depth", depth).
			Uint64("nodes", s.nodes.Load()).Str("pv", pv.String()).Msg("best-val")
	}

	best.Elapsed = time.Since(tstart)
	best.Nodes = s.nodes.Load()
	st := s.cache.Stats()
	log.Info().
		Str("move", best.Move.String()).
		Int("depth", best.Depth).
		Uint64("nodes", best.Nodes).
		Int("ttable-entries", st.Entries).
		Uint64("ttable-lookups", st.Lookups).
		Uint64("ttable-hits", st.Hits).
		Float64("time-elapsed-sec", best.Elapsed.Seconds()).
		Msg("search-returning")
	return best, nil
}

// SearchDepth runs a single alpha-beta pass of exactly depth plies with
// no move-ordering hints and no deadline.
func (s *Solver) SearchDepth(ctx context.Context, b *board.Board, p board.Player,
	turnsRemaining, depth int) (Result, error) {

	if !movegen.HasMoves(b, p) {
		return Result{}, ErrNoMoves
	}
	tstart := time.Now()
	s.root = p
	s.hints = PVLine{}
	s.nodes.Store(0)
	var pv PVLine
	val, err := s.iterate(ctx, b, s.zobrist.Hash(b), depth, PlyBound(turnsRemaining, p), &pv)
	if err != nil {
		return Result{}, err
	}
	return Result{Move: pv.Moves[0], Score: val, Depth: depth, PV: pv.Moves,
		Nodes: s.nodes.Load(), Elapsed: time.Since(tstart)}, nil
}

func (s *Solver) iterate(ctx context.Context, b *board.Board, key uint64,
	depth, bound int, pv *PVLine) (float64, error) {

	return s.alphabeta(ctx, b, key, s.root, depth, 0, bound,
		math.Inf(-1), math.Inf(1), pv)
}

// iterateCarefully runs one iteration on a worker goroutine and cancels
// it once the remaining time is used up. A cancelled iteration returns a
// context error and leaves pv untouched for the caller to discard.
func (s *Solver) iterateCarefully(ctx context.Context, b *board.Board, key uint64,
	depth, bound int, remaining time.Duration, pv *PVLine) (float64, error) {

	wctx, cancel := context.WithTimeout(ctx, remaining)
	defer cancel()

	g := &errgroup.Group{}
	done := make(chan struct{})
	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		var lastNodes uint64
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				nodes := s.nodes.Load()
				log.Debug().Uint64("nps", nodes-lastNodes).Msg("nodes-per-second")
				lastNodes = nodes
			}
		}
	})

	var val float64
	g.Go(func() error {
		defer close(done)
		var err error
		val, err = s.iterate(wctx, b, key, depth, bound, pv)
		return err
	})
	err := g.Wait()
	return val, err
}

func (s *Solver) isLeaf(b *board.Board, depth, pliesLeft int) bool {
	return depth == 0 || pliesLeft <= 0 ||
		b.Count(board.Black) <= board.LosingMarbles ||
		b.Count(board.White) <= board.LosingMarbles
}

// leafValue scores b for the root player through the cache. Cached
// values are reused whatever pliesLeft they were computed with.
func (s *Solver) leafValue(b *board.Board, key uint64, pliesLeft int) (float64, error) {
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	v, err := s.eval.Evaluate(b, pliesLeft, s.root)
	if err != nil {
		return 0, fmt.Errorf("evaluating %s: %w", s.eval.Name(), err)
	}
	s.cache.Put(key, v)
	return v, nil
}

// orderByHint moves the previous iteration's choice at this ply to the
// front, keeping the rest in generation order.
func (s *Solver) orderByHint(children []movegen.Child, ply int) {
	hint, ok := s.hints.Hint(ply)
	if !ok {
		return
	}
	for i := range children {
		if children[i].Move == hint {
			if i > 0 {
				c := children[i]
				copy(children[1:i+1], children[:i])
				children[0] = c
			}
			return
		}
	}
}

// alphabeta is minimax from the root player's point of view. The root
// node is always expanded.
func (s *Solver) alphabeta(ctx context.Context, b *board.Board, key uint64, onTurn board.Player,
	depth, ply, pliesLeft int, α, β float64, pv *PVLine) (float64, error) {

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if ply > 0 && s.isLeaf(b, depth, pliesLeft) {
		return s.leafValue(b, key, pliesLeft)
	}
	children := movegen.GenChildren(b, onTurn)
	if len(children) == 0 {
		return s.leafValue(b, key, pliesLeft)
	}
	s.orderByHint(children, ply)

	maximizing := onTurn == s.root
	bestValue := math.Inf(1)
	if maximizing {
		bestValue = math.Inf(-1)
	}
	var childPV PVLine
	for i := range children {
		child := &children[i]
		s.nodes.Add(1)
		childKey := s.zobrist.AddMove(key, child.Move)
		value, err := s.alphabeta(ctx, &child.Board, childKey, onTurn.Opponent(),
			depth-1, ply+1, pliesLeft-1, α, β, &childPV)
		if err != nil {
			return 0, err
		}
		if maximizing {
			if value > bestValue || i == 0 {
				bestValue = value
				pv.Update(child.Move, childPV, value)
			}
			α = math.Max(α, bestValue)
			if bestValue >= β {
				break
			}
		} else {
			if value < bestValue || i == 0 {
				bestValue = value
				pv.Update(child.Move, childPV, value)
			}
			β = math.Min(β, bestValue)
			if bestValue <= α {
				break
			}
		}
		childPV.Clear()
	}
	return bestValue, nil
}
