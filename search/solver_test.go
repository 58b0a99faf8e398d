package search

import (
	"context"
	"errors"
	"math"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/movegen"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/testhelpers"
	"github.com/sumito-ai/sumito/zobrist"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

// minimax is the unpruned reference search.
func minimax(t *testing.T, e heuristic.Evaluator, b *board.Board, onTurn, root board.Player,
	depth, ply, pliesLeft int) float64 {

	leaf := depth == 0 || pliesLeft <= 0
	if ply > 0 && (b.Count(board.Black) <= board.LosingMarbles || b.Count(board.White) <= board.LosingMarbles) {
		leaf = true
	}
	var children []movegen.Child
	if !leaf {
		children = movegen.GenChildren(b, onTurn)
	}
	if len(children) == 0 {
		v, err := e.Evaluate(b, pliesLeft, root)
		if err != nil {
			t.Fatal(err)
		}
		return v
	}
	best := math.Inf(-1)
	if onTurn != root {
		best = math.Inf(1)
	}
	for i := range children {
		v := minimax(t, e, &children[i].Board, onTurn.Opponent(), root, depth-1, ply+1, pliesLeft-1)
		if onTurn == root {
			best = math.Max(best, v)
		} else {
			best = math.Min(best, v)
		}
	}
	return best
}

// minimaxRoot returns the first move reaching the best value.
func minimaxRoot(t *testing.T, e heuristic.Evaluator, b *board.Board, p board.Player,
	depth, pliesLeft int) (move.Move, float64) {

	var bestMove move.Move
	best := math.Inf(-1)
	for _, c := range movegen.GenChildren(b, p) {
		v := minimax(t, e, &c.Board, p.Opponent(), p, depth-1, 1, pliesLeft-1)
		if v > best || bestMove.IsZero() {
			best = v
			bestMove = c.Move
		}
	}
	return bestMove, best
}

func randomPosition(plies int) (*board.Board, board.Player) {
	var seed [32]byte
	copy(seed[:], "positions-for-alphabeta-checks!!")
	return testhelpers.RandomPosition(board.BelgianDaisy, plies, seed)
}

func newSolver(e heuristic.Evaluator) *Solver {
	return NewSolver(zobrist.New(), nil, nil, e)
}

func TestAlphaBetaMatchesMinimax(t *testing.T) {
	is := is.New(t)
	e := heuristic.DefaultWeighted()
	std := board.FromLayout(board.Standard)
	mid, midPlayer := randomPosition(12)

	cases := []struct {
		b     *board.Board
		p     board.Player
		depth int
	}{
		{std, board.Black, 1},
		{std, board.Black, 2},
		{std, board.Black, 3},
		{mid, midPlayer, 1},
		{mid, midPlayer, 2},
	}
	for _, tc := range cases {
		wantMove, wantScore := minimaxRoot(t, e, tc.b, tc.p, tc.depth, PlyBound(20, tc.p))
		res, err := newSolver(e).SearchDepth(context.Background(), tc.b, tc.p, 20, tc.depth)
		is.NoErr(err)
		is.Equal(res.Move, wantMove)
		is.Equal(res.Score, wantScore)
		is.Equal(res.PV[0], res.Move)
	}
}

func TestPruningVisitsFewerNodes(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	s := newSolver(heuristic.DefaultWeighted())
	res, err := s.SearchDepth(context.Background(), b, board.Black, 20, 2)
	is.NoErr(err)

	full := 0
	for _, c := range movegen.GenChildren(b, board.Black) {
		full += 1 + len(movegen.GenAll(&c.Board, board.White))
	}
	is.True(res.Nodes < uint64(full))
	is.True(res.Nodes > 44)
}

func TestDepthOneScenario(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	s := newSolver(heuristic.CenterControl{})
	s.SetMaxDepth(1)
	res, err := s.Search(context.Background(), Request{
		Board: b, Player: board.Black, TimeLimit: 10 * time.Second, TurnsRemaining: 40,
	})
	is.NoErr(err)
	is.Equal(res.Depth, 1)
	is.True(!res.FromBook)
	is.Equal(res.Move.Player(), board.Black)
	is.Equal(res.Move.Action(), move.MoveTypeInline)
	is.Equal(res.Move.GroupSize(), 3)
	is.True(movegen.IsLegal(b, res.Move))
	for _, c := range res.Move.Marbles() {
		is.Equal(b.At(c), board.Black)
	}
	is.Equal(res.Move.String(), "A1B2C3-B2C3D4")
}

func TestOpeningBook(t *testing.T) {
	is := is.New(t)
	z := zobrist.New()
	bk, err := openingbook.Default(z)
	is.NoErr(err)
	var calls atomic.Int64
	e := heuristic.EvaluatorFunc(func(b *board.Board, turns int, p board.Player) (float64, error) {
		calls.Add(1)
		return 0, nil
	})
	s := NewSolver(z, nil, bk, e)
	b := board.FromLayout(board.Standard)
	cands := bk.Candidates(z.Hash(b))
	for i := 0; i < 50; i++ {
		res, err := s.Search(context.Background(), Request{
			Board: b, Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 40, IsFirstMove: true,
		})
		is.NoErr(err)
		is.True(res.FromBook)
		is.Equal(res.Nodes, uint64(0))
		is.True(slicesContain(cands, res.Move))
	}
	is.Equal(calls.Load(), int64(0))

	// White never takes a book move.
	s.SetMaxDepth(1)
	res, err := s.Search(context.Background(), Request{
		Board: b, Player: board.White, TimeLimit: time.Second, TurnsRemaining: 40, IsFirstMove: true,
	})
	is.NoErr(err)
	is.True(!res.FromBook)
	is.True(calls.Load() > 0)
}

func slicesContain(ms []move.Move, m move.Move) bool {
	for _, c := range ms {
		if c == m {
			return true
		}
	}
	return false
}

func TestMonotonicImprovement(t *testing.T) {
	is := is.New(t)
	e := heuristic.DefaultMaterial()
	b, p := randomPosition(8)
	bound := PlyBound(20, p)

	shallow := newSolver(e)
	shallow.SetMaxDepth(1)
	r1, err := shallow.Search(context.Background(), Request{Board: b, Player: p, TimeLimit: time.Minute, TurnsRemaining: 20})
	is.NoErr(err)

	deep := newSolver(e)
	deep.SetMaxDepth(2)
	r2, err := deep.Search(context.Background(), Request{Board: b, Player: p, TimeLimit: time.Minute, TurnsRemaining: 20})
	is.NoErr(err)
	is.Equal(r2.Depth, 2)

	rank := func(m move.Move) float64 {
		return minimax(t, e, movegen.Result(b, m), p.Opponent(), p, 1, 1, bound-1)
	}
	is.True(rank(r2.Move) >= rank(r1.Move))
}

func TestTurnBoundLimitsDepth(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	is.Equal(PlyBound(1, board.Black), 2)
	is.Equal(PlyBound(1, board.White), 1)

	s := newSolver(heuristic.CenterControl{})
	res, err := s.Search(context.Background(), Request{Board: b, Player: board.White, TimeLimit: time.Minute, TurnsRemaining: 1})
	is.NoErr(err)
	is.Equal(res.Depth, 1)

	res, err = s.Search(context.Background(), Request{Board: b, Player: board.Black, TimeLimit: time.Minute, TurnsRemaining: 1})
	is.NoErr(err)
	is.Equal(res.Depth, 2)

	// no turns left: nothing to search, but still a legal move.
	res, err = s.Search(context.Background(), Request{Board: b, Player: board.Black, TimeLimit: time.Minute, TurnsRemaining: 0})
	is.NoErr(err)
	is.Equal(res.Depth, 0)
	is.True(movegen.IsLegal(b, res.Move))
}

// slowAfter answers instantly for the first n calls and then sleeps.
func slowAfter(n int64, pause time.Duration, calls *atomic.Int64) heuristic.Evaluator {
	return heuristic.EvaluatorFunc(func(b *board.Board, turns int, p board.Player) (float64, error) {
		if calls.Add(1) > n {
			time.Sleep(pause)
		}
		return heuristic.CenterControl{}.Evaluate(b, turns, p)
	})
}

func TestCancelledFirstIterationStillReturnsLegalMove(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	var calls atomic.Int64
	s := newSolver(slowAfter(0, 5*time.Millisecond, &calls))
	s.SetRecklessFraction(0)
	s.SetCarefulMargin(5 * time.Millisecond)

	res, err := s.Search(context.Background(), Request{
		Board: b, Player: board.Black, TimeLimit: 40 * time.Millisecond, TurnsRemaining: 40,
	})
	is.NoErr(err)
	is.Equal(res.Depth, 0)
	is.True(!res.Move.IsZero())
	is.True(movegen.IsLegal(b, res.Move))
	is.Equal(res.Move, movegen.GenAll(b, board.Black)[0])
	// fewer than the 44 leaves of depth 1 were scored.
	is.True(calls.Load() < 44)

	// the worker has stopped evaluating.
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	is.Equal(calls.Load(), after)
}

func TestCancelledIterationDoesNotOverwriteBest(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	var calls atomic.Int64
	// depth 1 needs 44 evaluations; everything later is slow.
	s := newSolver(slowAfter(44, 20*time.Millisecond, &calls))
	s.SetRecklessFraction(0)
	s.SetCarefulMargin(5 * time.Millisecond)

	res, err := s.Search(context.Background(), Request{
		Board: b, Player: board.Black, TimeLimit: 150 * time.Millisecond, TurnsRemaining: 40,
	})
	is.NoErr(err)
	is.Equal(res.Depth, 1)

	ref, err := newSolver(heuristic.CenterControl{}).SearchDepth(context.Background(), b, board.Black, 40, 1)
	is.NoErr(err)
	is.Equal(res.Move, ref.Move)
	is.Equal(res.Score, ref.Score)
}

func TestRecklessIterationRunsPastTinyBudget(t *testing.T) {
	b := board.FromLayout(board.Standard)
	var calls atomic.Int64
	s := newSolver(slowAfter(0, time.Millisecond, &calls))
	res, err := s.Search(context.Background(), Request{
		Board: b, Player: board.Black, TimeLimit: time.Millisecond, TurnsRemaining: 40,
	})
	assert.NoError(t, err)
	assert.False(t, res.Move.IsZero())
	assert.True(t, movegen.IsLegal(b, res.Move))
	assert.LessOrEqual(t, res.Depth, 1)
}

func TestEvaluatorErrorPropagates(t *testing.T) {
	is := is.New(t)
	boom := errors.New("boom")
	e := heuristic.EvaluatorFunc(func(*board.Board, int, board.Player) (float64, error) {
		return 0, boom
	})
	s := newSolver(e)
	_, err := s.Search(context.Background(), Request{
		Board: board.FromLayout(board.Standard), Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 40,
	})
	is.True(errors.Is(err, boom))

	s.SetRecklessFraction(0)
	_, err = s.Search(context.Background(), Request{
		Board: board.FromLayout(board.Standard), Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 40,
	})
	is.True(errors.Is(err, boom))
}

func TestNoMoves(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.NoErr(b.Set(board.Center, board.White))
	_, err := newSolver(heuristic.CenterControl{}).Search(context.Background(), Request{
		Board: b, Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 5,
	})
	is.True(errors.Is(err, ErrNoMoves))
}

func TestCacheFilledAtLeaves(t *testing.T) {
	is := is.New(t)
	s := newSolver(heuristic.CenterControl{})
	s.SetMaxDepth(1)
	_, err := s.Search(context.Background(), Request{
		Board: board.FromLayout(board.Standard), Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 40,
	})
	is.NoErr(err)
	is.Equal(s.Cache().Len(), 44)

	// a second search is answered from the cache.
	_, err = s.Search(context.Background(), Request{
		Board: board.FromLayout(board.Standard), Player: board.Black, TimeLimit: time.Second, TurnsRemaining: 40,
	})
	is.NoErr(err)
	is.Equal(s.Cache().Len(), 44)
	is.True(s.Cache().Stats().Hits >= 44)
}

func TestOrderByHint(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	children := movegen.GenChildren(b, board.Black)
	s := newSolver(heuristic.CenterControl{})
	s.hints = PVLine{Moves: []move.Move{children[7].Move}}
	want := children[7].Move
	first := children[0].Move
	s.orderByHint(children, 0)
	is.Equal(children[0].Move, want)
	is.Equal(children[1].Move, first)
	is.Equal(len(children), 44)

	// no hint for deeper plies.
	before := children[0].Move
	s.orderByHint(children, 1)
	is.Equal(children[0].Move, before)
}
