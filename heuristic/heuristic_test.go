package heuristic

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/sumito-ai/sumito/board"
)

func TestCenterControlIsSymmetricAtStart(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	black, err := CenterControl{}.Evaluate(b, 40, board.Black)
	is.NoErr(err)
	white, err := CenterControl{}.Evaluate(b, 40, board.White)
	is.NoErr(err)
	is.Equal(black, 1.0)
	is.Equal(white, 1.0)
}

func TestCenterControlPrefersCentre(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.NoErr(b.Set(board.NewCoord(5, 4), board.Black))
	is.NoErr(b.Set(board.NewCoord(1, 1), board.White))
	v, err := CenterControl{}.Evaluate(b, 10, board.Black)
	is.NoErr(err)
	// Black is one step out, White four.
	is.Equal(v, 4.0)

	// lone marble on the center cell.
	c := board.New()
	is.NoErr(c.Set(board.Center, board.Black))
	is.NoErr(c.Set(board.NewCoord(1, 1), board.White))
	v, err = CenterControl{}.Evaluate(c, 10, board.Black)
	is.NoErr(err)
	is.Equal(v, 4.0)
}

func TestMaterialCountsLosses(t *testing.T) {
	b := board.FromLayout(board.Standard)
	m := DefaultMaterial()
	even, err := m.Evaluate(b, 40, board.Black)
	assert.NoError(t, err)

	b.Remove(board.NewCoord(9, 5))
	up, err := m.Evaluate(b, 40, board.Black)
	assert.NoError(t, err)
	down, err := m.Evaluate(b, 40, board.White)
	assert.NoError(t, err)
	assert.Greater(t, up, even)
	assert.Less(t, down, up)
}

func TestWeightedPrefersMaterial(t *testing.T) {
	is := is.New(t)
	w := DefaultWeighted()
	b := board.FromLayout(board.Standard)
	even, err := w.Evaluate(b, 40, board.Black)
	is.NoErr(err)
	is.True(even > -1e-9 && even < 1e-9)

	b.Remove(board.NewCoord(9, 5))
	ahead, err := w.Evaluate(b, 40, board.Black)
	is.NoErr(err)
	is.True(ahead > even)
}

func TestWeightedProfile(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "w.yaml")
	is.NoErr(os.WriteFile(path, []byte("score: 2\ncentre: 0.25\n"), 0o644))
	w, err := LoadWeightedProfile(path)
	is.NoErr(err)
	is.Equal(w, Weighted{Score: 2, Centre: 0.25})

	e, err := ByName("weighted:" + path)
	is.NoErr(err)
	is.Equal(e.Name(), WeightedName)

	is.NoErr(os.WriteFile(path, []byte("score: [\n"), 0o644))
	_, err = LoadWeightedProfile(path)
	is.True(err != nil)
}

func TestCohesion(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.NoErr(b.Set(board.NewCoord(5, 5), board.Black))
	is.NoErr(b.Set(board.NewCoord(5, 6), board.Black))
	is.Equal(cohesion(b, board.Black), 2.0/12.0)
	is.Equal(cohesion(b, board.White), 0.0)
}

const luaScript = `
function evaluate(cells, turns, player)
  local score = 0
  for c, owner in pairs(cells) do
    if owner == player then
      score = score - distance(c, center)
    else
      score = score + distance(c, center)
    end
  end
  return score + count(cells, player) - turns * 0
end
`

func TestLuaEvaluator(t *testing.T) {
	is := is.New(t)
	e, err := NewLuaEvaluator("test", luaScript)
	is.NoErr(err)
	defer e.Close()
	is.Equal(e.Name(), "lua:test")

	b := board.New()
	is.NoErr(b.Set(board.NewCoord(5, 4), board.Black))
	is.NoErr(b.Set(board.NewCoord(1, 1), board.White))
	v, err := e.Evaluate(b, 3, board.Black)
	is.NoErr(err)
	// -1 + 4 + one black marble.
	is.Equal(v, 4.0)
}

var _ io.Closer = (*LuaEvaluator)(nil)

func TestLuaEvaluatorClose(t *testing.T) {
	is := is.New(t)
	e, err := NewLuaEvaluator("test", luaScript)
	is.NoErr(err)
	var ev Evaluator = e
	c, ok := ev.(io.Closer)
	is.True(ok)
	is.True(!e.Closed())
	is.NoErr(c.Close())
	is.True(e.Closed())
	// closing twice is fine.
	is.NoErr(c.Close())
}

func TestLuaErrors(t *testing.T) {
	is := is.New(t)
	_, err := NewLuaEvaluator("bad", "this is not lua")
	is.True(err != nil)
	_, err = NewLuaEvaluator("nofn", "x = 1")
	is.True(err != nil)

	e, err := NewLuaEvaluator("str", `function evaluate() return "high" end`)
	is.NoErr(err)
	defer e.Close()
	_, err = e.Evaluate(board.FromLayout(board.Standard), 1, board.Black)
	is.True(err != nil)

	boom, err := NewLuaEvaluator("boom", `function evaluate() error("boom") end`)
	is.NoErr(err)
	defer boom.Close()
	_, err = boom.Evaluate(board.FromLayout(board.Standard), 1, board.Black)
	is.True(err != nil)
}

func TestByName(t *testing.T) {
	is := is.New(t)
	for _, n := range Names() {
		e, err := ByName(n)
		is.NoErr(err)
		is.Equal(e.Name(), n)
	}
	_, err := ByName("nope")
	is.True(errors.Is(err, ErrUnknownHeuristic))
	_, err = ByName("lua")
	is.True(errors.Is(err, ErrUnknownHeuristic))
}
