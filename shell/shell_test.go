package shell

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/bot"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/testhelpers"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testController(t *testing.T) (*ShellController, *bytes.Buffer) {
	cfg := testhelpers.Config()
	var buf bytes.Buffer
	sc, err := newController(cfg, &buf)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sc.Close)
	return sc, &buf
}

func run(t *testing.T, sc *ShellController, line string) string {
	t.Helper()
	r, err := sc.handle(context.Background(), line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return r.message
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -file /path/to/log.txt",
			&shellcmd{"autoplay", nil, CmdOptions{"file": "/path/to/log.txt"}},
			nil},
		{"autoplay stop",
			&shellcmd{"autoplay", []string{"stop"}, CmdOptions{}},
			nil},
		{"autoplay center material -file 'my log.csv' ",
			&shellcmd{"autoplay",
				[]string{"center", "material"},
				CmdOptions{"file": "my log.csv"}},
			nil,
		},
		{"autoplay center material -file",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestNeedsGame(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	for _, line := range []string{"show", "gen", "play A1B2C3-B2C3D4", "undo", "ai", "hint"} {
		_, err := sc.handle(context.Background(), line)
		is.Equal(err, errNoGame)
	}
	_, err := sc.handle(context.Background(), "frobnicate")
	is.True(err != nil)
}

func TestPlaySession(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)

	out := run(t, sc, "new german-daisy -turns 5")
	is.True(strings.Contains(out, "layout: german-daisy"))
	is.Equal(sc.game.TurnLimit(), 5)

	out = run(t, sc, "gen 3")
	is.True(strings.HasPrefix(out, "80 moves, 0 pushes, 0 captures"))
	is.Equal(len(strings.Split(strings.TrimSpace(out), "\n")), 4)

	first := sc.curGenPlays[0]
	run(t, sc, "play #1")
	is.Equal(sc.game.MoveList(), first.String())
	is.Equal(sc.game.PlayerOnTurn(), board.White)

	_, err := sc.handle(context.Background(), "play #1")
	is.True(err != nil) // list is cleared after a move

	run(t, sc, "undo")
	is.Equal(sc.game.Turn(), 0)
	run(t, sc, "play B1C2D3-C2D3E4")
	is.Equal(run(t, sc, "show moves"), "B1C2D3-C2D3E4")

	_, err = sc.handle(context.Background(), "play B1C2D3-C2D3E4")
	is.True(err != nil) // white is on turn
}

func TestEnginePlays(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	run(t, sc, "new")

	out := run(t, sc, "ai -depth 1 -time 500")
	is.True(strings.Contains(out, "(opening book)"))
	is.Equal(sc.game.Turn(), 1)

	out = run(t, sc, "hint -depth 1 -time 500 -heuristic material")
	is.True(strings.Contains(out, "depth 1"))
	is.Equal(sc.game.Turn(), 1)

	run(t, sc, "ai -depth 1 -time 500")
	is.Equal(sc.game.Turn(), 2)

	out = run(t, sc, "cache stats")
	is.True(strings.Contains(out, "white-material"))
	is.True(strings.Contains(out, "white-weighted"))
}

func TestSet(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.True(strings.Contains(run(t, sc, "set"), "heuristic: weighted"))
	is.Equal(run(t, sc, "set time 250"), "set time to 250ms")
	is.Equal(run(t, sc, "set time 2s"), "set time to 2s")
	is.Equal(run(t, sc, "set layout belgian-daisy"), "set layout to belgian-daisy")
	is.Equal(run(t, sc, "set depth 0"), "set depth to unlimited")
	is.Equal(run(t, sc, "set heuristic center"), "set heuristic to center")

	_, err := sc.handle(context.Background(), "set heuristic nonsense")
	is.True(err != nil)
	_, err = sc.handle(context.Background(), "set turns 0")
	is.True(err != nil)

	out := run(t, sc, "new")
	is.True(strings.Contains(out, "layout: belgian-daisy"))
}

func TestCacheSaveLoad(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	path := filepath.Join(t.TempDir(), "cache.txt")
	run(t, sc, "new")
	run(t, sc, "play A1B2C3-B2C3D4")
	run(t, sc, "hint -depth 1")
	is.Equal(run(t, sc, "cache save "+path), "saved 1 caches")
	_, err := os.Stat(filepath.Join(filepath.Dir(path), "cache.white-weighted.txt"))
	is.NoErr(err)

	run(t, sc, "cache clear")
	is.Equal(sc.solvers["white-weighted"].Cache().Len(), 0)
	run(t, sc, "cache load "+path)
	is.True(sc.solvers["white-weighted"].Cache().Len() > 0)
}

func TestCloseReleasesLuaEvaluators(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	path := filepath.Join(t.TempDir(), "count.lua")
	is.NoErr(os.WriteFile(path,
		[]byte("function evaluate(cells, turns, player) return count(cells, player) end"), 0o644))
	name := "lua:" + path
	is.Equal(run(t, sc, "set heuristic "+name), "set heuristic to "+name)
	run(t, sc, "new")
	run(t, sc, "play A1B2C3-B2C3D4")
	run(t, sc, "hint -depth 1")

	s, ok := sc.solvers[bot.SolverKey(board.White, name)]
	is.True(ok)
	lua, ok := s.Evaluator().(*heuristic.LuaEvaluator)
	is.True(ok)
	is.True(!lua.Closed())
	sc.Close()
	is.True(lua.Closed())
}

func TestHelp(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	is.True(strings.Contains(run(t, sc, "help"), "autoplay"))
	is.True(strings.Contains(run(t, sc, "help notation"), "n0"))
	_, err := sc.handle(context.Background(), "help nothing")
	is.True(err != nil)
}

func TestScript(t *testing.T) {
	is := is.New(t)
	sc, _ := testController(t)
	path := filepath.Join(t.TempDir(), "play.lua")
	script := `
sumito_new("belgian-daisy -turns 2")
while not sumito_game_over() do
  local out, err = sumito_ai("-depth 1 -time 300")
  if err ~= nil then error(err) end
end
local _, err = sumito_play("A1B1-A2B2")
if err == nil then error("expected an error after game over") end
`
	is.NoErr(os.WriteFile(path, []byte(script), 0o644))
	run(t, sc, "script "+path)
	is.Equal(sc.game.Turn(), 4)
	is.True(sc.game.GameOver())
}

func TestRunCommands(t *testing.T) {
	is := is.New(t)
	cfg := testhelpers.Config()
	var out bytes.Buffer
	input := "# comment\nnew standard\nplay A1B2C3-B2C3D4\nshow moves\nexit\nshow\n"
	is.NoErr(RunCommands(context.Background(), cfg, strings.NewReader(input), &out))
	is.True(strings.Contains(out.String(), "A1B2C3-B2C3D4\n"))

	err := RunCommands(context.Background(), cfg, strings.NewReader("play A1B2C3-B2C3D4\n"), &out)
	is.True(err != nil)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter()
	complete := func(text string) []string {
		matches, _ := c.Do([]rune(text), len(text))
		var out []string
		for _, m := range matches {
			out = append(out, string(m))
		}
		return out
	}
	is.Equal(complete("hi"), []string{"nt"})
	is.Equal(complete("new ger"), []string{"man-daisy"})
	is.Equal(complete("set heuristic ma"), []string{"terial"})
	is.Equal(complete("autoplay -thr"), []string{"eads"})
	is.Equal(complete("ai -heuristic c"), []string{"enter"})
}
