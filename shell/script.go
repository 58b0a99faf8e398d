package shell

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("sumito_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// shellFunc exposes a shell command to Lua. The Lua function takes the
// rest of the command line and returns the command's output, or nil and
// the error text.
func shellFunc(ctx context.Context, command string) lua.LGFunction {
	return func(L *lua.LState) int {
		line := command
		if rest := L.OptString(1, ""); rest != "" {
			line += " " + rest
		}
		sc := getShell(L)
		r, err := sc.handle(ctx, line)
		if err != nil {
			log.Err(err).Str("command", line).Msg("error-executing-script-command")
			L.Push(lua.LNil)
			L.Push(lua.LString(err.Error()))
			return 2
		}
		out := ""
		if r != nil {
			out = r.message
		}
		L.Push(lua.LString(out))
		// return number of results pushed to stack.
		return 1
	}
}

var scriptCommands = []string{"new", "show", "gen", "play", "undo", "ai", "hint", "set", "cache", "analyze"}

func (sc *ShellController) script(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("need arguments for script")
	}
	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()

	lsc := L.NewUserData()
	lsc.Value = sc
	L.SetGlobal("sumito_shell", lsc)
	for _, c := range scriptCommands {
		L.SetGlobal("sumito_"+c, L.NewFunction(shellFunc(ctx, c)))
	}
	L.SetGlobal("sumito_game_over", L.NewFunction(func(L *lua.LState) int {
		sc := getShell(L)
		L.Push(lua.LBool(sc.game == nil || sc.game.GameOver()))
		return 1
	}))

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("script-error")
		return nil, err
	}
	return msg("script " + filepath + " finished"), nil
}
