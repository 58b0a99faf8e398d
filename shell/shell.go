// Package shell is an interactive console for playing and analyzing
// games against the search engine.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/bot"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/game"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/search"
	"github.com/sumito-ai/sumito/zobrist"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("please start a game first with the `new` command")
	errQuit              = errors.New("quit")
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type shellcmd struct {
	cmd     string
	args    []string
	options CmdOptions
}

type CmdOptions map[string]string

func (c CmdOptions) String(key string) string {
	return c[key]
}

func (c CmdOptions) IntDefault(key string, defaultI int) (int, error) {
	v, ok := c[key]
	if !ok {
		return defaultI, nil
	}
	return strconv.Atoi(v)
}

// extractFields splits a line into a command, its positional arguments
// and its -key value options. Quoting follows shell rules.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: CmdOptions{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 {
			if i+1 >= len(fields) {
				return nil, errWrongOptionSyntax
			}
			cmd.options[f[1:]] = fields[i+1]
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

// ShellOptions are the settings changed with `set`.
type ShellOptions struct {
	Heuristic string
	Layout    board.Layout
	TurnLimit int
	TimeLimit time.Duration
	MaxDepth  int
}

func NewShellOptions(cfg *config.Config) *ShellOptions {
	layout, err := board.LayoutByName(cfg.GetString(config.ConfigDefaultLayout))
	if err != nil {
		layout = board.Standard
	}
	return &ShellOptions{
		Heuristic: cfg.GetString(config.ConfigDefaultHeuristic),
		Layout:    layout,
		TurnLimit: cfg.GetInt(config.ConfigTurnLimit),
		TimeLimit: time.Duration(cfg.GetInt(config.ConfigSearchTimeLimitMs)) * time.Millisecond,
	}
}

var optionKeys = []string{"heuristic", "layout", "turns", "time", "depth"}

func (opts *ShellOptions) Show(key string) (bool, string) {
	switch key {
	case "heuristic":
		return true, opts.Heuristic
	case "layout":
		return true, opts.Layout.Name
	case "turns":
		return true, strconv.Itoa(opts.TurnLimit)
	case "time":
		return true, opts.TimeLimit.String()
	case "depth":
		if opts.MaxDepth == 0 {
			return true, "unlimited"
		}
		return true, strconv.Itoa(opts.MaxDepth)
	default:
		return false, "No such option: " + key
	}
}

func (opts *ShellOptions) ToDisplayText() string {
	out := strings.Builder{}
	out.WriteString("Settings:\n")
	for _, key := range optionKeys {
		_, val := opts.Show(key)
		out.WriteString("  " + key + ": ")
		out.WriteString(val + "\n")
	}
	return out.String()
}

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config

	options *ShellOptions
	zobrist *zobrist.Zobrist
	book    *openingbook.Book
	game    *game.Game
	// one solver per searching color and heuristic, since cached leaf
	// scores are from the searcher's point of view.
	solvers     map[string]*search.Solver
	curGenPlays []move.Move

	nc     *nats.Conn
	client *bot.Client

	autoplayCancel context.CancelFunc
	autoplayDone   chan struct{}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// newController builds a controller writing to out, without a terminal.
func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	z := zobrist.New()
	book, err := openingbook.Load(z, cfg.GetString(config.ConfigOpeningBookPath))
	if err != nil {
		return nil, err
	}
	return &ShellController{
		out:     out,
		config:  cfg,
		options: NewShellOptions(cfg),
		zobrist: z,
		book:    book,
		solvers: make(map[string]*search.Solver),
	}, nil
}

func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc, err := newController(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31msumito>\033[0m ",
		HistoryFile:     "/tmp/sumito-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.l = l
	sc.out = l.Stderr()
	return sc, nil
}

func (sc *ShellController) handle(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "new":
		return sc.newGame(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "gen":
		return sc.generate(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "ai":
		return sc.aiplay(ctx, cmd)
	case "hint":
		return sc.hint(ctx, cmd)
	case "bot":
		return sc.botplay(ctx, cmd)
	case "autoplay":
		return sc.autoplay(ctx, cmd)
	case "analyze":
		return sc.analyze(cmd)
	case "cache":
		return sc.cache(ctx, cmd)
	case "set":
		return sc.set(cmd)
	case "script":
		return sc.script(ctx, cmd)
	case "help":
		return sc.help(cmd)
	case "exit", "bye":
		return nil, errQuit
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

// Close stops background work and releases the bot connection and any
// evaluators holding resources.
func (sc *ShellController) Close() {
	sc.stopAutoplay()
	for _, s := range sc.solvers {
		if c, ok := s.Evaluator().(io.Closer); ok {
			c.Close()
		}
	}
	if sc.nc != nil {
		sc.nc.Close()
	}
	if sc.l != nil {
		sc.l.Close()
	}
}

func (sc *ShellController) Loop(ctx context.Context, sig chan os.Signal) {
	defer sc.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.handle(ctx, line)
		if errors.Is(err, errQuit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
