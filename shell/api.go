package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/sumito-ai/sumito/automatic"
	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/bot"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/game"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/movegen"
	"github.com/sumito-ai/sumito/search"
	"github.com/sumito-ai/sumito/ttable"
)

const defaultGenCount = 20

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	layout := sc.options.Layout
	if len(cmd.args) > 0 {
		var err error
		layout, err = board.LayoutByName(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	turns, err := cmd.options.IntDefault("turns", sc.options.TurnLimit)
	if err != nil {
		return nil, err
	}
	g, err := game.New(layout, turns)
	if err != nil {
		return nil, err
	}
	sc.game = g
	sc.curGenPlays = nil
	return msg(g.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) > 0 && cmd.args[0] == "moves" {
		return msg(sc.game.MoveList()), nil
	}
	return msg(sc.game.ToDisplayText()), nil
}

func moveTableRow(idx int, m move.Move) string {
	tag := ""
	switch {
	case m.Captures():
		tag = "capture"
	case m.Pushed() > 0:
		tag = "push"
	}
	return fmt.Sprintf("%3d: %-26s%-9s%s", idx+1, m.String(), m.Action(), tag)
}

func (sc *ShellController) generate(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	n := defaultGenCount
	if len(cmd.args) > 0 {
		var err error
		n, err = strconv.Atoi(cmd.args[0])
		if err != nil {
			return nil, err
		}
	}
	moves := sc.game.LegalMoves()
	// captures then pushes first.
	sort.SliceStable(moves, func(i, j int) bool {
		if moves[i].Captures() != moves[j].Captures() {
			return moves[i].Captures()
		}
		return moves[i].Pushed() > moves[j].Pushed()
	})
	sc.curGenPlays = moves

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d moves, %d pushes, %d captures\n", len(moves),
		len(movegen.Pushes(moves)), len(movegen.Captures(moves)))
	for i, m := range moves {
		if i >= n {
			break
		}
		sb.WriteString(moveTableRow(i, m) + "\n")
	}
	return msg(sb.String()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if len(cmd.args) != 1 {
		return nil, errors.New("play <move> or play #<index>")
	}
	arg := cmd.args[0]
	if strings.HasPrefix(arg, "#") {
		idx, err := strconv.Atoi(arg[1:])
		if err != nil {
			return nil, err
		}
		if idx < 1 || idx > len(sc.curGenPlays) {
			return nil, errors.New("play outside range")
		}
		if err := sc.game.PlayMove(sc.curGenPlays[idx-1]); err != nil {
			return nil, err
		}
	} else if _, err := sc.game.PlayString(arg); err != nil {
		return nil, err
	}
	sc.curGenPlays = nil
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if err := sc.game.UnplayLastMove(); err != nil {
		return nil, err
	}
	sc.curGenPlays = nil
	return msg(sc.game.ToDisplayText()), nil
}

func (sc *ShellController) solver(p board.Player, name string) (*search.Solver, error) {
	key := bot.SolverKey(p, name)
	if s, ok := sc.solvers[key]; ok {
		return s, nil
	}
	eval, err := heuristic.ByName(name)
	if err != nil {
		return nil, err
	}
	cache := ttable.New()
	cache.Reset(sc.config.GetFloat64(config.ConfigTtableMemoryFraction))
	s := search.NewSolver(sc.zobrist, cache, sc.book, eval)
	s.SetRecklessFraction(sc.config.GetFloat64(config.ConfigRecklessFraction))
	s.SetCarefulMargin(time.Duration(sc.config.GetInt(config.ConfigCarefulMarginMs)) * time.Millisecond)
	sc.solvers[key] = s
	return s, nil
}

// searchOnTurn runs the engine for the player on turn. -time, -depth and
// -heuristic override the shell settings for this search only.
func (sc *ShellController) searchOnTurn(ctx context.Context, cmd *shellcmd) (search.Result, error) {
	if sc.game == nil {
		return search.Result{}, errNoGame
	}
	if sc.game.GameOver() {
		return search.Result{}, game.ErrGameOver
	}
	name := sc.options.Heuristic
	if h := cmd.options.String("heuristic"); h != "" {
		name = h
	}
	ms, err := cmd.options.IntDefault("time", int(sc.options.TimeLimit.Milliseconds()))
	if err != nil {
		return search.Result{}, err
	}
	depth, err := cmd.options.IntDefault("depth", sc.options.MaxDepth)
	if err != nil {
		return search.Result{}, err
	}
	p := sc.game.PlayerOnTurn()
	s, err := sc.solver(p, name)
	if err != nil {
		return search.Result{}, err
	}
	s.SetMaxDepth(depth)
	return s.Search(ctx, search.Request{
		Board:          sc.game.Board(),
		Player:         p,
		TimeLimit:      time.Duration(ms) * time.Millisecond,
		TurnsRemaining: sc.game.TurnsRemaining(p),
		IsFirstMove:    sc.game.IsFirstMove(),
	})
}

func resultText(res search.Result) string {
	if res.FromBook {
		return fmt.Sprintf("%s (opening book)", res.Move)
	}
	pv := lo.Map(res.PV, func(m move.Move, _ int) string { return m.String() })
	return fmt.Sprintf("%s score %.4f depth %d nodes %d in %s\n  pv: %s",
		res.Move, res.Score, res.Depth, res.Nodes, res.Elapsed.Round(time.Millisecond),
		strings.Join(pv, " "))
}

func (sc *ShellController) aiplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	res, err := sc.searchOnTurn(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if err := sc.game.PlayMove(res.Move); err != nil {
		return nil, err
	}
	sc.curGenPlays = nil
	return msg(resultText(res) + "\n" + sc.game.ToDisplayText()), nil
}

func (sc *ShellController) hint(ctx context.Context, cmd *shellcmd) (*Response, error) {
	res, err := sc.searchOnTurn(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return msg(resultText(res)), nil
}

// botplay asks a running bot daemon for the move on turn and plays it.
func (sc *ShellController) botplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.game == nil {
		return nil, errNoGame
	}
	if sc.client == nil {
		nc, err := nats.Connect(sc.config.GetString(config.ConfigNatsURL))
		if err != nil {
			return nil, err
		}
		sc.nc = nc
		sc.client = bot.NewClient(nc, sc.config.GetString(config.ConfigNatsChannel))
	}
	name := sc.options.Heuristic
	if h := cmd.options.String("heuristic"); h != "" {
		name = h
	}
	p := sc.game.PlayerOnTurn()
	b := sc.game.Board()
	req := bot.RequestFor(b, search.Request{
		Player:         p,
		TimeLimit:      sc.options.TimeLimit,
		TurnsRemaining: sc.game.TurnsRemaining(p),
		IsFirstMove:    sc.game.IsFirstMove(),
	}, name)
	m, err := sc.client.RequestMove(ctx, b, req)
	if err != nil {
		return nil, err
	}
	if err := sc.game.PlayMove(m); err != nil {
		return nil, err
	}
	return msg("Bot returned move: " + m.ShortDescription() + "\n" + sc.game.ToDisplayText()), nil
}

func (sc *ShellController) stopAutoplay() {
	if sc.autoplayCancel == nil {
		return
	}
	sc.autoplayCancel()
	<-sc.autoplayDone
	sc.autoplayCancel = nil
}

func (sc *ShellController) autoplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 1 && cmd.args[0] == "stop" {
		if sc.autoplayCancel == nil {
			return nil, errors.New("no autoplay running")
		}
		sc.stopAutoplay()
		return msg("autoplay stopped"), nil
	}
	if sc.autoplayCancel != nil {
		select {
		case <-sc.autoplayDone:
			sc.autoplayCancel()
			sc.autoplayCancel = nil
		default:
			return nil, automatic.ErrAlreadyPlaying
		}
	}
	names := cmd.args
	if len(names) == 0 {
		names = heuristic.Names()
	}
	if len(lo.Uniq(names)) < 2 {
		return nil, errors.New("autoplay needs at least two distinct heuristics")
	}
	layout := sc.options.Layout
	if l := cmd.options.String("layout"); l != "" {
		var err error
		if layout, err = board.LayoutByName(l); err != nil {
			return nil, err
		}
	}
	rounds, err := cmd.options.IntDefault("rounds", sc.config.GetInt(config.ConfigAutoplayRounds))
	if err != nil {
		return nil, err
	}
	threads, err := cmd.options.IntDefault("threads", sc.config.GetInt(config.ConfigAutoplayThreads))
	if err != nil {
		return nil, err
	}
	turns, err := cmd.options.IntDefault("turns", sc.options.TurnLimit)
	if err != nil {
		return nil, err
	}
	ms, err := cmd.options.IntDefault("time", int(sc.options.TimeLimit.Milliseconds()))
	if err != nil {
		return nil, err
	}
	depth, err := cmd.options.IntDefault("depth", sc.options.MaxDepth)
	if err != nil {
		return nil, err
	}
	randomPlies, err := cmd.options.IntDefault("random", 0)
	if err != nil {
		return nil, err
	}
	logPath := cmd.options.String("file")
	if logPath == "" {
		logPath = sc.config.GetString(config.ConfigAutoplayLogPath)
	}
	var seeds [][32]byte
	if path := cmd.options.String("seeds"); path != "" {
		if seeds, err = automatic.LoadSeeds(path); err != nil {
			return nil, err
		}
	}

	opts := automatic.TournamentOptions{
		Pairings: automatic.Pairings(lo.Uniq(names), []board.Layout{layout}, []int{turns},
			[]time.Duration{time.Duration(ms) * time.Millisecond}),
		Rounds:      rounds,
		Threads:     threads,
		Seeds:       seeds,
		RandomPlies: randomPlies,
		MaxDepth:    depth,
	}
	actx, cancel := context.WithCancel(context.Background())
	sc.autoplayCancel = cancel
	sc.autoplayDone = make(chan struct{})
	go func() {
		defer close(sc.autoplayDone)
		results, gamePath, err := automatic.PlayTournamentToFiles(actx, sc.config, opts, logPath)
		if err != nil && !errors.Is(err, context.Canceled) {
			sc.showError(err)
		}
		log.Info().Str("games", gamePath).Msg("autoplay-finished")
		sc.showMessage(automatic.Summarize(results, 95).String())
	}()
	return msg(fmt.Sprintf("autoplay started: %d games, logging to %s",
		len(opts.Pairings)*rounds, logPath)), nil
}

func (sc *ShellController) analyze(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("analyze <game log>")
	}
	out, err := automatic.AnalyzeLogFile(cmd.args[0])
	if err != nil {
		return nil, err
	}
	return msg(out), nil
}

func (sc *ShellController) cache(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return nil, errors.New("cache save|load|stats|clear [path]")
	}
	keys := lo.Keys(sc.solvers)
	sort.Strings(keys)
	base := sc.config.GetString(config.ConfigTtablePath)
	if len(cmd.args) > 1 {
		base = cmd.args[1]
	}
	switch cmd.args[0] {
	case "stats":
		if len(keys) == 0 {
			return msg("no caches yet"), nil
		}
		var sb strings.Builder
		for _, k := range keys {
			st := sc.solvers[k].Cache().Stats()
			fmt.Fprintf(&sb, "%-24s entries %8d  lookups %10d  hit rate %.3f\n",
				k, st.Entries, st.Lookups, st.HitRate())
		}
		return msg(sb.String()), nil
	case "clear":
		for _, k := range keys {
			sc.solvers[k].Cache().Reset(sc.config.GetFloat64(config.ConfigTtableMemoryFraction))
		}
		return msg(fmt.Sprintf("cleared %d caches", len(keys))), nil
	case "save":
		if base == "" {
			return nil, errors.New("no cache path given or configured")
		}
		var errs []error
		for _, k := range keys {
			errs = append(errs, sc.solvers[k].Cache().SaveFile(ctx, bot.CachePath(base, k)))
		}
		if err := errors.Join(errs...); err != nil {
			return nil, err
		}
		return msg(fmt.Sprintf("saved %d caches", len(keys))), nil
	case "load":
		if base == "" {
			return nil, errors.New("no cache path given or configured")
		}
		// load for both colors under the current heuristic.
		for _, p := range []board.Player{board.Black, board.White} {
			s, err := sc.solver(p, sc.options.Heuristic)
			if err != nil {
				return nil, err
			}
			if err := s.Cache().LoadFile(ctx, bot.CachePath(base, bot.SolverKey(p, sc.options.Heuristic))); err != nil {
				return nil, err
			}
		}
		return msg("loaded caches for " + sc.options.Heuristic), nil
	}
	return nil, fmt.Errorf("unknown cache subcommand %q", cmd.args[0])
}

func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(sc.options.ToDisplayText()), nil
	}
	opt := cmd.args[0]
	if len(cmd.args) == 1 {
		_, val := sc.options.Show(opt)
		return msg(val), nil
	}
	val := cmd.args[1]
	switch opt {
	case "heuristic":
		e, err := heuristic.ByName(val)
		if err != nil {
			return nil, err
		}
		if c, ok := e.(io.Closer); ok {
			c.Close()
		}
		sc.options.Heuristic = val
	case "layout":
		l, err := board.LayoutByName(val)
		if err != nil {
			return nil, err
		}
		sc.options.Layout = l
	case "turns":
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, game.ErrBadTurnLimit
		}
		sc.options.TurnLimit = n
	case "time":
		d, err := time.ParseDuration(val)
		if err != nil {
			ms, aerr := strconv.Atoi(val)
			if aerr != nil {
				return nil, err
			}
			d = time.Duration(ms) * time.Millisecond
		}
		sc.options.TimeLimit = d
	case "depth":
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, err
		}
		sc.options.MaxDepth = n
	default:
		return nil, errors.New("No such option: " + opt)
	}
	_, shown := sc.options.Show(opt)
	return msg("set " + opt + " to " + shown), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}

// RunCommands executes each line of r as a shell command, for scripted
// sessions without a terminal.
func RunCommands(ctx context.Context, cfg *config.Config, r io.Reader, w io.Writer) error {
	sc, err := newController(cfg, w)
	if err != nil {
		return err
	}
	defer sc.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		resp, err := sc.handle(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", line, err)
		}
		if resp != nil {
			writeln(resp.message, w)
		}
	}
	return nil
}
