// Package bot serves searches over NATS request/reply.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/config"
	"github.com/sumito-ai/sumito/heuristic"
	"github.com/sumito-ai/sumito/openingbook"
	"github.com/sumito-ai/sumito/search"
	"github.com/sumito-ai/sumito/ttable"
	"github.com/sumito-ai/sumito/zobrist"
)

// Bot answers search requests. Requests are served one at a time. Each
// (player, heuristic) pair keeps its own solver and cache, since leaf
// scores are stored from the searching player's point of view.
type Bot struct {
	config  *config.Config
	zobrist *zobrist.Zobrist
	book    *openingbook.Book

	mu      sync.Mutex
	solvers map[string]*search.Solver
}

func NewBot(cfg *config.Config) (*Bot, error) {
	z := zobrist.New()
	book, err := openingbook.Load(z, cfg.GetString(config.ConfigOpeningBookPath))
	if err != nil {
		return nil, err
	}
	return &Bot{
		config:  cfg,
		zobrist: z,
		book:    book,
		solvers: make(map[string]*search.Solver),
	}, nil
}

func SolverKey(p board.Player, heuristicName string) string {
	return p.String() + "-" + strings.NewReplacer("/", "_", ":", "_").Replace(heuristicName)
}

// CachePath derives a per-solver file from the configured cache path:
// cache.db becomes cache.black-weighted.db.
func CachePath(base, key string) string {
	if base == "" {
		return ""
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "." + key + ext
}

func (bot *Bot) solverFor(ctx context.Context, p board.Player, heuristicName string) (*search.Solver, error) {
	if heuristicName == "" {
		heuristicName = bot.config.GetString(config.ConfigDefaultHeuristic)
	}
	key := SolverKey(p, heuristicName)
	if s, ok := bot.solvers[key]; ok {
		return s, nil
	}
	eval, err := heuristic.ByName(heuristicName)
	if err != nil {
		return nil, err
	}
	cache := ttable.New()
	cache.Reset(bot.config.GetFloat64(config.ConfigTtableMemoryFraction))
	if path := CachePath(bot.config.GetString(config.ConfigTtablePath), key); path != "" {
		if err := cache.LoadFile(ctx, path); err != nil {
			return nil, err
		}
	}
	s := search.NewSolver(bot.zobrist, cache, bot.book, eval)
	s.SetRecklessFraction(bot.config.GetFloat64(config.ConfigRecklessFraction))
	s.SetCarefulMargin(time.Duration(bot.config.GetInt(config.ConfigCarefulMarginMs)) * time.Millisecond)
	bot.solvers[key] = s
	log.Info().Str("solver", key).Msg("created-solver")
	return s, nil
}

func errorResponse(req SearchRequest, message string, err error) SearchResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return SearchResponse{Error: msg, RequestID: req.RequestID}
}

func (bot *Bot) handle(ctx context.Context, data []byte) SearchResponse {
	req, err := UnmarshalRequest(data)
	if err != nil {
		return errorResponse(req, "could not parse request", err)
	}
	b, err := req.Board()
	if err != nil {
		return errorResponse(req, "bad position", err)
	}

	bot.mu.Lock()
	defer bot.mu.Unlock()
	s, err := bot.solverFor(ctx, req.Player, req.Heuristic)
	if err != nil {
		return errorResponse(req, "could not create solver", err)
	}
	timeLimit := time.Duration(req.TimeLimitMs) * time.Millisecond
	if timeLimit == 0 {
		timeLimit = time.Duration(bot.config.GetInt(config.ConfigSearchTimeLimitMs)) * time.Millisecond
	}
	res, err := s.Search(ctx, search.Request{
		Board:          b,
		Player:         req.Player,
		TimeLimit:      timeLimit,
		TurnsRemaining: int(req.TurnsRemaining),
		IsFirstMove:    req.IsFirstMove,
	})
	if err != nil {
		return errorResponse(req, "search failed", err)
	}
	log.Info().Str("move", res.Move.String()).Int("depth", res.Depth).
		Str("request-id", req.RequestID).Msg("generated-move")
	return SearchResponse{
		Move:           res.Move.String(),
		ElapsedSeconds: res.Elapsed.Seconds(),
		Depth:          uint32(res.Depth),
		Score:          res.Score,
		FromBook:       res.FromBook,
		RequestID:      req.RequestID,
	}
}

// Close releases evaluators that hold resources, such as Lua states.
func (bot *Bot) Close() {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	for key, s := range bot.solvers {
		if c, ok := s.Evaluator().(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.Err(err).Str("solver", key).Msg("close-evaluator")
			}
		}
	}
}

// SaveCaches writes every solver's cache next to the configured path.
func (bot *Bot) SaveCaches(ctx context.Context) error {
	base := bot.config.GetString(config.ConfigTtablePath)
	if base == "" {
		return nil
	}
	bot.mu.Lock()
	defer bot.mu.Unlock()
	var errs []error
	for key, s := range bot.solvers {
		errs = append(errs, s.Cache().SaveFile(ctx, CachePath(base, key)))
	}
	return errors.Join(errs...)
}

// Serve answers requests on channel until ctx is done, then drains the
// subscription.
func (bot *Bot) Serve(ctx context.Context, nc *nats.Conn, channel string) error {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Msg("received-request")
		resp := bot.handle(ctx, m.Data)
		if err := m.Respond(resp.Marshal()); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("channel", channel).Msg("listening")
	<-ctx.Done()
	return sub.Drain()
}

// Main connects to the configured NATS server and serves until ctx is
// done. Caches are saved on the way out.
func Main(ctx context.Context, cfg *config.Config) error {
	bot, err := NewBot(cfg)
	if err != nil {
		return err
	}
	defer bot.Close()
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return err
	}
	defer nc.Close()
	serveErr := bot.Serve(ctx, nc, cfg.GetString(config.ConfigNatsChannel))
	// ctx is already done here.
	saveErr := bot.SaveCaches(context.Background())
	return errors.Join(serveErr, saveErr)
}
