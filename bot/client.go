package bot

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
)

const DefaultRequestTimeout = 10 * time.Second

type Client struct {
	nc      *nats.Conn
	channel string
	// timeout bounds each attempt on top of the search time limit.
	timeout  time.Duration
	attempts uint
}

func NewClient(nc *nats.Conn, channel string) *Client {
	return &Client{nc: nc, channel: channel, timeout: DefaultRequestTimeout, attempts: 3}
}

var ErrBotError = errors.New("bot returned an error")

func retryable(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Search sends req and waits for the response, retrying when nobody
// answers in time.
func (c *Client) Search(ctx context.Context, req SearchRequest) (SearchResponse, error) {
	data := req.Marshal()
	wait := c.timeout + time.Duration(req.TimeLimitMs)*time.Millisecond
	var resp SearchResponse
	err := retry.Do(
		func() error {
			rctx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()
			msg, err := c.nc.RequestWithContext(rctx, c.channel, data)
			if err != nil {
				return err
			}
			resp, err = UnmarshalResponse(msg.Data)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Msg("no-response-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if err != nil {
		return SearchResponse{}, err
	}
	if resp.Error != "" {
		return resp, errors.Join(ErrBotError, errors.New(resp.Error))
	}
	return resp, nil
}

// RequestMove asks for a move and parses it against b.
func (c *Client) RequestMove(ctx context.Context, b *board.Board, req SearchRequest) (move.Move, error) {
	resp, err := c.Search(ctx, req)
	if err != nil {
		return move.Move{}, err
	}
	log.Debug().Str("move", resp.Move).Float64("elapsed", resp.ElapsedSeconds).
		Uint32("depth", resp.Depth).Msg("bot-response")
	return move.FromString(resp.Move, b)
}
