package bot

import (
	"errors"
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/search"
)

// Wire messages; see api/proto/sumito/bot.proto.

type SearchRequest struct {
	Black          []board.Coord
	White          []board.Coord
	Player         board.Player
	TimeLimitMs    uint32
	TurnsRemaining uint32
	IsFirstMove    bool
	Heuristic      string
	RequestID      string
}

type SearchResponse struct {
	Move           string
	ElapsedSeconds float64
	Depth          uint32
	Error          string
	Score          float64
	FromBook       bool
	RequestID      string
}

var ErrMalformed = errors.New("malformed message")

// RequestFor builds the wire request for a position.
func RequestFor(b *board.Board, req search.Request, heuristic string) SearchRequest {
	return SearchRequest{
		Black:          b.Marbles(board.Black),
		White:          b.Marbles(board.White),
		Player:         req.Player,
		TimeLimitMs:    uint32(req.TimeLimit / time.Millisecond),
		TurnsRemaining: uint32(req.TurnsRemaining),
		IsFirstMove:    req.IsFirstMove,
		Heuristic:      heuristic,
	}
}

// Board rebuilds the position the request describes.
func (r SearchRequest) Board() (*board.Board, error) {
	b := board.New()
	for _, c := range r.Black {
		if err := b.Set(c, board.Black); err != nil {
			return nil, err
		}
	}
	for _, c := range r.White {
		if b.At(c) != board.Empty {
			return nil, fmt.Errorf("%w: %v listed for both players", ErrMalformed, c)
		}
		if err := b.Set(c, board.White); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func appendCoords(b []byte, num protowire.Number, cs []board.Coord) []byte {
	if len(cs) == 0 {
		return b
	}
	var packed []byte
	for _, c := range cs {
		packed = protowire.AppendVarint(packed, uint64(c))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendDouble(b []byte, num protowire.Number, f float64) []byte {
	if f == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(f))
}

func (r SearchRequest) Marshal() []byte {
	var b []byte
	b = appendCoords(b, 1, r.Black)
	b = appendCoords(b, 2, r.White)
	b = appendVarint(b, 3, uint64(r.Player))
	b = appendVarint(b, 4, uint64(r.TimeLimitMs))
	b = appendVarint(b, 5, uint64(r.TurnsRemaining))
	b = appendVarint(b, 6, protowire.EncodeBool(r.IsFirstMove))
	b = appendString(b, 7, r.Heuristic)
	b = appendString(b, 8, r.RequestID)
	return b
}

func (r SearchResponse) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, r.Move)
	b = appendDouble(b, 2, r.ElapsedSeconds)
	b = appendVarint(b, 3, uint64(r.Depth))
	b = appendString(b, 4, r.Error)
	b = appendDouble(b, 5, r.Score)
	b = appendVarint(b, 6, protowire.EncodeBool(r.FromBook))
	b = appendString(b, 7, r.RequestID)
	return b
}

// field is one decoded key/value. Only the member matching typ is set.
type field struct {
	num    protowire.Number
	typ    protowire.Type
	varint uint64
	fixed  uint64
	bytes  []byte
}

// walkFields calls fn for every field in b, in order.
func walkFields(b []byte, fn func(f field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]
		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.fixed, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// coords accepts both packed and unpacked encodings.
func (f field) coords(dst []board.Coord) ([]board.Coord, error) {
	switch f.typ {
	case protowire.VarintType:
		if f.varint > math.MaxUint8 {
			return nil, fmt.Errorf("%w: coordinate %d", ErrMalformed, f.varint)
		}
		return append(dst, board.Coord(f.varint)), nil
	case protowire.BytesType:
		b := f.bytes
		for len(b) > 0 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
			}
			if v > math.MaxUint8 {
				return nil, fmt.Errorf("%w: coordinate %d", ErrMalformed, v)
			}
			dst = append(dst, board.Coord(v))
			b = b[n:]
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, f.num, f.typ)
}

func (f field) want(typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("%w: field %d has wire type %d", ErrMalformed, f.num, f.typ)
	}
	return nil
}

func (f field) uint32() (uint32, error) {
	if f.varint > math.MaxUint32 {
		return 0, fmt.Errorf("%w: field %d overflows uint32", ErrMalformed, f.num)
	}
	return uint32(f.varint), nil
}

func UnmarshalRequest(data []byte) (SearchRequest, error) {
	var r SearchRequest
	err := walkFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1:
			r.Black, err = f.coords(r.Black)
		case 2:
			r.White, err = f.coords(r.White)
		case 3, 4, 5, 6:
			if err = f.want(protowire.VarintType); err != nil {
				return err
			}
			switch f.num {
			case 3:
				if f.varint > uint64(board.White) {
					return fmt.Errorf("%w: player %d", ErrMalformed, f.varint)
				}
				r.Player = board.Player(f.varint)
			case 4:
				r.TimeLimitMs, err = f.uint32()
			case 5:
				r.TurnsRemaining, err = f.uint32()
			case 6:
				r.IsFirstMove = protowire.DecodeBool(f.varint)
			}
		case 7:
			err = f.want(protowire.BytesType)
			r.Heuristic = string(f.bytes)
		case 8:
			err = f.want(protowire.BytesType)
			r.RequestID = string(f.bytes)
		}
		return err
	})
	if err != nil {
		return SearchRequest{}, err
	}
	if r.Player != board.Black && r.Player != board.White {
		return SearchRequest{}, fmt.Errorf("%w: player %d", ErrMalformed, r.Player)
	}
	return r, nil
}

func UnmarshalResponse(data []byte) (SearchResponse, error) {
	var r SearchResponse
	err := walkFields(data, func(f field) error {
		var err error
		switch f.num {
		case 1:
			err = f.want(protowire.BytesType)
			r.Move = string(f.bytes)
		case 2:
			err = f.want(protowire.Fixed64Type)
			r.ElapsedSeconds = math.Float64frombits(f.fixed)
		case 3:
			if err = f.want(protowire.VarintType); err == nil {
				r.Depth, err = f.uint32()
			}
		case 4:
			err = f.want(protowire.BytesType)
			r.Error = string(f.bytes)
		case 5:
			err = f.want(protowire.Fixed64Type)
			r.Score = math.Float64frombits(f.fixed)
		case 6:
			err = f.want(protowire.VarintType)
			r.FromBook = protowire.DecodeBool(f.varint)
		case 7:
			err = f.want(protowire.BytesType)
			r.RequestID = string(f.bytes)
		}
		return err
	})
	if err != nil {
		return SearchResponse{}, err
	}
	return r, nil
}
