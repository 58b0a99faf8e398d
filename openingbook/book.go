// Package openingbook holds pre-vetted first moves keyed by the
// fingerprint of a starting layout.
package openingbook

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
	"github.com/sumito-ai/sumito/movegen"
	"github.com/sumito-ai/sumito/zobrist"
)

//go:embed book.yaml
var defaultBook []byte

var ErrNotInBook = errors.New("position not in opening book")

type Book struct {
	entries map[uint64][]move.Move
	// intn picks an index in [0, n). It defaults to frand.Intn.
	intn func(n int) int
}

// Default returns the embedded book.
func Default(z *zobrist.Zobrist) (*Book, error) {
	return Parse(z, defaultBook)
}

// Load reads a book from a YAML file mapping layout names to lists of
// move strings. An empty path loads the embedded book.
func Load(z *zobrist.Zobrist, path string) (*Book, error) {
	if path == "" {
		return Default(z)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return Parse(z, data)
}

// Parse builds a book from YAML. Every move is checked for legality
// against its layout.
func Parse(z *zobrist.Zobrist, data []byte) (*Book, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing opening book: %w", err)
	}
	book := &Book{entries: make(map[uint64][]move.Move), intn: frand.Intn}
	for name, moves := range raw {
		layout, err := board.LayoutByName(name)
		if err != nil {
			return nil, err
		}
		b := board.FromLayout(layout)
		if err := book.Add(z.Hash(b), b, moves); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	log.Debug().Int("positions", len(book.entries)).Msg("loaded-opening-book")
	return book, nil
}

// Add registers candidate moves for the position b with fingerprint key.
func (bk *Book) Add(key uint64, b *board.Board, moves []string) error {
	for _, s := range moves {
		m, err := move.FromString(s, b)
		if err != nil {
			return err
		}
		if !movegen.IsLegal(b, m) {
			return fmt.Errorf("%w: %s", movegen.ErrIllegalMove, s)
		}
		bk.entries[key] = append(bk.entries[key], m)
	}
	return nil
}

// SetPicker replaces the random index source. Tests use it to make
// selection deterministic.
func (bk *Book) SetPicker(intn func(n int) int) {
	bk.intn = intn
}

// Candidates returns the moves stored for key.
func (bk *Book) Candidates(key uint64) []move.Move {
	return bk.entries[key]
}

func (bk *Book) Len() int { return len(bk.entries) }

// Pick returns one of the candidates for key, uniformly at random.
func (bk *Book) Pick(key uint64) (move.Move, error) {
	c := bk.entries[key]
	if len(c) == 0 {
		return move.Move{}, ErrNotInBook
	}
	return c[bk.intn(len(c))], nil
}
