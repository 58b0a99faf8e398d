package zobrist

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/movegen"
)

func TestDeterministicTable(t *testing.T) {
	is := is.New(t)
	z1, z2 := New(), New()
	b := board.FromLayout(board.Standard)
	is.Equal(z1.Hash(b), z2.Hash(b))

	other := &Zobrist{}
	other.Initialize([32]byte{1})
	is.True(other.Hash(b) != z1.Hash(b))
	is.Equal(z1.Hash(board.New()), uint64(0))
}

func TestOrderIndependence(t *testing.T) {
	is := is.New(t)
	z := New()
	ref := board.FromLayout(board.BelgianDaisy)
	want := z.Hash(ref)
	cells := ref.Cells()
	coords := make([]board.Coord, 0, len(cells))
	for c := range cells {
		coords = append(coords, c)
	}
	rng := frand.NewCustom(make([]byte, 32), 1024, 12)
	for trial := 0; trial < 50; trial++ {
		rng.Shuffle(len(coords), func(i, j int) { coords[i], coords[j] = coords[j], coords[i] })
		b := board.New()
		for _, c := range coords {
			is.NoErr(b.Set(c, cells[c]))
		}
		is.Equal(z.Hash(b), want)
	}
}

func TestAddMoveMatchesFullHash(t *testing.T) {
	is := is.New(t)
	z := New()
	rng := frand.NewCustom([]byte("abcdefghijklmnopqrstuvwxyz012345"), 1024, 12)
	b := board.FromLayout(board.Standard)
	key := z.Hash(b)
	p := board.Black
	for ply := 0; ply < 200; ply++ {
		moves := movegen.GenAll(b, p)
		if len(moves) == 0 {
			break
		}
		for _, m := range moves {
			is.Equal(z.AddMove(key, m), z.Hash(movegen.Result(b, m)))
		}
		m := moves[rng.Intn(len(moves))]
		key = z.AddMove(key, m)
		movegen.Apply(b, m)
		is.Equal(key, z.Hash(b))
		if b.Count(board.Black) <= board.LosingMarbles || b.Count(board.White) <= board.LosingMarbles {
			b = board.FromLayout(board.Standard)
			key = z.Hash(b)
		}
		p = p.Opponent()
	}
}

// Thousands of distinct positions reached by random play must not share
// a fingerprint.
func TestDiscrimination(t *testing.T) {
	is := is.New(t)
	z := New()
	rng := frand.NewCustom([]byte("0123456789abcdef0123456789abcdef"), 1024, 12)
	seen := map[uint64]board.Board{}
	layouts := []board.Layout{board.Standard, board.BelgianDaisy, board.GermanDaisy}
	for game := 0; game < 150 && len(seen) < 8000; game++ {
		b := board.FromLayout(layouts[game%3])
		p := board.Black
		for ply := 0; ply < 60; ply++ {
			moves := movegen.GenAll(b, p)
			if len(moves) == 0 {
				break
			}
			movegen.Apply(b, moves[rng.Intn(len(moves))])
			h := z.Hash(b)
			if prev, ok := seen[h]; ok {
				is.True(prev.Equals(b))
			} else {
				seen[h] = *b
			}
			p = p.Opponent()
		}
	}
	is.True(len(seen) > 2000)
}
