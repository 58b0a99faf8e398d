package zobrist

import (
	"lukechampine.com/frand"

	"github.com/sumito-ai/sumito/board"
	"github.com/sumito-ai/sumito/move"
)

const bignum = 1<<63 - 2

// DefaultSeed makes every process build the same table, so fingerprints
// can be persisted and shared.
var DefaultSeed = [32]byte{
	's', 'u', 'm', 'i', 't', 'o', '-', 'z', 'o', 'b', 'r', 'i', 's', 't', '-', 'v',
	'1', 0x9e, 0x37, 0x79, 0xb9, 0x7f, 0x4a, 0x7c, 0x15, 0xf3, 0x9c, 0xc0, 0x60, 0x5c, 0xed, 0xa5,
}

// generate a zobrist hash for an abalone position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
// Only the occupancy is hashed; the side to move is not part of the key.
type Zobrist struct {
	posTable [board.NumCells][2]uint64
}

// Initialize fills the table from seed. The same seed always yields the
// same table.
func (z *Zobrist) Initialize(seed [32]byte) {
	rng := frand.NewCustom(seed[:], 1024, 12)
	for i := 0; i < board.NumCells; i++ {
		for p := 0; p < 2; p++ {
			z.posTable[i][p] = rng.Uint64n(bignum) + 1
		}
	}
}

// New returns a hasher built from DefaultSeed.
func New() *Zobrist {
	z := &Zobrist{}
	z.Initialize(DefaultSeed)
	return z
}

func (z *Zobrist) Hash(b *board.Board) uint64 {
	key := uint64(0)
	for i := 0; i < board.NumCells; i++ {
		p := b.AtIndex(i)
		if p == board.Empty {
			continue
		}
		key ^= z.posTable[i][p]
	}
	return key
}

// Toggle flips the presence of p's marble on c in key.
func (z *Zobrist) Toggle(key uint64, c board.Coord, p board.Player) uint64 {
	return key ^ z.posTable[c.Index()][p]
}

// AddMove updates key, the hash of the position before m, to the hash
// of the position after it.
func (z *Zobrist) AddMove(key uint64, m move.Move) uint64 {
	for i := 0; i < m.Len(); i++ {
		owner := m.Player()
		if i >= m.GroupSize() {
			owner = owner.Opponent()
		}
		key = z.Toggle(key, m.Marble(i), owner)
		if dst := m.Destination(i); dst != board.NoCoord {
			key = z.Toggle(key, dst, owner)
		}
	}
	return key
}
