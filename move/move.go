package move

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sumito-ai/sumito/board"
)

// MoveType distinguishes a push along the line of the group from a
// broadside step.
type MoveType uint8

const (
	MoveTypeInline MoveType = iota
	MoveTypeSidestep
)

func (t MoveType) String() string {
	if t == MoveTypeSidestep {
		return "sidestep"
	}
	return "inline"
}

// MaxLine is the longest line a move can shift: three of the mover's
// marbles and two of the opponent's.
const MaxLine = 5

var ErrBadNotation = errors.New("bad move notation")

// Move is a groupmove: a line of marbles and the direction they all
// shift. Inline lines run from the rearmost marble to the leading one,
// own marbles first, then any opposing marbles being pushed. Moves are
// small values and compare with ==.
type Move struct {
	marbles [MaxLine]board.Coord
	n       uint8
	own     uint8
	dir     board.Direction
	action  MoveType
	player  board.Player
}

// NewInline builds an inline move. line holds own marbles rear-first
// followed by the pushed opposing marbles.
func NewInline(player board.Player, line []board.Coord, own int, dir board.Direction) Move {
	m := Move{dir: dir, action: MoveTypeInline, player: player, own: uint8(own)}
	m.n = uint8(copy(m.marbles[:], line))
	return m
}

func NewSidestep(player board.Player, group []board.Coord, dir board.Direction) Move {
	m := Move{dir: dir, action: MoveTypeSidestep, player: player}
	m.n = uint8(copy(m.marbles[:], group))
	m.own = m.n
	return m
}

func (m Move) Action() MoveType          { return m.action }
func (m Move) Direction() board.Direction { return m.dir }
func (m Move) Player() board.Player       { return m.player }

// Len is the number of marbles that change cells, pushed ones included.
func (m Move) Len() int { return int(m.n) }

// GroupSize is the number of the mover's marbles in the move.
func (m Move) GroupSize() int { return int(m.own) }

// Pushed is the number of opposing marbles displaced by a sumito.
func (m Move) Pushed() int { return int(m.n - m.own) }

func (m Move) Marble(i int) board.Coord { return m.marbles[i] }

func (m Move) Marbles() []board.Coord {
	out := make([]board.Coord, m.n)
	copy(out, m.marbles[:m.n])
	return out
}

// Destination is where marble i ends up, or NoCoord if it leaves the
// board.
func (m Move) Destination(i int) board.Coord {
	return m.marbles[i].Step(m.dir)
}

// Captures reports whether the move pushes an opposing marble off.
func (m Move) Captures() bool {
	return m.Pushed() > 0 && m.Destination(int(m.n)-1) == board.NoCoord
}

func (m Move) IsZero() bool { return m.n == 0 }

// String renders the move text: source cells, a dash, then destination
// cells, with n0 for a marble pushed off.
func (m Move) String() string {
	if m.n == 0 {
		return "(none)"
	}
	var sb strings.Builder
	for i := 0; i < int(m.n); i++ {
		sb.WriteString(m.marbles[i].String())
	}
	sb.WriteByte('-')
	for i := 0; i < int(m.n); i++ {
		sb.WriteString(m.Destination(i).String())
	}
	return sb.String()
}

// ShortDescription adds the direction and kind for logs.
func (m Move) ShortDescription() string {
	return fmt.Sprintf("%s (%s %s)", m.String(), m.action, m.dir)
}

// FromString reads move text against the position it applies to. It
// checks the text is well formed and self-consistent; it does not check
// the move is legal.
func FromString(s string, b *board.Board) (Move, error) {
	halves := strings.Split(strings.TrimSpace(s), "-")
	if len(halves) != 2 || len(halves[0]) != len(halves[1]) ||
		len(halves[0])%2 != 0 || len(halves[0]) == 0 || len(halves[0]) > 2*MaxLine {
		return Move{}, fmt.Errorf("%w: %q", ErrBadNotation, s)
	}
	n := len(halves[0]) / 2
	src := make([]board.Coord, n)
	dst := make([]board.Coord, n)
	for i := 0; i < n; i++ {
		var err error
		src[i], err = board.ParseCoord(halves[0][2*i : 2*i+2])
		if err != nil || src[i] == board.NoCoord {
			return Move{}, fmt.Errorf("%w: %q: bad source cell", ErrBadNotation, s)
		}
		dst[i], err = board.ParseCoord(halves[1][2*i : 2*i+2])
		if err != nil {
			return Move{}, fmt.Errorf("%w: %q: %w", ErrBadNotation, s, err)
		}
	}
	if dst[0] == board.NoCoord {
		return Move{}, fmt.Errorf("%w: %q: rear marble cannot leave the board", ErrBadNotation, s)
	}
	dir := board.Direction(int(dst[0]) - int(src[0]))
	if !dir.Valid() {
		return Move{}, fmt.Errorf("%w: %q: not a single step", ErrBadNotation, s)
	}
	for i := 0; i < n; i++ {
		if src[i].Step(dir) != dst[i] {
			return Move{}, fmt.Errorf("%w: %q: marbles move in different directions", ErrBadNotation, s)
		}
	}
	player := b.At(src[0])
	if player == board.Empty {
		return Move{}, fmt.Errorf("%w: %q: no marble on %v", ErrBadNotation, s, src[0])
	}
	own := 0
	for own < n && b.At(src[own]) == player {
		own++
	}
	if n == 1 {
		return NewInline(player, src, 1, dir), nil
	}
	lineDir := board.Direction(int(src[1]) - int(src[0]))
	if lineDir == dir {
		return NewInline(player, src, own, dir), nil
	}
	if own != n {
		return Move{}, fmt.Errorf("%w: %q: sidestep includes opposing marbles", ErrBadNotation, s)
	}
	// sidestep groups are kept in ascending cell order.
	sort.Slice(src, func(i, j int) bool { return src[i] < src[j] })
	return NewSidestep(player, src, dir), nil
}
