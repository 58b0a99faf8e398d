package board

import (
	"fmt"
	"strings"
)

type Player int8

const (
	Black Player = 0
	White Player = 1
	// Empty marks a vacant cell.
	Empty Player = -1
)

func (p Player) Opponent() Player { return 1 - p }

func (p Player) String() string {
	switch p {
	case Black:
		return "black"
	case White:
		return "white"
	}
	return "empty"
}

// Board holds the occupant of every cell. It is a plain value: copying
// the struct copies the position.
type Board struct {
	cells  [NumCells]Player
	counts [2]int8
}

func New() *Board {
	b := &Board{}
	b.Clear()
	return b
}

func (b *Board) Clear() {
	for i := range b.cells {
		b.cells[i] = Empty
	}
	b.counts = [2]int8{}
}

// At returns Empty for off-board coordinates.
func (b *Board) At(c Coord) Player {
	idx := c.Index()
	if idx < 0 {
		return Empty
	}
	return b.cells[idx]
}

// AtIndex reads a cell by its dense index.
func (b *Board) AtIndex(idx int) Player {
	return b.cells[idx]
}

// Set places p on c, replacing any previous occupant. Setting Empty
// clears the cell.
func (b *Board) Set(c Coord, p Player) error {
	idx := c.Index()
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCoord, c)
	}
	b.put(idx, p)
	return nil
}

func (b *Board) put(idx int, p Player) {
	if old := b.cells[idx]; old != Empty {
		b.counts[old]--
	}
	b.cells[idx] = p
	if p != Empty {
		b.counts[p]++
	}
}

// Remove empties c and returns what was there.
func (b *Board) Remove(c Coord) Player {
	idx := c.Index()
	if idx < 0 {
		return Empty
	}
	old := b.cells[idx]
	b.put(idx, Empty)
	return old
}

func (b *Board) Count(p Player) int {
	return int(b.counts[p])
}

func (b *Board) Total() int {
	return int(b.counts[0] + b.counts[1])
}

func (b *Board) Copy() *Board {
	c := *b
	return &c
}

func (b *Board) CopyFrom(o *Board) {
	*b = *o
}

func (b *Board) Equals(o *Board) bool {
	return b.cells == o.cells
}

// Marbles lists the cells owned by p in ascending coordinate order.
func (b *Board) Marbles(p Player) []Coord {
	out := make([]Coord, 0, b.counts[p])
	for i, o := range b.cells {
		if o == p {
			out = append(out, cellCoord[i])
		}
	}
	return out
}

// Cells returns every occupied cell and its owner.
func (b *Board) Cells() map[Coord]Player {
	m := make(map[Coord]Player, b.Total())
	for i, o := range b.cells {
		if o != Empty {
			m[cellCoord[i]] = o
		}
	}
	return m
}

// FromCells builds a board from an occupancy map.
func FromCells(cells map[Coord]Player) (*Board, error) {
	b := New()
	for c, p := range cells {
		if p != Black && p != White {
			return nil, fmt.Errorf("cell %v has bad owner %d", c, p)
		}
		if err := b.Set(c, p); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ToDisplayText draws the hexagon with column I on top.
//
//	I     O O O O O
//	H    O O O O O O
//	...
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	for col := maxCol; col >= minCol; col-- {
		lo, hi := rowBounds(col)
		sb.WriteString(fmt.Sprintf("%c ", 'A'+col-1))
		sb.WriteString(strings.Repeat(" ", abs(col-5)))
		for row := lo; row <= hi; row++ {
			switch b.At(NewCoord(col, row)) {
			case Black:
				sb.WriteString("X ")
			case White:
				sb.WriteString("O ")
			default:
				sb.WriteString(". ")
			}
		}
		if col >= 2 && col <= 5 {
			sb.WriteString(fmt.Sprintf("%d", hi))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("      ")
	sb.WriteString(strings.Join([]string{"1", "2", "3", "4", "5"}, " "))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("black: %d  white: %d\n", b.Count(Black), b.Count(White)))
	return sb.String()
}

func rowBounds(col int) (int, int) {
	return max(minCol, col-hexRadius), min(maxCol, col+hexRadius)
}

// Shift moves the marble on src one step in direction d. A marble
// stepping off the board is removed; Shift reports that as a capture.
func (b *Board) Shift(src Coord, d Direction) (captured bool) {
	owner := b.Remove(src)
	dst := src.Step(d)
	if dst == NoCoord {
		return owner != Empty
	}
	b.put(dst.Index(), owner)
	return false
}
