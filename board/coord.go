package board

import (
	"errors"
	"fmt"
	"strings"
)

// A Coord packs a cell as column*10 + row. Columns are lettered A-I
// (1-9) and rows are numbered 1-9. Only 61 of the packed values fall
// inside the hexagon.
type Coord uint8

// NoCoord is never a valid cell. Move destinations use it for a marble
// that leaves the board.
const NoCoord Coord = 0

const (
	NumCells = 61
	// Center is E5.
	Center Coord = 55

	minCol = 1
	maxCol = 9
	// a column may span at most this far from the row that shares its number.
	hexRadius = 4
)

var ErrInvalidCoord = errors.New("invalid coordinate")

var (
	cellIndex [100]int8
	cellCoord [NumCells]Coord
)

func init() {
	idx := int8(0)
	for c := 0; c < 100; c++ {
		cellIndex[c] = -1
		if validPacked(c) {
			cellIndex[c] = idx
			cellCoord[idx] = Coord(c)
			idx++
		}
	}
	if idx != NumCells {
		panic(fmt.Sprintf("expected %d cells, found %d", NumCells, idx))
	}
}

func validPacked(c int) bool {
	if c < 0 || c > 99 {
		return false
	}
	col, row := c/10, c%10
	if col < minCol || col > maxCol || row < minCol || row > maxCol {
		return false
	}
	d := col - row
	return d <= hexRadius && d >= -hexRadius
}

func NewCoord(col, row int) Coord {
	if col < 0 || row < 0 || col > 9 || row > 9 {
		return NoCoord
	}
	c := col*10 + row
	if !validPacked(c) {
		return NoCoord
	}
	return Coord(c)
}

func (c Coord) Col() int { return int(c) / 10 }
func (c Coord) Row() int { return int(c) % 10 }

func (c Coord) Valid() bool {
	return int(c) < len(cellIndex) && cellIndex[c] >= 0
}

// Index is the dense 0-60 cell number, or -1 for an off-board coordinate.
func (c Coord) Index() int {
	if int(c) >= len(cellIndex) {
		return -1
	}
	return int(cellIndex[c])
}

// CoordAt is the inverse of Index.
func CoordAt(idx int) Coord {
	return cellCoord[idx]
}

// Step moves the coordinate once in direction d. It returns NoCoord if
// the result is off the board.
func (c Coord) Step(d Direction) Coord {
	n := int(c) + int(d)
	if !validPacked(n) {
		return NoCoord
	}
	return Coord(n)
}

func (c Coord) String() string {
	if !c.Valid() {
		return "n0"
	}
	return string(rune('A'+c.Col()-1)) + string(rune('0'+c.Row()))
}

// ParseCoord parses a two-character cell such as "E5". It is case
// insensitive. "n0" parses to NoCoord with no error.
func ParseCoord(s string) (Coord, error) {
	if len(s) != 2 {
		return NoCoord, fmt.Errorf("%w: %q", ErrInvalidCoord, s)
	}
	s = strings.ToUpper(s)
	if s == "N0" {
		return NoCoord, nil
	}
	col := int(s[0]-'A') + 1
	row := int(s[1] - '0')
	c := NewCoord(col, row)
	if c == NoCoord {
		return NoCoord, fmt.Errorf("%w: %q", ErrInvalidCoord, s)
	}
	return c, nil
}

// Distance is the number of single steps between two on-board cells.
func Distance(a, b Coord) int {
	dc := a.Col() - b.Col()
	dr := a.Row() - b.Row()
	if (dc >= 0) == (dr >= 0) {
		return max(abs(dc), abs(dr))
	}
	return abs(dc) + abs(dr)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// AllCoords lists every on-board cell in ascending order.
func AllCoords() []Coord {
	out := make([]Coord, NumCells)
	copy(out, cellCoord[:])
	return out
}
