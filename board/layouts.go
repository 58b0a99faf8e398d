package board

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// StartingMarbles is the number of marbles per side in every preset.
	StartingMarbles = 14
	// LosingMarbles is the count at which a side has lost: six pushed off.
	LosingMarbles = 8
)

type Layout struct {
	Name  string
	Black []Coord
	White []Coord
}

var Standard = Layout{
	Name:  "standard",
	Black: []Coord{11, 12, 13, 14, 15, 21, 22, 23, 24, 25, 26, 33, 34, 35},
	White: []Coord{99, 98, 97, 96, 95, 89, 88, 87, 86, 85, 84, 77, 76, 75},
}

var BelgianDaisy = Layout{
	Name:  "belgian-daisy",
	Black: []Coord{11, 12, 21, 22, 23, 32, 33, 99, 98, 89, 88, 87, 78, 77},
	White: []Coord{14, 15, 24, 25, 26, 35, 36, 95, 96, 84, 85, 86, 74, 75},
}

var GermanDaisy = Layout{
	Name:  "german-daisy",
	Black: []Coord{21, 22, 31, 32, 33, 42, 43, 67, 68, 77, 78, 79, 88, 89},
	White: []Coord{25, 26, 35, 36, 37, 46, 47, 63, 64, 73, 74, 75, 84, 85},
}

var layouts = map[string]Layout{
	Standard.Name:     Standard,
	BelgianDaisy.Name: BelgianDaisy,
	GermanDaisy.Name:  GermanDaisy,
}

func LayoutByName(name string) (Layout, error) {
	name = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
	l, ok := layouts[name]
	if !ok {
		return Layout{}, fmt.Errorf("unknown layout %q (have %s)", name,
			strings.Join(LayoutNames(), ", "))
	}
	return l, nil
}

func LayoutNames() []string {
	names := make([]string, 0, len(layouts))
	for n := range layouts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// FromLayout sets up a fresh board. It panics on a malformed preset.
func FromLayout(l Layout) *Board {
	b := New()
	for _, c := range l.Black {
		if err := b.Set(c, Black); err != nil {
			panic(err)
		}
	}
	for _, c := range l.White {
		if err := b.Set(c, White); err != nil {
			panic(err)
		}
	}
	return b
}
