package move

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/sumito-ai/sumito/board"
)

type notationTestStruct struct {
	m      Move
	output string
}

var notationTests = []notationTestStruct{
	{NewInline(board.Black, []board.Coord{11, 22, 33}, 3, board.NorthEast), "A1B2C3-B2C3D4"},
	{NewInline(board.Black, []board.Coord{15}, 1, board.NorthWest), "A5-B5"},
	{NewSidestep(board.White, []board.Coord{75, 76, 77}, board.SouthEast), "G5G6G7-F5F6F7"},
	{NewInline(board.Black, []board.Coord{75, 85, 95}, 2, board.NorthWest), "G5H5I5-H5I5n0"},
}

func TestMoveString(t *testing.T) {
	for _, tc := range notationTests {
		if tc.m.String() != tc.output {
			t.Errorf("got %v, expected %v", tc.m.String(), tc.output)
		}
	}
}

func TestCaptures(t *testing.T) {
	is := is.New(t)
	is.True(notationTests[3].m.Captures())
	is.Equal(notationTests[3].m.Pushed(), 1)
	is.True(!notationTests[0].m.Captures())
	is.Equal(notationTests[2].m.Pushed(), 0)
}

func TestFromString(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)

	m, err := FromString("a1b2c3-b2c3d4", b)
	is.NoErr(err)
	is.Equal(m, notationTests[0].m)

	m, err = FromString("G5G6G7-F5F6F7", b)
	is.NoErr(err)
	is.Equal(m.Action(), MoveTypeSidestep)
	is.Equal(m.Player(), board.White)
	is.Equal(m.Direction(), board.SouthEast)
}

func TestFromStringPush(t *testing.T) {
	is := is.New(t)
	b := board.New()
	is.NoErr(b.Set(75, board.Black))
	is.NoErr(b.Set(85, board.Black))
	is.NoErr(b.Set(95, board.White))

	m, err := FromString("G5H5I5-H5I5n0", b)
	is.NoErr(err)
	is.Equal(m, notationTests[3].m)
	is.True(m.Captures())
}

func TestFromStringErrors(t *testing.T) {
	is := is.New(t)
	b := board.FromLayout(board.Standard)
	for _, s := range []string{
		"", "A1", "A1-", "A1B2-B2", "A1-C3", "A1B2-B2B3", "E5-E6", "n0-A1", "A1B1-n0B2",
	} {
		_, err := FromString(s, b)
		is.True(errors.Is(err, ErrBadNotation))
	}
}
