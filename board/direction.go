package board

// A Direction is the packed-coordinate delta of one step.
type Direction int8

const (
	East      Direction = 1
	West      Direction = -1
	NorthWest Direction = 10
	SouthEast Direction = -10
	NorthEast Direction = 11
	SouthWest Direction = -11
)

// Axes are the three absolute directions. Generation walks them in this
// order.
var Axes = [3]Direction{NorthWest, NorthEast, East}

var Directions = [6]Direction{NorthWest, SouthEast, NorthEast, SouthWest, East, West}

func (d Direction) Opposite() Direction { return -d }

// Axis returns the absolute direction of d.
func (d Direction) Axis() Direction {
	if d < 0 {
		return -d
	}
	return d
}

func (d Direction) Valid() bool {
	switch d {
	case East, West, NorthWest, SouthEast, NorthEast, SouthWest:
		return true
	}
	return false
}

func (d Direction) String() string {
	switch d {
	case East:
		return "E"
	case West:
		return "W"
	case NorthWest:
		return "NW"
	case SouthEast:
		return "SE"
	case NorthEast:
		return "NE"
	case SouthWest:
		return "SW"
	}
	return "?"
}
