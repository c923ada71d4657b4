package tree

// Direction addresses one side of a node or one slot of an Ends pair.
type Direction uint8

const (
	// Left is the leftward direction.
	Left Direction = iota
	// Right is the rightward direction.
	Right
)

// directions lists both sides, for code written once and run per side.
var directions = [2]Direction{Left, Right}

// Negate returns the opposite direction.
func (d Direction) Negate() Direction {
	return d ^ 1
}

// Valid reports whether d is Left or Right.
func (d Direction) Valid() bool {
	return d == Left || d == Right
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "invalid"
	}
}

// Ends is a pair of node references addressed by Direction. As a node's own
// record it holds the first and last child; as a fragment's record it holds
// the two ends of the run. Both slots are None or both are set.
type Ends [2]NodeID

// IsEmpty reports whether both slots are None.
func (e Ends) IsEmpty() bool {
	return e[Left] == None && e[Right] == None
}

// halfEmpty reports whether exactly one slot is set.
func (e Ends) halfEmpty() bool {
	return (e[Left] == None) != (e[Right] == None)
}
