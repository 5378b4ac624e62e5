package domain

// StateID is the interned identifier of a state label within one Definition.
type StateID int

// SymbolID is the interned identifier of a tape symbol within one Definition.
type SymbolID int

// Direction is the head movement applied after a transition.
type Direction int

const (
	// DirectionNone leaves the head in place. The parser produces it for
	// unrecognized direction tokens when strict directions are off.
	DirectionNone Direction = iota
	DirectionLeft
	DirectionRight
)

// ParseDirection maps a direction token to a Direction.
// The boolean is false when the token is neither "L" nor "R".
func ParseDirection(token string) (Direction, bool) {
	switch token {
	case "L":
		return DirectionLeft, true
	case "R":
		return DirectionRight, true
	}
	return DirectionNone, false
}

// Delta returns the head offset for the direction.
func (d Direction) Delta() int {
	switch d {
	case DirectionLeft:
		return -1
	case DirectionRight:
		return 1
	}
	return 0
}

func (d Direction) String() string {
	switch d {
	case DirectionLeft:
		return "L"
	case DirectionRight:
		return "R"
	}
	return "-"
}

// TransitionKey is the composite key of the transition table.
type TransitionKey struct {
	State  StateID
	Symbol SymbolID
}

// Action is the right-hand side of a transition: where to go, what to write, how to move.
type Action struct {
	Next  StateID
	Write SymbolID
	Move  Direction

	// RawMove keeps the direction token as declared, for rendering.
	RawMove string
}

// Transition is a fully resolved table entry, used for introspection and rendering.
type Transition struct {
	From      string `json:"from" yaml:"from"`
	Read      string `json:"read" yaml:"read"`
	To        string `json:"to" yaml:"to"`
	Write     string `json:"write" yaml:"write"`
	Direction string `json:"direction" yaml:"direction"`
}
