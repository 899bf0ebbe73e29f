package engine

import "fmt"

// Location addresses a cell as (row, col), perimeter included. Row grows
// upward in rendered output (row 0 is the bottom perimeter) and Col grows
// rightward; storage is cells[row][col].
type Location struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (l Location) Add(a Action) Location {
	return Location{Row: l.Row + a.DRow, Col: l.Col + a.DCol}
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Row, l.Col)
}

// Action is a coordinate delta applied to a Location.
type Action struct {
	DRow int `json:"dRow"`
	DCol int `json:"dCol"`
}

func (a Action) String() string {
	return fmt.Sprintf("(%d, %d)", a.DRow, a.DCol)
}

// Direction is a bitmask over the eight compass moves.
type Direction uint8

const (
	Up Direction = 1 << iota
	Down
	Left
	Right
	UpLeft
	DownLeft
	UpRight
	DownRight
)

const (
	NoActions      Direction = 0
	DefaultActions           = Up | Down | Left | Right
	AllDirections            = DefaultActions | UpLeft | DownLeft | UpRight | DownRight
)

var directionOrder = [...]Direction{Up, Down, Left, Right, UpLeft, DownLeft, UpRight, DownRight}

var directionDeltas = map[Direction]Action{
	Up:        {DRow: 1, DCol: 0},
	Down:      {DRow: -1, DCol: 0},
	Left:      {DRow: 0, DCol: -1},
	Right:     {DRow: 0, DCol: 1},
	UpLeft:    {DRow: 1, DCol: -1},
	DownLeft:  {DRow: -1, DCol: -1},
	UpRight:   {DRow: 1, DCol: 1},
	DownRight: {DRow: -1, DCol: 1},
}

var directionNames = map[Direction]string{
	Up:        "U",
	Down:      "D",
	Left:      "L",
	Right:     "R",
	UpLeft:    "UL",
	DownLeft:  "DL",
	UpRight:   "UR",
	DownRight: "DR",
}

func (d Direction) Has(other Direction) bool {
	return other != NoActions && d&other == other
}

// Actions expands the mask into deltas ordered U, D, L, R, UL, DL, UR, DR.
func (d Direction) Actions() []Action {
	actions := make([]Action, 0, len(directionOrder))
	for _, dir := range directionOrder {
		if d.Has(dir) {
			actions = append(actions, directionDeltas[dir])
		}
	}
	return actions
}

func (d Direction) String() string {
	if d == NoActions {
		return "none"
	}
	out := ""
	for _, dir := range directionOrder {
		if !d.Has(dir) {
			continue
		}
		if out != "" {
			out += "|"
		}
		out += directionNames[dir]
	}
	return out
}

// FourNeighbors is the action set of the classic demo: up, down, right, left.
func FourNeighbors() []Action {
	return []Action{{DRow: 1}, {DRow: -1}, {DCol: 1}, {DCol: -1}}
}

func EightNeighbors() []Action {
	return AllDirections.Actions()
}

func cloneActions(actions []Action) []Action {
	if len(actions) == 0 {
		return nil
	}
	copied := make([]Action, len(actions))
	copy(copied, actions)
	return copied
}
