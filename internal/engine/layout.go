package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
)

type Placement struct {
	Location Location           `json:"location"`
	Category Category           `json:"category"`
	Reward   RewardDistribution `json:"reward"`
	Actions  Direction          `json:"actions"`
}

// Layout describes a grid the way a driver configures one: border first,
// then a bulk interior fill, then individual placements in order. Unset
// Border or Fill steps are skipped; empty reset policies keep the grid
// defaults.
type Layout struct {
	Name          string             `json:"name"`
	Rows          int                `json:"rows"`
	Cols          int                `json:"cols"`
	Border        Category           `json:"border"`
	BorderReward  RewardDistribution `json:"borderReward"`
	Fill          Category           `json:"fill"`
	FillReward    RewardDistribution `json:"fillReward"`
	FillActions   Direction          `json:"fillActions"`
	Placements    []Placement        `json:"placements"`
	BaseReward    float64            `json:"baseReward"`
	BorderReset   ResetPolicy        `json:"borderReset,omitempty"`
	TerminalReset ResetPolicy        `json:"terminalReset,omitempty"`
}

func (l Layout) Build(rng *rand.Rand, logger *slog.Logger) (*Grid, error) {
	grid, err := NewGrid(l.Rows, l.Cols, rng)
	if err != nil {
		return nil, err
	}
	grid.SetLogger(logger)
	grid.SetBaseReward(l.BaseReward)
	if l.BorderReset != "" {
		if err := grid.SetBorderReset(l.BorderReset); err != nil {
			return nil, err
		}
	}
	if l.TerminalReset != "" {
		if err := grid.SetTerminalReset(l.TerminalReset); err != nil {
			return nil, err
		}
	}
	if l.Border != Unset {
		if err := grid.SetBorder(l.Border, l.BorderReward); err != nil {
			return nil, err
		}
	}
	if l.Fill != Unset {
		if err := grid.SetCells(nil, l.Fill, l.FillReward, l.FillActions); err != nil {
			return nil, err
		}
	}
	for _, p := range l.Placements {
		if err := grid.SetCells([]Location{p.Location}, p.Category, p.Reward, p.Actions); err != nil {
			return nil, fmt.Errorf("place %s at %s: %w", p.Category, p.Location, err)
		}
	}
	return grid, nil
}

// ClassicLayout is the 4x3 demo world: wall border, one interior wall, a
// goal worth +10 beside a ditch worth -10, and the start in the corner
// opposite the goal.
func ClassicLayout() Layout {
	zero := RewardDistribution{}
	return Layout{
		Name:         "classic",
		Rows:         4,
		Cols:         3,
		Border:       Wall,
		BorderReward: zero,
		Fill:         Path,
		FillReward:   zero,
		FillActions:  DefaultActions,
		Placements: []Placement{
			{Location: Location{Row: 2, Col: 2}, Category: Wall, Reward: zero},
			{Location: Location{Row: 4, Col: 3}, Category: Goal, Reward: RewardDistribution{Mean: 10}},
			{Location: Location{Row: 4, Col: 2}, Category: Ditch, Reward: RewardDistribution{Mean: -10}},
			{Location: Location{Row: 1, Col: 1}, Category: Start, Reward: zero, Actions: DefaultActions},
		},
	}
}

// DefaultRewards is the reward table ParseLayout falls back to.
func DefaultRewards() map[Category]RewardDistribution {
	return map[Category]RewardDistribution{
		Goal:  {Mean: 10},
		Ditch: {Mean: -10},
		Bonus: {Mean: 1},
		Fine:  {Mean: -1},
	}
}

// ParseLayout reads a text map of category tags, perimeter included. The
// first line is the highest row. Tags may be separated by spaces or packed
// ("WWWWW"). The outer ring may only hold walls and ravines. Categories
// missing from rewards get a zero distribution.
func ParseLayout(name string, lines []string, rewards map[Category]RewardDistribution) (Layout, error) {
	var grid [][]Category
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) == 1 {
			tokens = strings.Split(tokens[0], "")
		}
		row := make([]Category, len(tokens))
		for i, tok := range tokens {
			c, err := ParseCategory(tok)
			if err != nil {
				return Layout{}, fmt.Errorf("%w: line %d: %w", ErrInvalidLayout, len(grid)+1, err)
			}
			row[i] = c
		}
		if len(grid) > 0 && len(row) != len(grid[0]) {
			return Layout{}, fmt.Errorf("%w: line %d has %d cells, want %d", ErrInvalidLayout, len(grid)+1, len(row), len(grid[0]))
		}
		grid = append(grid, row)
	}
	if len(grid) < 3 || len(grid[0]) < 3 {
		return Layout{}, fmt.Errorf("%w: need at least 3x3 cells including the perimeter", ErrInvalidLayout)
	}
	height := len(grid)
	width := len(grid[0])
	for i, row := range grid {
		for c, category := range row {
			onRing := i == 0 || i == height-1 || c == 0 || c == width-1
			if onRing && category != Wall && category != Ravine {
				return Layout{}, fmt.Errorf("%w: perimeter cell %s is %s, want Wall or Ravine",
					ErrInvalidLayout, Location{Row: height - 1 - i, Col: c}, category)
			}
		}
	}
	layout := Layout{
		Name:       name,
		Rows:       height - 2,
		Cols:       width - 2,
		Placements: make([]Placement, 0, height*width),
	}
	// Start last so a single start survives whatever order the map lists it in.
	var starts []Placement
	for i, row := range grid {
		r := height - 1 - i
		for c, category := range row {
			p := Placement{
				Location: Location{Row: r, Col: c},
				Category: category,
				Reward:   rewards[category],
				Actions:  DefaultActions,
			}
			if category == Start {
				starts = append(starts, p)
				continue
			}
			layout.Placements = append(layout.Placements, p)
		}
	}
	layout.Placements = append(layout.Placements, starts...)
	return layout, nil
}

// Render writes a layout back out as tag lines, highest row first.
func (g *Grid) Render() []string {
	lines := make([]string, 0, g.rows)
	for r := g.rows - 1; r >= 0; r-- {
		var b strings.Builder
		for c := 0; c < g.cols; c++ {
			b.WriteString(g.cells[r][c].category.Tag())
		}
		lines = append(lines, b.String())
	}
	return lines
}
