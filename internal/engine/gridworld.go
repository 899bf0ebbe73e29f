package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
)

// ResetPolicy selects where the agent lands after a reset event.
type ResetPolicy string

const (
	ResetToStart      ResetPolicy = "start"
	ResetToRandomPath ResetPolicy = "random"
)

func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch p := ResetPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case ResetToStart, ResetToRandomPath:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResetPolicy, s)
	}
}

// Grid is a rectangular world of cells surrounded by a one-cell perimeter.
// The derived indexes (path cells, occupiable cells, start cell) are rebuilt
// at the end of every mutating call.
type Grid struct {
	rows, cols    int
	cells         [][]Cell
	pathCells     []*Cell
	occupiable    []*Cell
	start         *Cell
	baseReward    float64
	borderReset   ResetPolicy
	terminalReset ResetPolicy
	rng           *rand.Rand
	logger        *slog.Logger
}

// NewGrid builds a grid with rows x cols interior cells; the stored shape is
// (rows+2, cols+2). A nil rng is replaced by one seeded with 1.
func NewGrid(rows, cols int, rng *rand.Rand) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidShape, rows, cols)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	total := rows + 2
	width := cols + 2
	cells := make([][]Cell, total)
	for r := 0; r < total; r++ {
		cells[r] = make([]Cell, width)
		for c := 0; c < width; c++ {
			cells[r][c].loc = Location{Row: r, Col: c}
		}
	}
	return &Grid{
		rows:          total,
		cols:          width,
		cells:         cells,
		borderReset:   ResetToRandomPath,
		terminalReset: ResetToStart,
		rng:           rng,
		logger:        slog.Default(),
	}, nil
}

// Shape returns the stored dimensions, perimeter included.
func (g *Grid) Shape() (rows, cols int) {
	return g.rows, g.cols
}

func (g *Grid) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	g.logger = logger
}

func (g *Grid) BaseReward() float64 {
	return g.baseReward
}

func (g *Grid) SetBaseReward(reward float64) {
	g.baseReward = reward
}

func (g *Grid) BorderReset() ResetPolicy {
	return g.borderReset
}

func (g *Grid) TerminalReset() ResetPolicy {
	return g.terminalReset
}

func (g *Grid) SetBorderReset(p ResetPolicy) error {
	p, err := ParseResetPolicy(string(p))
	if err != nil {
		return err
	}
	g.borderReset = p
	return nil
}

func (g *Grid) SetTerminalReset(p ResetPolicy) error {
	p, err := ParseResetPolicy(string(p))
	if err != nil {
		return err
	}
	g.terminalReset = p
	return nil
}

func (g *Grid) inBounds(loc Location) bool {
	return loc.Row >= 0 && loc.Row < g.rows && loc.Col >= 0 && loc.Col < g.cols
}

func (g *Grid) onPerimeter(loc Location) bool {
	return loc.Row == 0 || loc.Row == g.rows-1 || loc.Col == 0 || loc.Col == g.cols-1
}

// Cell returns the cell stored at loc.
func (g *Grid) Cell(loc Location) (*Cell, error) {
	if !g.inBounds(loc) {
		return nil, fmt.Errorf("%w: %s in %dx%d", ErrOutOfBounds, loc, g.rows, g.cols)
	}
	return &g.cells[loc.Row][loc.Col], nil
}

// SetBorder configures every perimeter cell with the given category and
// reward. Border cells never carry actions.
func (g *Grid) SetBorder(category Category, reward RewardDistribution) error {
	if err := validateCell(category, reward); err != nil {
		return fmt.Errorf("set border: %w", err)
	}
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			loc := Location{Row: r, Col: c}
			if !g.onPerimeter(loc) {
				continue
			}
			g.configure(&g.cells[r][c], category, reward, NoActions)
		}
	}
	g.rebuildIndex()
	return nil
}

// SetCells configures the listed locations, or every interior cell when
// locations is empty. Nothing is mutated unless every argument is valid.
func (g *Grid) SetCells(locations []Location, category Category, reward RewardDistribution, actions Direction) error {
	if err := validateCell(category, reward); err != nil {
		return fmt.Errorf("set cells: %w", err)
	}
	targets, err := g.targets(locations)
	if err != nil {
		return fmt.Errorf("set cells: %w", err)
	}
	for _, cell := range targets {
		g.configure(cell, category, reward, actions)
	}
	g.rebuildIndex()
	return nil
}

// SetReward replaces the reward distribution of a single cell without
// touching its category.
func (g *Grid) SetReward(loc Location, reward RewardDistribution) error {
	if err := reward.validate(); err != nil {
		return fmt.Errorf("set reward: %w", err)
	}
	cell, err := g.Cell(loc)
	if err != nil {
		return fmt.Errorf("set reward: %w", err)
	}
	cell.reward = reward
	return nil
}

func (g *Grid) targets(locations []Location) ([]*Cell, error) {
	if len(locations) == 0 {
		targets := make([]*Cell, 0, (g.rows-2)*(g.cols-2))
		for r := 1; r < g.rows-1; r++ {
			for c := 1; c < g.cols-1; c++ {
				targets = append(targets, &g.cells[r][c])
			}
		}
		return targets, nil
	}
	targets := make([]*Cell, 0, len(locations))
	for _, loc := range locations {
		cell, err := g.Cell(loc)
		if err != nil {
			return nil, err
		}
		targets = append(targets, cell)
	}
	return targets, nil
}

func (g *Grid) configure(cell *Cell, category Category, reward RewardDistribution, actions Direction) {
	if category == Start && g.start != nil && g.start != cell && g.start.category == Start {
		g.logger.Warn("start cell replaced", "previous", g.start.loc.String(), "location", cell.loc.String())
		g.start.setCategory(Path)
	}
	previous := cell.category
	if cell.configure(category, cell.loc, reward, actions) {
		g.logger.Warn("cell reconfigured", "location", cell.loc.String(), "previous", previous.String(), "category", category.String())
	}
	if category == Start {
		g.start = cell
	}
}

func (g *Grid) rebuildIndex() {
	g.pathCells = g.pathCells[:0]
	g.occupiable = g.occupiable[:0]
	g.start = nil
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := &g.cells[r][c]
			if !cell.category.occupiable() {
				continue
			}
			g.occupiable = append(g.occupiable, cell)
			if !cell.category.evaluable() {
				continue
			}
			g.pathCells = append(g.pathCells, cell)
			if cell.category == Start {
				g.start = cell
			}
		}
	}
}

// PathCells lists the non-terminal evaluable cells in row-major order.
func (g *Grid) PathCells() []*Cell {
	return cloneCells(g.pathCells)
}

func (g *Grid) OccupiableCells() []*Cell {
	return cloneCells(g.occupiable)
}

func (g *Grid) StartCell() (*Cell, bool) {
	return g.start, g.start != nil
}

// Transition returns the cell reached by taking action from cell. The rules
// apply in order: a Ravine destination resets per the border policy, a Goal or
// Ditch origin resets per the terminal policy, a Wall origin stays put, and
// anything else moves to the destination.
func (g *Grid) Transition(cell *Cell, action Action) (*Cell, error) {
	next, err := g.Cell(cell.loc.Add(action))
	if err != nil {
		return nil, err
	}
	switch {
	case next.category == Ravine:
		return g.ResetCell(g.borderReset)
	case cell.category.terminal():
		return g.ResetCell(g.terminalReset)
	case cell.category == Wall:
		return cell, nil
	default:
		return next, nil
	}
}

func (g *Grid) ResetCell(policy ResetPolicy) (*Cell, error) {
	switch policy {
	case ResetToStart:
		if g.start == nil {
			return nil, ErrNoStart
		}
		return g.start, nil
	case ResetToRandomPath:
		if len(g.pathCells) == 0 {
			return nil, ErrNoPathCells
		}
		return g.pathCells[g.rng.Intn(len(g.pathCells))], nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownResetPolicy, policy)
	}
}

// Reward samples the cell's reward and adds the grid-wide base reward.
func (g *Grid) Reward(cell *Cell) float64 {
	return g.baseReward + cell.SampleReward(g.rng)
}

func (g *Grid) Value(cell *Cell) float64 {
	return cell.value
}

func (g *Grid) SetValue(cell *Cell, value float64) {
	cell.value = value
}

// InitValues resets the value of every non-Wall cell, perimeter included.
func (g *Grid) InitValues(value float64) {
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			cell := &g.cells[r][c]
			if cell.category == Wall {
				continue
			}
			cell.value = value
		}
	}
}

func cloneCells(cells []*Cell) []*Cell {
	if len(cells) == 0 {
		return nil
	}
	copied := make([]*Cell, len(cells))
	copy(copied, cells)
	return copied
}
