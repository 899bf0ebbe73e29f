package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
)

const (
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Order is the traversal order of path cells within a sweep.
type Order string

const (
	OrderForward Order = "forward"
	OrderReverse Order = "reverse"
)

func ParseOrder(s string) (Order, error) {
	switch o := Order(s); o {
	case OrderForward, OrderReverse:
		return o, nil
	case "synchronous":
		return OrderForward, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownOrder, s)
	}
}

const DefaultMaxSweeps = 100000

type Config struct {
	Actions   []Action
	Gamma     float64
	Threshold float64
	Order     Order
	MaxSweeps int
}

func (c Config) validate() (Config, error) {
	if len(c.Actions) == 0 {
		return c, ErrEmptyActionSet
	}
	if math.IsNaN(c.Gamma) || c.Gamma < 0 || c.Gamma > 1 {
		return c, fmt.Errorf("%w: got %g", ErrInvalidGamma, c.Gamma)
	}
	if math.IsNaN(c.Threshold) || c.Threshold <= 0 {
		return c, fmt.Errorf("%w: got %g", ErrInvalidThreshold, c.Threshold)
	}
	if c.Order == "" {
		c.Order = OrderForward
	}
	order, err := ParseOrder(string(c.Order))
	if err != nil {
		return c, err
	}
	c.Order = order
	if c.MaxSweeps <= 0 {
		c.MaxSweeps = DefaultMaxSweeps
	}
	c.Actions = cloneActions(c.Actions)
	return c, nil
}

type Snapshot struct {
	Sweep  int        `json:"sweep"`
	Delta  float64    `json:"delta"`
	Values ValueTable `json:"values"`
	Status string     `json:"status"`
	Error  string     `json:"error,omitempty"`

	err error
}

// Err is the error behind a failed snapshot, nil otherwise.
func (s Snapshot) Err() error {
	return s.err
}

type Result struct {
	Sweeps    int        `json:"sweeps"`
	Delta     float64    `json:"delta"`
	Deltas    []float64  `json:"deltas"`
	Converged bool       `json:"converged"`
	Values    ValueTable `json:"values"`
}

// Evaluator runs iterative policy evaluation of the uniform random policy
// over a fixed action set. Both orders update values in place.
type Evaluator struct {
	cfg    Config
	grid   *Grid
	deltas []float64
}

func NewEvaluator(grid *Grid, cfg Config) (*Evaluator, error) {
	if grid == nil {
		return nil, errors.New("engine: evaluator needs a grid")
	}
	validated, err := cfg.validate()
	if err != nil {
		return nil, err
	}
	if len(grid.pathCells) == 0 {
		return nil, ErrNoPathCells
	}
	return &Evaluator{cfg: validated, grid: grid}, nil
}

func (e *Evaluator) Config() Config {
	cfg := e.cfg
	cfg.Actions = cloneActions(cfg.Actions)
	return cfg
}

func (e *Evaluator) Grid() *Grid {
	return e.grid
}

// Init zeroes every non-Wall value and clears the sweep history.
func (e *Evaluator) Init() {
	e.grid.InitValues(0)
	e.deltas = nil
}

// Sweep performs one full pass over the path cells and returns the largest
// absolute value change observed. The grid may have been reconfigured since
// NewEvaluator, so an empty path index is checked again here.
func (e *Evaluator) Sweep() (float64, error) {
	cells := e.grid.pathCells
	if len(cells) == 0 {
		return 0, ErrNoPathCells
	}
	delta := 0.0
	n := len(cells)
	for i := 0; i < n; i++ {
		cell := cells[i]
		if e.cfg.Order == OrderReverse {
			cell = cells[n-1-i]
		}
		old := e.grid.Value(cell)
		updated, err := e.backup(cell)
		if err != nil {
			return 0, fmt.Errorf("backup %s: %w", cell.loc, err)
		}
		e.grid.SetValue(cell, updated)
		delta = math.Max(delta, math.Abs(old-updated))
	}
	e.deltas = append(e.deltas, delta)
	return delta, nil
}

func (e *Evaluator) backup(cell *Cell) (float64, error) {
	weight := 1 / float64(len(e.cfg.Actions))
	total := 0.0
	for _, action := range e.cfg.Actions {
		next, err := e.grid.Transition(cell, action)
		if err != nil {
			return 0, err
		}
		total += weight * (e.grid.Reward(next) + e.cfg.Gamma*e.grid.Value(next))
	}
	return total, nil
}

// Solve sweeps from the current values until a sweep changes no value by
// threshold or more. Call Init first to start from zero. When MaxSweeps
// passes without convergence the partial result is returned with
// ErrNotConverged.
func (e *Evaluator) Solve() (Result, error) {
	for sweeps := 0; ; sweeps++ {
		if sweeps >= e.cfg.MaxSweeps {
			return e.Result(), fmt.Errorf("%w: %d sweeps, last delta %g", ErrNotConverged, sweeps, e.lastDelta())
		}
		delta, err := e.Sweep()
		if err != nil {
			return e.Result(), err
		}
		if delta < e.cfg.Threshold {
			return e.Result(), nil
		}
	}
}

// Run executes Solve on its own goroutine and streams a snapshot after every
// sweep. The grid belongs to that goroutine until the channel is closed.
func (e *Evaluator) Run(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot)
	go func() {
		defer close(out)
		for sweeps := 0; ; sweeps++ {
			select {
			case <-ctx.Done():
				out <- e.snapshot(StatusCancelled, nil)
				return
			default:
			}
			if sweeps >= e.cfg.MaxSweeps {
				out <- e.snapshot(StatusFailed, fmt.Errorf("%w: %d sweeps", ErrNotConverged, sweeps))
				return
			}
			delta, err := e.Sweep()
			if err != nil {
				out <- e.snapshot(StatusFailed, err)
				return
			}
			if delta < e.cfg.Threshold {
				out <- e.snapshot(StatusDone, nil)
				return
			}
			out <- e.snapshot(StatusRunning, nil)
		}
	}()
	return out
}

// Result summarises the sweeps performed since the last Init.
func (e *Evaluator) Result() Result {
	deltas := make([]float64, len(e.deltas))
	copy(deltas, e.deltas)
	res := Result{
		Sweeps: len(deltas),
		Deltas: deltas,
		Values: e.grid.Values(),
	}
	if len(deltas) > 0 {
		res.Delta = deltas[len(deltas)-1]
		res.Converged = res.Delta < e.cfg.Threshold
	}
	return res
}

func (e *Evaluator) lastDelta() float64 {
	if len(e.deltas) == 0 {
		return math.Inf(1)
	}
	return e.deltas[len(e.deltas)-1]
}

func (e *Evaluator) snapshot(status string, err error) Snapshot {
	snap := Snapshot{
		Sweep:  len(e.deltas),
		Values: e.grid.Values(),
		Status: status,
	}
	if len(e.deltas) > 0 {
		snap.Delta = e.deltas[len(e.deltas)-1]
	}
	if err != nil {
		snap.err = err
		snap.Error = err.Error()
	}
	return snap
}
