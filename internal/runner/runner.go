package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/model"
	"tiny-dp-go/internal/storage"
)

var ErrEvaluationFailed = errors.New("runner: evaluation failed")

// Prepare builds the grid described by s and an evaluator over it with all
// values zeroed.
func Prepare(s Settings, logger *slog.Logger) (*engine.Evaluator, error) {
	layout, err := s.Layout()
	if err != nil {
		return nil, err
	}
	grid, err := layout.Build(rand.New(rand.NewSource(s.Seed)), logger)
	if err != nil {
		return nil, err
	}
	cfg, err := s.EvaluatorConfig()
	if err != nil {
		return nil, err
	}
	ev, err := engine.NewEvaluator(grid, cfg)
	if err != nil {
		return nil, err
	}
	ev.Init()
	return ev, nil
}

// Execute drains ev.Run, handing every snapshot to onSnapshot, and returns
// the final result. The grid must not be touched from onSnapshot.
func Execute(ctx context.Context, ev *engine.Evaluator, onSnapshot func(engine.Snapshot)) (engine.Result, error) {
	var last engine.Snapshot
	for snap := range ev.Run(ctx) {
		if onSnapshot != nil {
			onSnapshot(snap)
		}
		last = snap
	}
	res := ev.Result()
	switch last.Status {
	case engine.StatusDone:
		return res, nil
	case engine.StatusCancelled:
		return res, ctx.Err()
	default:
		if last.Err() == nil {
			return res, fmt.Errorf("%w: %s", ErrEvaluationFailed, last.Error)
		}
		return res, fmt.Errorf("%w: %w", ErrEvaluationFailed, last.Err())
	}
}

// Record turns a finished evaluation into a storable run.
func Record(s Settings, grid *engine.Grid, res engine.Result) model.Run {
	layout, _ := s.Layout()
	actions, _ := s.ActionSet()
	return storage.Stamp(model.Run{
		ID:        model.NewRunID(),
		CreatedAt: time.Now().UTC(),
		Settings: model.RunSettings{
			Layout:        layout.Name,
			Map:           grid.Render(),
			Order:         string(s.Order),
			Gamma:         s.Gamma,
			Threshold:     s.Threshold,
			BaseReward:    s.BaseReward,
			BorderReset:   string(grid.BorderReset()),
			TerminalReset: string(grid.TerminalReset()),
			Seed:          s.Seed,
			MaxSweeps:     s.MaxSweeps,
			Actions:       len(actions),
		},
		Sweeps:    res.Sweeps,
		Delta:     res.Delta,
		Converged: res.Converged,
		Deltas:    res.Deltas,
		Values:    res.Values,
	})
}

// Evaluate prepares, runs and records one evaluation, saving the run when
// store is not nil. A run that hits the sweep cap is still recorded and
// saved; it is returned together with the wrapped engine.ErrNotConverged.
func Evaluate(ctx context.Context, s Settings, store storage.Store, logger *slog.Logger) (model.Run, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ev, err := Prepare(s, logger)
	if err != nil {
		return model.Run{}, err
	}
	res, runErr := Execute(ctx, ev, nil)
	if runErr != nil && !errors.Is(runErr, engine.ErrNotConverged) {
		return model.Run{}, runErr
	}
	run := Record(s, ev.Grid(), res)
	if store != nil {
		if err := store.SaveRun(ctx, run); err != nil {
			return model.Run{}, fmt.Errorf("save run: %w", err)
		}
	}
	if runErr != nil {
		logger.Warn("evaluation stopped at sweep cap", "run", run.ID, "sweeps", run.Sweeps, "delta", run.Delta)
		return run, runErr
	}
	logger.Info("evaluation finished", "run", run.ID, "sweeps", run.Sweeps, "delta", run.Delta)
	return run, nil
}
