package runner

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/storage"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultSettings(t *testing.T) Settings {
	t.Helper()
	s, err := FromConfig(config.Defaults())
	require.NoError(t, err)
	return s
}

func ptr[T any](v T) *T {
	return &v
}

func TestFromConfigDefaults(t *testing.T) {
	s := defaultSettings(t)
	assert.Equal(t, engine.OrderForward, s.Order)
	assert.Equal(t, engine.ResetToRandomPath, s.BorderReset)
	assert.Equal(t, engine.ResetToStart, s.TerminalReset)
	assert.Equal(t, 1.0, s.Gamma)

	cfg := config.Defaults()
	cfg.Order = "sideways"
	_, err := FromConfig(cfg)
	assert.ErrorIs(t, err, engine.ErrUnknownOrder)
}

func TestRequestApply(t *testing.T) {
	base := defaultSettings(t)
	s, err := Request{
		Map:         []string{"WWWW", "WSGW", "WWWW"},
		Rewards:     map[string]engine.RewardDistribution{"G": {Mean: 5}},
		Actions:     "Eight",
		Order:       "reverse",
		Gamma:       ptr(0.9),
		Seed:        ptr(int64(7)),
		BorderReset: "start",
		MaxSweeps:   25,
	}.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, engine.OrderReverse, s.Order)
	assert.Equal(t, 0.9, s.Gamma)
	assert.Equal(t, base.Threshold, s.Threshold)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, engine.ResetToStart, s.BorderReset)
	assert.Equal(t, ActionsEight, s.Actions)
	assert.Equal(t, 25, s.MaxSweeps)
	assert.Equal(t, engine.RewardDistribution{Mean: 5}, s.Rewards[engine.Goal])

	_, err = Request{Rewards: map[string]engine.RewardDistribution{"Q": {}}}.Apply(base)
	assert.ErrorIs(t, err, engine.ErrUnknownCategory)
	_, err = Request{TerminalReset: "nowhere"}.Apply(base)
	assert.ErrorIs(t, err, engine.ErrUnknownResetPolicy)
}

func TestSettingsLayout(t *testing.T) {
	s := defaultSettings(t)
	layout, err := s.Layout()
	require.NoError(t, err)
	assert.Equal(t, "classic", layout.Name)
	assert.Equal(t, engine.ResetToRandomPath, layout.BorderReset)

	s.Map = []string{"WWWWW", "WSPGW", "WWWWW"}
	s.Rewards = map[engine.Category]engine.RewardDistribution{engine.Goal: {Mean: 3}}
	layout, err = s.Layout()
	require.NoError(t, err)
	assert.Equal(t, "custom", layout.Name)
	assert.Equal(t, 1, layout.Rows)
	assert.Equal(t, 3, layout.Cols)

	s.Actions = "nine"
	_, err = s.ActionSet()
	assert.Error(t, err)
}

func TestEvaluateClassic(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	run, err := Evaluate(ctx, defaultSettings(t), store, quietLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 9, run.Sweeps)
	assert.True(t, run.Converged)
	assert.Equal(t, "classic", run.Settings.Layout)
	assert.Equal(t, 4, run.Settings.Actions)
	assert.Equal(t, storage.CurrentSchemaVersion, run.SchemaVersion)
	assert.InDelta(t, -0.0891, run.Values[1][1], 1e-4)
	assert.InDelta(t, 2.0538, run.Values[3][3], 1e-4)
	assert.Equal(t, []string{"WWWWW", "WPDGW", "WPPPW", "WPWPW", "WSPPW", "WWWWW"}, run.Settings.Map)

	stored, ok, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.Values, stored.Values)
}

func TestExecuteStreamsSnapshots(t *testing.T) {
	ev, err := Prepare(defaultSettings(t), quietLogger())
	require.NoError(t, err)

	var statuses []string
	res, err := Execute(context.Background(), ev, func(s engine.Snapshot) {
		statuses = append(statuses, s.Status)
	})
	require.NoError(t, err)
	require.Len(t, statuses, 9)
	assert.Equal(t, engine.StatusDone, statuses[8])
	assert.Equal(t, 9, res.Sweeps)
}

func TestExecuteReportsFailureAndCancel(t *testing.T) {
	s := defaultSettings(t)
	s.MaxSweeps = 2
	s.Threshold = 1e-12
	ev, err := Prepare(s, quietLogger())
	require.NoError(t, err)
	res, err := Execute(context.Background(), ev, nil)
	assert.ErrorIs(t, err, ErrEvaluationFailed)
	assert.ErrorIs(t, err, engine.ErrNotConverged)
	assert.Equal(t, 2, res.Sweeps)

	ev, err = Prepare(defaultSettings(t), quietLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err = Execute(ctx, ev, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Sweeps)
}

func TestEvaluateKeepsPartialRunAtSweepCap(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	s := defaultSettings(t)
	s.MaxSweeps = 3
	s.Threshold = 1e-12
	run, err := Evaluate(ctx, s, store, quietLogger())
	require.ErrorIs(t, err, engine.ErrNotConverged)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, 3, run.Sweeps)
	assert.False(t, run.Converged)
	assert.Len(t, run.Deltas, 3)

	stored, ok, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, stored.Sweeps)
}

func TestPrepareRejectsBadSettings(t *testing.T) {
	s := defaultSettings(t)
	s.Map = []string{"WWW", "WXW", "WWW"}
	_, err := Prepare(s, quietLogger())
	assert.ErrorIs(t, err, engine.ErrInvalidLayout)

	s = defaultSettings(t)
	s.Map = []string{"PPP", "PSP", "PPP"}
	_, err = Prepare(s, quietLogger())
	assert.ErrorIs(t, err, engine.ErrInvalidLayout)

	s = defaultSettings(t)
	s.Map = []string{"WWWW", "WGGW", "WWWW"}
	_, err = Prepare(s, quietLogger())
	assert.ErrorIs(t, err, engine.ErrNoPathCells)

	s = defaultSettings(t)
	s.Gamma = 2
	_, err = Prepare(s, quietLogger())
	assert.ErrorIs(t, err, engine.ErrInvalidGamma)
}
