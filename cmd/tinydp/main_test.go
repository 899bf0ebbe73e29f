package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps a developer's .env out of the run.
func isolate(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestRunRequiresKnownSubcommand(t *testing.T) {
	assert.Error(t, run(nil, &bytes.Buffer{}))
	assert.Error(t, run([]string{"train"}, &bytes.Buffer{}))
}

func TestEvaluateClassic(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	chart := filepath.Join(t.TempDir(), "values.html")

	err := run([]string{"evaluate", "-no-color", "-fields", "id", "-chart", chart}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "order=forward gamma=1.00")
	assert.Contains(t, text, "W P D G W")
	assert.Contains(t, text, "converged after 9 sweeps")
	assert.Contains(t, text, "2.05")
	assert.Contains(t, text, "chart written to")

	_, err = os.Stat(chart)
	assert.NoError(t, err)
}

func TestEvaluateVerbosePrintsEverySweep(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"evaluate", "-no-color", "-verbose", "-order", "reverse", "-threshold", "0.1"}, &out))
	assert.Equal(t, 3, strings.Count(out.String(), "value table:"))
	assert.Contains(t, out.String(), "converged after 3 sweeps")
}

func TestEvaluateMapFileAndSQLiteRuns(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	mapPath := filepath.Join(dir, "corridor.txt")
	require.NoError(t, os.WriteFile(mapPath, []byte("# corridor\nWWWWW\nWSPGW\nWWWWW\n"), 0o600))
	db := filepath.Join(dir, "runs.db")

	var out bytes.Buffer
	require.NoError(t, run([]string{"evaluate", "-no-color", "-map", mapPath, "-gamma", "0.9", "-store", "sqlite", "-db-path", db}, &out))
	assert.Contains(t, out.String(), "stored in sqlite")

	out.Reset()
	require.NoError(t, run([]string{"runs", "-store", "sqlite", "-db-path", db}, &out))
	assert.Contains(t, out.String(), "corridor")
	assert.Contains(t, out.String(), "converged=true")

	id := strings.Fields(out.String())[0]
	out.Reset()
	require.NoError(t, run([]string{"runs", "-store", "sqlite", "-db-path", db, "-id", id}, &out))
	assert.Contains(t, out.String(), "WSPGW")
	assert.Contains(t, out.String(), "value table:")

	assert.Error(t, run([]string{"runs", "-store", "sqlite", "-db-path", db, "-id", "nope"}, &out))
}

func TestEvaluateRejectsBadFlags(t *testing.T) {
	isolate(t)
	var out bytes.Buffer
	assert.Error(t, run([]string{"evaluate", "-order", "sideways"}, &out))
	assert.Error(t, run([]string{"evaluate", "-gamma", "2"}, &out))
	assert.Error(t, run([]string{"evaluate", "-fields", "colour"}, &out))
	assert.Error(t, run([]string{"evaluate", "-store", "postgres"}, &out))
	assert.Error(t, run([]string{"evaluate", "-max-sweeps", "2"}, &out))
}
