package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/report"
	"tiny-dp-go/internal/runner"
	"tiny-dp-go/internal/storage"
)

func runEvaluate(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	order := fs.String("order", cfg.Order, "sweep order: forward or reverse")
	gamma := fs.Float64("gamma", cfg.Gamma, "discount factor (0-1)")
	threshold := fs.Float64("threshold", cfg.Threshold, "stop after the first sweep whose delta is below this")
	seed := fs.Int64("seed", cfg.Seed, "seed for reward sampling and random resets")
	baseReward := fs.Float64("base-reward", cfg.BaseReward, "reward added to every transition")
	borderReset := fs.String("border-reset", cfg.BorderReset, "reset after entering a ravine: start or random")
	terminalReset := fs.String("terminal-reset", cfg.TerminalReset, "reset after leaving a goal or ditch: start or random")
	maxSweeps := fs.Int("max-sweeps", cfg.MaxSweeps, "give up after this many sweeps")
	actions := fs.String("actions", runner.ActionsFour, "action set: four or eight")
	mapFile := fs.String("map", "", "text layout file (default: the classic 4x3 world)")
	fields := fs.String("fields", "", "extra cell fields to print: id,reward,location,resets")
	storeKind := fs.String("store", cfg.Store, "run store: memory or sqlite")
	dbPath := fs.String("db-path", cfg.DBPath, "sqlite database file")
	chartPath := fs.String("chart", "", "write an HTML value heatmap and delta chart to this file")
	noColor := fs.Bool("no-color", false, "disable coloured output")
	verbose := fs.Bool("verbose", false, "print the value table after every sweep")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Order = *order
	cfg.Gamma = *gamma
	cfg.Threshold = *threshold
	cfg.Seed = *seed
	cfg.BaseReward = *baseReward
	cfg.BorderReset = *borderReset
	cfg.TerminalReset = *terminalReset
	cfg.MaxSweeps = *maxSweeps

	settings, err := runner.FromConfig(cfg)
	if err != nil {
		return err
	}
	settings.Actions = *actions
	if *mapFile != "" {
		lines, err := readLines(*mapFile)
		if err != nil {
			return err
		}
		settings.Map = lines
		settings.Name = strings.TrimSuffix(filepath.Base(*mapFile), filepath.Ext(*mapFile))
	}
	extra, err := parseFields(*fields)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "evaluate config => order=%s gamma=%.2f threshold=%g seed=%d base_reward=%.2f actions=%s\n",
		settings.Order, settings.Gamma, settings.Threshold, settings.Seed, settings.BaseReward, settings.Actions)

	logger := newLogger(*verbose)
	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	ev, err := runner.Prepare(settings, logger)
	if err != nil {
		return err
	}
	colors := !*noColor
	for _, field := range extra {
		if err := report.ConsoleTable(out, ev.Grid(), field, colors); err != nil {
			return err
		}
	}

	var onSnapshot func(engine.Snapshot)
	if *verbose {
		onSnapshot = func(s engine.Snapshot) {
			fmt.Fprintf(out, "sweep %d: delta=%.6f status=%s\n", s.Sweep, s.Delta, s.Status)
			s.Values.Print(out)
		}
	}
	res, err := runner.Execute(ctx, ev, onSnapshot)
	if err != nil {
		report.Summary(out, res, colors)
		return err
	}

	if err := report.ConsoleTable(out, ev.Grid(), engine.FieldValue, colors); err != nil {
		return err
	}
	report.Summary(out, res, colors)

	rec := runner.Record(settings, ev.Grid(), res)
	if err := store.SaveRun(ctx, rec); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	fmt.Fprintf(out, "run %s stored in %s\n", rec.ID, *storeKind)

	if *chartPath != "" {
		if err := writeChart(*chartPath, rec.Settings.Layout, res); err != nil {
			return err
		}
		fmt.Fprintf(out, "chart written to %s\n", *chartPath)
	}
	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func parseFields(s string) ([]engine.Field, error) {
	if s == "" {
		return nil, nil
	}
	var fields []engine.Field
	for _, part := range strings.Split(s, ",") {
		field, err := engine.ParseField(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func writeChart(path, title string, res engine.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteChart(f, title, res.Values, res.Deltas); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
