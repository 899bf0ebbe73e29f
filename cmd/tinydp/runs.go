package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/engine"
	"tiny-dp-go/internal/report"
	"tiny-dp-go/internal/storage"
)

func runRuns(args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	storeKind := fs.String("store", cfg.Store, "run store: memory or sqlite")
	dbPath := fs.String("db-path", cfg.DBPath, "sqlite database file")
	id := fs.String("id", "", "show the values of one run")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	if *id != "" {
		run, ok, err := store.GetRun(ctx, *id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("run %s not found", *id)
		}
		for _, line := range run.Settings.Map {
			fmt.Fprintln(out, line)
		}
		engine.ValueTable(run.Values).Print(out)
		report.Deltas(out, run.Deltas)
		return nil
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs stored")
		return nil
	}
	for _, run := range runs {
		fmt.Fprintf(out, "%s  %s  %-8s %-8s sweeps=%d converged=%t delta=%.3g\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Settings.Layout, run.Settings.Order,
			run.Sweeps, run.Converged, run.Delta)
	}
	return nil
}
