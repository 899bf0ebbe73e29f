package main

import (
	"context"
	"flag"
	"os"

	"github.com/gin-gonic/gin"

	"tiny-dp-go/internal/api"
	"tiny-dp-go/internal/config"
	"tiny-dp-go/internal/runner"
	"tiny-dp-go/internal/storage"
)

func runServe(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	addr := fs.String("addr", cfg.Addr, "listen address")
	storeKind := fs.String("store", cfg.Store, "run store: memory or sqlite")
	dbPath := fs.String("db-path", cfg.DBPath, "sqlite database file")
	verbose := fs.Bool("verbose", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return err
	}

	defaults, err := runner.FromConfig(cfg)
	if err != nil {
		return err
	}
	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	if err := store.Init(context.Background()); err != nil {
		return err
	}
	defer storage.CloseIfSupported(store)

	logger := newLogger(*verbose)
	gin.SetMode(cfg.GinMode)
	router := api.NewRouter(api.Config{
		Addr:    *addr,
		BaseURL: "/api",
		Controllers: []api.Controller{
			api.NewEvaluationServer(store, defaults, logger),
		},
	})
	logger.Info("serving", "addr", *addr, "store", *storeKind)
	return router.Run()
}
