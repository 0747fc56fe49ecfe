package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"monsterbattle/internal/battle"
	"monsterbattle/internal/config"
	"monsterbattle/internal/script"
	"monsterbattle/internal/session"
	"monsterbattle/internal/web"
)

const (
	ConfigPath      = "config/server.yaml"
	shutdownTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(config.Path(ConfigPath))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	spawner, err := cfg.Spawner()
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	slog.Info("data loaded",
		"species", spawner.Catalog.Len(),
		"elements", spawner.Table.Len(),
		"stat_mode", spawner.Mode)

	player, err := cfg.PlayerTeam()
	if err != nil {
		return err
	}
	towerOpts, err := cfg.TowerOptions(logger)
	if err != nil {
		return err
	}

	var chooser battle.Chooser
	if cfg.ChooserScript != "" {
		c, err := script.Load(cfg.ChooserScript, script.Options{Logger: logger})
		if err != nil {
			return fmt.Errorf("loading chooser: %w", err)
		}
		chooser = c
		slog.Info("player chooser loaded", "script", cfg.ChooserScript)
	}

	srv := &web.Server{
		Catalog: spawner.Catalog,
		Spawner: spawner,
		Store:   session.NewMemoryStore[*web.Run](cfg.MaxSessions),
		Settings: web.Settings{
			EnemyTeams: cfg.Tower.EnemyTeams,
			Player:     player,
			Tower:      towerOpts,
		},
		Chooser:    chooser,
		ChooserDir: cfg.ChooserDir,
		Logger:     logger,
	}
	if cfg.Seed != 0 {
		// Runs without a seed of their own draw from one stream.
		rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
		var mu sync.Mutex
		srv.Seed = func() uint64 {
			mu.Lock()
			defer mu.Unlock()
			return rng.Uint64()
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
