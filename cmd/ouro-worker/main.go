package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ouro/internal/app"
	"ouro/internal/config"
	"ouro/internal/game"
)

// ouro-worker keeps a save alive without a player attached: idle income,
// auto-bites and events keep running and progress is saved periodically.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	rt, err := app.Open(ctx, cfg.Config, logger)
	if err != nil {
		logger.Error("open session failed", "err", err)
		os.Exit(1)
	}
	defer rt.Close()

	if cfg.RunOnce {
		rt.Session.Tick()
		if err := rt.Saver.Save(ctx, rt.Session); err != nil {
			logger.Error("save failed", "err", err)
			os.Exit(1)
		}
		snap := rt.Session.Snapshot()
		logger.Info("worker run-once completed", "essence", snap.Essence, "length", snap.SnakeLength)
		return
	}

	ticker := time.NewTicker(cfg.SaveEvery)
	defer ticker.Stop()

	logger.Info("worker started", "tick_every", cfg.TickEvery.String(), "save_every", cfg.SaveEvery.String())
	go app.RunTicks(ctx, rt.Session, cfg.TickEvery, func(rep game.TickReport) {
		for _, n := range rep.Notices {
			logger.Info("event", "kind", string(n.Kind), "detail", n.Detail, "amount", n.Amount)
		}
	})
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := rt.Saver.Save(saveCtx, rt.Session); err != nil {
				logger.Error("final save failed", "err", err)
			}
			cancel()
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := rt.Saver.Save(ctx, rt.Session); err != nil {
				logger.Error("save failed", "err", err)
				if rt.Saver.Stale() {
					logger.Error("save was wiped elsewhere, stopping")
					return
				}
				continue
			}
			snap := rt.Session.Snapshot()
			logger.Info("progress saved", "essence", snap.Essence, "length", snap.SnakeLength, "stage", snap.StageName)
		}
	}
}
