package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ouro/internal/api"
	"ouro/internal/app"
	"ouro/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadAPIFromEnv()
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

	go app.RunTicks(ctx, rt.Session, cfg.TickEvery, nil)
	go rt.Saver.Run(ctx, rt.Session, cfg.SaveEvery)

	server := api.New(cfg, logger, rt.Session, rt.Saver)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("ouro api listening", "addr", cfg.Addr, "store", string(cfg.Store))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Saver.Save(saveCtx, rt.Session); err != nil {
		logger.Error("final save failed", "err", err)
		return
	}
	logger.Info("ouro api stopped, progress saved")
}
