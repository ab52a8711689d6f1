// Package app wires configuration, storage and the simulation into a
// running session for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ouro/internal/balance"
	"ouro/internal/config"
	"ouro/internal/db"
	"ouro/internal/game"
	"ouro/internal/store"
)

type Runtime struct {
	Engine  *game.Engine
	Session *game.Session
	Saver   *Saver
	Store   store.Store
	closers []func()
}

// Open builds the engine, opens the configured store and resumes the saved
// session. A missing or unreadable save starts a fresh installation.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	bal, err := balance.Load(cfg.BalanceFile)
	if err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	eng := game.NewEngine(game.EngineOptions{
		Balance: bal,
		Seed:    seed,
		Policy:  game.ArchetypePolicy(cfg.ArchetypePolicy),
		Logger:  logger,
	})

	rt := &Runtime{Engine: eng}
	st, err := rt.openStore(ctx, cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = st

	loaded, err := st.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNoSave):
		logger.Info("no save found, starting fresh", "store", string(cfg.Store))
		rt.Session = newInstall(eng)
	case err != nil:
		rt.Close()
		return nil, err
	default:
		rec, derr := eng.DecodeRecord(loaded.Data, time.Now())
		if derr != nil {
			logger.Warn("save unreadable, starting fresh", "err", derr)
			rt.Session = newInstall(eng)
		} else {
			rt.Session = game.ResumeSession(eng, nil, rec)
		}
	}
	rt.Saver = NewSaver(st, loaded.Epoch, logger)
	return rt, nil
}

func newInstall(eng *game.Engine) *game.Session {
	return game.NewSession(eng, nil, game.NewMeta(uuid.NewString(), time.Now()))
}

func (rt *Runtime) openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		conn, err := db.OpenSQLite(ctx, filepath.Join(cfg.DataDir, "ouro.db"))
		if err != nil {
			return nil, err
		}
		st, err := store.NewSQLiteStore(ctx, conn, store.DefaultSlot)
		if err != nil {
			conn.Close()
			return nil, err
		}
		rt.closers = append(rt.closers, func() { st.Close() })
		return st, nil
	case config.StorePostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		return store.NewPostgresStore(ctx, pool, store.DefaultSlot)
	case config.StoreFile, "":
		return store.NewFileStore(cfg.DataDir, store.DefaultSlot)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
