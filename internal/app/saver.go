package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ouro/internal/game"
	"ouro/internal/store"
)

// Saver writes sessions to a store under the epoch they were loaded with.
// Once a save is refused as stale it stops writing until Reload or Wipe.
type Saver struct {
	st  store.Store
	log *slog.Logger

	mu    sync.Mutex
	epoch int64
	stale bool
	last  time.Time
}

func NewSaver(st store.Store, epoch int64, logger *slog.Logger) *Saver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Saver{st: st, log: logger, epoch: epoch}
}

func (s *Saver) Stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stale
}

func (s *Saver) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Save exports the session and writes it. The session lock is held only
// for the export; the store write happens outside it.
func (s *Saver) Save(ctx context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale {
		return store.ErrStaleSession
	}
	raw, err := sess.Export()
	if err != nil {
		return fmt.Errorf("encode save: %w", err)
	}
	if err := s.st.Save(ctx, s.epoch, raw); err != nil {
		if errors.Is(err, store.ErrStaleSession) {
			s.stale = true
			s.log.Warn("save refused, progress was wiped elsewhere; reload required", "epoch", s.epoch)
		}
		return err
	}
	s.last = time.Now()
	return nil
}

// Reload pulls the stored record into the session and adopts its epoch.
func (s *Saver) Reload(ctx context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	loaded, err := s.st.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNoSave):
		sess.Wipe(uuid.NewString())
	case err != nil:
		return err
	default:
		if err := sess.Import(loaded.Data); err != nil {
			s.log.Warn("save unreadable, starting fresh", "err", err)
			sess.Wipe(uuid.NewString())
		}
	}
	s.epoch = loaded.Epoch
	s.stale = false
	return nil
}

// Wipe resets the store and the session together.
func (s *Saver) Wipe(ctx context.Context, sess *game.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	epoch, err := s.st.Wipe(ctx)
	if err != nil {
		return err
	}
	s.epoch = epoch
	s.stale = false
	sess.Wipe(uuid.NewString())
	return nil
}

// Run saves every interval until ctx is done. Failures are logged; a stale
// epoch stops further writes.
func (s *Saver) Run(ctx context.Context, sess *game.Session, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Stale() {
				continue
			}
			if err := s.Save(ctx, sess); err != nil && !errors.Is(err, store.ErrStaleSession) {
				s.log.Error("autosave failed", "err", err)
			}
		}
	}
}

// RunTicks drives the session at a fixed rate until ctx is done.
func RunTicks(ctx context.Context, sess *game.Session, every time.Duration, onReport func(game.TickReport)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rep := sess.Tick()
			if onReport != nil {
				onReport(rep)
			}
		}
	}
}
