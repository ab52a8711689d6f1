package game

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"ouro/internal/balance"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(EngineOptions{Balance: balance.Default(), Seed: 7, Logger: quietLogger()})
}

func newTestRun(t *testing.T, e *Engine) *RunState {
	t.Helper()
	return e.NewRun(NewMeta("test", t0), t0)
}

// beat returns the timestamp of beat k at the run's current tempo.
func beat(e *Engine, s *RunState, k float64) time.Time {
	return s.BeatOrigin.Add(seconds(k * e.BeatInterval(s)))
}

// setEssence puts the run at an exact essence total with length in step.
func setEssence(e *Engine, s *RunState, essence float64) {
	s.Essence = essence
	e.syncLength(s)
	e.ComputeDerived(s)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
