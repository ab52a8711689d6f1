package main

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"ouro/internal/balance"
	"ouro/internal/game"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T) playModel {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := game.NewEngine(game.EngineOptions{Balance: balance.Default(), Seed: 5, Logger: logger})
	sess := game.NewSession(eng, nil, game.NewMeta("play-test", time.Now()))
	return newPlayModel(sess, time.Second/30)
}

func TestPlayModelKeys(t *testing.T) {
	m := newTestModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(playModel)
	if got := m.sess.Record().Run.Stats.ManualInputs; got != 1 {
		t.Fatalf("space should bite, manual inputs=%d", got)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatalf("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q should produce a quit message")
	}
}

func TestPlayModelTickRefreshesSnapshot(t *testing.T) {
	m := newTestModel(t)
	before := m.snap.At
	time.Sleep(5 * time.Millisecond)
	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("tick should schedule the next tick")
	}
	if !next.(playModel).snap.At.After(before) {
		t.Fatalf("tick should refresh the snapshot")
	}
	if next.(playModel).View() == "" {
		t.Fatalf("view should render")
	}
}

func TestFeedIsCapped(t *testing.T) {
	m := newTestModel(t)
	for i := 0; i < maxFeed+4; i++ {
		m.push(fmt.Sprintf("line %d", i))
	}
	if len(m.feed) != maxFeed || m.feed[maxFeed-1] != fmt.Sprintf("line %d", maxFeed+3) {
		t.Fatalf("feed got=%v", m.feed)
	}
}
