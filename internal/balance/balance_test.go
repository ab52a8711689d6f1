package balance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	tb := Default()
	if err := tb.Validate(); err != nil {
		t.Fatalf("default table invalid: %v", err)
	}
	if got := tb.FinalStageIndex(); got != 9 {
		t.Fatalf("final stage index got=%d want=9", got)
	}
}

func TestLoadOverridesOnTopOfDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	body := `{"rhythm":{"base_bpm":72},"session":{"offering_count":4}}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tb, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tb.Rhythm.BaseBPM != 72 || tb.Session.OfferingCount != 4 {
		t.Fatalf("overrides not applied: bpm=%v offerings=%d", tb.Rhythm.BaseBPM, tb.Session.OfferingCount)
	}
	if tb.Rhythm.MaxBPM != 120 || tb.Economy.UpgradeCostGrowth != 1.40 {
		t.Fatalf("untouched fields should keep defaults")
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	tb, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tb.Rhythm.BaseBPM != Default().Rhythm.BaseBPM {
		t.Fatalf("empty path should return defaults")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{name: "max below base", mutate: func(tb *Table) { tb.Rhythm.MaxBPM = 30 }},
		{name: "no combo tiers", mutate: func(tb *Table) { tb.Rhythm.ComboTiers = nil }},
		{name: "unsorted tiers", mutate: func(tb *Table) { tb.Rhythm.ComboTiers[2].Hits = 1 }},
		{name: "unsorted stages", mutate: func(tb *Table) { tb.Prestige.Stages[3].Threshold = 10 }},
		{name: "zero tick rate", mutate: func(tb *Table) { tb.Session.TickHz = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tb := Default()
			tc.mutate(&tb)
			if err := tb.Validate(); !errors.Is(err, ErrInvalid) {
				t.Fatalf("err got=%v want ErrInvalid", err)
			}
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balance.json")
	if err := os.WriteFile(path, []byte(`{"rhythm":{"base_bpm":-1}}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err got=%v want ErrInvalid", err)
	}
}
