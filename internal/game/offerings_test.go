package game

import (
	"testing"

	"ouro/internal/catalog"
)

func TestMaxedUpgradeNeverOffered(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.UpgradeLevels["fang_sharpening"] = 100
	for i := 0; i < 200; i++ {
		for _, id := range e.GenerateOfferings(s, nil) {
			if id == "fang_sharpening" {
				t.Fatalf("maxed upgrade offered on draw %d", i)
			}
		}
	}
}

func TestOfferingPoolRules(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	unlocked := map[string]bool{"serpent_instinct": true}

	seen := map[string]bool{}
	for i := 0; i < 300; i++ {
		got := e.GenerateOfferings(s, unlocked)
		if len(got) != 3 {
			t.Fatalf("offering count got=%d want=3", len(got))
		}
		dup := map[string]bool{}
		for _, id := range got {
			if dup[id] {
				t.Fatalf("duplicate offering %q", id)
			}
			dup[id] = true
			seen[id] = true
		}
	}
	if seen["ancient_wisdom"] {
		t.Fatalf("locked tier-1 upgrade was offered")
	}
	if !seen["serpent_instinct"] {
		t.Fatalf("unlocked tier-1 upgrade never offered")
	}
	for _, id := range e.cat.UpgradesInTier(catalog.TierCosmic) {
		if seen[id] {
			t.Fatalf("cosmic upgrade %q offered before the cosmic stage", id)
		}
	}

	s.StageIndex = 5
	cosmic := false
	for i := 0; i < 300 && !cosmic; i++ {
		for _, id := range e.GenerateOfferings(s, unlocked) {
			if def, _ := e.cat.Upgrade(id); def.CosmicOnly {
				cosmic = true
			}
		}
	}
	if !cosmic {
		t.Fatalf("cosmic upgrades should appear from stage 5")
	}
}

func TestOfferingExtraSlots(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.AscensionLevels["serpent_hoard"] = 2
	if got := e.GenerateOfferings(s, nil); len(got) != 5 {
		t.Fatalf("offering count got=%d want=5", len(got))
	}
}

func TestOfferingEmptyPool(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	for _, id := range e.cat.UpgradesInTier(catalog.TierBase) {
		def, _ := e.cat.Upgrade(id)
		s.UpgradeLevels[id] = def.MaxLevel
	}
	if got := e.GenerateOfferings(s, nil); len(got) != 0 {
		t.Fatalf("empty pool should give no offerings, got=%v", got)
	}
}

func TestOfferingPreferredPoolBias(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.ArchetypeID = "patient_ouroboros"
	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		for _, id := range e.GenerateOfferings(s, nil) {
			counts[id]++
		}
	}
	if counts["digestive_enzymes"] <= counts["cascading_fangs"] {
		t.Fatalf("preferred upgrade should be drawn more often: %v", counts)
	}
}
