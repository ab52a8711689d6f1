package game

import "ouro/internal/catalog"

func (e *Engine) offeringCount(s *RunState) int {
	return e.bal.Session.OfferingCount + int(e.ascensionSum(s, catalog.AscExtraOffering))
}

// eligiblePool lists upgrades that may be offered right now, in catalog order.
func (e *Engine) eligiblePool(s *RunState, unlocked map[string]bool) []string {
	cosmic := e.isCosmic(s)
	pool := make([]string, 0, len(e.cat.Upgrades))
	for _, id := range e.cat.UpgradeIDs() {
		def, _ := e.cat.Upgrade(id)
		switch def.Tier {
		case catalog.TierBase:
		case catalog.TierUnlockable:
			if !unlocked[id] {
				continue
			}
		case catalog.TierCosmic:
			if !cosmic {
				continue
			}
		default:
			continue
		}
		if def.CosmicOnly && !cosmic {
			continue
		}
		if e.IsMaxed(s, id) {
			continue
		}
		pool = append(pool, id)
	}
	return pool
}

// GenerateOfferings samples without replacement from the eligible pool. The
// active archetype's preferred upgrades carry extra weight.
func (e *Engine) GenerateOfferings(s *RunState, unlocked map[string]bool) []string {
	pool := e.eligiblePool(s, unlocked)
	want := e.offeringCount(s)
	if want > len(pool) {
		want = len(pool)
	}
	arch, hasArch := e.archetype(s)
	weights := make([]int, len(pool))
	for i, id := range pool {
		weights[i] = 1
		if w := e.bal.Session.PreferredPoolWeight; hasArch && w > 1 && arch.Prefers(id) {
			weights[i] = w
		}
	}

	out := make([]string, 0, want)
	for len(out) < want {
		total := 0
		for _, w := range weights {
			total += w
		}
		pick := e.rng.Intn(total)
		i := 0
		for ; i < len(weights); i++ {
			pick -= weights[i]
			if pick < 0 {
				break
			}
		}
		out = append(out, pool[i])
		pool = append(pool[:i], pool[i+1:]...)
		weights = append(weights[:i], weights[i+1:]...)
	}
	return out
}

func (e *Engine) RefreshOfferings(s *RunState, unlocked map[string]bool) {
	s.Offerings = e.GenerateOfferings(s, unlocked)
}
