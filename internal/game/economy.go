package game

import (
	"fmt"
	"math"

	"ouro/internal/balance"
	"ouro/internal/catalog"
)

// ComboMultiplier resolves the multiplier for the current hit count. The
// archetype bonus applies once the first tier above base is reached and the
// max-combo upgrades only at the top tier, so zero hits is always 1.0.
func (e *Engine) ComboMultiplier(s *RunState) float64 {
	tiers := e.bal.Rhythm.ComboTiers
	idx := 0
	for i, t := range tiers {
		if s.ComboHits >= t.Hits {
			idx = i
		}
	}
	mult := tiers[idx].Multiplier
	if idx > 0 {
		if a, ok := e.archetype(s); ok {
			mult += a.ComboTierBonus
		}
	}
	if idx == len(tiers)-1 && idx > 0 {
		mult += e.upgradeSum(s, catalog.EffectMaxComboBonus)
	}
	return math.Max(1.0, mult)
}

// comboTiersReached counts every tier whose threshold is met, the base tier
// included, so a catch at zero hits still earns one tier of bonus.
func (e *Engine) comboTiersReached(s *RunState) int {
	n := 0
	for _, t := range e.bal.Rhythm.ComboTiers {
		if s.ComboHits >= t.Hits {
			n++
		}
	}
	return n
}

func (e *Engine) refreshCombo(s *RunState) {
	s.ComboMultiplier = e.ComboMultiplier(s)
	s.recordCombo()
}

// ComputeDerived rebuilds every cache field from persistent state. It has no
// other side effects.
func (e *Engine) ComputeDerived(s *RunState) {
	s.ComboMultiplier = e.ComboMultiplier(s)

	epp := e.bal.Economy.BaseEssencePerPress
	epp *= e.upgradeProduct(s, catalog.EffectEssencePerPress)
	epp *= 1 + s.Scales*e.bal.Prestige.ScaleMultiplierPer
	epp *= s.ComboMultiplier
	arch, hasArch := e.archetype(s)
	if hasArch {
		epp *= arch.EPPMult
	}
	epp *= e.debuffModifier(s, catalog.DebuffHollowScales)
	epp *= e.ascensionProduct(s, catalog.AscEPPMult)
	epp *= e.upgradeProduct(s, catalog.EffectCosmicIncomeMult)
	s.EssencePerPress = epp

	idle := epp * e.bal.Economy.BaseIdleFraction
	idle *= e.upgradeProduct(s, catalog.EffectIdleIncomeMult)
	if hasArch {
		idle *= arch.IdleMult
	}
	idle *= e.ascensionProduct(s, catalog.AscIdleBonus)
	idle *= e.debuffModifier(s, catalog.DebuffTorpidCoils)
	s.IdleIncomePerSecond = idle
}

func (e *Engine) syncLength(s *RunState) {
	if s.Essence < 0 {
		s.Essence = 0
	}
	s.SnakeLength = e.bal.Prestige.StartingLength + int(math.Floor(s.Essence/e.bal.Economy.EssencePerLength))
	s.recordLength()
}

func (e *Engine) essenceForLength(length int) float64 {
	extra := length - e.bal.Prestige.StartingLength
	if extra < 0 {
		extra = 0
	}
	return float64(extra) * e.bal.Economy.EssencePerLength
}

// credit adds earned essence and keeps length in step.
func (e *Engine) credit(s *RunState, amount float64) {
	if amount <= 0 {
		return
	}
	s.Essence += amount
	s.Stats.TotalEssenceEarned += amount
	e.syncLength(s)
}

// HandlePress pays out one scored press and returns the essence earned.
func (e *Engine) HandlePress(s *RunState) float64 {
	eco := e.bal.Economy
	earned := s.EssencePerPress

	double := math.Min(e.upgradeSum(s, catalog.EffectDoublePressChance), eco.DoubleChanceCap)
	if double > 0 && e.rng.Float64() < double {
		earned *= 2
	}

	chain := math.Min(e.upgradeSum(s, catalog.EffectChainBiteChance), eco.ChainChanceCap)
	extra := 0
	for chain > 0 && extra < eco.ChainMaxExtra && e.rng.Float64() < chain {
		extra++
	}
	earned *= float64(1 + extra)

	if s.VenomRushActive {
		earned += s.ComboMultiplier * e.bal.Rhythm.VenomRushBonusMult
	}

	s.Stats.TotalPresses++
	e.credit(s, earned)
	return earned
}

// TickIdle accrues idle income for dt seconds.
func (e *Engine) TickIdle(s *RunState, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	earned := s.IdleIncomePerSecond * dt
	e.credit(s, earned)
	return earned
}

// UpgradeCost returns the live price of the next level. Unknown ids cost
// +Inf so they are never affordable.
func (e *Engine) UpgradeCost(s *RunState, id string) float64 {
	def, ok := e.cat.Upgrade(id)
	if !ok {
		return math.Inf(1)
	}
	floor := e.bal.Economy.DiscountFloor
	factor := 1.0
	for _, did := range catalog.SortedLevels(s.UpgradeLevels) {
		lvl := s.UpgradeLevels[did]
		ddef, ok := e.cat.Upgrade(did)
		if !ok || lvl <= 0 || ddef.Effect != catalog.EffectCostDiscount {
			continue
		}
		factor *= math.Max(floor, 1-ddef.ValuePerLevel*float64(lvl))
	}
	// Stacked discounts share the same floor as a single one.
	factor = math.Max(floor, factor)
	return def.BaseCost * math.Pow(e.bal.Economy.UpgradeCostGrowth, float64(s.Level(id))) * factor
}

func (e *Engine) IsMaxed(s *RunState, id string) bool {
	def, ok := e.cat.Upgrade(id)
	if !ok {
		return true
	}
	return s.Level(id) >= def.MaxLevel
}

// PurchaseUpgrade is the only path that raises an upgrade level.
func (e *Engine) PurchaseUpgrade(s *RunState, id string) bool {
	if _, ok := e.cat.Upgrade(id); !ok {
		return false
	}
	if e.IsMaxed(s, id) {
		return false
	}
	cost := e.UpgradeCost(s, id)
	if s.Essence < cost {
		return false
	}
	s.Essence -= cost
	e.syncLength(s)
	s.UpgradeLevels[id]++
	s.Stats.UpgradesBought++
	e.ComputeDerived(s)
	return true
}

// grantFree routes an event reward through PurchaseUpgrade by crediting the
// exact cost first. The credit is withdrawn again if the purchase fails.
func (e *Engine) grantFree(s *RunState, id string) bool {
	if e.IsMaxed(s, id) {
		return false
	}
	cost := e.UpgradeCost(s, id)
	s.Essence += cost
	if e.PurchaseUpgrade(s, id) {
		return true
	}
	s.Essence -= cost
	e.syncLength(s)
	return false
}

func (e *Engine) FormatNumber(n float64) string {
	return FormatNumber(n, e.bal.Economy.Suffixes)
}

// FormatNumber abbreviates n with the largest suffix whose threshold it
// reaches. Precision drops as the scaled value grows.
func FormatNumber(n float64, suffixes []balance.Suffix) string {
	if math.IsInf(n, 0) || math.IsNaN(n) {
		return "∞"
	}
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	for i := len(suffixes) - 1; i >= 0; i-- {
		sfx := suffixes[i]
		if n < sfx.Threshold {
			continue
		}
		v := n / sfx.Threshold
		switch {
		case v < 10:
			return fmt.Sprintf("%s%.2f%s", sign, v, sfx.Symbol)
		case v < 100:
			return fmt.Sprintf("%s%.1f%s", sign, v, sfx.Symbol)
		default:
			return fmt.Sprintf("%s%.0f%s", sign, v, sfx.Symbol)
		}
	}
	if n < 10 && n != math.Floor(n) {
		return fmt.Sprintf("%s%.1f", sign, n)
	}
	return fmt.Sprintf("%s%.0f", sign, math.Floor(n))
}
