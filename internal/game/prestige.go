package game

import (
	"fmt"
	"math"
	"time"

	"ouro/internal/catalog"
)

func (e *Engine) CanShed(s *RunState) bool {
	next := s.StageIndex + 1
	stages := e.bal.Prestige.Stages
	return next < len(stages) && s.SnakeLength >= stages[next].Threshold
}

// ShedReward previews the scales a shed would pay right now.
func (e *Engine) ShedReward(s *RunState) float64 {
	reward := math.Floor(math.Sqrt(float64(s.SnakeLength)))
	reward += e.upgradeSum(s, catalog.EffectShedScaleBonus)
	return reward * e.ascensionProduct(s, catalog.AscShedScalesMult)
}

// PerformShed advances one stage. Upgrades stay; length restarts at half the
// new threshold with essence matching it. Returns 0 with no change when the
// shed is not available.
func (e *Engine) PerformShed(s *RunState, now time.Time) float64 {
	if !e.CanShed(s) {
		return 0
	}
	reward := e.ShedReward(s)
	s.Scales += reward
	s.TotalScalesEarned += reward
	s.StageIndex++

	length := e.bal.Prestige.Stages[s.StageIndex].Threshold / 2
	if length < e.bal.Prestige.StartingLength {
		length = e.bal.Prestige.StartingLength
	}
	s.SnakeLength = length
	s.Essence = e.essenceForLength(length)
	s.resetTransients(now)
	s.Stats.Sheds++
	e.ComputeDerived(s)
	return reward
}

// CanAscend is true at the final stage once length reaches that stage's own
// threshold.
func (e *Engine) CanAscend(s *RunState) bool {
	final := e.bal.FinalStageIndex()
	return s.StageIndex == final && s.SnakeLength >= e.bal.Prestige.Stages[final].Threshold
}

func (e *Engine) AscensionCost(s *RunState, id string) (float64, error) {
	def, ok := e.cat.AscensionUpgrade(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownAscension, id)
	}
	return math.Floor(def.BaseCost * math.Pow(def.CostGrowth, float64(s.AscensionLevels[id]))), nil
}

// BuyAscensionUpgrade spends scales on one level of a permanent upgrade.
func (e *Engine) BuyAscensionUpgrade(s *RunState, id string) bool {
	def, ok := e.cat.AscensionUpgrade(id)
	if !ok || s.AscensionLevels[id] >= def.MaxLevel {
		return false
	}
	cost, _ := e.AscensionCost(s, id)
	if s.Scales < cost {
		return false
	}
	s.Scales -= cost
	s.AscensionLevels[id]++
	return true
}

// freshRun builds a default run with no meta bonuses applied.
func (e *Engine) freshRun(now time.Time) *RunState {
	s := &RunState{
		UpgradeLevels:   map[string]int{},
		AscensionLevels: map[string]int{},
		ArchetypeGifted: []string{},
		LastTick:        now,
	}
	s.resetTransients(now)
	s.Stats.RunStartedAt = now
	s.SnakeLength = e.bal.Prestige.StartingLength
	s.recordLength()
	return s
}

// PerformAscension replaces the run with a fresh one. Scales, lifetime scales
// and ascension levels carry over.
func (e *Engine) PerformAscension(s *RunState, now time.Time) {
	scales, total := s.Scales, s.TotalScalesEarned
	levels := copyLevels(s.AscensionLevels)
	*s = *e.freshRun(now)
	s.Scales = scales
	s.TotalScalesEarned = total
	s.AscensionLevels = levels
}

// ApplyStartingBonuses puts the meta and ascension starting bumps on a fresh
// run and refreshes the derived caches.
func (e *Engine) ApplyStartingBonuses(s *RunState, m *MetaState) {
	length := e.metaStartingLength(m) + int(e.ascensionSum(s, catalog.AscStartingLength))
	s.Essence = e.essenceForLength(length) + e.ascensionSum(s, catalog.AscStartingEssence)
	e.syncLength(s)
	e.ComputeDerived(s)
}

// NewRun creates the first run of an installation or the run after a wipe.
func (e *Engine) NewRun(m *MetaState, now time.Time) *RunState {
	s := e.freshRun(now)
	s.AscensionLevels = copyLevels(m.AscensionUpgradeLevels)
	e.ApplyStartingBonuses(s, m)
	return s
}
