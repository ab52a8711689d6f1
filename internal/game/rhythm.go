package game

import (
	"math"
	"time"

	"ouro/internal/catalog"
)

func (e *Engine) MaxBPM(s *RunState) float64 {
	return e.bal.Rhythm.MaxBPM + e.ascensionSum(s, catalog.AscMaxBPMBonus)
}

// stageProgress measures length between the current stage threshold and the
// next one. The final stage always plays at full tempo.
func (e *Engine) stageProgress(s *RunState) float64 {
	stages := e.bal.Prestige.Stages
	idx := clampInt(s.StageIndex, 0, len(stages)-1)
	if idx == len(stages)-1 {
		return 1
	}
	floor := float64(stages[idx].Threshold)
	ceiling := float64(stages[idx+1].Threshold)
	if ceiling <= floor {
		return 1
	}
	return clamp((float64(s.SnakeLength)-floor)/(ceiling-floor), 0, 1)
}

func (e *Engine) NaturalBPM(s *RunState) float64 {
	base := e.bal.Rhythm.BaseBPM
	maxBPM := e.MaxBPM(s)
	raw := clamp(base+e.stageProgress(s)*(maxBPM-base), base, maxBPM)
	return clamp(math.Round(raw/10)*10, base, maxBPM)
}

// BPM is the tempo in effect: natural, unless a post-event boost is higher.
func (e *Engine) BPM(s *RunState) float64 {
	natural := e.NaturalBPM(s)
	if s.PostEventBPM > natural {
		return s.PostEventBPM
	}
	return natural
}

// BeatInterval is the beat length in seconds.
func (e *Engine) BeatInterval(s *RunState) float64 {
	return 60 / e.BPM(s)
}

func (e *Engine) BeatIndex(s *RunState, at time.Time) int {
	return int(math.Floor(at.Sub(s.BeatOrigin).Seconds() / e.BeatInterval(s)))
}

// BeatPhase returns the seconds elapsed since the most recent beat.
func (e *Engine) BeatPhase(s *RunState, at time.Time) float64 {
	interval := e.BeatInterval(s)
	phase := math.Mod(at.Sub(s.BeatOrigin).Seconds(), interval)
	if phase < 0 {
		phase += interval
	}
	return phase
}

func (e *Engine) DistanceToBeat(s *RunState, at time.Time) float64 {
	phase := e.BeatPhase(s, at)
	return math.Min(phase, e.BeatInterval(s)-phase)
}

// ReanchorBeat moves the beat origin so that, at now, the beat count under
// the new tempo equals the beat count under the old one. Index and phase
// fraction are both preserved.
func ReanchorBeat(origin, now time.Time, oldBPM, newBPM float64) time.Time {
	if oldBPM <= 0 || newBPM <= 0 || oldBPM == newBPM {
		return origin
	}
	beats := now.Sub(origin).Seconds() / (60 / oldBPM)
	return now.Add(-seconds(beats * (60 / newBPM)))
}

func (e *Engine) PerfectWindow(s *RunState) float64 {
	w := e.bal.Rhythm.PerfectWindowMs / 1000
	if a, ok := e.archetype(s); ok && a.PerfectWindowMult > 0 {
		w *= a.PerfectWindowMult
	}
	return w * e.debuffModifier(s, catalog.DebuffRecklessFangs)
}

// GoodWindow widens with every owned upgrade level.
func (e *Engine) GoodWindow(s *RunState) float64 {
	r := e.bal.Rhythm
	w := (r.GoodWindowMs + float64(e.totalOwnedLevels(s))*r.FeedbackMsPerLevel) / 1000
	if a, ok := e.archetype(s); ok && a.TimingMult > 0 {
		w *= a.TimingMult
	}
	return w * e.debuffModifier(s, catalog.DebuffRecklessFangs)
}

func (e *Engine) cooldownFraction(s *RunState) float64 {
	f := e.bal.Rhythm.BiteCooldownFraction * e.debuffModifier(s, catalog.DebuffSluggishJaw)
	return math.Min(f, e.bal.Rhythm.BiteCooldownFractionCap)
}

func (e *Engine) lockCooldown(s *RunState, at time.Time) {
	s.MouthOpen = false
	s.BiteCooldownUntil = at.Add(seconds(e.BeatInterval(s) * e.cooldownFraction(s)))
}

func (e *Engine) OnCooldown(s *RunState, at time.Time) bool {
	return at.Before(s.BiteCooldownUntil)
}

func (e *Engine) venomTrigger(s *RunState) int {
	if a, ok := e.archetype(s); ok && a.VenomTrigger > 0 {
		return a.VenomTrigger
	}
	return e.bal.Rhythm.VenomRushTriggerStreak
}

func (e *Engine) freeScoring(s *RunState) bool {
	return s.Frenzy.Active || (s.Challenge.Active && s.Challenge.Kind == ChallengeMash)
}

// AttemptBite scores a press made at the given timestamp. BiteNone means
// the press was swallowed with no state change.
func (e *Engine) AttemptBite(s *RunState, at time.Time) BiteResult {
	if e.freeScoring(s) {
		if s.Frenzy.Active {
			s.Frenzy.Presses++
		}
		s.ComboHits++
		s.ComboMisses = 0
		s.MissStreak = 0
		if idx := e.BeatIndex(s, at); idx > s.LastScoredBeat {
			s.LastScoredBeat = idx
		}
		e.refreshCombo(s)
		s.LastBite = BitePerfect
		return BitePerfect
	}

	if e.OnCooldown(s, at) {
		return BiteNone
	}

	interval := e.BeatInterval(s)
	elapsed := at.Sub(s.BeatOrigin).Seconds()
	idx := int(math.Floor(elapsed / interval))
	phase := elapsed - float64(idx)*interval
	target := idx
	if phase > interval/2 {
		target = idx + 1
	}
	if target <= s.LastScoredBeat {
		return BiteNone
	}

	e.lockCooldown(s, at)
	dist := math.Min(phase, interval-phase)

	var result BiteResult
	switch {
	case dist <= e.PerfectWindow(s):
		result = BitePerfect
		s.ComboHits += 2
		s.ComboMisses = 0
		s.MissStreak = 0
		s.LastScoredBeat = target
		s.ResonancePerfects++
		s.PerfectStreak++
		if s.PerfectStreak >= e.venomTrigger(s) {
			s.PerfectStreak = 0
			s.VenomRushActive = true
			s.VenomRushEndBeat = target + e.bal.Rhythm.VenomRushBeats
			s.Stats.VenomRushes++
		}
	case dist <= e.GoodWindow(s):
		result = BiteGood
		s.ComboHits++
		s.ComboMisses = 0
		s.MissStreak = 0
		s.PerfectStreak = 0
		s.LastScoredBeat = target
	default:
		s.PerfectStreak = 0
		s.MissStreak++
		if s.MissStreak >= e.bal.Rhythm.MissStreakDebuff {
			s.MissStreak = 0
			e.ApplyDebuff(s, catalog.DebuffHollowScales, at)
		}
		save := math.Min(e.upgradeSum(s, catalog.EffectComboSaveChance), e.bal.Rhythm.ComboSaveCap)
		if save > 0 && e.rng.Float64() < save {
			result = BiteSaved
		} else {
			result = BiteMiss
			e.applyMiss(s)
		}
	}
	e.refreshCombo(s)
	s.LastBite = result
	return result
}

func (e *Engine) missTolerance(s *RunState) int {
	tol := e.bal.Rhythm.ComboMissTolerance
	if s.HasDebuff(catalog.DebuffShatteredFangs) {
		def, _ := e.cat.Debuff(catalog.DebuffShatteredFangs)
		tol = int(math.Floor(float64(tol) * def.Modifier))
	}
	if tol < 1 {
		tol = 1
	}
	return tol
}

func (e *Engine) applyMiss(s *RunState) {
	s.ResonancePerfects = 0
	s.ComboMisses++
	if s.ComboMisses >= e.missTolerance(s) {
		s.ComboHits = 0
		s.ComboMisses = 0
	}
}

// TickMouth reopens the mouth once the cooldown has passed.
func (e *Engine) TickMouth(s *RunState, now time.Time) {
	if !s.MouthOpen && !now.Before(s.BiteCooldownUntil) {
		s.MouthOpen = true
		s.LastBite = BiteNone
	}
}

func (e *Engine) TickVenom(s *RunState, now time.Time) {
	if s.VenomRushActive && e.BeatIndex(s, now) > s.VenomRushEndBeat {
		s.VenomRushActive = false
	}
}

func (e *Engine) autoBiteChance(s *RunState) float64 {
	r := e.bal.Rhythm
	chance := e.upgradeSum(s, catalog.EffectAutoBiteChance)
	if chance <= 0 {
		return 0
	}
	chance += math.Min(s.IdleSeconds*r.IdleEscalationRate, r.IdleEscalationCap)
	return math.Min(chance, r.AutoBiteChanceCap)
}

// TickAutoBite rolls at most once per beat. A hit scores like a manual
// perfect bite on the current beat; the caller pays it out.
func (e *Engine) TickAutoBite(s *RunState, now time.Time) bool {
	if s.Frenzy.Active || !s.MouthOpen || e.OnCooldown(s, now) {
		return false
	}
	chance := e.autoBiteChance(s)
	if chance <= 0 {
		return false
	}
	idx := e.BeatIndex(s, now)
	if idx <= s.LastAutoBiteBeat || idx <= s.LastScoredBeat {
		return false
	}
	s.LastAutoBiteBeat = idx
	if e.rng.Float64() >= chance {
		return false
	}
	e.lockCooldown(s, now)
	s.ComboHits += 2
	s.ComboMisses = 0
	s.LastScoredBeat = idx
	e.refreshCombo(s)
	s.LastBite = BitePerfect
	return true
}

// TickComboDecay drops the combo once enough beats pass with no hit.
func (e *Engine) TickComboDecay(s *RunState, now time.Time) {
	if s.ComboHits == 0 || e.freeScoring(s) {
		return
	}
	slow := e.upgradeSum(s, catalog.EffectComboDecaySlow)
	tolerance := int(math.Round(float64(e.bal.Rhythm.ComboMissTolerance) * (1 + slow)))
	if e.BeatIndex(s, now)-s.LastScoredBeat >= tolerance {
		s.ComboHits = 0
		s.ComboMisses = 0
		e.refreshCombo(s)
	}
}

// ArmPostEventBPM pins the tempo at max, held for a grace window.
func (e *Engine) ArmPostEventBPM(s *RunState, now time.Time) {
	s.PostEventBPM = e.MaxBPM(s)
	s.PostEventNextStep = now.Add(seconds(e.bal.Rhythm.PostEventHoldSeconds))
}

// TickPostEventBPM steps the boost down until it reaches natural tempo.
func (e *Engine) TickPostEventBPM(s *RunState, now time.Time) {
	if s.PostEventBPM <= 0 || now.Before(s.PostEventNextStep) {
		return
	}
	r := e.bal.Rhythm
	s.PostEventBPM -= r.PostEventStepBPM
	s.PostEventNextStep = now.Add(seconds(r.PostEventStepSeconds))
	if s.PostEventBPM <= e.NaturalBPM(s) {
		s.PostEventBPM = 0
		s.PostEventNextStep = time.Time{}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
