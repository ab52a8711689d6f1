package game

import (
	"math"
	"testing"
	"time"

	"ouro/internal/balance"
	"ouro/internal/catalog"
)

func TestNaturalBPM(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name    string
		stage   int
		essence float64
		tempo   int
		want    float64
	}{
		{name: "hatchling start", stage: 0, essence: 0, want: 60},
		{name: "halfway", stage: 0, essence: 470, want: 90},
		{name: "at next threshold", stage: 0, essence: 970, want: 120},
		{name: "final stage", stage: 9, essence: 0, want: 120},
		{name: "final stage boosted", stage: 9, essence: 0, tempo: 2, want: 140},
	}
	for _, tc := range tests {
		s := newTestRun(t, e)
		s.StageIndex = tc.stage
		s.AscensionLevels["cosmic_tempo"] = tc.tempo
		setEssence(e, s, tc.essence)
		if got := e.NaturalBPM(s); got != tc.want {
			t.Fatalf("%s: got=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestPostEventBPMOverridesOnlyWhenHigher(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.PostEventBPM = 50
	if got := e.BPM(s); got != 60 {
		t.Fatalf("lower boost must not override, got=%v", got)
	}
	s.PostEventBPM = 110
	if got := e.BPM(s); got != 110 {
		t.Fatalf("higher boost must override, got=%v", got)
	}
}

func TestReanchorBeatPreservesIndexAndPhase(t *testing.T) {
	origin := t0
	now := origin.Add(10250 * time.Millisecond)
	got := ReanchorBeat(origin, now, 60, 120)

	beats := now.Sub(got).Seconds() / 0.5
	if idx := math.Floor(beats); idx != 10 {
		t.Fatalf("beat index got=%v want=10", idx)
	}
	if frac := beats - math.Floor(beats); math.Abs(frac-0.25) > 1e-6 {
		t.Fatalf("phase fraction got=%v want=0.25", frac)
	}
	if same := ReanchorBeat(origin, now, 90, 90); !same.Equal(origin) {
		t.Fatalf("equal tempo must not move the origin")
	}
}

func TestPerfectBitesOnBeat(t *testing.T) {
	e := newTestEngine(t)
	meta := NewMeta("test", t0)
	meta.StartingLengthPurchases = 2
	s := e.NewRun(meta, t0)
	if s.SnakeLength != 5 {
		t.Fatalf("starting length got=%d want=5", s.SnakeLength)
	}

	for k := 1; k <= 5; k++ {
		if got := e.AttemptBite(s, beat(e, s, float64(k))); got != BitePerfect {
			t.Fatalf("bite %d got=%q want perfect", k, got)
		}
		e.ComputeDerived(s)
		e.HandlePress(s)
	}
	if s.ComboHits != 10 {
		t.Fatalf("combo hits got=%d want=10", s.ComboHits)
	}
	if s.ComboMultiplier != 1.5 {
		t.Fatalf("combo multiplier got=%v want=1.5", s.ComboMultiplier)
	}
	if !s.VenomRushActive {
		t.Fatalf("five perfects should start venom rush")
	}
}

func TestSameBeatIsScoredOnce(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	at := beat(e, s, 3)
	if got := e.AttemptBite(s, at); got != BitePerfect {
		t.Fatalf("first bite got=%q", got)
	}
	hits := s.ComboHits
	if got := e.AttemptBite(s, at); got != BiteNone {
		t.Fatalf("second bite at same timestamp got=%q want none", got)
	}
	if s.ComboHits != hits {
		t.Fatalf("rejected bite changed combo")
	}

	// Past the cooldown but still nearest to an already scored beat.
	s.BiteCooldownUntil = time.Time{}
	s.LastScoredBeat = 4
	before := *s
	if got := e.AttemptBite(s, beat(e, s, 4.1)); got != BiteNone {
		t.Fatalf("scored beat must be rejected, got=%q", got)
	}
	if s.ComboHits != before.ComboHits || s.MouthOpen != before.MouthOpen || !s.BiteCooldownUntil.Equal(before.BiteCooldownUntil) {
		t.Fatalf("rejected bite mutated state")
	}
}

func TestBiteClassification(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		offset float64
		want   BiteResult
	}{
		{offset: 0.04, want: BitePerfect},
		{offset: -0.05, want: BitePerfect},
		{offset: 0.1, want: BiteGood},
		{offset: -0.13, want: BiteGood},
		{offset: 0.3, want: BiteMiss},
	}
	for _, tc := range tests {
		s := newTestRun(t, e)
		if got := e.AttemptBite(s, beat(e, s, 5+tc.offset)); got != tc.want {
			t.Fatalf("offset %v got=%q want=%q", tc.offset, got, tc.want)
		}
	}
}

func TestRecklessFangsNarrowsWindows(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.Debuff = ActiveDebuff{Kind: catalog.DebuffRecklessFangs, ExpiresAt: t0.Add(time.Hour)}
	if got := e.AttemptBite(s, beat(e, s, 2.12)); got != BiteMiss {
		t.Fatalf("reckless good window should reject 120ms, got=%q", got)
	}
}

func TestMissStreakAppliesHollowScalesOnce(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	for k := 1; k <= 3; k++ {
		if got := e.AttemptBite(s, beat(e, s, float64(k)+0.3)); got != BiteMiss {
			t.Fatalf("bite %d got=%q want miss", k, got)
		}
	}
	if s.Debuff.Kind != catalog.DebuffHollowScales {
		t.Fatalf("debuff got=%v want hollow scales", s.Debuff.Kind)
	}
	if s.MissStreak != 0 {
		t.Fatalf("miss streak got=%d want=0", s.MissStreak)
	}
	if s.Stats.DebuffsSuffered != 1 {
		t.Fatalf("debuffs suffered got=%d want=1", s.Stats.DebuffsSuffered)
	}

	for k := 4; k <= 6; k++ {
		e.AttemptBite(s, beat(e, s, float64(k)+0.3))
	}
	if s.Stats.DebuffsSuffered != 1 {
		t.Fatalf("occupied slot must drop new debuffs, got=%d", s.Stats.DebuffsSuffered)
	}
}

func TestMissesBreakCombo(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	for k := 1; k <= 4; k++ {
		e.AttemptBite(s, beat(e, s, float64(k)))
	}
	if s.ComboHits != 8 {
		t.Fatalf("setup hits=%d", s.ComboHits)
	}
	e.AttemptBite(s, beat(e, s, 5.3))
	if s.ComboHits != 8 {
		t.Fatalf("one miss must not break the combo")
	}
	e.AttemptBite(s, beat(e, s, 6.3))
	if s.ComboHits != 0 || s.ComboMultiplier != 1.0 {
		t.Fatalf("combo not reset: hits=%d mult=%v", s.ComboHits, s.ComboMultiplier)
	}
	if s.ResonancePerfects != 0 {
		t.Fatalf("miss must reset resonance perfects")
	}
}

func TestFrenzyScoresEveryPress(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.Frenzy = FrenzyState{Active: true, EndsAt: t0.Add(time.Minute)}
	at := beat(e, s, 1.37)
	for i := 0; i < 3; i++ {
		if got := e.AttemptBite(s, at); got != BitePerfect {
			t.Fatalf("frenzy press %d got=%q", i, got)
		}
	}
	if s.Frenzy.Presses != 3 || s.ComboHits != 3 {
		t.Fatalf("presses=%d hits=%d", s.Frenzy.Presses, s.ComboHits)
	}
}

func TestComboDecay(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	e.AttemptBite(s, beat(e, s, 1))
	e.TickComboDecay(s, beat(e, s, 2.5))
	if s.ComboHits == 0 {
		t.Fatalf("combo decayed too early")
	}
	e.TickComboDecay(s, beat(e, s, 3.1))
	if s.ComboHits != 0 {
		t.Fatalf("combo should decay after two silent beats")
	}
}

func TestVenomRushEndsAfterLastBeat(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.VenomRushActive = true
	s.VenomRushEndBeat = 5

	e.TickVenom(s, beat(e, s, 5.9))
	if !s.VenomRushActive {
		t.Fatalf("venom rush ended before its last beat")
	}
	e.TickVenom(s, beat(e, s, 6.01))
	if s.VenomRushActive {
		t.Fatalf("venom rush should end once the beat index passes the end beat")
	}
}

func TestSavedMissKeepsCombo(t *testing.T) {
	bal := balance.Default()
	bal.Rhythm.ComboSaveCap = 1
	e := NewEngine(EngineOptions{Balance: bal, Seed: 7, Logger: quietLogger()})
	s := newTestRun(t, e)
	s.UpgradeLevels["resilient_fangs"] = 10
	s.ComboHits = 6
	s.ComboMisses = 1
	e.refreshCombo(s)
	mult := s.ComboMultiplier

	if got := e.AttemptBite(s, beat(e, s, 3.4)); got != BiteSaved {
		t.Fatalf("miss with a certain save got=%q want saved", got)
	}
	if s.ComboHits != 6 || s.ComboMisses != 1 || s.ComboMultiplier != mult {
		t.Fatalf("saved miss changed combo: hits=%d misses=%d mult=%v", s.ComboHits, s.ComboMisses, s.ComboMultiplier)
	}
	if s.MissStreak != 1 {
		t.Fatalf("saved miss still counts toward the streak, got=%d", s.MissStreak)
	}
}

func TestPostEventBPMDecay(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	e.ArmPostEventBPM(s, t0)
	if got := e.BPM(s); got != 120 {
		t.Fatalf("armed bpm got=%v", got)
	}
	e.TickPostEventBPM(s, t0.Add(9*time.Second))
	if s.PostEventBPM != 120 {
		t.Fatalf("boost must hold during grace window")
	}
	now := t0.Add(10 * time.Second)
	e.TickPostEventBPM(s, now)
	if s.PostEventBPM != 110 {
		t.Fatalf("first step got=%v want=110", s.PostEventBPM)
	}
	for i := 0; i < 10; i++ {
		now = now.Add(5 * time.Second)
		e.TickPostEventBPM(s, now)
	}
	if s.PostEventBPM != 0 || e.BPM(s) != 60 {
		t.Fatalf("boost should settle to natural tempo, got=%v", s.PostEventBPM)
	}
}

func TestAutoBiteOncePerBeat(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.UpgradeLevels["serpent_instinct"] = 10
	s.IdleSeconds = 100

	fired := 0
	for k := 1; k <= 20; k++ {
		at := beat(e, s, float64(k)+0.01)
		e.TickMouth(s, at)
		if e.TickAutoBite(s, at) {
			fired++
		}
		if e.TickAutoBite(s, at.Add(100*time.Millisecond)) {
			t.Fatalf("auto-bite fired twice in beat %d", k)
		}
	}
	if fired == 0 {
		t.Fatalf("auto-bite never fired at 95%% chance")
	}
	if s.ComboHits != 2*fired {
		t.Fatalf("hits=%d fired=%d", s.ComboHits, fired)
	}
}

func TestCooldownRespectsCap(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	s.Debuff = ActiveDebuff{Kind: catalog.DebuffSluggishJaw}
	if got := e.cooldownFraction(s); !approx(got, 0.91) {
		t.Fatalf("sluggish fraction got=%v", got)
	}
	bal := e.bal
	bal.Rhythm.BiteCooldownFraction = 0.9
	capped := NewEngine(EngineOptions{Balance: bal, Logger: quietLogger()})
	if got := capped.cooldownFraction(s); got != 0.95 {
		t.Fatalf("fraction must cap at 0.95, got=%v", got)
	}
}
