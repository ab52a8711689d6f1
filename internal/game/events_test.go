package game

import (
	"testing"
	"time"

	"ouro/internal/catalog"
)

func TestFrenzyRewardUsesEssencePerPressAtCatch(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.UpgradeLevels["fang_sharpening"] = 4
	e.ComputeDerived(s)

	now := t0.Add(time.Second)
	s.Golden = GoldenState{Active: true, EndsAt: now.Add(5 * time.Second)}
	if !em.CatchGolden(s, now) {
		t.Fatalf("catch should succeed while golden is active")
	}
	eppAtCatch := s.EssencePerPress

	const presses = 7
	for i := 0; i < presses; i++ {
		at := now.Add(time.Duration(i+1) * 100 * time.Millisecond)
		if got := e.AttemptBite(s, at); got != BitePerfect {
			t.Fatalf("frenzy bite %d got=%q", i, got)
		}
		e.ComputeDerived(s)
		e.HandlePress(s)
	}
	if s.EssencePerPress == eppAtCatch {
		t.Fatalf("combo growth should have raised essence per press during frenzy")
	}

	before := s.Essence
	notes := em.Tick(s, s.Frenzy.EndsAt, 0, 0)
	want := eppAtCatch * presses * e.bal.Events.GoldenRewardMult
	if got := s.Essence - before; !approx(got, want) {
		t.Fatalf("frenzy reward got=%v want=%v", got, want)
	}
	if len(notes) == 0 || notes[0].Kind != NoticeFrenzyEnded {
		t.Fatalf("expected frenzy notice, got %+v", notes)
	}
	if s.Frenzy.Active || s.PostEventBPM != e.MaxBPM(s) {
		t.Fatalf("frenzy should end and arm the tempo boost")
	}
}

func TestFrenzyDurationGrowsWithComboTier(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.ComboHits = 30
	s.Golden = GoldenState{Active: true, EndsAt: t0.Add(time.Minute)}
	em.CatchGolden(s, t0)
	if got := s.Frenzy.EndsAt.Sub(t0); got != 10*time.Second {
		t.Fatalf("frenzy duration got=%v want=10s", got)
	}
}

func TestFrenzyDurationAtZeroCombo(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.Golden = GoldenState{Active: true, EndsAt: t0.Add(time.Minute)}
	em.CatchGolden(s, t0)
	ev := e.bal.Events
	want := seconds(ev.FrenzyDurationSeconds + ev.FrenzyBonusPerTierSecs)
	if got := s.Frenzy.EndsAt.Sub(t0); got != want {
		t.Fatalf("frenzy duration got=%v want=%v", got, want)
	}
}

func TestGoldenExpiresUncaught(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)

	spawn := em.Schedule.NextGolden
	em.Tick(s, spawn, 0, 0)
	if !s.Golden.Active {
		t.Fatalf("golden should spawn at its scheduled time")
	}
	em.Tick(s, s.Golden.EndsAt, 0, 0)
	if s.Golden.Active || s.Stats.GoldenMissed != 1 {
		t.Fatalf("golden should expire as missed")
	}
	if s.Debuff.Kind != catalog.DebuffTorpidCoils {
		t.Fatalf("missed golden should apply torpid coils")
	}
	if !em.Schedule.NextGolden.After(spawn) {
		t.Fatalf("golden not rescheduled")
	}
	if em.CatchGolden(s, spawn) {
		t.Fatalf("catch without an active golden must fail")
	}
}

func TestAbstainChallengeFailsOnPress(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.Challenge = ChallengeState{Active: true, Kind: ChallengeAbstain, StartedAt: t0, EndsAt: t0.Add(10 * time.Second), Target: 10, RewardMult: 8}

	s.Stats.ManualInputs++
	em.Tick(s, t0.Add(time.Second), 0.1, 0)
	if s.Challenge.Active || s.Stats.ChallengesFailed != 1 {
		t.Fatalf("press should fail abstain challenge")
	}
	if s.Debuff.Kind != catalog.DebuffRecklessFangs {
		t.Fatalf("abstain failure should apply reckless fangs, got=%v", s.Debuff.Kind)
	}
}

func TestAbstainChallengeWins(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.EssencePerPress = 2
	s.Challenge = ChallengeState{Active: true, Kind: ChallengeAbstain, StartedAt: t0, EndsAt: t0.Add(10 * time.Second), Target: 10, RewardMult: 8}

	em.Tick(s, t0.Add(10*time.Second), 0.1, 0)
	if s.Stats.ChallengesCompleted != 1 {
		t.Fatalf("silence should win the abstain challenge")
	}
	if s.Essence != 2*8*10 {
		t.Fatalf("reward got=%v want=160", s.Essence)
	}
}

func TestSustainChallenge(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.ComboHits = 10
	e.ComputeDerived(s)
	epp := s.EssencePerPress
	s.Challenge = ChallengeState{Active: true, Kind: ChallengeSustain, StartedAt: t0, EndsAt: t0.Add(10 * time.Second), Target: 1.5, Required: 6, RewardMult: 5}

	em.Tick(s, t0.Add(3*time.Second), 3, 0)
	if !s.Challenge.Active || s.Challenge.Progress != 3 {
		t.Fatalf("progress got=%v", s.Challenge.Progress)
	}
	em.Tick(s, t0.Add(6*time.Second), 3, 0)
	if s.Challenge.Active || s.Stats.ChallengesCompleted != 1 {
		t.Fatalf("sustain challenge should complete once required time is met")
	}
	if want := epp * 5 * 10; !approx(s.Essence, want) {
		t.Fatalf("reward got=%v want=%v", s.Essence, want)
	}

	s.Challenge = ChallengeState{Active: true, Kind: ChallengeSustain, StartedAt: t0, EndsAt: t0.Add(10 * time.Second), Target: 3, Required: 6, RewardMult: 5}
	em.Tick(s, t0.Add(10*time.Second), 1, 0)
	if s.Debuff.Kind != catalog.DebuffShatteredFangs {
		t.Fatalf("sustain failure should apply shattered fangs")
	}
}

func TestMashChallenge(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	s.Challenge = ChallengeState{Active: true, Kind: ChallengeMash, StartedAt: t0, EndsAt: t0.Add(10 * time.Second), Target: 4.5, RewardMult: 5}

	if !e.freeScoring(s) {
		t.Fatalf("mash challenge should free-score bites")
	}
	em.Tick(s, t0.Add(5*time.Second), 0.1, 6)
	if s.Challenge.Progress != 6 {
		t.Fatalf("mash progress should mirror input rate")
	}
	em.Tick(s, t0.Add(10*time.Second), 0.1, 4)
	if s.Stats.ChallengesFailed != 1 || s.Debuff.Kind != catalog.DebuffNone {
		t.Fatalf("slow mash should fail without a debuff")
	}
}

func TestChallengeSpawnsOnSchedule(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	at := em.Schedule.NextChallenge
	notes := em.Tick(s, at, 0, 0)
	if !s.Challenge.Active {
		t.Fatalf("challenge should start at its scheduled time")
	}
	switch s.Challenge.Kind {
	case ChallengeMash:
		if s.Challenge.Target < 4 || s.Challenge.Target > 6 {
			t.Fatalf("mash target out of range: %v", s.Challenge.Target)
		}
	case ChallengeSustain:
		if s.Challenge.Required != 6 {
			t.Fatalf("sustain required got=%v", s.Challenge.Required)
		}
	case ChallengeAbstain:
	default:
		t.Fatalf("unknown challenge kind %q", s.Challenge.Kind)
	}
	found := false
	for _, n := range notes {
		if n.Kind == NoticeChallengeStarted {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing challenge notice: %+v", notes)
	}
}

func TestAcceptBargain(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	setEssence(e, s, 1000)
	s.UpgradeLevels["rattletail"] = 10
	s.Offerings = []string{"rattletail", "digestive_enzymes", "fang_sharpening"}

	if _, ok := em.AcceptBargain(s, t0); ok {
		t.Fatalf("bargain must not be accepted while inactive")
	}
	s.Bargain = BargainState{Active: true, EndsAt: t0.Add(10 * time.Second)}
	id, ok := em.AcceptBargain(s, t0)
	if !ok || id != "digestive_enzymes" {
		t.Fatalf("granted %q ok=%v, want digestive_enzymes", id, ok)
	}
	if s.Level("digestive_enzymes") != 1 {
		t.Fatalf("free level not granted")
	}
	if !approx(s.Essence, 700) || s.SnakeLength != 73 {
		t.Fatalf("essence=%v length=%d, want 700 and 73", s.Essence, s.SnakeLength)
	}
	if s.Bargain.Active || s.Stats.BargainsAccepted != 1 {
		t.Fatalf("bargain should close after acceptance")
	}
}

func TestDeclineBargain(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	setEssence(e, s, 1000)
	s.Bargain = BargainState{Active: true, EndsAt: t0.Add(10 * time.Second)}
	if !em.DeclineBargain(s, t0) {
		t.Fatalf("decline should succeed")
	}
	if s.Bargain.Active || s.Essence != 1000 {
		t.Fatalf("decline must close the bargain at no cost")
	}
}

func TestEchoSpawnAndAccept(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	setEssence(e, s, 50)

	em.Tick(s, em.Schedule.NextEcho, 0, 0)
	if !s.Echo.Active {
		t.Fatalf("echo should spawn")
	}
	def, ok := e.cat.Upgrade(s.Echo.UpgradeID)
	if !ok || def.Tier != catalog.TierBase {
		t.Fatalf("echo holds %q, want a tier-0 upgrade", s.Echo.UpgradeID)
	}
	id, ok := em.AcceptEcho(s, em.Schedule.NextEcho)
	if !ok || s.Level(id) != 1 {
		t.Fatalf("echo accept failed: id=%q ok=%v", id, ok)
	}
	if !approx(s.Essence, 50) {
		t.Fatalf("echo must be free, essence=%v", s.Essence)
	}
}

func TestEchoSpentWhenUpgradeMaxedMeanwhile(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)

	due := em.Schedule.NextEcho
	em.Tick(s, due, 0, 0)
	if !s.Echo.Active {
		t.Fatalf("echo should spawn")
	}
	id := s.Echo.UpgradeID
	def, _ := e.cat.Upgrade(id)
	s.UpgradeLevels[id] = def.MaxLevel

	if _, ok := em.AcceptEcho(s, due); ok {
		t.Fatalf("maxed upgrade must not be granted")
	}
	if s.Echo.Active {
		t.Fatalf("echo should be spent after a failed accept")
	}
	if !em.Schedule.NextEcho.After(due) {
		t.Fatalf("echo should be rescheduled")
	}
	if s.Level(id) != def.MaxLevel || s.Stats.EchoesClaimed != 0 {
		t.Fatalf("failed accept changed state: level=%d claimed=%d", s.Level(id), s.Stats.EchoesClaimed)
	}
}

func TestEchoSkipsWhenNothingEligible(t *testing.T) {
	e := newTestEngine(t)
	s := newTestRun(t, e)
	em := NewEventManager(e, t0)
	for _, id := range e.cat.UpgradesInTier(catalog.TierBase) {
		def, _ := e.cat.Upgrade(id)
		s.UpgradeLevels[id] = def.MaxLevel
	}
	due := em.Schedule.NextEcho
	em.Tick(s, due, 0, 0)
	if s.Echo.Active {
		t.Fatalf("echo must not activate without a candidate")
	}
	if !em.Schedule.NextEcho.After(due) {
		t.Fatalf("echo should be rescheduled")
	}
}
