package game

import (
	"log/slog"
	"math"
	"time"

	"ouro/internal/catalog"
)

// EventSchedule holds the next fire time of each event kind. It is saved
// alongside the run so timers keep their place across restarts.
type EventSchedule struct {
	NextGolden    time.Time `json:"next_golden"`
	NextChallenge time.Time `json:"next_challenge"`
	NextBargain   time.Time `json:"next_bargain"`
	NextEcho      time.Time `json:"next_echo"`
}

type NoticeKind string

const (
	NoticeGoldenSpawned    NoticeKind = "golden_spawned"
	NoticeGoldenMissed     NoticeKind = "golden_missed"
	NoticeFrenzyEnded      NoticeKind = "frenzy_ended"
	NoticeChallengeStarted NoticeKind = "challenge_started"
	NoticeChallengeWon     NoticeKind = "challenge_won"
	NoticeChallengeFailed  NoticeKind = "challenge_failed"
	NoticeBargainSpawned   NoticeKind = "bargain_spawned"
	NoticeBargainExpired   NoticeKind = "bargain_expired"
	NoticeEchoSpawned      NoticeKind = "echo_spawned"
	NoticeEchoExpired      NoticeKind = "echo_expired"
)

// Notice describes something the event manager did during a tick so hosts
// can render feedback.
type Notice struct {
	Kind   NoticeKind `json:"kind"`
	Detail string     `json:"detail,omitempty"`
	Amount float64    `json:"amount,omitempty"`
}

type EventManager struct {
	eng      *Engine
	Schedule EventSchedule
}

func NewEventManager(eng *Engine, now time.Time) *EventManager {
	m := &EventManager{eng: eng}
	m.Reset(now)
	return m
}

// Reset rerolls every timer from now.
func (m *EventManager) Reset(now time.Time) {
	ev := m.eng.bal.Events
	m.Schedule = EventSchedule{
		NextGolden:    m.roll(now, ev.GoldenMinSeconds, ev.GoldenMaxSeconds),
		NextChallenge: m.roll(now, ev.ChallengeMinSeconds, ev.ChallengeMaxSeconds),
		NextBargain:   m.roll(now, ev.BargainMinSeconds, ev.BargainMaxSeconds),
		NextEcho:      m.roll(now, ev.EchoMinSeconds, ev.EchoMaxSeconds),
	}
}

func (m *EventManager) roll(now time.Time, lo, hi float64) time.Time {
	if hi < lo {
		hi = lo
	}
	return now.Add(seconds(lo + m.eng.rng.Float64()*(hi-lo)))
}

// Tick advances every event. inputRate is the rolling presses-per-second
// estimate used by the mash challenge.
func (m *EventManager) Tick(s *RunState, now time.Time, dt, inputRate float64) []Notice {
	var notes []Notice
	notes = m.tickGolden(s, now, notes)
	notes = m.tickChallenge(s, now, dt, inputRate, notes)
	notes = m.tickBargain(s, now, notes)
	notes = m.tickEcho(s, now, notes)
	for _, n := range notes {
		m.eng.log.Debug("event", slog.String("kind", string(n.Kind)), slog.String("detail", n.Detail), slog.Float64("amount", n.Amount))
	}
	return notes
}

func (m *EventManager) tickGolden(s *RunState, now time.Time, notes []Notice) []Notice {
	e := m.eng
	ev := e.bal.Events
	if s.Frenzy.Active && !now.Before(s.Frenzy.EndsAt) {
		reward := s.Frenzy.EssencePerPress * float64(s.Frenzy.Presses) * ev.GoldenRewardMult
		e.credit(s, reward)
		notes = append(notes, Notice{Kind: NoticeFrenzyEnded, Amount: reward})
		s.Frenzy = FrenzyState{}
		e.ArmPostEventBPM(s, now)
	}
	if s.Golden.Active && !now.Before(s.Golden.EndsAt) {
		s.Golden = GoldenState{}
		s.Stats.GoldenMissed++
		m.Schedule.NextGolden = m.roll(now, ev.GoldenMinSeconds, ev.GoldenMaxSeconds)
		e.ApplyDebuff(s, catalog.DebuffTorpidCoils, now)
		notes = append(notes, Notice{Kind: NoticeGoldenMissed})
	}
	if !s.Golden.Active && !s.Frenzy.Active && !now.Before(m.Schedule.NextGolden) {
		dur := ev.GoldenDurationSeconds * e.upgradeProduct(s, catalog.EffectGoldenDurationMult)
		s.Golden = GoldenState{Active: true, EndsAt: now.Add(seconds(dur))}
		notes = append(notes, Notice{Kind: NoticeGoldenSpawned})
	}
	return notes
}

// CatchGolden turns an active Golden into a Frenzy. The essence per press
// at this moment sets the Frenzy payout rate.
func (m *EventManager) CatchGolden(s *RunState, now time.Time) bool {
	if !s.Golden.Active || !now.Before(s.Golden.EndsAt) {
		return false
	}
	e := m.eng
	ev := e.bal.Events
	s.Golden = GoldenState{}
	s.Stats.GoldenCaught++
	m.Schedule.NextGolden = m.roll(now, ev.GoldenMinSeconds, ev.GoldenMaxSeconds)

	dur := ev.FrenzyDurationSeconds + float64(e.comboTiersReached(s))*ev.FrenzyBonusPerTierSecs
	s.Frenzy = FrenzyState{
		Active:          true,
		EndsAt:          now.Add(seconds(dur)),
		EssencePerPress: s.EssencePerPress,
	}
	s.MouthOpen = true
	s.BiteCooldownUntil = time.Time{}
	e.log.Info("frenzy started", slog.Float64("seconds", dur))
	return true
}

func (m *EventManager) tickChallenge(s *RunState, now time.Time, dt, inputRate float64, notes []Notice) []Notice {
	e := m.eng
	ev := e.bal.Events
	c := &s.Challenge
	if c.Active {
		switch c.Kind {
		case ChallengeMash:
			c.Progress = inputRate
			if !now.Before(c.EndsAt) {
				notes = m.finishChallenge(s, now, inputRate >= c.Target, notes)
			}
		case ChallengeSustain:
			if dt > 0 && s.ComboMultiplier >= c.Target {
				c.Progress += dt
			}
			switch {
			case c.Progress >= c.Required:
				notes = m.finishChallenge(s, now, true, notes)
			case !now.Before(c.EndsAt):
				notes = m.finishChallenge(s, now, false, notes)
			}
		case ChallengeAbstain:
			c.Progress = math.Min(now.Sub(c.StartedAt).Seconds(), c.Target)
			switch {
			case s.Stats.ManualInputs > c.StartInputs:
				notes = m.finishChallenge(s, now, false, notes)
			case !now.Before(c.EndsAt):
				notes = m.finishChallenge(s, now, true, notes)
			}
		default:
			*c = ChallengeState{}
		}
		return notes
	}
	if now.Before(m.Schedule.NextChallenge) {
		return notes
	}
	dur := ev.ChallengeDurationSeconds
	next := ChallengeState{
		Active:      true,
		StartedAt:   now,
		EndsAt:      now.Add(seconds(dur)),
		StartInputs: s.Stats.ManualInputs,
	}
	switch e.rng.Intn(3) {
	case 0:
		next.Kind = ChallengeMash
		rate := ev.MashMinRate + e.rng.Float64()*(ev.MashMaxRate-ev.MashMinRate)
		next.Target = math.Round(rate*2) / 2
		next.RewardMult = ev.MashRewardMult
	case 1:
		next.Kind = ChallengeSustain
		next.Target = 1.5
		if len(ev.SustainTargets) > 0 {
			next.Target = ev.SustainTargets[e.rng.Intn(len(ev.SustainTargets))]
		}
		next.Required = dur * ev.SustainRequiredFraction
		next.RewardMult = ev.SustainRewardMult
	default:
		next.Kind = ChallengeAbstain
		next.Target = dur
		next.RewardMult = ev.AbstainRewardMult
	}
	*c = next
	return append(notes, Notice{Kind: NoticeChallengeStarted, Detail: string(next.Kind), Amount: next.Target})
}

func (m *EventManager) finishChallenge(s *RunState, now time.Time, won bool, notes []Notice) []Notice {
	e := m.eng
	ev := e.bal.Events
	kind := s.Challenge.Kind
	if won {
		reward := s.EssencePerPress * s.Challenge.RewardMult * ev.ChallengeRewardScale
		e.credit(s, reward)
		s.Stats.ChallengesCompleted++
		notes = append(notes, Notice{Kind: NoticeChallengeWon, Detail: string(kind), Amount: reward})
	} else {
		s.Stats.ChallengesFailed++
		switch kind {
		case ChallengeSustain:
			e.ApplyDebuff(s, catalog.DebuffShatteredFangs, now)
		case ChallengeAbstain:
			e.ApplyDebuff(s, catalog.DebuffRecklessFangs, now)
		}
		notes = append(notes, Notice{Kind: NoticeChallengeFailed, Detail: string(kind)})
	}
	s.Challenge = ChallengeState{}
	m.Schedule.NextChallenge = m.roll(now, ev.ChallengeMinSeconds, ev.ChallengeMaxSeconds)
	return notes
}

func (m *EventManager) tickBargain(s *RunState, now time.Time, notes []Notice) []Notice {
	ev := m.eng.bal.Events
	if s.Bargain.Active {
		if !now.Before(s.Bargain.EndsAt) {
			s.Bargain = BargainState{}
			m.Schedule.NextBargain = m.roll(now, ev.BargainMinSeconds, ev.BargainMaxSeconds)
			notes = append(notes, Notice{Kind: NoticeBargainExpired})
		}
		return notes
	}
	if !now.Before(m.Schedule.NextBargain) {
		s.Bargain = BargainState{Active: true, EndsAt: now.Add(seconds(ev.BargainDurationSeconds))}
		notes = append(notes, Notice{Kind: NoticeBargainSpawned})
	}
	return notes
}

// AcceptBargain trades a fraction of essence for the first offering that is
// still purchasable. It returns the upgrade granted.
func (m *EventManager) AcceptBargain(s *RunState, now time.Time) (string, bool) {
	if !s.Bargain.Active || !now.Before(s.Bargain.EndsAt) {
		return "", false
	}
	e := m.eng
	ev := e.bal.Events
	cost := s.Essence * ev.BargainCostFraction
	if cost <= 0 {
		return "", false
	}
	s.Essence -= cost
	e.syncLength(s)

	granted := ""
	for _, id := range s.Offerings {
		if e.grantFree(s, id) {
			granted = id
			break
		}
	}
	s.Bargain = BargainState{}
	s.Stats.BargainsAccepted++
	m.Schedule.NextBargain = m.roll(now, ev.BargainMinSeconds, ev.BargainMaxSeconds)
	e.log.Info("bargain accepted", slog.String("upgrade", granted), slog.Float64("cost", cost))
	return granted, true
}

// DeclineBargain dismisses the bargain without cost.
func (m *EventManager) DeclineBargain(s *RunState, now time.Time) bool {
	if !s.Bargain.Active {
		return false
	}
	ev := m.eng.bal.Events
	s.Bargain = BargainState{}
	m.Schedule.NextBargain = m.roll(now, ev.BargainMinSeconds, ev.BargainMaxSeconds)
	return true
}

func (m *EventManager) tickEcho(s *RunState, now time.Time, notes []Notice) []Notice {
	e := m.eng
	ev := e.bal.Events
	if s.Echo.Active {
		if !now.Before(s.Echo.EndsAt) {
			s.Echo = EchoState{}
			m.Schedule.NextEcho = m.roll(now, ev.EchoMinSeconds, ev.EchoMaxSeconds)
			notes = append(notes, Notice{Kind: NoticeEchoExpired})
		}
		return notes
	}
	if now.Before(m.Schedule.NextEcho) {
		return notes
	}
	var candidates []string
	for _, id := range e.cat.UpgradesInTier(catalog.TierBase) {
		if !e.IsMaxed(s, id) {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		m.Schedule.NextEcho = m.roll(now, ev.EchoMinSeconds, ev.EchoMaxSeconds)
		return notes
	}
	id := candidates[e.rng.Intn(len(candidates))]
	s.Echo = EchoState{Active: true, EndsAt: now.Add(seconds(ev.EchoDurationSeconds)), UpgradeID: id}
	return append(notes, Notice{Kind: NoticeEchoSpawned, Detail: id})
}

// AcceptEcho grants one free level of the held upgrade. The echo is spent
// either way, even when the upgrade was maxed after it spawned.
func (m *EventManager) AcceptEcho(s *RunState, now time.Time) (string, bool) {
	if !s.Echo.Active || !now.Before(s.Echo.EndsAt) {
		return "", false
	}
	e := m.eng
	id := s.Echo.UpgradeID
	s.Echo = EchoState{}
	m.Schedule.NextEcho = m.roll(now, e.bal.Events.EchoMinSeconds, e.bal.Events.EchoMaxSeconds)
	if !e.grantFree(s, id) {
		return "", false
	}
	s.Stats.EchoesClaimed++
	return id, true
}
