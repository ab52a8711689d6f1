package game

import (
	"log/slog"
	"sync"
	"time"

	"ouro/internal/catalog"
)

// Session owns one run, its meta progress and the event timers. Every
// public method takes the lock, so hosts may call it from several
// goroutines, but the simulation itself stays single-threaded.
type Session struct {
	mu     sync.Mutex
	eng    *Engine
	clock  Clock
	log    *slog.Logger
	run    *RunState
	meta   *MetaState
	events *EventManager
	rate   *InputRate
	bpm    float64
	spam   int
}

func newSession(eng *Engine, clock Clock, run *RunState, meta *MetaState, sched *EventSchedule) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	now := clock.Now()
	s := &Session{
		eng:   eng,
		clock: clock,
		log:   eng.log,
		run:   run,
		meta:  meta,
		rate:  NewInputRate(seconds(eng.bal.Session.InputRateWindowSecs)),
	}
	s.events = NewEventManager(eng, now)
	if sched != nil {
		s.events.Schedule = *sched
	}
	if len(run.Offerings) == 0 {
		eng.RefreshOfferings(run, meta.UnlockedUpgradeSet())
	}
	s.bpm = eng.BPM(run)
	return s
}

// NewSession starts a fresh run on top of the given meta progress.
func NewSession(eng *Engine, clock Clock, meta *MetaState) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	run := eng.NewRun(meta, clock.Now())
	return newSession(eng, clock, run, meta, nil)
}

// ResumeSession restores a saved record. Idle income for the time away is
// credited up to the offline cap, and a long absence re-anchors the beat.
func ResumeSession(eng *Engine, clock Clock, rec SaveRecord) *Session {
	if clock == nil {
		clock = SystemClock{}
	}
	run, meta := eng.resume(rec, clock.Now())
	return newSession(eng, clock, run, meta, &rec.Schedule)
}

// Import decodes a saved record and swaps the session onto it. The engine's
// random source is only touched under the session lock.
func (s *Session) Import(raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	rec, err := s.eng.DecodeRecord(raw, now)
	if err != nil {
		return err
	}
	s.run, s.meta = s.eng.resume(rec, now)
	s.events.Schedule = rec.Schedule
	s.rate.Reset()
	s.spam = 0
	if len(s.run.Offerings) == 0 {
		s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
	}
	s.bpm = s.eng.BPM(s.run)
	return nil
}

func (e *Engine) resume(rec SaveRecord, now time.Time) (*RunState, *MetaState) {
	run := rec.Run
	meta := rec.Meta
	cfg := e.bal.Session

	gap := 0.0
	if !run.LastTick.IsZero() && now.After(run.LastTick) {
		gap = now.Sub(run.LastTick).Seconds()
	}
	e.ComputeDerived(&run)
	savedBPM := e.BPM(&run)
	if gap > 0 {
		credited := e.TickIdle(&run, minFloat(gap, cfg.OfflineIdleCapSeconds))
		e.log.Info("offline income", slog.Float64("seconds_away", gap), slog.Float64("essence", credited))
	}
	if gap <= cfg.ReanchorGapSeconds {
		run.BeatOrigin = ReanchorBeat(run.BeatOrigin, now, savedBPM, e.BPM(&run))
	} else {
		run.BeatOrigin = now
		run.LastScoredBeat = -1
		run.LastAutoBiteBeat = -1
		run.BiteCooldownUntil = time.Time{}
		run.MouthOpen = true
		run.VenomRushActive = false
	}
	run.LastTick = now
	return &run, &meta
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func (s *Session) Engine() *Engine {
	return s.eng
}

func (s *Session) Clock() Clock {
	return s.clock
}

// TickReport summarises one tick for the host.
type TickReport struct {
	Notices    []Notice `json:"notices"`
	AutoBite   bool     `json:"auto_bite"`
	IdleEarned float64  `json:"idle_earned"`
	AutoEarned float64  `json:"auto_earned"`
}

// Tick advances the simulation to the clock's current time.
func (s *Session) Tick() TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.eng
	r := s.run
	now := s.clock.Now()
	dt := 0.0
	if now.After(r.LastTick) {
		dt = now.Sub(r.LastTick).Seconds()
	}
	r.LastTick = now
	r.IdleSeconds += dt

	var rep TickReport
	e.TickMouth(r, now)
	e.TickPostEventBPM(r, now)
	s.reanchor(now)
	e.TickVenom(r, now)
	if e.TickAutoBite(r, now) {
		e.ComputeDerived(r)
		rep.AutoBite = true
		rep.AutoEarned = e.HandlePress(r)
		s.reanchor(now)
	}
	e.TickComboDecay(r, now)

	e.TickDebuff(r, now)
	e.TickResonance(r, s.meta, now, dt)

	rep.Notices = s.events.Tick(r, now, dt, s.rate.Rate(now))
	s.reanchor(now)

	e.ComputeDerived(r)
	rep.IdleEarned = e.TickIdle(r, dt)
	if len(r.Offerings) == 0 {
		e.RefreshOfferings(r, s.meta.UnlockedUpgradeSet())
	}
	s.reanchor(now)
	return rep
}

// reanchor keeps the beat grid continuous when the tempo changes. Anything
// that moves length or the post-event boost calls it before the next beat
// lookup.
func (s *Session) reanchor(now time.Time) {
	bpm := s.eng.BPM(s.run)
	if s.bpm > 0 && bpm != s.bpm {
		s.run.BeatOrigin = ReanchorBeat(s.run.BeatOrigin, now, s.bpm, bpm)
		s.log.Debug("tempo change", slog.Float64("from", s.bpm), slog.Float64("to", bpm))
	}
	s.bpm = bpm
}

type BiteOutcome struct {
	Result          BiteResult `json:"result"`
	Earned          float64    `json:"earned"`
	EssencePerPress float64    `json:"essence_per_press"`
	ComboMultiplier float64    `json:"combo_multiplier"`
	ComboHits       int        `json:"combo_hits"`
}

// Bite handles one player press, scored at the timestamp the player saw.
// A zero timestamp means now.
func (s *Session) Bite(at time.Time) BiteOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.eng
	r := s.run
	if at.IsZero() {
		at = s.clock.Now()
	}
	r.Stats.ManualInputs++
	r.IdleSeconds = 0
	r.ResonanceIdleSeconds = 0
	s.rate.Record(at)

	swallowed := !e.freeScoring(r) && e.OnCooldown(r, at)
	res := e.AttemptBite(r, at)
	if res == BiteNone {
		if swallowed {
			s.spam++
			if s.spam >= e.bal.Rhythm.CooldownSpamDebuff {
				s.spam = 0
				e.ApplyDebuff(r, catalog.DebuffSluggishJaw, at)
			}
		}
		return s.biteOutcome(BiteNone, 0)
	}
	s.spam = 0
	e.ComputeDerived(r)
	earned := e.HandlePress(r)
	s.reanchor(at)
	return s.biteOutcome(res, earned)
}

func (s *Session) biteOutcome(res BiteResult, earned float64) BiteOutcome {
	return BiteOutcome{
		Result:          res,
		Earned:          earned,
		EssencePerPress: s.run.EssencePerPress,
		ComboMultiplier: s.run.ComboMultiplier,
		ComboHits:       s.run.ComboHits,
	}
}

// Purchase buys one level of an upgrade from the current offerings.
func (s *Session) Purchase(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.purchase(id)
}

// PurchaseSlot buys the offering at the given index.
func (s *Session) PurchaseSlot(slot int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot < 0 || slot >= len(s.run.Offerings) {
		return "", false
	}
	id := s.run.Offerings[slot]
	return id, s.purchase(id)
}

func (s *Session) purchase(id string) bool {
	if !containsString(s.run.Offerings, id) {
		return false
	}
	if !s.eng.PurchaseUpgrade(s.run, id) {
		return false
	}
	s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
	s.reanchor(s.clock.Now())
	s.log.Debug("upgrade purchased", slog.String("upgrade", id), slog.Int("level", s.run.Level(id)))
	return true
}

// Shed advances a stage and returns the scales earned.
func (s *Session) Shed() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if !s.eng.CanShed(s.run) {
		return 0, false
	}
	reward := s.eng.PerformShed(s.run, now)
	s.afterReset(now)
	s.log.Info("shed", slog.Int("stage", s.run.StageIndex), slog.Float64("scales", reward))
	return reward, true
}

func (s *Session) afterReset(now time.Time) {
	s.events.Reset(now)
	s.rate.Reset()
	s.spam = 0
	s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
	s.bpm = s.eng.BPM(s.run)
}

type AscendResult struct {
	Knowledge  int               `json:"knowledge"`
	Purchased  map[string]int    `json:"purchased"`
	ScalesLeft float64           `json:"scales_left"`
	Unlocks    CollectionUnlocks `json:"unlocks"`
}

// Ascend spends scales on the pending ascension purchases, banks the run
// into meta and starts a new run. Purchases that cannot be afforded or are
// maxed are skipped.
func (s *Session) Ascend(pending map[string]int) (AscendResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.eng
	r := s.run
	now := s.clock.Now()
	if !e.CanAscend(r) {
		return AscendResult{}, false
	}
	bought := map[string]int{}
	for _, id := range catalog.SortedLevels(pending) {
		for n := 0; n < pending[id]; n++ {
			if !e.BuyAscensionUpgrade(r, id) {
				break
			}
			bought[id]++
		}
	}
	s.meta.AscensionUpgradeLevels = copyLevels(r.AscensionLevels)
	s.meta.AscensionCount++
	knowledge, unlocks := e.FoldRun(s.meta, r)

	e.PerformAscension(r, now)
	e.ApplyStartingBonuses(r, s.meta)
	s.afterReset(now)
	s.log.Info("ascended", slog.Int("count", s.meta.AscensionCount), slog.Int("knowledge", knowledge))
	return AscendResult{
		Knowledge:  knowledge,
		Purchased:  bought,
		ScalesLeft: r.Scales,
		Unlocks:    unlocks,
	}, true
}

func (s *Session) CatchGolden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.CatchGolden(s.run, s.clock.Now())
}

func (s *Session) AcceptBargain() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	id, ok := s.events.AcceptBargain(s.run, now)
	if ok {
		s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
		s.reanchor(now)
	}
	return id, ok
}

func (s *Session) DeclineBargain() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.DeclineBargain(s.run, s.clock.Now())
}

func (s *Session) AcceptEcho() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	id, ok := s.events.AcceptEcho(s.run, now)
	if ok {
		s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
		s.reanchor(now)
	}
	return id, ok
}

// AcceptArchetype takes the pending resonance offer.
func (s *Session) AcceptArchetype() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.eng.AcceptArchetype(s.run, s.clock.Now()) {
		return false
	}
	s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
	return true
}

// SelectArchetype switches to an unlocked archetype. Under the offer policy
// it accepts the pending offer when the id matches it.
func (s *Session) SelectArchetype(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	var ok bool
	if s.eng.policy == PolicyOffer {
		ok = s.run.Offer.ArchetypeID == id && s.eng.AcceptArchetype(s.run, now)
	} else {
		ok = s.eng.SelectArchetype(s.run, s.meta, id, now)
	}
	if ok {
		s.eng.RefreshOfferings(s.run, s.meta.UnlockedUpgradeSet())
	}
	return ok
}

func (s *Session) BuyStartingLength() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.BuyStartingLength(s.meta)
}

func (s *Session) UnlockUpgrade(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.UnlockUpgrade(s.meta, id)
}

func (s *Session) SetSkin(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta.SetSkin(id)
}

// Record copies the session into its persisted form.
func (s *Session) Record() SaveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := *s.run
	run.UpgradeLevels = copyLevels(s.run.UpgradeLevels)
	run.AscensionLevels = copyLevels(s.run.AscensionLevels)
	run.Offerings = append([]string{}, s.run.Offerings...)
	run.ArchetypeGifted = append([]string{}, s.run.ArchetypeGifted...)

	meta := *s.meta
	meta.AscensionUpgradeLevels = copyLevels(s.meta.AscensionUpgradeLevels)
	meta.UnlockedUpgrades = append([]string{}, s.meta.UnlockedUpgrades...)
	meta.UnlockedArchetypes = append([]string{}, s.meta.UnlockedArchetypes...)
	meta.Skins = append([]string{}, s.meta.Skins...)
	meta.Lore = append([]int{}, s.meta.Lore...)

	return SaveRecord{
		Version:  RecordVersion,
		SavedAt:  s.clock.Now(),
		Run:      run,
		Schedule: s.events.Schedule,
		Meta:     meta,
	}
}

// Export encodes the current record.
func (s *Session) Export() ([]byte, error) {
	return EncodeRecord(s.Record())
}

// Wipe discards all progress and starts over with a new meta.
func (s *Session) Wipe(installID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	s.meta = NewMeta(installID, now)
	s.run = s.eng.NewRun(s.meta, now)
	s.afterReset(now)
	s.log.Warn("progress wiped", slog.String("install_id", installID))
}
