package game

import (
	"log/slog"
	"time"

	"ouro/internal/catalog"
)

// ApplyDebuff fills the single debuff slot. It is dropped when the slot is
// taken or the active archetype is immune.
func (e *Engine) ApplyDebuff(s *RunState, kind catalog.DebuffKind, now time.Time) bool {
	if kind == catalog.DebuffNone || s.Debuff.Kind != catalog.DebuffNone {
		return false
	}
	if a, ok := e.archetype(s); ok && a.DebuffImmune {
		return false
	}
	def, ok := e.cat.Debuff(kind)
	if !ok {
		return false
	}
	s.Debuff = ActiveDebuff{
		Kind:      kind,
		ExpiresAt: now.Add(seconds(e.bal.Resonance.DebuffDurationSeconds)),
	}
	s.Stats.DebuffsSuffered++
	e.log.Debug("debuff applied", slog.String("debuff", def.ID))
	return true
}

func (e *Engine) TickDebuff(s *RunState, now time.Time) {
	if s.Debuff.Kind != catalog.DebuffNone && !now.Before(s.Debuff.ExpiresAt) {
		s.Debuff = ActiveDebuff{}
	}
}

// resonanceCandidate reports the archetype whose skill condition is met, in
// fixed priority order. The active archetype is never a candidate.
func (e *Engine) resonanceCandidate(s *RunState) (string, bool) {
	r := e.bal.Resonance
	switch {
	case s.ResonanceComboSeconds >= r.ComboSustainSeconds && s.ArchetypeID != "coiled_striker":
		return "coiled_striker", true
	case s.ResonancePerfects >= r.ConsecutivePerfects && s.ArchetypeID != "rhythm_incarnate":
		return "rhythm_incarnate", true
	case s.ResonanceIdleSeconds >= r.IdleSeconds && s.ArchetypeID != "patient_ouroboros":
		return "patient_ouroboros", true
	}
	return "", false
}

func (e *Engine) resetResonanceTracker(s *RunState, archetypeID string) {
	switch archetypeID {
	case "coiled_striker":
		s.ResonanceComboSeconds = 0
	case "rhythm_incarnate":
		s.ResonancePerfects = 0
	case "patient_ouroboros":
		s.ResonanceIdleSeconds = 0
	}
}

// TickResonance advances the skill trackers and turns a met condition into
// an offer or, under the select policy, a permanent unlock recorded in meta.
func (e *Engine) TickResonance(s *RunState, meta *MetaState, now time.Time, dt float64) {
	if dt > 0 {
		if s.ComboMultiplier >= e.bal.Resonance.ComboSustainMult {
			s.ResonanceComboSeconds += dt
		} else {
			s.ResonanceComboSeconds = 0
		}
		s.ResonanceIdleSeconds += dt
	}

	if s.Offer.ArchetypeID != "" && !now.Before(s.Offer.ExpiresAt) {
		e.log.Debug("archetype offer expired", slog.String("archetype", s.Offer.ArchetypeID))
		s.Offer = ArchetypeOffer{}
	}

	id, ok := e.resonanceCandidate(s)
	if !ok {
		return
	}
	if _, known := e.cat.Archetype(id); !known {
		return
	}
	switch e.policy {
	case PolicySelect:
		e.resetResonanceTracker(s, id)
		if meta != nil && meta.unlockArchetype(id) {
			e.log.Info("archetype unlocked", slog.String("archetype", id))
		}
	default:
		if s.Offer.ArchetypeID != "" {
			return
		}
		e.resetResonanceTracker(s, id)
		s.Offer = ArchetypeOffer{
			ArchetypeID: id,
			ExpiresAt:   now.Add(seconds(e.bal.Resonance.OfferWindowSeconds)),
		}
		e.log.Debug("archetype offered", slog.String("archetype", id))
	}
}

// AcceptArchetype takes the pending offer if it has not expired.
func (e *Engine) AcceptArchetype(s *RunState, now time.Time) bool {
	if s.Offer.ArchetypeID == "" || !now.Before(s.Offer.ExpiresAt) {
		return false
	}
	id := s.Offer.ArchetypeID
	s.Offer = ArchetypeOffer{}
	return e.applyArchetype(s, id, now)
}

// SelectArchetype swaps to a permanently unlocked archetype, limited by the
// reselect cooldown.
func (e *Engine) SelectArchetype(s *RunState, meta *MetaState, id string, now time.Time) bool {
	if e.policy != PolicySelect || meta == nil || !meta.hasArchetype(id) || id == s.ArchetypeID {
		return false
	}
	if s.ArchetypeID != "" {
		ready := s.ArchetypeSince.Add(seconds(e.bal.Resonance.ReselectCooldownSecs))
		if now.Before(ready) {
			return false
		}
	}
	return e.applyArchetype(s, id, now)
}

// applyArchetype replaces the active archetype. Starting gifts are granted
// once per archetype per run and are capped at max level.
func (e *Engine) applyArchetype(s *RunState, id string, now time.Time) bool {
	def, ok := e.cat.Archetype(id)
	if !ok {
		return false
	}
	s.ArchetypeID = id
	s.ArchetypeSince = now
	if !containsString(s.ArchetypeGifted, id) {
		for _, uid := range catalog.SortedLevels(def.StartingUpgrades) {
			udef, ok := e.cat.Upgrade(uid)
			if !ok {
				continue
			}
			lvl := s.Level(uid) + def.StartingUpgrades[uid]
			if lvl > udef.MaxLevel {
				lvl = udef.MaxLevel
			}
			s.UpgradeLevels[uid] = lvl
		}
		s.ArchetypeGifted = append(s.ArchetypeGifted, id)
	}
	if def.DebuffImmune {
		s.Debuff = ActiveDebuff{}
	}
	e.ComputeDerived(s)
	e.log.Info("archetype active", slog.String("archetype", id))
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
