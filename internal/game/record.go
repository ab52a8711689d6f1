package game

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"ouro/internal/catalog"
)

const RecordVersion = 1

// SaveRecord is the persisted form of a session.
type SaveRecord struct {
	Version  int           `json:"version"`
	SavedAt  time.Time     `json:"saved_at"`
	Run      RunState      `json:"run"`
	Schedule EventSchedule `json:"schedule"`
	Meta     MetaState     `json:"meta"`
}

func EncodeRecord(rec SaveRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// DecodeRecord parses a saved record. Fields missing from the payload keep
// the values of a fresh installation, and impossible values are repaired.
// Only a payload that is not JSON at all is rejected.
func (e *Engine) DecodeRecord(raw []byte, now time.Time) (SaveRecord, error) {
	meta := NewMeta("", now)
	run := e.NewRun(meta, now)
	rec := SaveRecord{
		Version:  RecordVersion,
		Run:      *run,
		Schedule: NewEventManager(e, now).Schedule,
		Meta:     *meta,
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return SaveRecord{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	e.repairMeta(&rec.Meta)
	e.repairRun(&rec.Run)
	return rec, nil
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func repairLevels(levels map[string]int, maxLevel func(string) (int, bool)) map[string]int {
	out := make(map[string]int, len(levels))
	for id, lvl := range levels {
		limit, ok := maxLevel(id)
		if !ok || lvl <= 0 {
			continue
		}
		out[id] = clampInt(lvl, 0, limit)
	}
	return out
}

func (e *Engine) upgradeMax(id string) (int, bool) {
	def, ok := e.cat.Upgrade(id)
	return def.MaxLevel, ok
}

func (e *Engine) ascensionMax(id string) (int, bool) {
	def, ok := e.cat.AscensionUpgrade(id)
	return def.MaxLevel, ok
}

func (e *Engine) repairRun(s *RunState) {
	s.Essence = math.Max(0, finiteOr(s.Essence, 0))
	s.Scales = math.Max(0, finiteOr(s.Scales, 0))
	s.TotalScalesEarned = math.Max(s.Scales, finiteOr(s.TotalScalesEarned, 0))
	s.StageIndex = clampInt(s.StageIndex, 0, e.bal.FinalStageIndex())
	s.UpgradeLevels = repairLevels(s.UpgradeLevels, e.upgradeMax)
	s.AscensionLevels = repairLevels(s.AscensionLevels, e.ascensionMax)
	e.syncLength(s)

	if s.ComboHits < 0 {
		s.ComboHits = 0
	}
	if s.ComboMisses < 0 {
		s.ComboMisses = 0
	}
	s.PostEventBPM = math.Max(0, finiteOr(s.PostEventBPM, 0))
	s.IdleSeconds = math.Max(0, finiteOr(s.IdleSeconds, 0))

	offerings := make([]string, 0, len(s.Offerings))
	for _, id := range s.Offerings {
		if _, ok := e.cat.Upgrade(id); ok && !containsString(offerings, id) {
			offerings = append(offerings, id)
		}
	}
	s.Offerings = offerings

	if _, ok := e.cat.Archetype(s.ArchetypeID); !ok {
		s.ArchetypeID = ""
	}
	if _, ok := e.cat.Archetype(s.Offer.ArchetypeID); !ok {
		s.Offer = ArchetypeOffer{}
	}
	if s.ArchetypeGifted == nil {
		s.ArchetypeGifted = []string{}
	}
	if _, ok := e.cat.Debuff(s.Debuff.Kind); !ok {
		s.Debuff = ActiveDebuff{}
	}
	switch s.Challenge.Kind {
	case ChallengeMash, ChallengeSustain, ChallengeAbstain:
	default:
		s.Challenge = ChallengeState{}
	}
	if s.Echo.Active {
		if _, ok := e.cat.Upgrade(s.Echo.UpgradeID); !ok {
			s.Echo = EchoState{}
		}
	}
	e.ComputeDerived(s)
}

func (e *Engine) repairMeta(m *MetaState) {
	if m.SerpentKnowledge < 0 {
		m.SerpentKnowledge = 0
	}
	if m.AscensionCount < 0 {
		m.AscensionCount = 0
	}
	m.StartingLengthPurchases = clampInt(m.StartingLengthPurchases, 0, e.bal.Meta.StartingLengthMaxPurchases)
	m.AscensionUpgradeLevels = repairLevels(m.AscensionUpgradeLevels, e.ascensionMax)

	unlocked := make([]string, 0, len(m.UnlockedUpgrades))
	for _, id := range m.UnlockedUpgrades {
		if def, ok := e.cat.Upgrade(id); ok && def.Tier == catalog.TierUnlockable && !containsString(unlocked, id) {
			unlocked = append(unlocked, id)
		}
	}
	m.UnlockedUpgrades = unlocked

	archetypes := make([]string, 0, len(m.UnlockedArchetypes))
	for _, id := range m.UnlockedArchetypes {
		if _, ok := e.cat.Archetype(id); ok && !containsString(archetypes, id) {
			archetypes = append(archetypes, id)
		}
	}
	m.UnlockedArchetypes = archetypes

	if m.Skins == nil {
		m.Skins = []string{}
	}
	if !m.hasSkin(catalog.DefaultSkin) {
		m.Skins = append([]string{catalog.DefaultSkin}, m.Skins...)
	}
	if !m.hasSkin(m.ActiveSkin) {
		m.ActiveSkin = catalog.DefaultSkin
	}
	if m.Lore == nil {
		m.Lore = []int{}
	}
}
