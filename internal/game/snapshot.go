package game

import (
	"time"
)

type OfferingView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Level       int     `json:"level"`
	MaxLevel    int     `json:"max_level"`
	Cost        float64 `json:"cost"`
	CostText    string  `json:"cost_text"`
	Affordable  bool    `json:"affordable"`
}

type TimerView struct {
	Active  bool    `json:"active"`
	EndsIn  float64 `json:"ends_in"`
	Detail  string  `json:"detail,omitempty"`
	Target  float64 `json:"target,omitempty"`
	Current float64 `json:"current,omitempty"`
}

type MetaView struct {
	Knowledge          int      `json:"knowledge"`
	AscensionCount     int      `json:"ascension_count"`
	RunsCompleted      int      `json:"runs_completed"`
	StartingLength     int      `json:"starting_length"`
	UnlockedUpgrades   []string `json:"unlocked_upgrades"`
	UnlockedArchetypes []string `json:"unlocked_archetypes"`
	Skins              []string `json:"skins"`
	ActiveSkin         string   `json:"active_skin"`
	LoreFound          int      `json:"lore_found"`
	LoreTotal          int      `json:"lore_total"`

	StartingLengthCost  int           `json:"starting_length_cost"`
	StartingLengthMaxed bool          `json:"starting_length_maxed"`
	UnlockCost          int           `json:"unlock_cost"`
	Bests               LifetimeBests `json:"bests"`
}

type AscensionView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Level       int     `json:"level"`
	MaxLevel    int     `json:"max_level"`
	Cost        float64 `json:"cost"`
	Affordable  bool    `json:"affordable"`
}

// Snapshot is a read-only view of the session for renderers.
type Snapshot struct {
	At time.Time `json:"at"`

	Essence             float64 `json:"essence"`
	EssenceText         string  `json:"essence_text"`
	Scales              float64 `json:"scales"`
	TotalScalesEarned   float64 `json:"total_scales_earned"`
	SnakeLength         int     `json:"snake_length"`
	StageIndex          int     `json:"stage_index"`
	StageName           string  `json:"stage_name"`
	NextStageLength     int     `json:"next_stage_length"`
	EssencePerPress     float64 `json:"essence_per_press"`
	IdleIncomePerSecond float64 `json:"idle_income_per_second"`

	ComboHits       int        `json:"combo_hits"`
	ComboMultiplier float64    `json:"combo_multiplier"`
	BPM             float64    `json:"bpm"`
	BeatIndex       int        `json:"beat_index"`
	BeatPhase       float64    `json:"beat_phase"`
	MouthOpen       bool       `json:"mouth_open"`
	LastBite        BiteResult `json:"last_bite"`
	VenomRush       bool       `json:"venom_rush"`
	InputRate       float64    `json:"input_rate"`

	CanShed    bool    `json:"can_shed"`
	ShedReward float64 `json:"shed_reward"`
	CanAscend  bool    `json:"can_ascend"`

	Golden    TimerView `json:"golden"`
	Frenzy    TimerView `json:"frenzy"`
	Challenge TimerView `json:"challenge"`
	Bargain   TimerView `json:"bargain"`
	Echo      TimerView `json:"echo"`

	Offerings []OfferingView `json:"offerings"`

	Archetype    string    `json:"archetype,omitempty"`
	Offer        TimerView `json:"offer"`
	Debuff       string    `json:"debuff,omitempty"`
	DebuffEndsIn float64   `json:"debuff_ends_in,omitempty"`
	Meta         MetaView  `json:"meta"`
	RunStats     RunStats  `json:"run_stats"`

	AscensionShop []AscensionView `json:"ascension_shop"`
}

func remaining(now, end time.Time) float64 {
	if !end.After(now) {
		return 0
	}
	return end.Sub(now).Seconds()
}

// Snapshot reads the session at the clock's current time.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotAt(s.clock.Now())
}

func (s *Session) snapshotAt(now time.Time) Snapshot {
	e := s.eng
	r := s.run
	m := s.meta
	stages := e.bal.Prestige.Stages
	stage := stages[clampInt(r.StageIndex, 0, len(stages)-1)]

	snap := Snapshot{
		At:                  now,
		Essence:             r.Essence,
		EssenceText:         e.FormatNumber(r.Essence),
		Scales:              r.Scales,
		TotalScalesEarned:   r.TotalScalesEarned,
		SnakeLength:         r.SnakeLength,
		StageIndex:          r.StageIndex,
		StageName:           stage.Name,
		EssencePerPress:     r.EssencePerPress,
		IdleIncomePerSecond: r.IdleIncomePerSecond,
		ComboHits:           r.ComboHits,
		ComboMultiplier:     r.ComboMultiplier,
		BPM:                 e.BPM(r),
		BeatIndex:           e.BeatIndex(r, now),
		BeatPhase:           e.BeatPhase(r, now) / e.BeatInterval(r),
		MouthOpen:           r.MouthOpen,
		LastBite:            r.LastBite,
		VenomRush:           r.VenomRushActive,
		InputRate:           s.rate.Rate(now),
		CanShed:             e.CanShed(r),
		CanAscend:           e.CanAscend(r),
		Archetype:           r.ArchetypeID,
		RunStats:            r.Stats,
	}
	if next := r.StageIndex + 1; next < len(stages) {
		snap.NextStageLength = stages[next].Threshold
	}
	if snap.CanShed {
		snap.ShedReward = e.ShedReward(r)
	}

	snap.Golden = TimerView{Active: r.Golden.Active, EndsIn: remaining(now, r.Golden.EndsAt)}
	snap.Frenzy = TimerView{Active: r.Frenzy.Active, EndsIn: remaining(now, r.Frenzy.EndsAt), Current: float64(r.Frenzy.Presses)}
	snap.Challenge = TimerView{
		Active:  r.Challenge.Active,
		EndsIn:  remaining(now, r.Challenge.EndsAt),
		Detail:  string(r.Challenge.Kind),
		Target:  r.Challenge.Target,
		Current: r.Challenge.Progress,
	}
	snap.Bargain = TimerView{Active: r.Bargain.Active, EndsIn: remaining(now, r.Bargain.EndsAt)}
	snap.Echo = TimerView{Active: r.Echo.Active, EndsIn: remaining(now, r.Echo.EndsAt), Detail: r.Echo.UpgradeID}
	if r.Offer.ArchetypeID != "" {
		snap.Offer = TimerView{Active: true, EndsIn: remaining(now, r.Offer.ExpiresAt), Detail: r.Offer.ArchetypeID}
	}
	if def, ok := e.cat.Debuff(r.Debuff.Kind); ok {
		snap.Debuff = def.ID
		snap.DebuffEndsIn = remaining(now, r.Debuff.ExpiresAt)
	}

	snap.Offerings = make([]OfferingView, 0, len(r.Offerings))
	for _, id := range r.Offerings {
		def, ok := e.cat.Upgrade(id)
		if !ok {
			continue
		}
		cost := e.UpgradeCost(r, id)
		snap.Offerings = append(snap.Offerings, OfferingView{
			ID:          id,
			Name:        def.Name,
			Description: def.Description,
			Level:       r.Level(id),
			MaxLevel:    def.MaxLevel,
			Cost:        cost,
			CostText:    e.FormatNumber(cost),
			Affordable:  r.Essence >= cost,
		})
	}

	snap.Meta = MetaView{
		Knowledge:          m.SerpentKnowledge,
		AscensionCount:     m.AscensionCount,
		RunsCompleted:      m.RunsCompleted,
		StartingLength:     e.metaStartingLength(m),
		UnlockedUpgrades:   append([]string{}, m.UnlockedUpgrades...),
		UnlockedArchetypes: append([]string{}, m.UnlockedArchetypes...),
		Skins:              append([]string{}, m.Skins...),
		ActiveSkin:         m.ActiveSkin,
		LoreFound:          len(m.Lore),
		LoreTotal:          len(e.cat.Lore),

		StartingLengthCost:  e.StartingLengthCost(m),
		StartingLengthMaxed: m.StartingLengthPurchases >= e.bal.Meta.StartingLengthMaxPurchases,
		UnlockCost:          e.bal.Meta.UpgradeUnlockCost,
		Bests:               m.Bests,
	}

	for _, id := range e.cat.AscensionIDs() {
		def, _ := e.cat.AscensionUpgrade(id)
		cost, _ := e.AscensionCost(r, id)
		snap.AscensionShop = append(snap.AscensionShop, AscensionView{
			ID:          id,
			Name:        def.Name,
			Description: def.Description,
			Level:       r.AscensionLevels[id],
			MaxLevel:    def.MaxLevel,
			Cost:        cost,
			Affordable:  r.Scales >= cost && r.AscensionLevels[id] < def.MaxLevel,
		})
	}
	return snap
}
