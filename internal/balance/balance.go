package balance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

var ErrInvalid = errors.New("invalid balance table")

type ComboTier struct {
	Hits       int     `json:"hits"`
	Multiplier float64 `json:"multiplier"`
}

type Suffix struct {
	Threshold float64 `json:"threshold"`
	Symbol    string  `json:"symbol"`
}

type Stage struct {
	Threshold int    `json:"threshold"`
	Name      string `json:"name"`
}

type Rhythm struct {
	BaseBPM float64 `json:"base_bpm"`
	MaxBPM  float64 `json:"max_bpm"`

	GoodWindowMs    float64 `json:"good_window_ms"`
	PerfectWindowMs float64 `json:"perfect_window_ms"`
	// Each owned upgrade level widens the good window by this many ms.
	FeedbackMsPerLevel float64 `json:"feedback_ms_per_level"`

	BiteCooldownFraction    float64 `json:"bite_cooldown_fraction"`
	BiteCooldownFractionCap float64 `json:"bite_cooldown_fraction_cap"`

	VenomRushTriggerStreak int     `json:"venom_rush_trigger_streak"`
	VenomRushBeats         int     `json:"venom_rush_beats"`
	VenomRushBonusMult     float64 `json:"venom_rush_bonus_mult"`

	IdleEscalationRate float64 `json:"idle_escalation_rate"`
	IdleEscalationCap  float64 `json:"idle_escalation_cap"`
	AutoBiteChanceCap  float64 `json:"auto_bite_chance_cap"`

	ComboTiers         []ComboTier `json:"combo_tiers"`
	ComboMissTolerance int         `json:"combo_miss_tolerance"`
	ComboSaveCap       float64     `json:"combo_save_cap"`
	MissStreakDebuff   int         `json:"miss_streak_debuff"`
	CooldownSpamDebuff int         `json:"cooldown_spam_debuff"`

	PostEventHoldSeconds float64 `json:"post_event_hold_seconds"`
	PostEventStepSeconds float64 `json:"post_event_step_seconds"`
	PostEventStepBPM     float64 `json:"post_event_step_bpm"`
}

type Economy struct {
	BaseEssencePerPress float64  `json:"base_essence_per_press"`
	EssencePerLength    float64  `json:"essence_per_length"`
	BaseIdleFraction    float64  `json:"base_idle_fraction"`
	UpgradeCostGrowth   float64  `json:"upgrade_cost_growth"`
	DiscountFloor       float64  `json:"discount_floor"`
	DoubleChanceCap     float64  `json:"double_chance_cap"`
	ChainChanceCap      float64  `json:"chain_chance_cap"`
	ChainMaxExtra       int      `json:"chain_max_extra"`
	Suffixes            []Suffix `json:"suffixes"`
}

type Prestige struct {
	ScaleMultiplierPer float64 `json:"scale_multiplier_per"`
	StartingLength     int     `json:"starting_length"`
	Stages             []Stage `json:"stages"`
}

type Events struct {
	GoldenMinSeconds      float64 `json:"golden_min_seconds"`
	GoldenMaxSeconds      float64 `json:"golden_max_seconds"`
	GoldenDurationSeconds float64 `json:"golden_duration_seconds"`
	GoldenRewardMult      float64 `json:"golden_reward_mult"`

	FrenzyDurationSeconds  float64 `json:"frenzy_duration_seconds"`
	FrenzyBonusPerTierSecs float64 `json:"frenzy_bonus_per_tier_seconds"`

	ChallengeMinSeconds      float64   `json:"challenge_min_seconds"`
	ChallengeMaxSeconds      float64   `json:"challenge_max_seconds"`
	ChallengeDurationSeconds float64   `json:"challenge_duration_seconds"`
	ChallengeRewardScale     float64   `json:"challenge_reward_scale"`
	MashMinRate              float64   `json:"mash_min_rate"`
	MashMaxRate              float64   `json:"mash_max_rate"`
	MashRewardMult           float64   `json:"mash_reward_mult"`
	SustainTargets           []float64 `json:"sustain_targets"`
	SustainRequiredFraction  float64   `json:"sustain_required_fraction"`
	SustainRewardMult        float64   `json:"sustain_reward_mult"`
	AbstainRewardMult        float64   `json:"abstain_reward_mult"`

	BargainMinSeconds      float64 `json:"bargain_min_seconds"`
	BargainMaxSeconds      float64 `json:"bargain_max_seconds"`
	BargainDurationSeconds float64 `json:"bargain_duration_seconds"`
	BargainCostFraction    float64 `json:"bargain_cost_fraction"`

	EchoMinSeconds      float64 `json:"echo_min_seconds"`
	EchoMaxSeconds      float64 `json:"echo_max_seconds"`
	EchoDurationSeconds float64 `json:"echo_duration_seconds"`
}

type Resonance struct {
	DebuffDurationSeconds float64 `json:"debuff_duration_seconds"`
	OfferWindowSeconds    float64 `json:"offer_window_seconds"`
	ReselectCooldownSecs  float64 `json:"reselect_cooldown_seconds"`
	ComboSustainMult      float64 `json:"combo_sustain_mult"`
	ComboSustainSeconds   float64 `json:"combo_sustain_seconds"`
	ConsecutivePerfects   int     `json:"consecutive_perfects"`
	IdleSeconds           float64 `json:"idle_seconds"`
}

type Meta struct {
	StartingLengthCost         int `json:"starting_length_cost"`
	StartingLengthBonus        int `json:"starting_length_bonus"`
	StartingLengthMaxPurchases int `json:"starting_length_max_purchases"`
	UpgradeUnlockCost          int `json:"upgrade_unlock_cost"`
}

type Session struct {
	TickHz                float64 `json:"tick_hz"`
	InputRateWindowSecs   float64 `json:"input_rate_window_seconds"`
	ReanchorGapSeconds    float64 `json:"reanchor_gap_seconds"`
	OfflineIdleCapSeconds float64 `json:"offline_idle_cap_seconds"`
	OfferingCount         int     `json:"offering_count"`
	PreferredPoolWeight   int     `json:"preferred_pool_weight"`
	CosmicStageIndex      int     `json:"cosmic_stage_index"`
}

// Table is the full set of tuning numbers. It is a plain value: copy it,
// override fields, and hand it to game.NewEngine. Nothing reads it globally.
type Table struct {
	Rhythm    Rhythm    `json:"rhythm"`
	Economy   Economy   `json:"economy"`
	Prestige  Prestige  `json:"prestige"`
	Events    Events    `json:"events"`
	Resonance Resonance `json:"resonance"`
	Meta      Meta      `json:"meta"`
	Session   Session   `json:"session"`
}

func Default() Table {
	return Table{
		Rhythm: Rhythm{
			BaseBPM:                 60,
			MaxBPM:                  120,
			GoodWindowMs:            140,
			PerfectWindowMs:         55,
			FeedbackMsPerLevel:      1,
			BiteCooldownFraction:    0.65,
			BiteCooldownFractionCap: 0.95,
			VenomRushTriggerStreak:  5,
			VenomRushBeats:          3,
			VenomRushBonusMult:      2.0,
			IdleEscalationRate:      0.02,
			IdleEscalationCap:       0.50,
			AutoBiteChanceCap:       0.95,
			ComboTiers: []ComboTier{
				{Hits: 0, Multiplier: 1.0},
				{Hits: 5, Multiplier: 1.5},
				{Hits: 15, Multiplier: 2.0},
				{Hits: 30, Multiplier: 3.0},
				{Hits: 60, Multiplier: 5.0},
				{Hits: 100, Multiplier: 8.0},
			},
			ComboMissTolerance:   2,
			ComboSaveCap:         0.95,
			MissStreakDebuff:     3,
			CooldownSpamDebuff:   6,
			PostEventHoldSeconds: 10,
			PostEventStepSeconds: 5,
			PostEventStepBPM:     10,
		},
		Economy: Economy{
			BaseEssencePerPress: 1.0,
			EssencePerLength:    10.0,
			BaseIdleFraction:    0.02,
			UpgradeCostGrowth:   1.40,
			DiscountFloor:       0.45,
			DoubleChanceCap:     0.95,
			ChainChanceCap:      0.80,
			ChainMaxExtra:       3,
			Suffixes: []Suffix{
				{Threshold: 1e3, Symbol: "K"},
				{Threshold: 1e6, Symbol: "M"},
				{Threshold: 1e9, Symbol: "B"},
				{Threshold: 1e12, Symbol: "T"},
				{Threshold: 1e15, Symbol: "Qa"},
				{Threshold: 1e18, Symbol: "Qi"},
			},
		},
		Prestige: Prestige{
			ScaleMultiplierPer: 0.1,
			StartingLength:     3,
			Stages: []Stage{
				{Threshold: 0, Name: "Hatchling"},
				{Threshold: 100, Name: "Snakelet"},
				{Threshold: 500, Name: "Local Predator"},
				{Threshold: 2_000, Name: "Regional Devourer"},
				{Threshold: 10_000, Name: "National Constrictor"},
				{Threshold: 50_000, Name: "Continental Coil"},
				{Threshold: 150_000, Name: "Global Serpent"},
				{Threshold: 350_000, Name: "Stellar Devourer"},
				{Threshold: 650_000, Name: "Galactic Ouroboros"},
				{Threshold: 900_000, Name: "Cosmic Scale"},
			},
		},
		Events: Events{
			GoldenMinSeconds:         45,
			GoldenMaxSeconds:         120,
			GoldenDurationSeconds:    8,
			GoldenRewardMult:         20,
			FrenzyDurationSeconds:    8,
			FrenzyBonusPerTierSecs:   0.5,
			ChallengeMinSeconds:      120,
			ChallengeMaxSeconds:      240,
			ChallengeDurationSeconds: 10,
			ChallengeRewardScale:     10,
			MashMinRate:              4,
			MashMaxRate:              6,
			MashRewardMult:           5,
			SustainTargets:           []float64{1.5, 2.0, 3.0},
			SustainRequiredFraction:  0.6,
			SustainRewardMult:        5,
			AbstainRewardMult:        8,
			BargainMinSeconds:        90,
			BargainMaxSeconds:        180,
			BargainDurationSeconds:   12,
			BargainCostFraction:      0.30,
			EchoMinSeconds:           200,
			EchoMaxSeconds:           350,
			EchoDurationSeconds:      30,
		},
		Resonance: Resonance{
			DebuffDurationSeconds: 20,
			OfferWindowSeconds:    15,
			ReselectCooldownSecs:  60,
			ComboSustainMult:      3.0,
			ComboSustainSeconds:   20,
			ConsecutivePerfects:   12,
			IdleSeconds:           60,
		},
		Meta: Meta{
			StartingLengthCost:         3,
			StartingLengthBonus:        1,
			StartingLengthMaxPurchases: 10,
			UpgradeUnlockCost:          5,
		},
		Session: Session{
			TickHz:                30,
			InputRateWindowSecs:   3,
			ReanchorGapSeconds:    3600,
			OfflineIdleCapSeconds: 7200,
			OfferingCount:         3,
			PreferredPoolWeight:   3,
			CosmicStageIndex:      5,
		},
	}
}

// Load reads a JSON override file on top of Default. Fields absent from the
// file keep their default values.
func Load(path string) (Table, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read balance file: %w", err)
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse balance file: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}

func (t Table) Validate() error {
	switch {
	case t.Rhythm.BaseBPM <= 0 || t.Rhythm.MaxBPM < t.Rhythm.BaseBPM:
		return fmt.Errorf("%w: bpm range %.0f..%.0f", ErrInvalid, t.Rhythm.BaseBPM, t.Rhythm.MaxBPM)
	case len(t.Rhythm.ComboTiers) == 0:
		return fmt.Errorf("%w: combo tiers empty", ErrInvalid)
	case len(t.Prestige.Stages) == 0:
		return fmt.Errorf("%w: growth stages empty", ErrInvalid)
	case t.Economy.EssencePerLength <= 0:
		return fmt.Errorf("%w: essence per length must be > 0", ErrInvalid)
	case t.Session.TickHz <= 0:
		return fmt.Errorf("%w: tick rate must be > 0", ErrInvalid)
	}
	for i := 1; i < len(t.Rhythm.ComboTiers); i++ {
		if t.Rhythm.ComboTiers[i].Hits <= t.Rhythm.ComboTiers[i-1].Hits {
			return fmt.Errorf("%w: combo tiers must be strictly ascending", ErrInvalid)
		}
	}
	for i := 1; i < len(t.Prestige.Stages); i++ {
		if t.Prestige.Stages[i].Threshold <= t.Prestige.Stages[i-1].Threshold {
			return fmt.Errorf("%w: stage thresholds must be strictly ascending", ErrInvalid)
		}
	}
	return nil
}

func (t Table) FinalStageIndex() int {
	return len(t.Prestige.Stages) - 1
}
