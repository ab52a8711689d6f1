package game

import (
	"time"

	"ouro/internal/catalog"
)

type BiteResult string

const (
	BiteNone    BiteResult = ""
	BitePerfect BiteResult = "perfect"
	BiteGood    BiteResult = "good"
	BiteMiss    BiteResult = "miss"
	BiteSaved   BiteResult = "saved"
)

type ChallengeKind string

const (
	ChallengeMash    ChallengeKind = "mash"
	ChallengeSustain ChallengeKind = "sustain"
	ChallengeAbstain ChallengeKind = "abstain"
)

type RunStats struct {
	PeakLength          int       `json:"peak_length"`
	TotalEssenceEarned  float64   `json:"total_essence_earned"`
	TotalPresses        int       `json:"total_presses"`
	ManualInputs        int       `json:"manual_inputs"`
	UpgradesBought      int       `json:"upgrades_bought"`
	Sheds               int       `json:"sheds"`
	ComboHigh           float64   `json:"combo_high"`
	GoldenCaught        int       `json:"golden_caught"`
	GoldenMissed        int       `json:"golden_missed"`
	ChallengesCompleted int       `json:"challenges_completed"`
	ChallengesFailed    int       `json:"challenges_failed"`
	BargainsAccepted    int       `json:"bargains_accepted"`
	EchoesClaimed       int       `json:"echoes_claimed"`
	DebuffsSuffered     int       `json:"debuffs_suffered"`
	VenomRushes         int       `json:"venom_rushes"`
	RunStartedAt        time.Time `json:"run_started_at"`
}

type GoldenState struct {
	Active bool      `json:"active"`
	EndsAt time.Time `json:"ends_at"`
}

type FrenzyState struct {
	Active  bool      `json:"active"`
	EndsAt  time.Time `json:"ends_at"`
	Presses int       `json:"presses"`
	// EssencePerPress is captured when the Golden is caught; the payout uses it.
	EssencePerPress float64 `json:"essence_per_press"`
}

type ChallengeState struct {
	Active      bool          `json:"active"`
	Kind        ChallengeKind `json:"kind"`
	StartedAt   time.Time     `json:"started_at"`
	EndsAt      time.Time     `json:"ends_at"`
	Target      float64       `json:"target"`
	Required    float64       `json:"required"`
	Progress    float64       `json:"progress"`
	RewardMult  float64       `json:"reward_mult"`
	StartInputs int           `json:"start_inputs"`
}

type BargainState struct {
	Active bool      `json:"active"`
	EndsAt time.Time `json:"ends_at"`
}

type EchoState struct {
	Active    bool      `json:"active"`
	EndsAt    time.Time `json:"ends_at"`
	UpgradeID string    `json:"upgrade_id"`
}

type ActiveDebuff struct {
	Kind      catalog.DebuffKind `json:"kind"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type ArchetypeOffer struct {
	ArchetypeID string    `json:"archetype_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// RunState is everything that belongs to the current run. Fields tagged
// json:"-" are caches that ComputeDerived rebuilds from the rest.
type RunState struct {
	Essence           float64 `json:"essence"`
	Scales            float64 `json:"scales"`
	TotalScalesEarned float64 `json:"total_scales_earned"`
	SnakeLength       int     `json:"snake_length"`
	StageIndex        int     `json:"stage_index"`

	UpgradeLevels   map[string]int `json:"upgrade_levels"`
	AscensionLevels map[string]int `json:"ascension_levels"`

	ComboHits         int        `json:"combo_hits"`
	ComboMisses       int        `json:"combo_misses"`
	MissStreak        int        `json:"miss_streak"`
	PerfectStreak     int        `json:"perfect_streak"`
	BeatOrigin        time.Time  `json:"beat_origin"`
	LastScoredBeat    int        `json:"last_scored_beat"`
	LastAutoBiteBeat  int        `json:"last_auto_bite_beat"`
	MouthOpen         bool       `json:"mouth_open"`
	BiteCooldownUntil time.Time  `json:"bite_cooldown_until"`
	LastBite          BiteResult `json:"last_bite"`
	IdleSeconds       float64    `json:"idle_seconds"`
	VenomRushActive   bool       `json:"venom_rush_active"`
	VenomRushEndBeat  int        `json:"venom_rush_end_beat"`
	PostEventBPM      float64    `json:"post_event_bpm"`
	PostEventNextStep time.Time  `json:"post_event_next_step"`

	Golden    GoldenState    `json:"golden"`
	Frenzy    FrenzyState    `json:"frenzy"`
	Challenge ChallengeState `json:"challenge"`
	Bargain   BargainState   `json:"bargain"`
	Echo      EchoState      `json:"echo"`

	Offerings []string `json:"offerings"`

	ArchetypeID     string         `json:"archetype_id"`
	ArchetypeSince  time.Time      `json:"archetype_since"`
	ArchetypeGifted []string       `json:"archetype_gifted"`
	Offer           ArchetypeOffer `json:"offer"`
	Debuff          ActiveDebuff   `json:"debuff"`

	ResonanceComboSeconds float64 `json:"resonance_combo_seconds"`
	ResonancePerfects     int     `json:"resonance_perfects"`
	ResonanceIdleSeconds  float64 `json:"resonance_idle_seconds"`

	LastTick time.Time `json:"last_tick"`
	Stats    RunStats  `json:"stats"`

	ComboMultiplier     float64 `json:"-"`
	EssencePerPress     float64 `json:"-"`
	IdleIncomePerSecond float64 `json:"-"`
}

func (s *RunState) Level(upgradeID string) int {
	return s.UpgradeLevels[upgradeID]
}

func (s *RunState) HasDebuff(kind catalog.DebuffKind) bool {
	return kind != catalog.DebuffNone && s.Debuff.Kind == kind
}

func (s *RunState) recordLength() {
	if s.SnakeLength > s.Stats.PeakLength {
		s.Stats.PeakLength = s.SnakeLength
	}
}

func (s *RunState) recordCombo() {
	if s.ComboMultiplier > s.Stats.ComboHigh {
		s.Stats.ComboHigh = s.ComboMultiplier
	}
}

// resetTransients returns rhythm and event-in-progress state to idle
// defaults. Upgrades, currencies and archetype are untouched.
func (s *RunState) resetTransients(now time.Time) {
	s.ComboHits = 0
	s.ComboMisses = 0
	s.MissStreak = 0
	s.PerfectStreak = 0
	s.ComboMultiplier = 1.0
	s.BeatOrigin = now
	s.LastScoredBeat = -1
	s.LastAutoBiteBeat = -1
	s.MouthOpen = true
	s.BiteCooldownUntil = time.Time{}
	s.LastBite = BiteNone
	s.IdleSeconds = 0
	s.VenomRushActive = false
	s.VenomRushEndBeat = -1
	s.PostEventBPM = 0
	s.PostEventNextStep = time.Time{}
	s.Golden = GoldenState{}
	s.Frenzy = FrenzyState{}
	s.Challenge = ChallengeState{}
	s.Bargain = BargainState{}
	s.Echo = EchoState{}
	s.Offerings = []string{}
	s.ResonanceComboSeconds = 0
	s.ResonancePerfects = 0
	s.ResonanceIdleSeconds = 0
}

func copyLevels(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
