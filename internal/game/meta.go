package game

import (
	"fmt"
	"math"
	"sort"
	"time"

	"ouro/internal/catalog"
)

type LifetimeBests struct {
	PeakLength         int     `json:"peak_length"`
	ComboHigh          float64 `json:"combo_high"`
	RunEssence         float64 `json:"run_essence"`
	TotalEssenceEarned float64 `json:"total_essence_earned"`
	TotalSheds         int     `json:"total_sheds"`
	TotalChallenges    int     `json:"total_challenges"`
	TotalGoldenCaught  int     `json:"total_golden_caught"`
	FlawlessChallenges int     `json:"flawless_challenges"`
}

// MetaState lives for the whole installation and survives every run.
type MetaState struct {
	InstallID               string         `json:"install_id"`
	SerpentKnowledge        int            `json:"serpent_knowledge"`
	AscensionCount          int            `json:"ascension_count"`
	RunsCompleted           int            `json:"runs_completed"`
	AscensionUpgradeLevels  map[string]int `json:"ascension_upgrade_levels"`
	StartingLengthPurchases int            `json:"starting_length_purchases"`
	UnlockedUpgrades        []string       `json:"unlocked_upgrades"`
	UnlockedArchetypes      []string       `json:"unlocked_archetypes"`
	Skins                   []string       `json:"skins"`
	ActiveSkin              string         `json:"active_skin"`
	Lore                    []int          `json:"lore"`
	Bests                   LifetimeBests  `json:"bests"`
	CreatedAt               time.Time      `json:"created_at"`
}

func NewMeta(installID string, now time.Time) *MetaState {
	return &MetaState{
		InstallID:              installID,
		AscensionUpgradeLevels: map[string]int{},
		UnlockedUpgrades:       []string{},
		UnlockedArchetypes:     []string{},
		Skins:                  []string{catalog.DefaultSkin},
		ActiveSkin:             catalog.DefaultSkin,
		Lore:                   []int{},
		CreatedAt:              now,
	}
}

func (m *MetaState) UnlockedUpgradeSet() map[string]bool {
	set := make(map[string]bool, len(m.UnlockedUpgrades))
	for _, id := range m.UnlockedUpgrades {
		set[id] = true
	}
	return set
}

func (m *MetaState) hasArchetype(id string) bool {
	return containsString(m.UnlockedArchetypes, id)
}

func (m *MetaState) unlockArchetype(id string) bool {
	if m.hasArchetype(id) {
		return false
	}
	m.UnlockedArchetypes = append(m.UnlockedArchetypes, id)
	sort.Strings(m.UnlockedArchetypes)
	return true
}

func (m *MetaState) hasSkin(id string) bool {
	return containsString(m.Skins, id)
}

func (m *MetaState) hasLore(id int) bool {
	for _, l := range m.Lore {
		if l == id {
			return true
		}
	}
	return false
}

// KnowledgeReward converts a finished run into meta knowledge.
func KnowledgeReward(stats RunStats) int {
	peak := math.Max(1, float64(stats.PeakLength))
	base := int(math.Floor(math.Log2(peak)))
	if base < 1 {
		base = 1
	}
	return base + stats.Sheds
}

func (e *Engine) StartingLengthCost(m *MetaState) int {
	return e.bal.Meta.StartingLengthCost * (m.StartingLengthPurchases + 1)
}

// BuyStartingLength spends knowledge on a permanent starting length bump.
func (e *Engine) BuyStartingLength(m *MetaState) error {
	if m.StartingLengthPurchases >= e.bal.Meta.StartingLengthMaxPurchases {
		return ErrMaxedOut
	}
	cost := e.StartingLengthCost(m)
	if m.SerpentKnowledge < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughKnowledge, cost, m.SerpentKnowledge)
	}
	m.SerpentKnowledge -= cost
	m.StartingLengthPurchases++
	return nil
}

// UnlockUpgrade adds a tier-1 upgrade to the offering pool for all future
// runs.
func (e *Engine) UnlockUpgrade(m *MetaState, id string) error {
	def, ok := e.cat.Upgrade(id)
	if !ok || def.Tier != catalog.TierUnlockable {
		return fmt.Errorf("%w: %s", ErrUnknownUpgrade, id)
	}
	if containsString(m.UnlockedUpgrades, id) {
		return ErrAlreadyUnlocked
	}
	cost := e.bal.Meta.UpgradeUnlockCost
	if m.SerpentKnowledge < cost {
		return fmt.Errorf("%w: need %d, have %d", ErrNotEnoughKnowledge, cost, m.SerpentKnowledge)
	}
	m.SerpentKnowledge -= cost
	m.UnlockedUpgrades = append(m.UnlockedUpgrades, id)
	sort.Strings(m.UnlockedUpgrades)
	return nil
}

func (e *Engine) metaStartingLength(m *MetaState) int {
	return e.bal.Prestige.StartingLength + m.StartingLengthPurchases*e.bal.Meta.StartingLengthBonus
}

// CollectionUnlocks lists what a finished run newly earned.
type CollectionUnlocks struct {
	Skins []string `json:"skins"`
	Lore  []int    `json:"lore"`
}

// FoldRun banks a finished run into meta: knowledge, bests and collection
// unlocks. It returns the knowledge granted and any new collectibles.
func (e *Engine) FoldRun(m *MetaState, s *RunState) (int, CollectionUnlocks) {
	st := s.Stats
	knowledge := KnowledgeReward(st)
	m.SerpentKnowledge += knowledge
	m.RunsCompleted++

	b := &m.Bests
	if st.PeakLength > b.PeakLength {
		b.PeakLength = st.PeakLength
	}
	if st.ComboHigh > b.ComboHigh {
		b.ComboHigh = st.ComboHigh
	}
	if st.TotalEssenceEarned > b.RunEssence {
		b.RunEssence = st.TotalEssenceEarned
	}
	b.TotalEssenceEarned += st.TotalEssenceEarned
	b.TotalSheds += st.Sheds
	b.TotalChallenges += st.ChallengesCompleted
	b.TotalGoldenCaught += st.GoldenCaught
	if st.ChallengesCompleted > 0 && st.ChallengesFailed == 0 {
		b.FlawlessChallenges++
	}
	return knowledge, e.evaluateCollections(m, st)
}

func (e *Engine) conditionValue(m *MetaState, st RunStats, c catalog.Condition) float64 {
	switch c {
	case catalog.CondRunsCompleted:
		return float64(m.RunsCompleted)
	case catalog.CondPeakLength:
		return float64(m.Bests.PeakLength)
	case catalog.CondShedsInRun:
		return float64(st.Sheds)
	case catalog.CondGoldenInRun:
		return float64(st.GoldenCaught)
	case catalog.CondFlawlessChallenges:
		return float64(m.Bests.FlawlessChallenges)
	case catalog.CondAscensions:
		return float64(m.AscensionCount)
	case catalog.CondComboHigh:
		return m.Bests.ComboHigh
	case catalog.CondRunEssence:
		return st.TotalEssenceEarned
	case catalog.CondUpgradesBought:
		return float64(st.UpgradesBought)
	case catalog.CondLifetimeChallenges:
		return float64(m.Bests.TotalChallenges)
	case catalog.CondSkinsOwned:
		return float64(len(m.Skins))
	}
	return 0
}

func (e *Engine) evaluateCollections(m *MetaState, st RunStats) CollectionUnlocks {
	var out CollectionUnlocks
	lore := e.cat.Lore
	for _, l := range lore {
		if l.Unlock.Condition == catalog.CondAllOtherLore || m.hasLore(l.ID) {
			continue
		}
		if e.conditionValue(m, st, l.Unlock.Condition) >= l.Unlock.Threshold {
			m.Lore = append(m.Lore, l.ID)
			out.Lore = append(out.Lore, l.ID)
		}
	}
	for _, sk := range e.cat.Skins {
		if sk.Unlock.Condition == 0 || sk.Unlock.Condition == catalog.CondAllOtherLore || m.hasSkin(sk.ID) {
			continue
		}
		if e.conditionValue(m, st, sk.Unlock.Condition) >= sk.Unlock.Threshold {
			m.Skins = append(m.Skins, sk.ID)
			out.Skins = append(out.Skins, sk.ID)
		}
	}

	// Fragments that need every other fragment are checked last, then the
	// skin gated on the complete set.
	for _, l := range lore {
		if l.Unlock.Condition != catalog.CondAllOtherLore || m.hasLore(l.ID) {
			continue
		}
		if len(m.Lore) >= len(lore)-1 {
			m.Lore = append(m.Lore, l.ID)
			out.Lore = append(out.Lore, l.ID)
		}
	}
	for _, sk := range e.cat.Skins {
		if sk.Unlock.Condition != catalog.CondAllOtherLore || m.hasSkin(sk.ID) {
			continue
		}
		if len(m.Lore) == len(lore) {
			m.Skins = append(m.Skins, sk.ID)
			out.Skins = append(out.Skins, sk.ID)
		}
	}
	sort.Ints(m.Lore)
	return out
}

// SetSkin changes the cosmetic skin. Only owned skins are accepted.
func (m *MetaState) SetSkin(id string) bool {
	if !m.hasSkin(id) {
		return false
	}
	m.ActiveSkin = id
	return true
}
