package catalog

import (
	"fmt"
	"sort"
)

type Effect int

const (
	EffectEssencePerPress Effect = iota + 1
	EffectComboDecaySlow
	EffectIdleIncomeMult
	EffectDoublePressChance
	EffectGoldenDurationMult
	EffectCostDiscount
	EffectMaxComboBonus
	EffectShedScaleBonus
	EffectCosmicIncomeMult
	EffectComboSaveChance
	EffectAutoBiteChance
	EffectChainBiteChance
)

var effectNames = map[Effect]string{
	EffectEssencePerPress:    "essence_per_press",
	EffectComboDecaySlow:     "combo_decay_slow",
	EffectIdleIncomeMult:     "idle_income_mult",
	EffectDoublePressChance:  "double_press_chance",
	EffectGoldenDurationMult: "golden_duration_mult",
	EffectCostDiscount:       "cost_discount",
	EffectMaxComboBonus:      "max_combo_bonus",
	EffectShedScaleBonus:     "shed_scale_bonus",
	EffectCosmicIncomeMult:   "cosmic_income_mult",
	EffectComboSaveChance:    "combo_save_chance",
	EffectAutoBiteChance:     "auto_bite_chance",
	EffectChainBiteChance:    "chain_bite_chance",
}

func (e Effect) String() string {
	if name, ok := effectNames[e]; ok {
		return name
	}
	return fmt.Sprintf("effect(%d)", int(e))
}

type AscensionEffect int

const (
	AscStartingEssence AscensionEffect = iota + 1
	AscStartingLength
	AscIdleBonus
	AscEPPMult
	AscShedScalesMult
	AscMaxBPMBonus
	AscExtraOffering
)

type Tier int

const (
	TierBase Tier = iota
	TierUnlockable
	TierCosmic
)

type UpgradeDef struct {
	ID            string
	Name          string
	Description   string
	Effect        Effect
	ValuePerLevel float64
	BaseCost      float64
	MaxLevel      int
	Tier          Tier
	CosmicOnly    bool
}

type ArchetypeDef struct {
	ID             string
	Name           string
	Tagline        string
	EPPMult        float64
	IdleMult       float64
	TimingMult     float64
	ComboTierBonus float64
	// PerfectWindowMult widens only the perfect window.
	PerfectWindowMult float64
	// VenomTrigger overrides the perfect streak needed for Venom Rush when > 0.
	VenomTrigger     int
	StartingUpgrades map[string]int
	PreferredPool    []string
	DebuffImmune     bool
}

func (a ArchetypeDef) Prefers(upgradeID string) bool {
	for _, id := range a.PreferredPool {
		if id == upgradeID {
			return true
		}
	}
	return false
}

type DebuffKind int

const (
	DebuffNone DebuffKind = iota
	DebuffHollowScales
	DebuffTorpidCoils
	DebuffSluggishJaw
	DebuffRecklessFangs
	DebuffShatteredFangs
)

type DebuffDef struct {
	Kind        DebuffKind
	ID          string
	Name        string
	Description string
	// Modifier is the multiplier the owning system applies while active.
	Modifier float64
}

type AscensionDef struct {
	ID            string
	Name          string
	Description   string
	Effect        AscensionEffect
	ValuePerLevel float64
	BaseCost      float64
	CostGrowth    float64
	MaxLevel      int
}

type Catalog struct {
	Upgrades   map[string]UpgradeDef
	Archetypes map[string]ArchetypeDef
	Debuffs    map[DebuffKind]DebuffDef
	Ascension  map[string]AscensionDef
	Skins      []SkinDef
	Lore       []LoreDef

	upgradeOrder   []string
	archetypeOrder []string
	ascensionOrder []string
}

func (c *Catalog) Upgrade(id string) (UpgradeDef, bool) {
	u, ok := c.Upgrades[id]
	return u, ok
}

func (c *Catalog) Archetype(id string) (ArchetypeDef, bool) {
	a, ok := c.Archetypes[id]
	return a, ok
}

func (c *Catalog) AscensionUpgrade(id string) (AscensionDef, bool) {
	a, ok := c.Ascension[id]
	return a, ok
}

func (c *Catalog) Debuff(kind DebuffKind) (DebuffDef, bool) {
	d, ok := c.Debuffs[kind]
	return d, ok
}

func (c *Catalog) DebuffByID(id string) (DebuffDef, bool) {
	for _, d := range c.Debuffs {
		if d.ID == id {
			return d, true
		}
	}
	return DebuffDef{}, false
}

// UpgradeIDs returns upgrade ids in declaration order.
func (c *Catalog) UpgradeIDs() []string {
	return append([]string(nil), c.upgradeOrder...)
}

func (c *Catalog) UpgradesInTier(t Tier) []string {
	out := make([]string, 0, len(c.upgradeOrder))
	for _, id := range c.upgradeOrder {
		if c.Upgrades[id].Tier == t {
			out = append(out, id)
		}
	}
	return out
}

func (c *Catalog) ArchetypeIDs() []string {
	return append([]string(nil), c.archetypeOrder...)
}

func (c *Catalog) AscensionIDs() []string {
	return append([]string(nil), c.ascensionOrder...)
}

// New builds a catalog from explicit definition lists. Duplicate ids are
// rejected, as are archetype gifts and preferences that name unknown upgrades.
func New(upgrades []UpgradeDef, archetypes []ArchetypeDef, debuffs []DebuffDef, ascension []AscensionDef, skins []SkinDef, lore []LoreDef) (*Catalog, error) {
	c := &Catalog{
		Upgrades:   make(map[string]UpgradeDef, len(upgrades)),
		Archetypes: make(map[string]ArchetypeDef, len(archetypes)),
		Debuffs:    make(map[DebuffKind]DebuffDef, len(debuffs)),
		Ascension:  make(map[string]AscensionDef, len(ascension)),
		Skins:      skins,
		Lore:       lore,
	}
	for _, u := range upgrades {
		if _, dup := c.Upgrades[u.ID]; dup {
			return nil, fmt.Errorf("duplicate upgrade %q", u.ID)
		}
		if u.MaxLevel <= 0 {
			return nil, fmt.Errorf("upgrade %q: max level must be > 0", u.ID)
		}
		c.Upgrades[u.ID] = u
		c.upgradeOrder = append(c.upgradeOrder, u.ID)
	}
	for _, a := range archetypes {
		if _, dup := c.Archetypes[a.ID]; dup {
			return nil, fmt.Errorf("duplicate archetype %q", a.ID)
		}
		for uid := range a.StartingUpgrades {
			if _, ok := c.Upgrades[uid]; !ok {
				return nil, fmt.Errorf("archetype %q gifts unknown upgrade %q", a.ID, uid)
			}
		}
		for _, uid := range a.PreferredPool {
			if _, ok := c.Upgrades[uid]; !ok {
				return nil, fmt.Errorf("archetype %q prefers unknown upgrade %q", a.ID, uid)
			}
		}
		c.Archetypes[a.ID] = a
		c.archetypeOrder = append(c.archetypeOrder, a.ID)
	}
	for _, d := range debuffs {
		c.Debuffs[d.Kind] = d
	}
	for _, a := range ascension {
		if _, dup := c.Ascension[a.ID]; dup {
			return nil, fmt.Errorf("duplicate ascension upgrade %q", a.ID)
		}
		c.Ascension[a.ID] = a
		c.ascensionOrder = append(c.ascensionOrder, a.ID)
	}
	return c, nil
}

// SortedLevels returns the keys of a level map in a stable order so that
// products over owned levels are computed identically on every call.
func SortedLevels(levels map[string]int) []string {
	keys := make([]string, 0, len(levels))
	for k := range levels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
