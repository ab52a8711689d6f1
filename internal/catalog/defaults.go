package catalog

var upgradeDefs = []UpgradeDef{
	{ID: "fang_sharpening", Name: "Fang Sharpening", Description: "+50% Essence per press per level.", Effect: EffectEssencePerPress, ValuePerLevel: 0.5, BaseCost: 25, MaxLevel: 100},
	{ID: "elastic_scales", Name: "Elastic Scales", Description: "+30% combo decay tolerance per level.", Effect: EffectComboDecaySlow, ValuePerLevel: 0.3, BaseCost: 50, MaxLevel: 100},
	{ID: "digestive_enzymes", Name: "Digestive Enzymes", Description: "+50% idle income per level.", Effect: EffectIdleIncomeMult, ValuePerLevel: 0.5, BaseCost: 100, MaxLevel: 100},
	{ID: "rattletail", Name: "Rattletail", Description: "+8% chance of double Essence per press per level.", Effect: EffectDoublePressChance, ValuePerLevel: 0.08, BaseCost: 75, MaxLevel: 10},
	{ID: "hypnotic_eyes", Name: "Hypnotic Eyes", Description: "Golden events last +25% longer per level.", Effect: EffectGoldenDurationMult, ValuePerLevel: 0.25, BaseCost: 150, MaxLevel: 20},
	{ID: "venomous_bite", Name: "Venomous Bite", Description: "-5% upgrade costs per level.", Effect: EffectCostDiscount, ValuePerLevel: 0.05, BaseCost: 250, MaxLevel: 11},
	{ID: "growth_hormone", Name: "Growth Hormone", Description: "+1 top combo tier multiplier per level.", Effect: EffectMaxComboBonus, ValuePerLevel: 1.0, BaseCost: 200, MaxLevel: 30},
	{ID: "resilient_fangs", Name: "Resilient Fangs", Description: "+15% chance a miss keeps the combo per level.", Effect: EffectComboSaveChance, ValuePerLevel: 0.15, BaseCost: 150, MaxLevel: 6},
	{ID: "cascading_fangs", Name: "Cascading Fangs", Description: "+6% chance per level that a bite strikes again, up to 4 strikes.", Effect: EffectChainBiteChance, ValuePerLevel: 0.06, BaseCost: 300, MaxLevel: 10},

	{ID: "serpent_instinct", Name: "Serpent Instinct", Description: "+10% chance of an automatic perfect bite each beat per level.", Effect: EffectAutoBiteChance, ValuePerLevel: 0.10, BaseCost: 250, MaxLevel: 10, Tier: TierUnlockable},
	{ID: "ancient_wisdom", Name: "Ancient Wisdom", Description: "+1 bonus Scale per shed per level.", Effect: EffectShedScaleBonus, ValuePerLevel: 1.0, BaseCost: 150, MaxLevel: 50, Tier: TierUnlockable},
	{ID: "ouroboros_rhythm", Name: "Ouroboros Rhythm", Description: "+30% Essence per press per level.", Effect: EffectEssencePerPress, ValuePerLevel: 0.3, BaseCost: 200, MaxLevel: 75, Tier: TierUnlockable},

	{ID: "stellar_coils", Name: "Stellar Coils", Description: "+100% cosmic income per level.", Effect: EffectCosmicIncomeMult, ValuePerLevel: 1.0, BaseCost: 1200, MaxLevel: 100, Tier: TierCosmic, CosmicOnly: true},
	{ID: "nebula_nests", Name: "Nebula Nests", Description: "+100% idle income per level.", Effect: EffectIdleIncomeMult, ValuePerLevel: 1.0, BaseCost: 2000, MaxLevel: 100, Tier: TierCosmic, CosmicOnly: true},
	{ID: "void_shrines", Name: "Void Shrines", Description: "+50% Essence per press per level.", Effect: EffectEssencePerPress, ValuePerLevel: 0.5, BaseCost: 2500, MaxLevel: 100, Tier: TierCosmic, CosmicOnly: true},
}

var archetypeDefs = []ArchetypeDef{
	{
		ID:                "coiled_striker",
		Name:              "Coiled Striker",
		Tagline:           "Strike fast. Strike hard.",
		EPPMult:           1.0,
		IdleMult:          0.5,
		TimingMult:        0.8,
		ComboTierBonus:    0.5,
		PerfectWindowMult: 1.0,
		StartingUpgrades:  map[string]int{"fang_sharpening": 2},
		PreferredPool:     []string{"fang_sharpening", "rattletail", "growth_hormone", "resilient_fangs"},
	},
	{
		ID:                "patient_ouroboros",
		Name:              "Patient Ouroboros",
		Tagline:           "The coil tightens while you rest.",
		EPPMult:           0.8,
		IdleMult:          2.0,
		TimingMult:        1.0,
		PerfectWindowMult: 1.0,
		StartingUpgrades:  map[string]int{"digestive_enzymes": 2},
		PreferredPool:     []string{"digestive_enzymes", "elastic_scales", "hypnotic_eyes", "serpent_instinct"},
		DebuffImmune:      true,
	},
	{
		ID:                "rhythm_incarnate",
		Name:              "Rhythm Incarnate",
		Tagline:           "You are the beat.",
		EPPMult:           1.0,
		IdleMult:          1.0,
		TimingMult:        1.0,
		PerfectWindowMult: 1.4,
		VenomTrigger:      3,
		PreferredPool:     []string{"fang_sharpening", "ouroboros_rhythm", "growth_hormone", "venomous_bite"},
	},
}

var debuffDefs = []DebuffDef{
	{Kind: DebuffHollowScales, ID: "hollow_scales", Name: "Hollow Scales", Description: "Essence leaks from every bite: -25% Essence per press.", Modifier: 0.75},
	{Kind: DebuffTorpidCoils, ID: "torpid_coils", Name: "Torpid Coils", Description: "The coil sleeps too deeply: idle income halved.", Modifier: 0.5},
	{Kind: DebuffSluggishJaw, ID: "sluggish_jaw", Name: "Sluggish Jaw", Description: "The mouth hesitates: bite cooldown 40% longer.", Modifier: 1.4},
	{Kind: DebuffRecklessFangs, ID: "reckless_fangs", Name: "Reckless Fangs", Description: "Timing windows 30% narrower.", Modifier: 0.7},
	{Kind: DebuffShatteredFangs, ID: "shattered_fangs", Name: "Shattered Fangs", Description: "Combo breaks after half as many misses.", Modifier: 0.5},
}

var ascensionDefs = []AscensionDef{
	{ID: "serpent_memory", Name: "Serpent Memory", Description: "+50 starting Essence per level", Effect: AscStartingEssence, ValuePerLevel: 50, BaseCost: 50_000, CostGrowth: 2.0, MaxLevel: 10},
	{ID: "ancient_coil", Name: "Ancient Coil", Description: "+10 starting Length per level", Effect: AscStartingLength, ValuePerLevel: 10, BaseCost: 100_000, CostGrowth: 2.5, MaxLevel: 5},
	{ID: "endless_drift", Name: "Endless Drift", Description: "Idle income x(1 + 10% per level)", Effect: AscIdleBonus, ValuePerLevel: 0.10, BaseCost: 200_000, CostGrowth: 2.5, MaxLevel: 5},
	{ID: "serpent_hoard", Name: "Serpent's Hoard", Description: "+1 upgrade offering slot per level", Effect: AscExtraOffering, ValuePerLevel: 1, BaseCost: 500_000, CostGrowth: 3.0, MaxLevel: 3},
	{ID: "void_fang", Name: "Void Fang", Description: "Global EPP x(1 + 50% per level)", Effect: AscEPPMult, ValuePerLevel: 0.50, BaseCost: 400_000, CostGrowth: 2.5, MaxLevel: 5},
	{ID: "scale_harvest", Name: "Scale Harvest", Description: "Scales per shed x(1 + 25% per level)", Effect: AscShedScalesMult, ValuePerLevel: 0.25, BaseCost: 250_000, CostGrowth: 2.5, MaxLevel: 5},
	{ID: "cosmic_tempo", Name: "Cosmic Tempo", Description: "+10 max BPM per level", Effect: AscMaxBPMBonus, ValuePerLevel: 10, BaseCost: 300_000, CostGrowth: 2.5, MaxLevel: 5},
}

// Default returns the shipped definition tables.
func Default() *Catalog {
	c, err := New(upgradeDefs, archetypeDefs, debuffDefs, ascensionDefs, skinDefs, loreDefs)
	if err != nil {
		panic(err)
	}
	return c
}
