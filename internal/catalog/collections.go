package catalog

type Condition int

const (
	CondRunsCompleted Condition = iota + 1
	CondPeakLength
	CondShedsInRun
	CondGoldenInRun
	CondFlawlessChallenges
	CondAscensions
	CondComboHigh
	CondRunEssence
	CondUpgradesBought
	CondLifetimeChallenges
	CondSkinsOwned
	CondAllOtherLore
)

// Unlock is a single threshold test evaluated when a run ends.
type Unlock struct {
	Condition Condition
	Threshold float64
}

type SkinDef struct {
	ID     string
	Name   string
	Unlock Unlock
}

type LoreDef struct {
	ID     int
	Title  string
	Unlock Unlock
}

const DefaultSkin = "emerald"

var skinDefs = []SkinDef{
	{ID: DefaultSkin, Name: "Emerald"},
	{ID: "obsidian", Name: "Obsidian", Unlock: Unlock{CondAscensions, 1}},
	{ID: "gilded", Name: "Gilded", Unlock: Unlock{CondGoldenInRun, 10}},
	{ID: "molting", Name: "Molting", Unlock: Unlock{CondShedsInRun, 5}},
	{ID: "trial", Name: "Trialborn", Unlock: Unlock{CondFlawlessChallenges, 1}},
	{ID: "titan", Name: "Titan", Unlock: Unlock{CondPeakLength, 1000}},
	{ID: "mythic", Name: "Mythic", Unlock: Unlock{CondAllOtherLore, 1}},
}

var loreDefs = []LoreDef{
	{ID: 1, Title: "The Hunger Before", Unlock: Unlock{CondRunsCompleted, 1}},
	{ID: 2, Title: "First Coil", Unlock: Unlock{CondPeakLength, 50}},
	{ID: 3, Title: "The Tail Bitten", Unlock: Unlock{CondUpgradesBought, 1}},
	{ID: 4, Title: "Old Skin", Unlock: Unlock{CondShedsInRun, 1}},
	{ID: 5, Title: "Thrice Renewed", Unlock: Unlock{CondShedsInRun, 3}},
	{ID: 6, Title: "The Pulse", Unlock: Unlock{CondComboHigh, 5}},
	{ID: 7, Title: "Gold in the Grass", Unlock: Unlock{CondGoldenInRun, 1}},
	{ID: 8, Title: "Trials of the Coil", Unlock: Unlock{CondLifetimeChallenges, 5}},
	{ID: 9, Title: "Predator", Unlock: Unlock{CondPeakLength, 500}},
	{ID: 10, Title: "The Cycle Turns", Unlock: Unlock{CondAscensions, 1}},
	{ID: 11, Title: "Endless Feast", Unlock: Unlock{CondRunEssence, 1_000_000}},
	{ID: 12, Title: "Five Lives", Unlock: Unlock{CondRunsCompleted, 5}},
	{ID: 13, Title: "Many Skins", Unlock: Unlock{CondSkinsOwned, 3}},
	{ID: 14, Title: "Eating the World", Unlock: Unlock{CondPeakLength, 150_000}},
	{ID: 15, Title: "Ouroboros", Unlock: Unlock{CondAllOtherLore, 1}},
}
