package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"ouro/internal/catalog"
	"ouro/internal/game"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
	muted       = color.New(color.FgHiBlack)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func printHeader(title string) {
	accent.Println(title)
	muted.Println(strings.Repeat("─", len([]rune(title))))
}

func promptConfirm(label, want string) (bool, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(text), want), nil
}

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

func formatScales(v float64) string {
	return humanize.Commaf(float64(int64(v)))
}

func kv(label, value string) {
	fmt.Printf("  %-18s %s\n", muted.Sprint(label), value)
}

func renderStatus(snap game.Snapshot, createdAt time.Time) {
	printHeader(fmt.Sprintf("Ouroboros · %s", snap.StageName))
	kv("essence", accent.Sprint(snap.EssenceText))
	kv("length", formatCount(snap.SnakeLength))
	if snap.NextStageLength > 0 {
		kv("next stage at", formatCount(snap.NextStageLength))
	}
	kv("scales", formatScales(snap.Scales))
	kv("essence / press", fmt.Sprintf("%.2f", snap.EssencePerPress))
	kv("idle / second", fmt.Sprintf("%.2f", snap.IdleIncomePerSecond))
	kv("tempo", fmt.Sprintf("%.0f bpm", snap.BPM))
	if snap.Archetype != "" {
		kv("archetype", snap.Archetype)
	}
	if snap.Debuff != "" {
		kv("debuff", danger.Sprintf("%s (%.0fs)", snap.Debuff, snap.DebuffEndsIn))
	}
	switch {
	case snap.CanAscend:
		success.Println("  Ready to ascend: run `ouro ascend`.")
	case snap.CanShed:
		success.Printf("  Ready to shed for %.0f scales: run `ouro shed`.\n", snap.ShedReward)
	}

	fmt.Println()
	printHeader("Offerings")
	for i, off := range snap.Offerings {
		line := fmt.Sprintf("  %d. %-22s lv %d/%d  %s", i+1, off.Name, off.Level, off.MaxLevel, off.CostText)
		if off.Affordable {
			success.Println(line)
		} else {
			muted.Println(line)
		}
	}

	fmt.Println()
	printHeader("Lifetime")
	m := snap.Meta
	kv("knowledge", formatCount(m.Knowledge))
	kv("ascensions", formatCount(m.AscensionCount))
	kv("runs", formatCount(m.RunsCompleted))
	kv("best length", formatCount(m.Bests.PeakLength))
	kv("lore", fmt.Sprintf("%d/%d", m.LoreFound, m.LoreTotal))
	kv("skin", m.ActiveSkin)
	if !createdAt.IsZero() {
		kv("hatched", humanize.Time(createdAt))
	}
}

func renderMetaShop(snap game.Snapshot, cat *catalog.Catalog) {
	m := snap.Meta
	printHeader(fmt.Sprintf("Serpent knowledge: %s", formatCount(m.Knowledge)))
	if m.StartingLengthMaxed {
		kv("buy-length", muted.Sprintf("maxed (start at %d)", m.StartingLength))
	} else {
		kv("buy-length", fmt.Sprintf("%d knowledge (start at %d)", m.StartingLengthCost, m.StartingLength))
	}
	unlocked := make(map[string]bool, len(m.UnlockedUpgrades))
	for _, id := range m.UnlockedUpgrades {
		unlocked[id] = true
	}
	for _, id := range unlockableIDs(cat) {
		def, _ := cat.Upgrade(id)
		if unlocked[id] {
			kv("unlock "+id, muted.Sprint("owned"))
			continue
		}
		kv("unlock "+id, fmt.Sprintf("%d knowledge · %s", m.UnlockCost, def.Description))
	}
	fmt.Println()
	printHeader("Skins")
	for _, skin := range m.Skins {
		if skin == m.ActiveSkin {
			success.Printf("  * %s\n", skin)
			continue
		}
		fmt.Printf("    %s\n", skin)
	}
}

func renderAscensionShop(snap game.Snapshot) {
	printHeader(fmt.Sprintf("Ascension shop · %s scales", formatScales(snap.Scales)))
	for _, a := range snap.AscensionShop {
		line := fmt.Sprintf("  %-16s lv %d/%d  %s scales", a.ID, a.Level, a.MaxLevel, formatScales(a.Cost))
		if a.Affordable {
			success.Println(line)
		} else {
			muted.Println(line)
		}
	}
}
