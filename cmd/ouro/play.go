package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ouro/internal/app"
	"ouro/internal/config"
	"ouro/internal/game"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const maxFeed = 6

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	eventStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	debuffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	mouthOpen    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	mouthShut    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("35")).Padding(0, 1)
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	affordStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pricedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	perfectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
)

type tickMsg time.Time

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newPlayCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play in the terminal: space bites on the beat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("play needs an interactive terminal; try `ouro status`")
			}
			logger, closeLog, err := fileLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			rt, err := app.Open(ctx, cfg.Config, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			go rt.Saver.Run(ctx, rt.Session, cfg.SaveEvery)

			m := newPlayModel(rt.Session, cfg.TickEvery)
			if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
				return err
			}
			cancel()

			saveCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := rt.Saver.Save(saveCtx, rt.Session); err != nil {
				return fmt.Errorf("final save: %w", err)
			}
			printSuccess("Progress saved. The serpent sleeps.")
			return nil
		},
	}
}

// fileLogger sends logs to a file so they do not tear the alt screen.
func fileLogger(cfg *config.CLIConfig) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(filepath.Join(cfg.DataDir, "ouro.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
	return logger, func() { _ = f.Close() }, nil
}

type playModel struct {
	sess  *game.Session
	every time.Duration
	snap  game.Snapshot
	beat  progress.Model
	event progress.Model
	feed  []string
}

func newPlayModel(sess *game.Session, every time.Duration) playModel {
	return playModel{
		sess:  sess,
		every: every,
		snap:  sess.Snapshot(),
		beat:  progress.New(progress.WithGradient("#1f6f43", "#5af78e"), progress.WithoutPercentage(), progress.WithWidth(40)),
		event: progress.New(progress.WithSolidFill("#f3c623"), progress.WithoutPercentage(), progress.WithWidth(40)),
	}
}

func (m playModel) Init() tea.Cmd {
	return tickCmd(m.every)
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		rep := m.sess.Tick()
		for _, n := range rep.Notices {
			m.push(describeNotice(n))
		}
		if rep.AutoBite {
			m.push(fmt.Sprintf("auto-bite +%.1f", rep.AutoEarned))
		}
		m.snap = m.sess.Snapshot()
		return m, tickCmd(m.every)
	case tea.WindowSizeMsg:
		w := clampWidth(msg.Width - 20)
		m.beat.Width = w
		m.event.Width = w
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m playModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case " ":
		out := m.sess.Bite(time.Now())
		if out.Result != game.BiteNone && out.Result != game.BitePerfect {
			m.push(fmt.Sprintf("%s +%.1f", out.Result, out.Earned))
		}
	case "1", "2", "3", "4", "5":
		slot := int(key[0] - '1')
		if id, ok := m.sess.PurchaseSlot(slot); ok {
			m.push("bought " + id)
		}
	case "s":
		if scales, ok := m.sess.Shed(); ok {
			m.push(fmt.Sprintf("shed! +%.0f scales", scales))
		}
	case "A":
		if res, ok := m.sess.Ascend(nil); ok {
			m.push(fmt.Sprintf("ascended, +%d knowledge", res.Knowledge))
		}
	case "g":
		if m.sess.CatchGolden() {
			m.push("golden ouroboros caught: frenzy!")
		}
	case "b":
		if id, ok := m.sess.AcceptBargain(); ok {
			m.push("bargain struck: " + id)
		}
	case "n":
		if m.sess.DeclineBargain() {
			m.push("bargain declined")
		}
	case "e":
		if id, ok := m.sess.AcceptEcho(); ok {
			m.push("echo claimed: " + id)
		}
	case "a":
		if m.sess.AcceptArchetype() {
			m.push("archetype embraced")
		}
	}
	m.snap = m.sess.Snapshot()
	return m, nil
}

func (m *playModel) push(line string) {
	m.feed = append(m.feed, line)
	if len(m.feed) > maxFeed {
		m.feed = m.feed[len(m.feed)-maxFeed:]
	}
}

func (m playModel) View() string {
	s := m.snap
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("OUROBOROS · %s", s.StageName)))
	b.WriteString("\n\n")
	b.WriteString(row("essence", s.EssenceText))
	b.WriteString(row("length", fmt.Sprintf("%s / %s", formatCount(s.SnakeLength), formatCount(s.NextStageLength))))
	b.WriteString(row("scales", formatScales(s.Scales)))
	b.WriteString(row("per bite", fmt.Sprintf("%.2f  (idle %.2f/s)", s.EssencePerPress, s.IdleIncomePerSecond)))
	b.WriteString(row("combo", fmt.Sprintf("%d hits  x%.1f", s.ComboHits, s.ComboMultiplier)))
	b.WriteString("\n")

	mouth := mouthShut.Render("( )")
	if s.MouthOpen {
		mouth = mouthOpen.Render("(<)")
	}
	bite := string(s.LastBite)
	if s.LastBite == game.BitePerfect {
		bite = perfectStyle.Render("PERFECT")
	}
	b.WriteString(fmt.Sprintf("%s %s  %3.0f bpm  %s\n", mouth, m.beat.ViewAs(s.BeatPhase), s.BPM, bite))
	if s.VenomRush {
		b.WriteString(eventStyle.Render("VENOM RUSH"))
		b.WriteString("\n")
	}
	if s.Debuff != "" {
		b.WriteString(debuffStyle.Render(fmt.Sprintf("%s %.0fs", s.Debuff, s.DebuffEndsIn)))
		b.WriteString("\n")
	}
	b.WriteString(m.eventLines())
	b.WriteString("\n")

	var offers strings.Builder
	for i, off := range s.Offerings {
		style := pricedStyle
		if off.Affordable {
			style = affordStyle
		}
		offers.WriteString(style.Render(fmt.Sprintf("%d %-20s lv%d %s", i+1, off.Name, off.Level, off.CostText)))
		if i < len(s.Offerings)-1 {
			offers.WriteString("\n")
		}
	}
	b.WriteString(panelStyle.Render(offers.String()))
	b.WriteString("\n")

	switch {
	case s.CanAscend:
		b.WriteString(eventStyle.Render("A: ascend"))
		b.WriteString("\n")
	case s.CanShed:
		b.WriteString(eventStyle.Render(fmt.Sprintf("s: shed for %.0f scales", s.ShedReward)))
		b.WriteString("\n")
	}
	for _, line := range m.feed {
		b.WriteString(labelStyle.Render("· " + line))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("space bite · 1-5 buy · g golden · b/n bargain · e echo · a archetype · q quit"))
	return b.String()
}

func (m playModel) eventLines() string {
	s := m.snap
	var lines []string
	timed := func(label string, tv game.TimerView, total float64) {
		if !tv.Active {
			return
		}
		frac := 0.0
		if total > 0 {
			frac = tv.EndsIn / total
		}
		lines = append(lines, fmt.Sprintf("%s %s %.1fs", eventStyle.Render(fmt.Sprintf("%-10s", label)), m.event.ViewAs(clampFrac(frac)), tv.EndsIn))
	}
	bal := m.sess.Engine().Balance().Events
	timed("golden", s.Golden, bal.GoldenDurationSeconds)
	if s.Frenzy.Active {
		lines = append(lines, eventStyle.Render(fmt.Sprintf("FRENZY %.0f bites (%.1fs)", s.Frenzy.Current, s.Frenzy.EndsIn)))
	}
	if s.Challenge.Active {
		lines = append(lines, eventStyle.Render(fmt.Sprintf("challenge %s: %.0f/%.0f (%.1fs)", s.Challenge.Detail, s.Challenge.Current, s.Challenge.Target, s.Challenge.EndsIn)))
	}
	timed("bargain", s.Bargain, bal.BargainDurationSeconds)
	if s.Echo.Active {
		lines = append(lines, eventStyle.Render(fmt.Sprintf("echo of %s (%.0fs)", s.Echo.Detail, s.Echo.EndsIn)))
	}
	if s.Offer.Active {
		lines = append(lines, eventStyle.Render(fmt.Sprintf("resonance: %s calls (%.0fs)", s.Offer.Detail, s.Offer.EndsIn)))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + valueStyle.Render(value) + "\n"
}

func describeNotice(n game.Notice) string {
	switch n.Kind {
	case game.NoticeGoldenSpawned:
		return "a golden ouroboros appears! press g"
	case game.NoticeGoldenMissed:
		return "the golden ouroboros slipped away"
	case game.NoticeFrenzyEnded:
		return fmt.Sprintf("frenzy over: +%.0f", n.Amount)
	case game.NoticeChallengeStarted:
		return "challenge: " + n.Detail
	case game.NoticeChallengeWon:
		return fmt.Sprintf("challenge won: +%.0f", n.Amount)
	case game.NoticeChallengeFailed:
		return "challenge failed"
	case game.NoticeBargainSpawned:
		return "a bargain is offered: b accept, n decline"
	case game.NoticeBargainExpired:
		return "the bargain lapses"
	case game.NoticeEchoSpawned:
		return "an echo of a past life: press e"
	case game.NoticeEchoExpired:
		return "the echo fades"
	}
	return string(n.Kind)
}

func clampWidth(w int) int {
	if w < 10 {
		return 10
	}
	if w > 60 {
		return 60
	}
	return w
}

func clampFrac(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
