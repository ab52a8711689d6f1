package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ouro/internal/app"
	"ouro/internal/catalog"
	"ouro/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg, err := config.LoadCLIFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:          "ouro",
		Short:        "Ouroboros: an idle rhythm snake",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory for saves and logs")

	root.AddCommand(
		newPlayCmd(&cfg),
		newStatusCmd(&cfg),
		newShedCmd(&cfg),
		newAscendCmd(&cfg),
		newMetaCmd(&cfg),
		newWipeCmd(&cfg),
		newExportCmd(&cfg),
		newImportCmd(&cfg),
		newRemoteCmd(&cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// stderrLogger keeps one-shot commands quiet unless OURO_LOG_LEVEL asks for more.
func stderrLogger(cfg *config.CLIConfig) *slog.Logger {
	level := cfg.LogLevel
	if level < slog.LevelWarn && os.Getenv("OURO_LOG_LEVEL") == "" {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withRuntime opens the save, credits time away, runs fn and saves.
func withRuntime(ctx context.Context, cfg *config.CLIConfig, logger *slog.Logger, fn func(rt *app.Runtime) error) error {
	rt, err := app.Open(ctx, cfg.Config, logger)
	if err != nil {
		return err
	}
	defer rt.Close()
	rt.Session.Tick()
	if err := fn(rt); err != nil {
		return err
	}
	saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return rt.Saver.Save(saveCtx, rt.Session)
}

func newStatusCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current run and lifetime progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				renderStatus(rt.Session.Snapshot(), rt.Session.Record().Meta.CreatedAt)
				return nil
			})
		},
	}
}

func newShedCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "shed",
		Short: "Shed your skin: advance a growth stage for scales",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				scales, ok := rt.Session.Shed()
				if !ok {
					snap := rt.Session.Snapshot()
					printWarn(fmt.Sprintf("Not long enough to shed yet (length %s, next stage at %s).",
						formatCount(snap.SnakeLength), formatCount(snap.NextStageLength)))
					return nil
				}
				snap := rt.Session.Snapshot()
				printSuccess(fmt.Sprintf("Shed complete: now %s, +%.0f scales.", snap.StageName, scales))
				return nil
			})
		},
	}
}

func newAscendCmd(cfg *config.CLIConfig) *cobra.Command {
	var buy map[string]int
	cmd := &cobra.Command{
		Use:   "ascend",
		Short: "Ascend from the final stage, spending scales on permanent upgrades",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				cat := rt.Engine.Catalog()
				for id := range buy {
					if _, ok := cat.AscensionUpgrade(id); !ok {
						return fmt.Errorf("unknown ascension upgrade %q (known: %s)", id, strings.Join(cat.AscensionIDs(), ", "))
					}
				}
				res, ok := rt.Session.Ascend(buy)
				if !ok {
					printWarn("Ascension is only possible at the final stage.")
					renderAscensionShop(rt.Session.Snapshot())
					return nil
				}
				printSuccess(fmt.Sprintf("Ascended. +%d serpent knowledge.", res.Knowledge))
				ids := make([]string, 0, len(res.Purchased))
				for id := range res.Purchased {
					ids = append(ids, id)
				}
				sort.Strings(ids)
				for _, id := range ids {
					printInfo(fmt.Sprintf("  bought %s x%d", id, res.Purchased[id]))
				}
				for _, skin := range res.Unlocks.Skins {
					printSuccess("  new skin: " + skin)
				}
				for _, lore := range res.Unlocks.Lore {
					printSuccess(fmt.Sprintf("  lore fragment #%d discovered", lore))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringToIntVar(&buy, "buy", nil, "ascension upgrades to buy, e.g. --buy serpent_memory=2,void_fang=1")
	return cmd
}

func newMetaCmd(cfg *config.CLIConfig) *cobra.Command {
	meta := &cobra.Command{
		Use:   "meta",
		Short: "Spend serpent knowledge between runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				renderMetaShop(rt.Session.Snapshot(), rt.Engine.Catalog())
				return nil
			})
		},
	}
	meta.AddCommand(
		&cobra.Command{
			Use:   "buy-length",
			Short: "Start every run one segment longer",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
					if err := rt.Session.BuyStartingLength(); err != nil {
						return err
					}
					printSuccess(fmt.Sprintf("Starting length is now %d.", rt.Session.Snapshot().Meta.StartingLength))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "unlock <upgrade>",
			Short: "Add an upgrade to the offering pool for future runs",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
					if err := rt.Session.UnlockUpgrade(strings.TrimSpace(args[0])); err != nil {
						return err
					}
					printSuccess("Unlocked " + args[0] + ".")
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "skin <id>",
			Short: "Wear an unlocked skin",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
					if !rt.Session.SetSkin(strings.TrimSpace(args[0])) {
						return fmt.Errorf("skin %q is not unlocked", args[0])
					}
					printSuccess("Now wearing " + args[0] + ".")
					return nil
				})
			},
		},
	)
	return meta
}

func newWipeCmd(cfg *config.CLIConfig) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Erase all progress, including meta progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				ok, err := promptConfirm("This erases every run and all knowledge. Type 'wipe' to continue", "wipe")
				if err != nil {
					return err
				}
				if !ok {
					printWarn("Wipe cancelled.")
					return nil
				}
			}
			logger := stderrLogger(cfg)
			rt, err := app.Open(cmd.Context(), cfg.Config, logger)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.Saver.Wipe(cmd.Context(), rt.Session); err != nil {
				return err
			}
			if err := rt.Saver.Save(cmd.Context(), rt.Session); err != nil {
				return err
			}
			printSuccess("Progress wiped. A new ouroboros hatches.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func newExportCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the save record as JSON (stdout when no file is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				raw, err := rt.Session.Export()
				if err != nil {
					return err
				}
				if len(args) == 0 {
					_, err := os.Stdout.Write(append(raw, '\n'))
					return err
				}
				if err := os.WriteFile(args[0], raw, 0o600); err != nil {
					return err
				}
				printSuccess("Exported to " + filepath.Clean(args[0]))
				return nil
			})
		},
	}
}

func newImportCmd(cfg *config.CLIConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the current save with an exported record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), cfg, stderrLogger(cfg), func(rt *app.Runtime) error {
				if err := rt.Session.Import(raw); err != nil {
					return err
				}
				printSuccess("Imported " + filepath.Base(args[0]) + ".")
				return nil
			})
		},
	}
}

func unlockableIDs(cat *catalog.Catalog) []string {
	ids := cat.UpgradesInTier(catalog.TierUnlockable)
	sort.Strings(ids)
	return ids
}
