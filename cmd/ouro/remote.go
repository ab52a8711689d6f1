package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	cl "ouro/internal/cli"
	"ouro/internal/config"

	"github.com/spf13/cobra"
)

func newRemoteCmd(cfg *config.CLIConfig) *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Drive a session hosted by ouro-api",
	}

	var url, token string
	login := &cobra.Command{
		Use:   "login",
		Short: "Remember an ouro-api address",
		RunE: func(cmd *cobra.Command, args []string) error {
			url = strings.TrimSpace(url)
			if url == "" {
				return fmt.Errorf("--url is required")
			}
			c := cl.NewClient(url, token)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if _, err := c.Snapshot(ctx); err != nil {
				return fmt.Errorf("cannot reach %s: %w", url, err)
			}
			if err := cl.SaveRemote(cfg.DataDir, cl.Remote{URL: url, Token: token}); err != nil {
				return err
			}
			printSuccess("Remote saved: " + url)
			return nil
		},
	}
	login.Flags().StringVar(&url, "url", "", "base url, e.g. http://127.0.0.1:8080")
	login.Flags().StringVar(&token, "token", os.Getenv("OURO_API_TOKEN"), "bearer token if the api requires one")

	remote.AddCommand(
		login,
		&cobra.Command{
			Use:   "logout",
			Short: "Forget the saved remote",
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := cl.ClearRemote(cfg.DataDir); err != nil {
					return err
				}
				printSuccess("Remote cleared.")
				return nil
			},
		},
		remoteAction(cfg, "status", "Show the remote run", func(ctx context.Context, c *cl.Client) error {
			snap, err := c.Snapshot(ctx)
			if err != nil {
				return err
			}
			renderStatus(snap, time.Time{})
			return nil
		}),
		remoteAction(cfg, "bite", "Bite once, scored at the moment of the call", func(ctx context.Context, c *cl.Client) error {
			out, err := c.Bite(ctx, time.Now())
			if err != nil {
				return err
			}
			if out.Result == "" {
				printWarn("The jaw is still closing.")
				return nil
			}
			printInfo(fmt.Sprintf("%s +%.2f (combo %d, x%.1f)", out.Result, out.Earned, out.ComboHits, out.ComboMultiplier))
			return nil
		}),
		remoteAction(cfg, "shed", "Shed on the remote run", func(ctx context.Context, c *cl.Client) error {
			res, err := c.Shed(ctx)
			if err != nil {
				return err
			}
			if !res.OK {
				printWarn("Not long enough to shed yet.")
				return nil
			}
			printSuccess(fmt.Sprintf("Shed complete: +%.0f scales.", res.Scales))
			return nil
		}),
		remoteAction(cfg, "golden", "Catch the golden ouroboros", func(ctx context.Context, c *cl.Client) error {
			return reportAction(c.Action(ctx, "golden/catch"))
		}),
		remoteAction(cfg, "save", "Ask the remote to save now", func(ctx context.Context, c *cl.Client) error {
			if err := c.Save(ctx); err != nil {
				return err
			}
			printSuccess("Remote saved.")
			return nil
		}),
	)
	return remote
}

func remoteAction(cfg *config.CLIConfig, use, short string, fn func(ctx context.Context, c *cl.Client) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := cl.LoadRemote(cfg.DataDir)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			return fn(ctx, cl.NewClient(r.URL, r.Token))
		},
	}
}

func reportAction(res cl.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.OK {
		printError("Nothing to catch right now.")
		return nil
	}
	printSuccess("Caught!")
	return nil
}
