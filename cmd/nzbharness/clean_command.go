package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"nzbharness/internal/session"
	"nzbharness/internal/teardown"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var withFixtures bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove a kept session work directory",
		Long:  "Remove the session work directory. Refuses while a running session holds it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			manager := &teardown.Manager{
				Policy: teardown.Policy{Attempts: cfg.Teardown.RemoveAttempts, Backoff: cfg.RemoveBackoff()},
				Logger: ctx.loggerFor(cfg),
			}
			out := cmd.OutOrStdout()
			lock, err := session.TryLockWorkDir(cfg.Paths.MainDir)
			if err != nil {
				return fmt.Errorf("refusing to clean: %w", err)
			}
			defer lock.Unlock()
			attempts, err := manager.RemoveWorkDir(cmd.Context(), cfg.Paths.MainDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %s (%d attempt(s))\n", cfg.Paths.MainDir, attempts)

			if withFixtures {
				if err := os.RemoveAll(cfg.Paths.NServDataDir); err != nil {
					return fmt.Errorf("remove fixtures: %w", err)
				}
				fmt.Fprintf(out, "Removed fixtures in %s\n", cfg.Paths.NServDataDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withFixtures, "fixtures", false, "Also remove generated fixtures so the next run rebuilds them")
	return cmd
}
