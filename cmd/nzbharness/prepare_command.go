package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nzbharness/internal/deps"
	"nzbharness/internal/fixtures"
	"nzbharness/internal/session"
)

func newPrepareCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:       "prepare [suite...]",
		Short:     "Build fixtures for the given suites (all by default)",
		ValidArgs: suiteNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			suites := fixtures.Suites()
			if len(args) > 0 {
				suites = suites[:0]
				for _, arg := range args {
					suite, err := fixtures.ParseSuite(arg)
					if err != nil {
						return err
					}
					suites = append(suites, suite)
				}
			}
			if _, err := deps.Verify(cfg); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := ctx.loggerFor(cfg)
			runLock, err := session.LockRun(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer runLock.Unlock()

			preparer := fixtures.NewPreparer(cfg, logger)
			out := cmd.OutOrStdout()
			for _, suite := range suites {
				if err := preparer.Prepare(runCtx, suite); err != nil {
					return err
				}
				fmt.Fprintf(out, "Prepared %s fixtures in %s\n", suite, preparer.DataDir())
			}
			return nil
		},
	}
}

func suiteNames() []string {
	suites := fixtures.Suites()
	names := make([]string, 0, len(suites))
	for _, suite := range suites {
		names = append(names, string(suite))
	}
	return names
}
