package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nzbharness/internal/deps"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the daemon and archive tools can be found",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses, verifyErr := deps.Verify(cfg)
			for _, status := range statuses {
				kind, message := statusOK, status.Path
				if !status.Available {
					kind = statusError
					if status.Optional {
						kind = statusWarn
					}
					message = fmt.Sprintf("%s (set %s or %s)", status.Detail, status.Option, status.Env)
				}
				fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
			}
			return verifyErr
		},
	}
}
