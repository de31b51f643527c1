package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nzbharness/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sessions from the run ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				sessions, err := store.RecentSessions(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded")
					return nil
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						shortID(s.ID),
						s.TestName,
						s.StartedAt.Local().Format(time.DateTime),
						formatDuration(s),
						string(s.Outcome),
						yesNo(s.WorkDirKept),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Session", "Test", "Started", "Duration", "Outcome", "Kept"}, rows, 3))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to show")

	cmd.AddCommand(newRunsShowCommand(ctx))
	cmd.AddCommand(newRunsPruneCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id-prefix>",
		Short: "Show one session and its jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(store *ledger.Store) error {
				rec, err := store.FindSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session:  %s\n", rec.ID)
				fmt.Fprintf(out, "Test:     %s\n", rec.TestName)
				fmt.Fprintf(out, "Work dir: %s (kept: %s)\n", rec.WorkDir, yesNo(rec.WorkDirKept))
				fmt.Fprintf(out, "Daemon:   pid %d\n", rec.DaemonPID)
				fmt.Fprintf(out, "Outcome:  %s\n", rec.Outcome)
				fmt.Fprintf(out, "Duration: %s\n", formatDuration(rec))
				if rec.ErrorKind != "" {
					fmt.Fprintf(out, "Error:    %s: %s\n", rec.ErrorKind, rec.ErrorMessage)
				}

				jobs, err := store.Jobs(cmd.Context(), rec.ID)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, j := range jobs {
					status := j.Status
					if !j.Completed() {
						status = "(pending)"
					}
					rows = append(rows, []string{strconv.Itoa(j.NZBID), j.NZBFilename, status, strconv.Itoa(j.Polls)})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"ID", "NZB", "Status", "Polls"}, rows, 0, 3))
				return nil
			})
		},
	}
}

func newRunsPruneCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished sessions older than a cutoff",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			return ctx.withLedger(func(store *ledger.Store) error {
				removed, err := store.Prune(cmd.Context(), time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d session(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 30*24*time.Hour, "Age of sessions to delete")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(rec ledger.SessionRecord) string {
	if !rec.Finished() {
		return "-"
	}
	return rec.Duration().Round(time.Millisecond).String()
}
