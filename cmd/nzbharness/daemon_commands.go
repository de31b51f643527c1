package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"nzbharness/internal/control"
	"nzbharness/internal/jobs"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the history of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *control.Client) error {
				records, err := client.History(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), records)
				}
				if len(records) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "History is empty")
					return nil
				}
				rows := make([][]string, 0, len(records))
				for _, r := range records {
					rows = append(rows, []string{strconv.Itoa(r.ID), r.NZBFilename, r.Status, r.DeleteStatus, r.Category})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"ID", "NZB", "Status", "Delete", "Category"}, rows, 0))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "groups",
		Short: "Show the download queue of a running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *control.Client) error {
				groups, err := client.ListGroups(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return printJSON(cmd.OutOrStdout(), groups)
				}
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(groups))
				for i, g := range groups {
					rows = append(rows, []string{strconv.Itoa(i + 1), strconv.Itoa(g.ID), g.Name, g.Status})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"#", "ID", "Name", "Status"}, rows, 0, 1))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func newSaveLogCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "savelog <nzb-id>",
		Short: "Write a job's log from a running daemon to " + jobs.LogFileName,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(strings.TrimSpace(args[0]))
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid nzb id %q", args[0])
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *control.Client) error {
				target := dir
				if target == "" {
					records, err := client.History(cmd.Context())
					if err != nil {
						return err
					}
					for _, r := range records {
						if r.ID == id {
							target = r.DestDir
							break
						}
					}
					if target == "" {
						return fmt.Errorf("nzb %d not in history; pass --dir", id)
					}
				}
				runner := jobs.NewRunner(client, ctx.loggerFor(cfg), jobs.Options{})
				path, err := runner.SaveLog(cmd.Context(), id, target)
				if err != nil {
					return err
				}
				if path == "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Log of nzb %d is empty\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Directory to write into (defaults to the job's destination)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
