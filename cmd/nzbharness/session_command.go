package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"nzbharness/internal/control"
	"nzbharness/internal/deps"
	"nzbharness/internal/failtrack"
	"nzbharness/internal/ledger"
	"nzbharness/internal/logging"
	"nzbharness/internal/session"
)

type sessionOptions struct {
	overrides []string
	nzbs      []string
	unpack    bool
	hold      bool
	noNServ   bool
	saveLogs  bool
}

func newSessionCommand(ctx *commandContext) *cobra.Command {
	var opts sessionOptions

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Start a daemon session, download NZBs and tear it down",
		Long: `Start the simulation service and a daemon configured like a functional
test, download each --nzb from the simulation data directory and print the
resulting history statuses. With --hold the daemon stays up after the
downloads until interrupted, so it can be inspected through its web UI or
the history and groups commands.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := deps.Verify(cfg); err != nil {
				return err
			}
			if opts.hold {
				cfg.Teardown.Hold = true
			}
			logger := ctx.loggerFor(cfg)
			out := cmd.OutOrStdout()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runLock, err := session.LockRun(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer runLock.Unlock()

			if !opts.noNServ {
				sim, err := session.StartSimulation(runCtx, cfg, logger)
				if err != nil {
					return err
				}
				defer sim.Stop()
			}

			store, err := ledger.Open(cfg.Paths.LedgerPath)
			if err != nil {
				logging.WarnWithContext(logger, "run ledger unavailable", "ledger_unavailable",
					logging.Error(err),
					logging.String(logging.FieldImpact, "session is not recorded"),
				)
			} else {
				defer store.Close()
			}

			s, err := session.Start(runCtx, cfg, session.Options{
				Overrides: opts.overrides,
				TestName:  "cli",
				Logger:    logger,
				Ledger:    store,
				Tracker:   failtrack.Process,
				HoldNotice: func() {
					fmt.Fprintf(out, "Holding daemon at %s (work dir %s); press Ctrl+C to tear down\n",
						cfg.ControlAddress(), cfg.Paths.MainDir)
				},
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Session %s: daemon pid %d, control %s\n", s.ID, s.PID(), cfg.ControlAddress())

			failed, downloadErr := downloadAll(runCtx, out, s, opts)
			failtrack.Process.RecordResult(failed)

			outcome, closeErr := s.Close(runCtx, failed)
			if outcome.Kept {
				fmt.Fprintf(out, "Work dir kept for inspection: %s\n", s.WorkDir)
			}
			if downloadErr != nil {
				return downloadErr
			}
			return closeErr
		},
	}

	cmd.Flags().StringArrayVarP(&opts.overrides, "option", "o", nil, "Daemon config override as Key=Value (repeatable)")
	cmd.Flags().StringArrayVar(&opts.nzbs, "nzb", nil, "NZB file in the simulation data dir to download (repeatable)")
	cmd.Flags().BoolVar(&opts.unpack, "unpack", false, "Enable unpack for submitted NZBs")
	cmd.Flags().BoolVar(&opts.hold, "hold", false, "Keep the daemon running until interrupted")
	cmd.Flags().BoolVar(&opts.noNServ, "no-nserv", false, "Do not start the simulation service")
	cmd.Flags().BoolVar(&opts.saveLogs, "save-logs", false, "Write each job log to its destination directory")
	return cmd
}

// downloadAll submits every requested NZB in turn. A job that does not end in
// a SUCCESS status marks the session failed.
func downloadAll(ctx context.Context, out io.Writer, s *session.Session, opts sessionOptions) (bool, error) {
	if len(opts.nzbs) == 0 {
		return false, nil
	}
	failed := false
	rows := make([][]string, 0, len(opts.nzbs))
	for _, name := range opts.nzbs {
		record, err := s.DownloadNZB(ctx, name, opts.unpack)
		if err != nil {
			return true, err
		}
		if !succeeded(record) {
			failed = true
		}
		logPath := ""
		if opts.saveLogs && record.DestDir != "" {
			if logPath, err = s.SaveLog(ctx, record.ID, record.DestDir); err != nil {
				return true, err
			}
		}
		rows = append(rows, []string{strconv.Itoa(record.ID), name, record.Status, logPath})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "NZB", "Status", "Log"}, rows, 0))
	return failed, nil
}

func succeeded(record control.HistoryRecord) bool {
	return strings.HasPrefix(record.Status, "SUCCESS")
}
