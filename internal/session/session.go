package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"nzbharness/internal/config"
	"nzbharness/internal/control"
	"nzbharness/internal/daemonconf"
	"nzbharness/internal/failtrack"
	"nzbharness/internal/faults"
	"nzbharness/internal/jobs"
	"nzbharness/internal/ledger"
	"nzbharness/internal/logging"
	"nzbharness/internal/logs"
	"nzbharness/internal/procsup"
	"nzbharness/internal/readiness"
	"nzbharness/internal/teardown"
)

// startupTailLines is how much of the daemon log a StartupError carries.
const startupTailLines = 20

// Options customise one session.
type Options struct {
	// Overrides are raw Key=Value lines appended to the daemon config in order.
	Overrides []string
	TestName  string
	Logger    *slog.Logger
	// Ledger, when set, receives the session and its jobs.
	Ledger *ledger.Store
	// Tracker decides whether the work dir is kept; defaults to failtrack.Process.
	Tracker teardown.FailureSource
	// HoldNotice is called when teardown holds the daemon open.
	HoldNotice func()
	Stdout     io.Writer
	Stderr     io.Writer
}

// Session is one running daemon bound to an exclusive work directory.
type Session struct {
	ID         string
	Options    []string
	WorkDir    string
	ConfigPath string
	Layout     daemonconf.Layout
	Client     *control.Client
	Jobs       *jobs.Runner

	cfg        *config.Config
	daemon     *procsup.Handle
	supervisor *procsup.Supervisor
	lock       *flock.Flock
	teardown   *teardown.Manager
	ledger     *ledger.Store
	logger     *slog.Logger

	stopFollow context.CancelFunc
	followDone chan struct{}

	closeOnce sync.Once
	outcome   teardown.Outcome
	closeErr  error
}

// DaemonArgs returns the daemon command line for a config file.
func DaemonArgs(configPath string) []string {
	return []string{"-c", configPath, "-s", "-o", "outputmode=log"}
}

// Start prepares the work directory, launches the daemon and waits until it
// answers status calls.
func Start(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	id := uuid.NewString()
	logger := logging.WithSessionID(logging.NewComponentLogger(opts.Logger, "session"), id)
	tracker := opts.Tracker
	if tracker == nil {
		tracker = failtrack.Process
	}

	layout := daemonconf.NewLayout(cfg.Paths.MainDir)
	s := &Session{
		ID:         id,
		Options:    append([]string(nil), opts.Overrides...),
		WorkDir:    layout.MainDir,
		ConfigPath: layout.ConfigPath,
		Layout:     layout,
		cfg:        cfg,
		supervisor: procsup.NewSupervisor(logger),
		ledger:     opts.Ledger,
		logger:     logger,
		teardown: &teardown.Manager{
			Hold:       cfg.Teardown.Hold,
			Tracker:    tracker,
			Policy:     teardown.Policy{Attempts: cfg.Teardown.RemoveAttempts, Backoff: cfg.RemoveBackoff()},
			Logger:     logger,
			HoldNotice: opts.HoldNotice,
		},
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	if err := s.prepareWorkDir(ctx); err != nil {
		s.release()
		return nil, err
	}

	client, err := control.NewClient(cfg.ControlURL(), control.WithLogger(logger))
	if err != nil {
		s.release()
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "control client", "", err)
	}
	s.Client = client
	runnerOpts := jobs.Options{PollInterval: cfg.PollInterval(), Timeout: cfg.CompletionTimeout()}
	if s.ledger != nil {
		runnerOpts.Recorder = &ledgerRecorder{store: s.ledger, sessionID: id, logger: logger}
	}
	s.Jobs = jobs.NewRunner(client, logger, runnerOpts)

	s.recordBegin(ctx, opts.TestName)

	handle, err := s.supervisor.Start(ctx, procsup.Spec{
		Path:   cfg.Paths.DaemonBinary,
		Args:   DaemonArgs(layout.ConfigPath),
		Dir:    layout.MainDir,
		Stdout: opts.Stdout,
		Stderr: opts.Stderr,
	})
	if err != nil {
		s.abort(ctx, err)
		return nil, err
	}
	s.daemon = handle
	s.recordPID(ctx)

	if cfg.Logging.FollowDaemonLog {
		s.follow()
	}

	policy := readiness.Policy{Attempts: cfg.Readiness.Attempts, Interval: cfg.ReadinessInterval()}
	probe := func(ctx context.Context) error {
		_, err := client.Status(ctx)
		return err
	}
	attempts, err := readiness.Wait(ctx, probe, policy)
	if err != nil {
		startupErr := s.startupError(err)
		logging.ErrorWithContext(logger, "daemon did not become ready", "daemon_not_ready",
			logging.Int("attempts", attempts),
			logging.Bool("exited", startupErr.Exited),
			logging.String(logging.FieldWorkDir, s.WorkDir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the daemon log in the kept work directory"),
		)
		s.abort(ctx, startupErr)
		return nil, startupErr
	}

	logger.Info("daemon ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.Int(logging.FieldPID, handle.PID()),
		logging.Int("attempts", attempts),
		logging.String(logging.FieldWorkDir, s.WorkDir),
	)
	return s, nil
}

// acquire waits for the work dir lock so sessions on one work dir and control
// endpoint run one after another.
func (s *Session) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(s.WorkDir), 0o755); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "session", "prepare", "create work dir parent", err)
	}
	lock, err := waitLock(ctx, WorkDirLockPath(s.WorkDir), s.logger, "work dir in use by another session; waiting")
	if err != nil {
		return err
	}
	s.lock = lock
	return nil
}

func (s *Session) release() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release work dir lock", logging.Error(err))
	}
}

// prepareWorkDir clears whatever an earlier kept session left and writes the
// daemon config.
func (s *Session) prepareWorkDir(ctx context.Context) error {
	if _, err := s.teardown.RemoveWorkDir(ctx, s.WorkDir); err != nil {
		return err
	}
	if err := os.MkdirAll(s.WorkDir, 0o755); err != nil {
		return faults.Wrap(faults.ErrConfiguration, "session", "prepare", "create work dir", err)
	}
	return daemonconf.Write(s.Layout, daemonconf.BaseFromConfig(s.cfg), s.Options)
}

func (s *Session) startupError(err error) *StartupError {
	startupErr := &StartupError{Err: err, LogPath: s.Layout.LogFile}
	if s.daemon != nil {
		startupErr.Exited = s.daemon.Exited()
	}
	if tail, _, tailErr := logs.LastLines(s.Layout.LogFile, startupTailLines); tailErr == nil {
		startupErr.LogTail = tail
	}
	return startupErr
}

// abort stops whatever Start got running and keeps the work dir.
func (s *Session) abort(ctx context.Context, cause error) {
	s.stopFollower()
	if s.daemon != nil {
		_ = s.supervisor.Stop(s.daemon)
	}
	s.recordFinish(ctx, ledger.OutcomeAborted, true, cause)
	s.release()
}

func (s *Session) follow() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopFollow = cancel
	s.followDone = make(chan struct{})
	go func() {
		defer close(s.followDone)
		err := logs.Follow(ctx, s.Layout.LogFile, true, func(line string) {
			s.logger.Debug(line, logging.String(logging.FieldEventType, "daemon_log"))
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Debug("daemon log follower stopped", logging.Error(err))
		}
	}()
}

func (s *Session) stopFollower() {
	if s.stopFollow == nil {
		return
	}
	s.stopFollow()
	<-s.followDone
	s.stopFollow = nil
}

// PID returns the daemon process id.
func (s *Session) PID() int {
	if s.daemon == nil {
		return 0
	}
	return s.daemon.PID()
}

// Daemon returns the daemon process handle.
func (s *Session) Daemon() *procsup.Handle {
	return s.daemon
}

// LoadNZB reads an NZB generated into the simulation data dir.
func (s *Session) LoadNZB(name string) ([]byte, error) {
	return jobs.LoadPayload(s.cfg.Paths.NServDataDir, name)
}

// LoadTestData reads a file from the source tree's test data.
func (s *Session) LoadTestData(name string) ([]byte, error) {
	return jobs.LoadPayload(s.cfg.Paths.TestDataDir, name)
}

// Download submits sub and waits for its history record.
func (s *Session) Download(ctx context.Context, sub jobs.Submission) (control.HistoryRecord, error) {
	return s.Jobs.Download(ctx, sub)
}

// DownloadNZB loads name from the simulation data dir, submits it with the
// unpack flag and waits for the history record.
func (s *Session) DownloadNZB(ctx context.Context, name string, unpack bool, params ...control.Param) (control.HistoryRecord, error) {
	content, err := s.LoadNZB(name)
	if err != nil {
		return control.HistoryRecord{}, err
	}
	sub := jobs.NewSubmission(name, content).WithUnpack(unpack)
	for _, p := range params {
		sub = sub.WithParam(p.Name, p.Value)
	}
	return s.Jobs.Download(ctx, sub)
}

// SaveLog writes the log of job id into dir.
func (s *Session) SaveLog(ctx context.Context, id int, dir string) (string, error) {
	return s.Jobs.SaveLog(ctx, id, dir)
}

// Close tears the session down. failed reports the outcome of the test that
// owned the session and is only used for the ledger; whether the work dir is
// kept depends on the failure tracker. Close is idempotent.
func (s *Session) Close(ctx context.Context, failed bool) (teardown.Outcome, error) {
	s.closeOnce.Do(func() {
		s.stopFollower()
		var target teardown.Target
		target.WorkDir = s.WorkDir
		if s.daemon != nil {
			target.Process = supervised{supervisor: s.supervisor, handle: s.daemon}
		}
		s.outcome, s.closeErr = s.teardown.Teardown(ctx, target)
		if s.closeErr != nil {
			logging.WarnWithContext(s.logger, "teardown incomplete", "teardown_failed",
				logging.String(logging.FieldWorkDir, s.WorkDir),
				logging.Error(s.closeErr),
			)
		}
		outcome := ledger.OutcomePassed
		if failed {
			outcome = ledger.OutcomeFailed
		}
		s.recordFinish(context.WithoutCancel(ctx), outcome, s.outcome.Kept, s.closeErr)
		s.release()
	})
	return s.outcome, s.closeErr
}

type supervised struct {
	supervisor *procsup.Supervisor
	handle     *procsup.Handle
}

func (p supervised) Kill() error {
	return p.supervisor.Stop(p.handle)
}
