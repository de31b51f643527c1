package harnesstest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"testing"

	"nzbharness/internal/config"
	"nzbharness/internal/deps"
	"nzbharness/internal/failtrack"
	"nzbharness/internal/faults"
	"nzbharness/internal/fixtures"
	"nzbharness/internal/ledger"
	"nzbharness/internal/logging"
	"nzbharness/internal/session"
)

// Env is the process-wide state shared by every test of a suite.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Ledger *ledger.Store
	// Simulation is nil when Setup was asked not to start one.
	Simulation *session.Simulation

	tracker *failtrack.Tracker
	runLock *session.RunLock
	stderr  io.Writer
}

// SetupOptions tunes Setup.
type SetupOptions struct {
	Suites         []fixtures.Suite
	SkipSimulation bool
	Stderr         io.Writer
	// Tracker defaults to failtrack.Process.
	Tracker *failtrack.Tracker
}

var current atomic.Pointer[Env]

// Main runs the tests of a functional suite and exits.
func Main(m *testing.M, suites ...fixtures.Suite) {
	os.Exit(run(m, suites))
}

func run(m *testing.M, suites []fixtures.Suite) int {
	cfg, _, _, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "nzbharness: %v\n", err)
		return 1
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nzbharness: %v\n", err)
		return 1
	}
	env, err := Setup(context.Background(), cfg, logger, SetupOptions{Suites: suites})
	if err != nil {
		fmt.Fprintf(os.Stderr, "nzbharness: %v\n", err)
		return 1
	}
	defer env.Close()
	return env.run(m)
}

type testRunner interface {
	Run() int
}

func (e *Env) run(m testRunner) int {
	current.Store(e)
	code := m.Run()
	e.tracker.RecordResult(code != 0)
	return code
}

// Setup verifies dependencies, waits for any other harness run on the same
// directories to finish, prepares fixtures and starts the shared simulation.
// Configuration errors are returned unchanged so callers can abort the run.
func Setup(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts SetupOptions) (*Env, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if _, err := deps.Verify(cfg); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "harness", "setup", "create directories", err)
	}
	runLock, err := session.LockRun(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	preparer := fixtures.NewPreparer(cfg, logger)
	for _, suite := range opts.Suites {
		if err := preparer.Prepare(ctx, suite); err != nil {
			_ = runLock.Unlock()
			return nil, err
		}
	}

	env := &Env{Config: cfg, Logger: logger, tracker: opts.Tracker, runLock: runLock, stderr: opts.Stderr}
	if env.stderr == nil {
		env.stderr = os.Stderr
	}
	if env.tracker == nil {
		env.tracker = failtrack.Process
	}
	if store, err := ledger.Open(cfg.Paths.LedgerPath); err != nil {
		logging.WarnWithContext(logger, "run ledger unavailable", "ledger_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "sessions are not recorded"),
		)
	} else {
		env.Ledger = store
	}

	if !opts.SkipSimulation {
		sim, err := session.Shared(ctx, cfg, logger)
		if err != nil {
			env.closeLedger()
			_ = runLock.Unlock()
			return nil, err
		}
		env.Simulation = sim
	}
	return env, nil
}

// Close stops the simulation, closes the ledger and lets the next harness run
// start.
func (e *Env) Close() error {
	var errs []error
	if e.Simulation != nil {
		errs = append(errs, session.StopShared())
	}
	errs = append(errs, e.closeLedger())
	if e.runLock != nil {
		errs = append(errs, e.runLock.Unlock())
		e.runLock = nil
	}
	return errors.Join(errs...)
}

func (e *Env) closeLedger() error {
	if e.Ledger == nil {
		return nil
	}
	err := e.Ledger.Close()
	e.Ledger = nil
	return err
}

// Use makes env the target of the package-level Session helper.
func Use(env *Env) {
	current.Store(env)
}

// Current returns the env installed by Main or Use.
func Current() *Env {
	return current.Load()
}

// Session starts a daemon for t with the given config overrides using the
// env installed by Main.
func Session(t testing.TB, overrides ...string) *session.Session {
	t.Helper()
	env := current.Load()
	if env == nil {
		t.Fatal("harnesstest.Main was not called from TestMain")
	}
	return env.Session(t, overrides...)
}

// Session starts a daemon for t. Teardown is registered with t.Cleanup.
func (e *Env) Session(t testing.TB, overrides ...string) *session.Session {
	t.Helper()
	s, err := session.Start(context.Background(), e.Config, session.Options{
		Overrides: overrides,
		TestName:  t.Name(),
		Logger:    e.Logger,
		Ledger:    e.Ledger,
		Tracker:   e.tracker,
		HoldNotice: func() {
			fmt.Fprintf(e.stderr, "nzbharness: holding daemon for %s (work dir %s); interrupt to tear down\n",
				t.Name(), e.Config.Paths.MainDir)
		},
	})
	if err != nil {
		e.tracker.RecordResult(true)
		t.Fatalf("start session: %v", err)
	}
	t.Cleanup(func() {
		failed := t.Failed()
		e.tracker.RecordResult(failed)
		ctx, stop := e.teardownContext()
		outcome, err := s.Close(ctx, failed)
		stop()
		if err != nil {
			t.Logf("teardown: %v", err)
			return
		}
		if outcome.Kept {
			t.Logf("work dir kept for inspection: %s", s.WorkDir)
		}
	})
	return s
}

// teardownContext intercepts interrupts only while a held session waits, so
// one interrupt releases one session and later interrupts abort the binary as
// usual.
func (e *Env) teardownContext() (context.Context, context.CancelFunc) {
	if !e.Config.Teardown.Hold {
		return context.Background(), func() {}
	}
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Track records t's result in the run's failure tracker when t ends. Tests
// that open a Session are tracked already; others call Track so their
// failure keeps the work dirs of later sessions.
func Track(t testing.TB) {
	t.Helper()
	env := current.Load()
	if env == nil {
		t.Fatal("harnesstest.Main was not called from TestMain")
	}
	env.Track(t)
}

// Track records t's result in e's failure tracker when t ends.
func (e *Env) Track(t testing.TB) {
	t.Cleanup(func() { e.tracker.RecordResult(t.Failed()) })
}
