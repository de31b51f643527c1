//go:build unix

package harnesstest_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"nzbharness/internal/failtrack"
	"nzbharness/internal/faults"
	"nzbharness/internal/harnesstest"
	"nzbharness/internal/ledger"
	"nzbharness/internal/testsupport"
)

func TestSetupAbortsOnMissingDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("7z", "par2"))
	cfg.Paths.DaemonBinary = filepath.Join(t.TempDir(), "nzbget")

	_, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true})
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "paths.daemon_binary") {
		t.Fatalf("error should name the option to set: %v", err)
	}
}

func TestEnvSessionTearsDownAfterTest(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	fd.Outcome = func(job testsupport.AppendedJob) string {
		if bytes.Contains(job.Content, []byte("!0")) {
			return "FAILURE/HEALTH"
		}
		return "SUCCESS/HEALTH"
	}
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithControlURL(fd.URL()),
		testsupport.WithDaemonScript("exec sleep 30"),
	)
	var stderr bytes.Buffer
	env, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true, Stderr: &stderr})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer env.Close()
	if env.Ledger == nil {
		t.Fatal("expected ledger to be opened")
	}

	var workDir, sessionID string
	t.Run("download", func(t *testing.T) {
		s := env.Session(t, "SaveQueue=no")
		workDir, sessionID = s.WorkDir, s.ID
		content, err := os.ReadFile(s.ConfigPath)
		if err != nil {
			t.Fatalf("read config: %v", err)
		}
		if !strings.HasSuffix(strings.TrimSpace(string(content)), "SaveQueue=no") {
			t.Fatalf("override missing from config")
		}

		nzb := filepath.Join(cfg.Paths.NServDataDir, "1k.dat.nzb")
		if err := os.WriteFile(nzb, []byte("segment 1k.dat?3=6000:3000"), 0o644); err != nil {
			t.Fatalf("write nzb: %v", err)
		}
		harnesstest.ExpectStatus(t, harnesstest.Download(t, s, "1k.dat.nzb", false), "SUCCESS/HEALTH")
		bad := harnesstest.DownloadEdited(t, s, "1k.dat.nzb", "1k.dat.bad.nzb", false, "1k.dat?3=6000:3000", "1k.dat?3=6000:3000!0")
		harnesstest.ExpectStatus(t, bad, "FAILURE/HEALTH")
	})

	if _, err := os.Stat(workDir); !os.IsNotExist(err) {
		t.Fatalf("work dir should be removed after a passing test, stat err = %v", err)
	}
	rec, err := env.Ledger.FindSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("FindSession: %v", err)
	}
	jobs, err := env.Ledger.Jobs(context.Background(), sessionID)
	if err != nil || len(jobs) != 2 {
		t.Fatalf("expected two recorded jobs, got %d (%v)", len(jobs), err)
	}
	if rec.Outcome != ledger.OutcomePassed || !strings.HasSuffix(rec.TestName, "/download") {
		t.Fatalf("unexpected ledger record %+v", rec)
	}
}

func TestUseInstallsCurrentEnv(t *testing.T) {
	previous := harnesstest.Current()
	t.Cleanup(func() { harnesstest.Use(previous) })

	env := &harnesstest.Env{}
	harnesstest.Use(env)
	if harnesstest.Current() != env {
		t.Fatal("Use did not install env")
	}
}

type exitCode int

func (c exitCode) Run() int { return int(c) }

func TestRunRecordsFailedRun(t *testing.T) {
	previous := harnesstest.Current()
	t.Cleanup(func() { harnesstest.Use(previous) })

	for _, tc := range []struct {
		code   int
		failed bool
	}{{0, false}, {1, true}} {
		cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
		tracker := &failtrack.Tracker{}
		env, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true, Tracker: tracker})
		if err != nil {
			t.Fatalf("Setup: %v", err)
		}
		if got := harnesstest.RunWith(env, exitCode(tc.code)); got != tc.code {
			t.Fatalf("run returned %d, want %d", got, tc.code)
		}
		if harnesstest.Current() != env {
			t.Fatal("run did not install env")
		}
		if tracker.AnyFailure() != tc.failed {
			t.Fatalf("exit code %d: AnyFailure = %v", tc.code, tracker.AnyFailure())
		}
		_ = env.Close()
	}
}

func TestTrackRecordsTestsWithoutSession(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	tracker := &failtrack.Tracker{}
	env, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true, Tracker: tracker})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer env.Close()

	t.Run("passing", func(t *testing.T) { env.Track(t) })
	if tracker.AnyFailure() {
		t.Fatal("passing test marked the run failed")
	}

	// A failing subtest would fail this test too, so drive Track through a
	// bare cleanup recorder instead.
	rec := &cleanupRecorder{TB: t, failed: true}
	env.Track(rec)
	rec.runCleanups()
	if !tracker.AnyFailure() {
		t.Fatal("failed test was not recorded")
	}
}

type cleanupRecorder struct {
	testing.TB
	failed   bool
	cleanups []func()
}

func (r *cleanupRecorder) Cleanup(fn func()) { r.cleanups = append(r.cleanups, fn) }

func (r *cleanupRecorder) Failed() bool { return r.failed }

func (r *cleanupRecorder) runCleanups() {
	for i := len(r.cleanups) - 1; i >= 0; i-- {
		r.cleanups[i]()
	}
}

func TestSetupWaitsForConcurrentRun(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	first, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	short, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := harnesstest.Setup(short, cfg, nil, harnesstest.SetupOptions{SkipSimulation: true}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected second run to wait for the first, got %v", err)
	}

	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	second, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{SkipSimulation: true})
	if err != nil {
		t.Fatalf("Setup after first run closed: %v", err)
	}
	_ = second.Close()
}

// noticeWriter signals once per hold notice written to it.
type noticeWriter chan struct{}

func (w noticeWriter) Write(p []byte) (int, error) {
	w <- struct{}{}
	return len(p), nil
}

func TestInterruptReleasesOneHeldSessionAtATime(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithStubbedBinaries(),
		testsupport.WithControlURL(fd.URL()),
		testsupport.WithDaemonScript("exec sleep 30"),
	)
	cfg.Teardown.Hold = true
	notices := make(noticeWriter, 2)
	env, err := harnesstest.Setup(context.Background(), cfg, nil, harnesstest.SetupOptions{
		SkipSimulation: true,
		Stderr:         notices,
		Tracker:        &failtrack.Tracker{},
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer env.Close()

	go func() {
		for range notices {
			_ = syscall.Kill(syscall.Getpid(), syscall.SIGINT)
		}
	}()
	defer close(notices)

	for _, name := range []string{"first", "second"} {
		var workDir string
		t.Run(name, func(t *testing.T) {
			workDir = env.Session(t).WorkDir
		})
		if _, err := os.Stat(workDir); !os.IsNotExist(err) {
			t.Fatalf("%s: held session was not torn down after interrupt (stat err %v)", name, err)
		}
	}
}
