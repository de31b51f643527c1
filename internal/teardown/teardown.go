package teardown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
)

// Policy bounds RemoveWorkDir.
type Policy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultPolicy allows a few seconds for the killed daemon to release files.
var DefaultPolicy = Policy{Attempts: 20, Backoff: 200 * time.Millisecond}

// FailureSource reports whether any test in the process failed.
type FailureSource interface {
	AnyFailure() bool
}

// Killer stops a process.
type Killer interface {
	Kill() error
}

// Target is what one session leaves behind.
type Target struct {
	Process Killer
	WorkDir string
}

// Outcome summarises a teardown.
type Outcome struct {
	Removed  bool
	Kept     bool
	Attempts int
}

// Manager tears sessions down.
type Manager struct {
	Hold    bool
	Tracker FailureSource
	FS      FS
	Policy  Policy
	Logger  *slog.Logger
	// HoldNotice is called once when Hold blocks teardown.
	HoldNotice func()
	sleep      func(context.Context, time.Duration) error
}

// Teardown kills the daemon and conditionally removes the work directory.
// With Hold set it first blocks until ctx is cancelled.
func (m *Manager) Teardown(ctx context.Context, target Target) (Outcome, error) {
	logger := logging.NewComponentLogger(m.Logger, "teardown")

	if m.Hold {
		if m.HoldNotice != nil {
			m.HoldNotice()
		}
		logger.Info("holding daemon until interrupted",
			logging.String(logging.FieldEventType, "teardown_hold"),
			logging.String(logging.FieldWorkDir, target.WorkDir),
		)
		<-ctx.Done()
		// the hold is released by cancellation; the rest must still run
		ctx = context.WithoutCancel(ctx)
	}

	var errs []error
	if target.Process != nil {
		if err := target.Process.Kill(); err != nil {
			errs = append(errs, faults.Wrap(faults.ErrTeardown, "teardown", "kill daemon", "", err))
		}
	}

	var outcome Outcome
	if m.Tracker != nil && m.Tracker.AnyFailure() {
		outcome.Kept = true
		logger.Info("keeping work directory for inspection",
			logging.String(logging.FieldEventType, "workdir_kept"),
			logging.String(logging.FieldWorkDir, target.WorkDir),
		)
		return outcome, errors.Join(errs...)
	}

	if target.WorkDir != "" {
		attempts, err := m.RemoveWorkDir(ctx, target.WorkDir)
		outcome.Attempts = attempts
		if err != nil {
			errs = append(errs, err)
		} else {
			outcome.Removed = true
			logger.Debug("work directory removed",
				logging.String(logging.FieldWorkDir, target.WorkDir),
				logging.Int("attempts", attempts),
			)
		}
	}
	return outcome, errors.Join(errs...)
}

// RemoveWorkDir deletes path using the rename-then-delete strategy and
// returns how many attempts it took.
func (m *Manager) RemoveWorkDir(ctx context.Context, path string) (int, error) {
	fsys := m.FS
	if fsys == nil {
		fsys = OSFS{}
	}
	policy := m.Policy
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultPolicy.Attempts
	}
	sleep := m.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	logger := logging.NewComponentLogger(m.Logger, "teardown")

	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		lastErr = removeOnce(fsys, path)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == policy.Attempts {
			break
		}
		logger.Debug("work directory removal failed, retrying",
			logging.String(logging.FieldWorkDir, path),
			logging.Int("attempt", attempt),
			logging.Error(lastErr),
		)
		if err := sleep(ctx, policy.Backoff); err != nil {
			return attempt, faults.Wrap(faults.ErrTeardown, "teardown", "remove work dir", path, errors.Join(lastErr, err))
		}
	}
	logging.WarnWithContext(logger, "work directory could not be removed", "workdir_remove_failed",
		logging.String(logging.FieldWorkDir, path),
		logging.Int("attempts", policy.Attempts),
		logging.Error(lastErr),
		logging.String(logging.FieldErrorHint, "check for processes holding files under the directory"),
		logging.String(logging.FieldImpact, "next session will retry the removal"),
	)
	return policy.Attempts, faults.Wrap(faults.ErrTeardown, "teardown", "remove work dir",
		fmt.Sprintf("%s after %d attempts", path, policy.Attempts), lastErr)
}

func removeOnce(fsys FS, path string) error {
	stale := path + ".old"
	exists, err := fsys.Exists(stale)
	if err != nil {
		return err
	}
	if exists {
		if err := fsys.RemoveAll(stale); err != nil {
			return err
		}
	}
	exists, err = fsys.Exists(path)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if err := fsys.Rename(path, stale); err != nil {
		return err
	}
	return fsys.RemoveAll(stale)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
