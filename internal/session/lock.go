package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"nzbharness/internal/config"
	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
)

// ErrWorkDirBusy is returned when a live session holds the work dir lock.
var ErrWorkDirBusy = errors.New("work dir is in use by another session")

const lockRetryDelay = 200 * time.Millisecond

// WorkDirLockPath is the lock file guarding workDir. It sits next to the
// directory so removal and rename of the work dir leave it alone.
func WorkDirLockPath(workDir string) string {
	return workDir + ".lock"
}

// RunLockPath is the lock file serializing harness runs that share cfg's
// fixtures, simulation ports and work dir.
func RunLockPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Paths.MainDir), ".nzbharness.run.lock")
}

// TryLockWorkDir takes the work dir lock without waiting.
func TryLockWorkDir(workDir string) (*flock.Flock, error) {
	lock := flock.New(WorkDirLockPath(workDir))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock work dir: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", workDir, ErrWorkDirBusy)
	}
	return lock, nil
}

// RunLock is held for the whole of a harness run.
type RunLock struct {
	lock *flock.Flock
}

// LockRun blocks until no other harness run uses cfg's directories and ports,
// or ctx ends.
func LockRun(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*RunLock, error) {
	path := RunLockPath(cfg)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "session", "lock run", "create lock directory", err)
	}
	lock, err := waitLock(ctx, path, logging.NewComponentLogger(logger, "session"), "another harness run is active; waiting")
	if err != nil {
		return nil, err
	}
	return &RunLock{lock: lock}, nil
}

// Unlock releases the run lock. It is safe on a nil RunLock.
func (r *RunLock) Unlock() error {
	if r == nil || r.lock == nil {
		return nil
	}
	return r.lock.Unlock()
}

func waitLock(ctx context.Context, path string, logger *slog.Logger, waitMsg string) (*flock.Flock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if ok {
		return lock, nil
	}
	logger.Info(waitMsg, logging.String("lock", path))
	ok, err = lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: not acquired", path)
	}
	return lock, nil
}
