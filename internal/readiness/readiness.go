// Package readiness gates a session on the daemon answering its control
// endpoint.
package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nzbharness/internal/faults"
)

// Policy bounds the startup probe.
type Policy struct {
	Attempts int
	Interval time.Duration
}

// DefaultPolicy mirrors the daemon's usual startup time on a developer box.
var DefaultPolicy = Policy{Attempts: 3, Interval: 500 * time.Millisecond}

// Probe is one readiness check; any error means not ready yet.
type Probe func(ctx context.Context) error

// Wait calls probe until it succeeds or the attempt budget is spent, sleeping
// Interval between attempts. It returns the attempt number that succeeded.
func Wait(ctx context.Context, probe Probe, policy Policy) (int, error) {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultPolicy.Attempts
	}
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		lastErr = probe(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == policy.Attempts {
			break
		}
		timer := time.NewTimer(policy.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		case <-timer.C:
		}
	}
	if lastErr == nil {
		lastErr = errors.New("no probe ran")
	}
	return policy.Attempts, faults.Wrap(faults.ErrStartupTimeout, "readiness", "wait",
		fmt.Sprintf("daemon not ready after %d attempts", policy.Attempts), lastErr)
}
