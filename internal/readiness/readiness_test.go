package readiness_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"nzbharness/internal/control"
	"nzbharness/internal/faults"
	"nzbharness/internal/readiness"
	"nzbharness/internal/testsupport"
)

var fastPolicy = readiness.Policy{Attempts: 3, Interval: time.Millisecond}

func flakyProbe(failures int, calls *int) readiness.Probe {
	return func(context.Context) error {
		*calls++
		if *calls <= failures {
			return errors.New("connection refused")
		}
		return nil
	}
}

func TestWaitSucceedsWithinBudget(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		failures := rapid.IntRange(0, 2).Draw(t, "failures")
		calls := 0
		attempt, err := readiness.Wait(context.Background(), flakyProbe(failures, &calls), fastPolicy)
		if err != nil {
			t.Fatalf("expected success after %d failures, got %v", failures, err)
		}
		if attempt != failures+1 || calls != failures+1 {
			t.Fatalf("attempt=%d calls=%d, want %d", attempt, calls, failures+1)
		}
	})
}

func TestWaitExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := readiness.Wait(context.Background(), flakyProbe(3, &calls), fastPolicy)
	if !errors.Is(err, faults.ErrStartupTimeout) {
		t.Fatalf("expected startup timeout, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 probes, got %d", calls)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected last probe error in %q", err)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	probe := func(context.Context) error {
		calls++
		cancel()
		return errors.New("not yet")
	}
	_, err := readiness.Wait(ctx, probe, readiness.Policy{Attempts: 3, Interval: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one probe before cancellation, got %d", calls)
	}
}

func TestWaitAgainstFakeDaemon(t *testing.T) {
	fd := testsupport.NewFakeDaemon(t)
	fd.StatusFailures = 2
	client, err := control.NewClient(fd.URL())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	probe := func(ctx context.Context) error {
		_, err := client.Status(ctx)
		return err
	}
	attempt, err := readiness.Wait(context.Background(), probe, fastPolicy)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if attempt != 3 || fd.CallCount("status") != 3 {
		t.Fatalf("expected ready on third status call, attempt=%d calls=%d", attempt, fd.CallCount("status"))
	}
}
