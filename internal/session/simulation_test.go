//go:build unix

package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"nzbharness/internal/faults"
	"nzbharness/internal/session"
	"nzbharness/internal/testsupport"
)

func TestSimulationArgs(t *testing.T) {
	got := session.SimulationArgs("/data", 0, 2)
	want := []string{"--nserv", "-d", "/data", "-v", "0", "-i", "2"}
	if !slices.Equal(got, want) {
		t.Fatalf("SimulationArgs = %v, want %v", got, want)
	}
}

func TestStartSimulationAndStop(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDaemonScript("exec sleep 30"))
	sim, err := session.StartSimulation(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("StartSimulation: %v", err)
	}
	if sim.PID() <= 0 || sim.DataDir != cfg.Paths.NServDataDir {
		t.Fatalf("unexpected simulation %+v", sim)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := sim.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for !sim.Exited() {
		if time.Now().After(deadline) {
			t.Fatal("simulation still running")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStartSimulationMissingBinary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DaemonBinary = filepath.Join(t.TempDir(), "nope")
	if _, err := session.StartSimulation(context.Background(), cfg, nil); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSharedStartsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDaemonScript("exec sleep 30"))
	first, err := session.Shared(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Shared: %v", err)
	}
	other := testsupport.NewConfig(t)
	second, err := session.Shared(context.Background(), other, nil)
	if err != nil || second != first {
		t.Fatalf("expected the same simulation, got %p/%p err=%v", first, second, err)
	}
	if err := session.StopShared(); err != nil {
		t.Fatalf("StopShared: %v", err)
	}
}
