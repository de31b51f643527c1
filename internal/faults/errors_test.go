package faults_test

import (
	"errors"
	"strings"
	"testing"

	"nzbharness/internal/faults"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := faults.Wrap(faults.ErrTransport, "control", "status", "call failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, faults.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"control", "status", "call failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutMarker(t *testing.T) {
	if err := faults.Wrap(nil, "", "", "", nil); err == nil || err.Error() != "harness failure" {
		t.Fatalf("unexpected error: %v", err)
	}
	base := errors.New("io")
	err := faults.Wrap(nil, "teardown", "", "", base)
	if !errors.Is(err, base) {
		t.Fatalf("expected base error retained, got %v", err)
	}
}

func TestKindMapping(t *testing.T) {
	cases := map[string]error{
		"configuration":   faults.Wrap(faults.ErrConfiguration, "deps", "check", "missing", nil),
		"startup_timeout": faults.Wrap(faults.ErrStartupTimeout, "readiness", "", "", nil),
		"transport":       faults.Wrap(faults.ErrTransport, "control", "", "", nil),
		"teardown":        faults.Wrap(faults.ErrTeardown, "teardown", "", "", nil),
		"timeout":         faults.Wrap(faults.ErrTimeout, "jobs", "", "", nil),
		"runtime":         errors.New("other"),
	}
	for want, err := range cases {
		if got := faults.Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
	if faults.Kind(nil) != "" {
		t.Fatal("expected empty kind for nil")
	}
	if !faults.IsFatal(cases["configuration"]) || faults.IsFatal(cases["transport"]) {
		t.Fatal("only configuration errors are fatal")
	}
}
