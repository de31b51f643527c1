package deps_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"nzbharness/internal/config"
	"nzbharness/internal/deps"
	"nzbharness/internal/faults"
	"nzbharness/internal/testsupport"
)

func TestCheckBinaries(t *testing.T) {
	present := filepath.Join(t.TempDir(), "present")
	testsupport.WriteScript(t, present, "exit 0")
	reqs := []deps.Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset"},
	}

	results := deps.CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}
}

func TestVerifyStubbedBinaries(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	statuses, err := deps.Verify(cfg)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	for _, status := range statuses {
		if !status.Available {
			t.Fatalf("expected %s available", status.Name)
		}
	}
}

func TestVerifyNamesMissingOption(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("nzbget", "7z"))
	cfg.Paths.Par2Binary = filepath.Join(t.TempDir(), "par2")

	_, err := deps.Verify(cfg)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	for _, want := range []string{"par2", "paths.par2_binary", config.EnvPar2Binary} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err)
		}
	}
	if strings.Contains(err.Error(), "7-Zip") {
		t.Fatalf("available binary reported missing: %q", err)
	}
}
