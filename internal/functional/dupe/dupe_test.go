//go:build functional

package dupe_test

import (
	"testing"

	"nzbharness/internal/control"
	"nzbharness/internal/harnesstest"
	"nzbharness/internal/jobs"
)

func TestDuplicateContentIsDeletedAsCopy(t *testing.T) {
	s := harnesstest.Session(t, "DupeCheck=yes", "HealthCheck=none")
	content := harnesstest.LoadNZB(t, s, "small.nzb")

	first, err := s.Download(t.Context(), jobs.NewSubmission("small.first.nzb", content).WithDupe("small", 0, control.DupeScore))
	if err != nil {
		t.Fatalf("first download: %v", err)
	}
	harnesstest.ExpectStatus(t, first, "SUCCESS/HEALTH")

	second, err := s.Download(t.Context(), jobs.NewSubmission("small.second.nzb", content).WithDupe("small", 0, control.DupeScore))
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	harnesstest.ExpectStatus(t, second, "DELETED/COPY")
}

func TestForcedDuplicateDownloadsAgain(t *testing.T) {
	s := harnesstest.Session(t, "DupeCheck=yes", "HealthCheck=none")
	content := harnesstest.LoadNZB(t, s, "small.nzb")

	for _, name := range []string{"small.forced1.nzb", "small.forced2.nzb"} {
		record, err := s.Download(t.Context(), jobs.NewSubmission(name, content).WithDupe("small", 0, control.DupeForce))
		if err != nil {
			t.Fatalf("download %s: %v", name, err)
		}
		harnesstest.ExpectStatus(t, record, "SUCCESS/HEALTH")
	}
}
