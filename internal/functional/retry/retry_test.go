//go:build functional

package retry_test

import (
	"testing"

	"nzbharness/internal/control"
	"nzbharness/internal/harnesstest"
	"nzbharness/internal/session"
)

var retryOptions = []string{"HealthCheck=park", "ArticleCache=500", "DirectWrite=yes"}

const (
	smallNZB     = "small.nzb"
	mediumNZB    = "medium.nzb"
	smallSegment = "small/small.dat?3=6000:3000"
	largeSegment = ":500000"
)

// downloadSecondServerOnly submits source with every matching segment moved to
// server 2, which is inactive, so the job parks with a health failure.
func downloadSecondServerOnly(t *testing.T, s *session.Session, source, name, segment string) control.HistoryRecord {
	t.Helper()
	record := harnesstest.DownloadEdited(t, s, source, name, false, segment, segment+"!2")
	harnesstest.ExpectStatus(t, record, "FAILURE/HEALTH")
	return record
}

func TestRedownload(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		segment string
	}{
		{name: "small.redownload.nzb", source: smallNZB, segment: smallSegment},
		{name: "medium.redownload.nzb", source: mediumNZB, segment: largeSegment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := harnesstest.Session(t, retryOptions...)
			failed := downloadSecondServerOnly(t, s, tc.source, tc.name, tc.segment)

			harnesstest.SetServer(t, s, 2, true)
			harnesstest.Edit(t, s, control.HistoryRedownload, "", failed.ID)
			record := harnesstest.Await(t, s, tc.name)
			harnesstest.SetServer(t, s, 2, false)
			harnesstest.ExpectStatus(t, record, "SUCCESS/HEALTH")
		})
	}
}

func TestRetryFailed(t *testing.T) {
	cases := []struct {
		name    string
		source  string
		segment string
	}{
		{name: "small.retry.nzb", source: smallNZB, segment: smallSegment},
		{name: "medium.retry.nzb", source: mediumNZB, segment: largeSegment},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := harnesstest.Session(t, retryOptions...)
			failed := downloadSecondServerOnly(t, s, tc.source, tc.name, tc.segment)

			harnesstest.Edit(t, s, control.HistoryRetryFailed, "", failed.ID)
			again := harnesstest.Await(t, s, tc.name)
			harnesstest.ExpectStatus(t, again, "FAILURE/HEALTH")

			harnesstest.SetServer(t, s, 2, true)
			harnesstest.Edit(t, s, control.HistoryRetryFailed, "", again.ID)
			record := harnesstest.Await(t, s, tc.name)
			harnesstest.SetServer(t, s, 2, false)
			harnesstest.ExpectStatus(t, record, "SUCCESS/HEALTH")
		})
	}
}

func TestParkedJobKeepsHealthDeleteStatus(t *testing.T) {
	s := harnesstest.Session(t, retryOptions...)
	record := downloadSecondServerOnly(t, s, mediumNZB, "medium.parked.nzb", largeSegment)
	if record.DeleteStatus != "HEALTH" {
		t.Fatalf("delete status = %q, want HEALTH", record.DeleteStatus)
	}
}
