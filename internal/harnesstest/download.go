package harnesstest

import (
	"testing"

	"nzbharness/internal/control"
	"nzbharness/internal/jobs"
	"nzbharness/internal/session"
)

// Download submits the generated NZB name and waits for its history record.
func Download(t testing.TB, s *session.Session, name string, unpack bool, params ...control.Param) control.HistoryRecord {
	t.Helper()
	record, err := s.DownloadNZB(t.Context(), name, unpack, params...)
	if err != nil {
		t.Fatalf("download %s: %v", name, err)
	}
	return record
}

// LoadNZB reads a generated NZB or fails the test.
func LoadNZB(t testing.TB, s *session.Session, name string) []byte {
	t.Helper()
	content, err := s.LoadNZB(name)
	if err != nil {
		t.Fatalf("%v", err)
	}
	return content
}

// DownloadEdited loads source, applies replacements given as old, new pairs
// and submits the result under name.
func DownloadEdited(t testing.TB, s *session.Session, source, name string, unpack bool, replacements ...string) control.HistoryRecord {
	t.Helper()
	if len(replacements)%2 != 0 {
		t.Fatalf("replacements must come in old, new pairs")
	}
	content := LoadNZB(t, s, source)
	for i := 0; i < len(replacements); i += 2 {
		var err error
		content, err = jobs.Replace(content, replacements[i], replacements[i+1])
		if err != nil {
			t.Fatalf("edit %s: %v", source, err)
		}
	}
	return DownloadContent(t, s, name, content, unpack)
}

// DownloadContent submits content under name and waits for its history record.
func DownloadContent(t testing.TB, s *session.Session, name string, content []byte, unpack bool, params ...control.Param) control.HistoryRecord {
	t.Helper()
	sub := jobs.NewSubmission(name, content).WithUnpack(unpack)
	for _, p := range params {
		sub = sub.WithParam(p.Name, p.Value)
	}
	record, err := s.Download(t.Context(), sub)
	if err != nil {
		t.Fatalf("download %s: %v", name, err)
	}
	return record
}

// Await waits for the next history record of name, for jobs returned to the
// queue by an edit command.
func Await(t testing.TB, s *session.Session, name string) control.HistoryRecord {
	t.Helper()
	record, err := s.Jobs.AwaitCompletion(t.Context(), name)
	if err != nil {
		t.Fatalf("await %s: %v", name, err)
	}
	return record
}

// Edit applies a queue or history edit command and fails the test unless the
// daemon accepted it.
func Edit(t testing.TB, s *session.Session, command, param string, ids ...int) {
	t.Helper()
	ok, err := s.Client.EditQueueParam(t.Context(), command, param, ids)
	if err != nil {
		t.Fatalf("%s: %v", command, err)
	}
	if !ok {
		t.Fatalf("%s %s %v: daemon refused", command, param, ids)
	}
}

// SetServer activates or deactivates news server id.
func SetServer(t testing.TB, s *session.Session, id int, active bool) {
	t.Helper()
	if _, err := s.Client.EditServer(t.Context(), id, active); err != nil {
		t.Fatalf("editserver %d: %v", id, err)
	}
}

// ExpectStatus fails the test unless record ended with want.
func ExpectStatus(t testing.TB, record control.HistoryRecord, want string) {
	t.Helper()
	if record.Status != want {
		t.Fatalf("%s: status = %s, want %s", record.NZBFilename, record.Status, want)
	}
}
