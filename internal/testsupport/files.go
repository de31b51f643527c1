package testsupport

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

// pattern is the byte sequence test payloads repeat. Its length is prime so
// segments cut at round offsets differ from one another.
var pattern = []byte("nzbharness-payload-0123456789abcdefghijklmnopqr")

type patternReader struct{ off int }

func (r *patternReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = pattern[r.off%len(pattern)]
		r.off++
	}
	return len(p), nil
}

// WriteFile creates path (and its parents) holding size bytes of a repeating
// pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if size <= 0 {
		size = 1
	}
	mkdirParent(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	if _, err := io.CopyN(f, &patternReader{}, size); err != nil {
		f.Close()
		t.Fatalf("write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

// WriteScript writes an executable /bin/sh script with the given body. Stub
// daemons and archive tools are built from it.
func WriteScript(t testing.TB, path, body string) {
	t.Helper()
	mkdirParent(t, path)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

func mkdirParent(t testing.TB, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
}
