// Package failtrack remembers whether any test in the current process failed.
//
// Teardown consults it to decide whether a session's working directory is
// evidence worth keeping. The flag only moves from false to true.
package failtrack

import "sync/atomic"

// Tracker is a write-once-true failure flag. The zero value is ready to use
// and safe for concurrent tests.
type Tracker struct {
	failed atomic.Bool
}

// Process is the tracker shared by every session in the test binary.
var Process = &Tracker{}

// RecordResult notes the outcome of one test.
func (t *Tracker) RecordResult(failed bool) {
	if failed {
		t.failed.CompareAndSwap(false, true)
	}
}

// AnyFailure reports whether any recorded test failed.
func (t *Tracker) AnyFailure() bool {
	return t.failed.Load()
}
