// Package faults defines the harness error taxonomy.
//
// Components tag failures with one of the exported sentinels via Wrap so that
// callers (the Go test integration, the CLI) can classify them with errors.Is:
// configuration problems abort the whole run, startup timeouts fail a single
// session, transport errors surface to the calling test, and teardown errors
// are reported without touching the recorded test outcome.
package faults
