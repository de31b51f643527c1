// Package logging builds the slog loggers used across the harness.
//
// Console output is one line per record with the component and a short
// session id up front, which keeps interleaved go test output readable. The
// JSON format is meant for post-processing a run. WithSessionID stamps every
// record of a session so its lines can be matched with the daemon log and
// the run ledger.
package logging
