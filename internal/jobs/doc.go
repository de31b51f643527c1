// Package jobs submits download jobs to the daemon and waits for them to
// finish.
//
// Completion is observed only through the daemon's history: the runner polls
// History at a fixed interval until a record whose NZBFilename equals the
// submitted filename appears. The wait is unbounded unless a Timeout or a
// context deadline is supplied. Helpers here also mutate job payloads (the
// functional suites corrupt segment references to force failures), clear
// history between tests and save a job's log next to its output.
package jobs
