// Package teardown stops a session's daemon and decides whether its working
// directory survives.
//
// The daemon is always killed. The directory is removed only when no test in
// the process has failed; otherwise it is kept as evidence and its path is
// logged. Removal renames the directory to <dir>.old before deleting it so a
// file the dying daemon still holds open cannot block the next session from
// recreating <dir>, and it retries on a fixed backoff.
package teardown
