// Package logs reads the daemon's log file.
//
// LastLines returns the tail of the file with bounded memory and is attached
// to startup failures so the reason the daemon did not come up is visible in
// the test output. Follow mirrors new lines as the daemon appends them, using
// fsnotify on the containing directory so it also works before the daemon has
// created the file.
package logs
