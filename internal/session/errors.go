package session

import (
	"fmt"
	"strings"
)

// StartupError is returned when the daemon never became ready. It carries
// the tail of the daemon log so the failure explains itself.
type StartupError struct {
	Err     error
	LogPath string
	LogTail []string
	// Exited is set when the daemon process was already gone.
	Exited bool
}

func (e *StartupError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Exited {
		b.WriteString(" (daemon exited)")
	}
	if len(e.LogTail) > 0 {
		fmt.Fprintf(&b, "\nlast %d lines of %s:\n%s", len(e.LogTail), e.LogPath, strings.Join(e.LogTail, "\n"))
	}
	return b.String()
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
