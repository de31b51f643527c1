package ledger

import "time"

// Outcome is the final state of a session.
type Outcome string

const (
	OutcomeRunning Outcome = "running"
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	// OutcomeAborted marks sessions that never reached readiness.
	OutcomeAborted Outcome = "aborted"
)

// SessionRecord is one harness session.
type SessionRecord struct {
	ID           string
	TestName     string
	WorkDir      string
	DaemonPID    int
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      Outcome
	WorkDirKept  bool
	ErrorKind    string
	ErrorMessage string
}

// Finished reports whether the session has been closed.
func (s SessionRecord) Finished() bool {
	return !s.FinishedAt.IsZero()
}

// Duration is the wall time of a finished session, or zero.
func (s SessionRecord) Duration() time.Duration {
	if !s.Finished() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// JobRecord is one job submitted during a session.
type JobRecord struct {
	ID          int64
	SessionID   string
	NZBID       int
	NZBFilename string
	Category    string
	Status      string
	Polls       int
	SubmittedAt time.Time
	CompletedAt time.Time
}

// Completed reports whether the job reached the history.
func (j JobRecord) Completed() bool {
	return !j.CompletedAt.IsZero()
}
