package logging

// Structured field keys shared by harness components.
const (
	FieldComponent = "component"
	FieldSessionID = "session_id"
	// FieldEventType names the lifecycle event a record describes (daemon_started, job_completed, ...).
	FieldEventType = "event_type"
	// FieldErrorHint carries the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact states what a warning costs the run.
	FieldImpact   = "impact"
	FieldWorkDir  = "work_dir"
	FieldNZBID    = "nzb_id"
	FieldFilename = "nzb_filename"
	FieldPID      = "pid"
)
