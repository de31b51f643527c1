package ledger

import (
	"database/sql"
	"strings"
	"time"
)

const sessionColumns = "id, test_name, work_dir, daemon_pid, started_at, finished_at, outcome, work_dir_kept, error_kind, error_message"

const jobColumns = "id, session_id, nzb_id, nzb_filename, category, status, polls, submitted_at, completed_at"

type scanner interface{ Scan(dest ...any) error }

func scanSession(row scanner) (SessionRecord, error) {
	var (
		rec          SessionRecord
		testName     sql.NullString
		pid          sql.NullInt64
		startedRaw   string
		finishedRaw  sql.NullString
		outcome      string
		kept         int
		errorKind    sql.NullString
		errorMessage sql.NullString
	)
	if err := row.Scan(&rec.ID, &testName, &rec.WorkDir, &pid, &startedRaw, &finishedRaw,
		&outcome, &kept, &errorKind, &errorMessage); err != nil {
		return SessionRecord{}, err
	}
	rec.TestName = testName.String
	rec.DaemonPID = int(pid.Int64)
	rec.StartedAt = parseTime(startedRaw)
	rec.FinishedAt = parseTime(finishedRaw.String)
	rec.Outcome = Outcome(outcome)
	rec.WorkDirKept = kept != 0
	rec.ErrorKind = errorKind.String
	rec.ErrorMessage = errorMessage.String
	return rec, nil
}

func scanJob(row scanner) (JobRecord, error) {
	var (
		rec          JobRecord
		category     sql.NullString
		status       sql.NullString
		submittedRaw string
		completedRaw sql.NullString
	)
	if err := row.Scan(&rec.ID, &rec.SessionID, &rec.NZBID, &rec.NZBFilename, &category, &status,
		&rec.Polls, &submittedRaw, &completedRaw); err != nil {
		return JobRecord{}, err
	}
	rec.Category = category.String
	rec.Status = status.String
	rec.SubmittedAt = parseTime(submittedRaw)
	rec.CompletedAt = parseTime(completedRaw.String)
	return rec, nil
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}
