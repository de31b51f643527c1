package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"nzbharness/internal/faults"
)

// Store persists sessions and jobs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the ledger database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, faults.Wrap(faults.ErrConfiguration, "ledger", "open", "ledger path required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func dataSourceName(path string) string {
	pragmas := []string{
		"journal_mode(WAL)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
	}
	query := make([]string, 0, len(pragmas))
	for _, pragma := range pragmas {
		query = append(query, "_pragma="+pragma)
	}
	return "file:" + path + "?" + strings.Join(query, "&")
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// BeginSession inserts a running session row.
func (s *Store) BeginSession(ctx context.Context, rec SessionRecord) error {
	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("session id required")
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = time.Now()
	}
	_, err := s.exec(ctx,
		`INSERT INTO sessions (id, test_name, work_dir, daemon_pid, started_at, outcome)
         VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		nullableString(rec.TestName),
		rec.WorkDir,
		nullableInt(rec.DaemonPID),
		formatTime(rec.StartedAt),
		OutcomeRunning,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SetDaemonPID records the daemon process of a running session.
func (s *Store) SetDaemonPID(ctx context.Context, id string, pid int) error {
	if _, err := s.exec(ctx, `UPDATE sessions SET daemon_pid = ? WHERE id = ?`, pid, id); err != nil {
		return fmt.Errorf("update daemon pid: %w", err)
	}
	return nil
}

// FinishSession closes a session with its outcome. cause may be nil.
func (s *Store) FinishSession(ctx context.Context, id string, outcome Outcome, kept bool, cause error) error {
	var message string
	if cause != nil {
		message = cause.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE sessions
         SET finished_at = ?, outcome = ?, work_dir_kept = ?, error_kind = ?, error_message = ?
         WHERE id = ?`,
		formatTime(time.Now()),
		outcome,
		boolToInt(kept),
		nullableString(faults.Kind(cause)),
		nullableString(message),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish session %s: not found", id)
	}
	return nil
}

// RecordJob inserts a submitted job and returns its row id.
func (s *Store) RecordJob(ctx context.Context, rec JobRecord) (int64, error) {
	if rec.SubmittedAt.IsZero() {
		rec.SubmittedAt = time.Now()
	}
	res, err := s.exec(ctx,
		`INSERT INTO jobs (session_id, nzb_id, nzb_filename, category, submitted_at)
         VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID,
		rec.NZBID,
		rec.NZBFilename,
		nullableString(rec.Category),
		formatTime(rec.SubmittedAt),
	)
	if err != nil {
		return 0, fmt.Errorf("insert job: %w", err)
	}
	return res.LastInsertId()
}

// CompleteJob stores the final status of the most recent job submitted under
// filename in the session.
func (s *Store) CompleteJob(ctx context.Context, sessionID, filename, status string, polls int) error {
	res, err := s.exec(ctx,
		`UPDATE jobs SET status = ?, polls = ?, completed_at = ?
         WHERE id = (
             SELECT id FROM jobs WHERE session_id = ? AND nzb_filename = ?
             ORDER BY id DESC LIMIT 1
         )`,
		status,
		polls,
		formatTime(time.Now()),
		sessionID,
		filename,
	)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("complete job %s: not submitted in session %s", filename, sessionID)
	}
	return nil
}

// RecentSessions returns up to limit sessions, newest first. A limit <= 0
// returns all sessions.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY started_at DESC, rowid DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	return sessions, rows.Err()
}

// FindSession resolves a session by id or unique id prefix.
func (s *Store) FindSession(ctx context.Context, prefix string) (SessionRecord, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return SessionRecord{}, errors.New("session id required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return SessionRecord{}, fmt.Errorf("find session: %w", err)
	}
	defer rows.Close()

	var matches []SessionRecord
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return SessionRecord{}, err
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return SessionRecord{}, err
	}
	switch len(matches) {
	case 0:
		return SessionRecord{}, fmt.Errorf("session %s: %w", prefix, ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return SessionRecord{}, fmt.Errorf("session prefix %s is ambiguous", prefix)
	}
}

// Jobs returns the jobs of a session in submission order.
func (s *Store) Jobs(ctx context.Context, sessionID string) ([]JobRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []JobRecord
	for rows.Next() {
		rec, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, rec)
	}
	return jobs, rows.Err()
}

// Prune removes finished sessions (and their jobs) started before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.exec(ctx,
		`DELETE FROM sessions WHERE finished_at IS NOT NULL AND started_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return res.RowsAffected()
}
