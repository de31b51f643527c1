package jobs

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nzbharness/internal/control"
	"nzbharness/internal/faults"
	"nzbharness/internal/logging"
)

// DefaultPollInterval is the sleep between history polls.
const DefaultPollInterval = 100 * time.Millisecond

// clearRange covers every id a single test module plausibly creates.
const clearRange = 999

// logLimit is the maximum number of log entries SaveLog fetches.
const logLimit = 10000

// LogFileName is written by SaveLog into the job's destination directory.
const LogFileName = "_nzblog.txt"

// Daemon is the subset of the control client the runner uses.
type Daemon interface {
	Append(ctx context.Context, req control.AppendRequest) (int, error)
	History(ctx context.Context) ([]control.HistoryRecord, error)
	EditQueue(ctx context.Context, command string, offset int, text string, ids []int) (bool, error)
	LoadLog(ctx context.Context, id, from, limit int) ([]control.LogEntry, error)
}

// Recorder observes job lifecycle events, typically to persist them.
// Implementations must not block the test for long and report their own
// failures.
type Recorder interface {
	JobSubmitted(ctx context.Context, id int, sub Submission)
	JobCompleted(ctx context.Context, record control.HistoryRecord, polls int, elapsed time.Duration)
}

// Options tunes the completion poll.
type Options struct {
	PollInterval time.Duration
	// Timeout ends AwaitCompletion with faults.ErrTimeout; zero waits forever.
	Timeout  time.Duration
	Recorder Recorder
}

// Runner submits jobs and awaits their history records.
type Runner struct {
	daemon Daemon
	logger *slog.Logger
	opts   Options
}

// NewRunner binds a runner to daemon.
func NewRunner(daemon Daemon, logger *slog.Logger, opts Options) *Runner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Runner{
		daemon: daemon,
		logger: logging.NewComponentLogger(logger, "jobs"),
		opts:   opts,
	}
}

// Submit appends the job and returns its id.
func (r *Runner) Submit(ctx context.Context, sub Submission) (int, error) {
	req := control.AppendRequest{
		Filename:  sub.Name,
		Content:   base64.StdEncoding.EncodeToString(sub.Content),
		Category:  sub.Category,
		Priority:  sub.Priority,
		AddToTop:  sub.AddTop,
		AddPaused: sub.AddPaused,
		DupeKey:   sub.DupeKey,
		DupeScore: sub.DupeScore,
		DupeMode:  sub.DupeMode,
		Params:    sub.Params,
	}
	id, err := r.daemon.Append(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("submit %s: %w", sub.Name, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("submit %s: daemon rejected job", sub.Name)
	}
	r.logger.Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String(logging.FieldFilename, sub.Name),
		logging.Int(logging.FieldNZBID, id),
		logging.Int("params", len(sub.Params)),
	)
	if r.opts.Recorder != nil {
		r.opts.Recorder.JobSubmitted(ctx, id, sub)
	}
	return id, nil
}

// FindRecord returns the first record whose NZBFilename equals filename.
func FindRecord(records []control.HistoryRecord, filename string) (control.HistoryRecord, bool) {
	for _, record := range records {
		if record.NZBFilename == filename {
			return record, true
		}
	}
	return control.HistoryRecord{}, false
}

// AwaitCompletion polls history until filename appears. Transport errors are
// logged and polled through.
func (r *Runner) AwaitCompletion(ctx context.Context, filename string) (control.HistoryRecord, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	started := time.Now()
	polls := 0
	for {
		polls++
		records, err := r.daemon.History(ctx)
		if err == nil {
			if record, ok := FindRecord(records, filename); ok {
				r.logger.Info("job completed",
					logging.String(logging.FieldEventType, "job_completed"),
					logging.String(logging.FieldFilename, filename),
					logging.Int(logging.FieldNZBID, record.ID),
					logging.String("status", record.Status),
					logging.Int("polls", polls),
					logging.Duration("elapsed", time.Since(started)),
				)
				if r.opts.Recorder != nil {
					r.opts.Recorder.JobCompleted(ctx, record, polls, time.Since(started))
				}
				return record, nil
			}
		} else if ctx.Err() == nil {
			if !errors.Is(err, faults.ErrTransport) {
				return control.HistoryRecord{}, fmt.Errorf("await %s: %w", filename, err)
			}
			r.logger.Debug("history poll failed", logging.String(logging.FieldFilename, filename), logging.Error(err))
		}

		timer := time.NewTimer(r.opts.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			summary := fmt.Sprintf("%s not in history after %d polls (%s)", filename, polls, time.Since(started).Round(time.Millisecond))
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return control.HistoryRecord{}, faults.Wrap(faults.ErrTimeout, "jobs", "await completion", summary, ctx.Err())
			}
			return control.HistoryRecord{}, fmt.Errorf("await completion: %s: %w", summary, context.Cause(ctx))
		case <-timer.C:
		}
	}
}

// Download submits sub and waits for its history record.
func (r *Runner) Download(ctx context.Context, sub Submission) (control.HistoryRecord, error) {
	if _, err := r.Submit(ctx, sub); err != nil {
		return control.HistoryRecord{}, err
	}
	return r.AwaitCompletion(ctx, sub.Name)
}

// Clear permanently deletes history entries 1..999.
func (r *Runner) Clear(ctx context.Context) error {
	ids := make([]int, clearRange)
	for i := range ids {
		ids[i] = i + 1
	}
	if _, err := r.daemon.EditQueue(ctx, control.HistoryFinalDelete, 0, "", ids); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// SaveLog writes the log of job id to dir/_nzblog.txt as Kind, local time and
// text separated by tabs. Nothing is written for an empty log; the returned
// path is empty in that case.
func (r *Runner) SaveLog(ctx context.Context, id int, dir string) (string, error) {
	entries, err := r.daemon.LoadLog(ctx, id, 0, logLimit)
	if err != nil {
		return "", fmt.Errorf("load log %d: %w", id, err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, entry := range entries {
		fmt.Fprintf(&b, "%s\t%s\t%s\n", entry.Kind, time.Unix(entry.Time, 0).Format(time.DateTime), entry.Text)
	}
	path := filepath.Join(dir, LogFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", LogFileName, err)
	}
	return path, nil
}

// LogContains reports whether any log entry of job id contains text.
func (r *Runner) LogContains(ctx context.Context, id int, text string) (bool, error) {
	entries, err := r.daemon.LoadLog(ctx, id, 0, logLimit)
	if err != nil {
		return false, fmt.Errorf("load log %d: %w", id, err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Text, text) {
			return true, nil
		}
	}
	return false, nil
}
