package session

import (
	"context"
	"log/slog"
	"time"

	"nzbharness/internal/control"
	"nzbharness/internal/jobs"
	"nzbharness/internal/ledger"
	"nzbharness/internal/logging"
)

// Ledger writes are best effort: a broken ledger is logged, never fails a test.

func (s *Session) recordBegin(ctx context.Context, testName string) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.BeginSession(ctx, ledger.SessionRecord{
		ID:       s.ID,
		TestName: testName,
		WorkDir:  s.WorkDir,
	})
	if err != nil {
		s.logger.Warn("ledger begin failed", logging.Error(err))
	}
}

func (s *Session) recordPID(ctx context.Context) {
	if s.ledger == nil || s.daemon == nil {
		return
	}
	if err := s.ledger.SetDaemonPID(ctx, s.ID, s.daemon.PID()); err != nil {
		s.logger.Warn("ledger pid update failed", logging.Error(err))
	}
}

func (s *Session) recordFinish(ctx context.Context, outcome ledger.Outcome, kept bool, cause error) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.FinishSession(ctx, s.ID, outcome, kept, cause); err != nil {
		s.logger.Warn("ledger finish failed", logging.Error(err))
	}
}

type ledgerRecorder struct {
	store     *ledger.Store
	sessionID string
	logger    *slog.Logger
}

func (r *ledgerRecorder) JobSubmitted(ctx context.Context, id int, sub jobs.Submission) {
	_, err := r.store.RecordJob(ctx, ledger.JobRecord{
		SessionID:   r.sessionID,
		NZBID:       id,
		NZBFilename: sub.Name,
		Category:    sub.Category,
	})
	if err != nil {
		r.logger.Warn("ledger job insert failed", logging.String(logging.FieldFilename, sub.Name), logging.Error(err))
	}
}

func (r *ledgerRecorder) JobCompleted(ctx context.Context, record control.HistoryRecord, polls int, _ time.Duration) {
	if err := r.store.CompleteJob(ctx, r.sessionID, record.NZBFilename, record.Status, polls); err != nil {
		r.logger.Warn("ledger job update failed", logging.String(logging.FieldFilename, record.NZBFilename), logging.Error(err))
	}
}
