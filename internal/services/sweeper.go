package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/soochol/aihub/internal/repository"
)

// ApprovalSweeper evicts approvals that have waited past their TTL and
// marks the abandoned runs failed. A TTL of zero disables eviction; the
// entry stays pending until a decision arrives.
type ApprovalSweeper struct {
	ledger  repository.ApprovalLedger
	history *RunHistoryService
	ttl     time.Duration
	cron    *cron.Cron
	log     *slog.Logger
}

func NewApprovalSweeper(ledger repository.ApprovalLedger, history *RunHistoryService, ttl time.Duration, log *slog.Logger) *ApprovalSweeper {
	if log == nil {
		log = slog.Default()
	}
	return &ApprovalSweeper{
		ledger:  ledger,
		history: history,
		ttl:     ttl,
		cron:    cron.New(),
		log:     log,
	}
}

// Start schedules the sweep on the given cron spec (e.g. "@every 1m").
// No-op when the TTL is zero.
func (s *ApprovalSweeper) Start(spec string) error {
	if s.ttl <= 0 {
		s.log.Info("approval sweeper disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("approval sweeper started", "ttl", s.ttl, "schedule", spec)
	return nil
}

// Stop halts the cron scheduler and waits for an in-flight sweep.
func (s *ApprovalSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep evicts expired approvals once and abandons their runs.
func (s *ApprovalSweeper) Sweep(ctx context.Context) {
	evicted, err := s.ledger.Evict(ctx, time.Now().Add(-s.ttl))
	if err != nil {
		s.log.Error("sweep approvals", "error", err)
		return
	}
	for _, entry := range evicted {
		s.log.Info("approval expired",
			"approval_id", entry.ID,
			"workflow_id", entry.State.WorkflowID,
			"family", entry.Family,
			"gate", entry.Gate,
			"waited", time.Since(entry.CreatedAt))
		if s.history == nil {
			continue
		}
		if err := s.history.Abandon(ctx, entry.State.WorkflowID, "approval expired without a decision"); err != nil {
			s.log.Warn("abandon run", "workflow_id", entry.State.WorkflowID, "error", err)
		}
	}
}
