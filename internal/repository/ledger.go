package repository

import (
	"context"
	"errors"
	"time"

	"github.com/soochol/aihub/internal/hub"
)

// ErrApprovalNotFound is returned by Resume when the approval id was never
// issued, already consumed, or evicted.
var ErrApprovalNotFound = errors.New("approval not found")

// ApprovalEntry is a suspended workflow snapshot awaiting a decision.
type ApprovalEntry struct {
	ID        string             `json:"id"`
	Family    string             `json:"family"`
	Gate      string             `json:"gate"`
	State     *hub.WorkflowState `json:"state"`
	CreatedAt time.Time          `json:"created_at"`
}

// ApprovalLedger maps approval ids to suspended workflow snapshots.
//
// Resume is destructive: the entry is atomically removed before the snapshot
// is returned, so each id resolves at most once even under concurrent
// resume attempts — the loser observes ErrApprovalNotFound. There is
// deliberately no peek operation.
type ApprovalLedger interface {
	// Suspend stores a snapshot of state under a freshly generated id.
	// Ids are never reused, even across repeated suspensions of one run.
	Suspend(ctx context.Context, state *hub.WorkflowState, gate string) (string, error)

	// Resume atomically removes and returns the snapshot for id.
	Resume(ctx context.Context, id string) (*hub.WorkflowState, string, error)

	// Evict removes and returns all entries created before the cutoff.
	// Used by the TTL sweeper; returns the evicted entries so their runs
	// can be marked abandoned.
	Evict(ctx context.Context, before time.Time) ([]ApprovalEntry, error)
}
