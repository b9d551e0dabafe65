package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/soochol/aihub/internal/hub"
)

// ApprovalDB defines the DB-layer methods needed by the Postgres ledger.
// *db.DB satisfies this interface.
type ApprovalDB interface {
	InsertApproval(ctx context.Context, id, family, gate string, state *hub.WorkflowState, createdAt time.Time) error
	ClaimApproval(ctx context.Context, id string) (*hub.WorkflowState, string, error)
	DeleteApprovalsBefore(ctx context.Context, cutoff time.Time) ([]ApprovalEntry, error)
}

// PostgresApprovalLedger stores suspended snapshots in PostgreSQL so
// pending approvals survive process restarts. Atomicity of Resume comes
// from the single DELETE ... RETURNING in the db layer.
type PostgresApprovalLedger struct {
	db ApprovalDB
}

func NewPostgresApprovalLedger(db ApprovalDB) *PostgresApprovalLedger {
	return &PostgresApprovalLedger{db: db}
}

func (l *PostgresApprovalLedger) Suspend(ctx context.Context, state *hub.WorkflowState, gate string) (string, error) {
	id := hub.GenerateID("apr")
	if err := l.db.InsertApproval(ctx, id, state.Family, gate, state, time.Now()); err != nil {
		return "", err
	}
	return id, nil
}

func (l *PostgresApprovalLedger) Resume(ctx context.Context, id string) (*hub.WorkflowState, string, error) {
	state, gate, err := l.db.ClaimApproval(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrApprovalNotFound
	}
	if err != nil {
		return nil, "", err
	}
	return state, gate, nil
}

func (l *PostgresApprovalLedger) Evict(ctx context.Context, before time.Time) ([]ApprovalEntry, error) {
	return l.db.DeleteApprovalsBefore(ctx, before)
}
