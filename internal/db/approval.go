package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soochol/aihub/internal/hub"
	"github.com/soochol/aihub/internal/repository"
)

// InsertApproval stores a suspended workflow snapshot.
func (d *DB) InsertApproval(ctx context.Context, id, family, gate string, state *hub.WorkflowState, createdAt time.Time) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = d.Pool.ExecContext(ctx,
		`INSERT INTO approvals (id, family, gate, state, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, family, gate, stateJSON, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// ClaimApproval atomically removes the approval row and returns its snapshot.
// The single DELETE ... RETURNING statement is what guarantees at-most-once
// consumption under concurrent claims: exactly one caller gets the row.
func (d *DB) ClaimApproval(ctx context.Context, id string) (*hub.WorkflowState, string, error) {
	var gate string
	var stateJSON []byte
	err := d.Pool.QueryRowContext(ctx,
		`DELETE FROM approvals WHERE id = $1 RETURNING gate, state`, id,
	).Scan(&gate, &stateJSON)
	if err == sql.ErrNoRows {
		return nil, "", sql.ErrNoRows
	}
	if err != nil {
		return nil, "", fmt.Errorf("claim approval: %w", err)
	}

	state := &hub.WorkflowState{}
	if err := json.Unmarshal(stateJSON, state); err != nil {
		return nil, "", fmt.Errorf("unmarshal state: %w", err)
	}
	return state, gate, nil
}

// DeleteApprovalsBefore removes approvals created before the cutoff and
// returns the evicted entries.
func (d *DB) DeleteApprovalsBefore(ctx context.Context, cutoff time.Time) ([]repository.ApprovalEntry, error) {
	rows, err := d.Pool.QueryContext(ctx,
		`DELETE FROM approvals WHERE created_at < $1 RETURNING id, family, gate, state, created_at`, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("delete expired approvals: %w", err)
	}
	defer rows.Close()

	var out []repository.ApprovalEntry
	for rows.Next() {
		var e repository.ApprovalEntry
		var stateJSON []byte
		if err := rows.Scan(&e.ID, &e.Family, &e.Gate, &stateJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expired approval: %w", err)
		}
		e.State = &hub.WorkflowState{}
		if err := json.Unmarshal(stateJSON, e.State); err != nil {
			return nil, fmt.Errorf("unmarshal expired state: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
