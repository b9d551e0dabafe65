package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/soochol/aihub/internal/hub"
)

// CreateRun stores a new run record.
func (d *DB) CreateRun(ctx context.Context, r *hub.RunRecord) error {
	stepsJSON, _ := json.Marshal(r.Steps)
	outputsJSON, _ := json.Marshal(r.Outputs)

	_, err := d.Pool.ExecContext(ctx,
		`INSERT INTO runs (id, family, status, route, steps, outputs, response, error, approval_id, gate, started_at, completed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		r.ID, r.Family, string(r.Status), r.Route, stepsJSON, outputsJSON,
		r.Response, r.Error, r.ApprovalID, r.Gate, r.StartedAt, r.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// UpdateRun updates an existing run record.
func (d *DB) UpdateRun(ctx context.Context, r *hub.RunRecord) error {
	stepsJSON, _ := json.Marshal(r.Steps)
	outputsJSON, _ := json.Marshal(r.Outputs)

	_, err := d.Pool.ExecContext(ctx,
		`UPDATE runs SET status = $1, route = $2, steps = $3, outputs = $4, response = $5, error = $6, approval_id = $7, gate = $8, completed_at = $9
		 WHERE id = $10`,
		string(r.Status), r.Route, stepsJSON, outputsJSON,
		r.Response, r.Error, r.ApprovalID, r.Gate, r.CompletedAt, r.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// GetRun retrieves a run record by ID. Returns sql.ErrNoRows when absent;
// the repository layer maps it to its own sentinel.
func (d *DB) GetRun(ctx context.Context, id string) (*hub.RunRecord, error) {
	r := &hub.RunRecord{}
	var status string
	var stepsJSON, outputsJSON []byte

	err := d.Pool.QueryRowContext(ctx,
		`SELECT id, family, status, route, steps, outputs, response, error, approval_id, gate, started_at, completed_at
		 FROM runs WHERE id = $1`, id,
	).Scan(&r.ID, &r.Family, &status, &r.Route, &stepsJSON, &outputsJSON,
		&r.Response, &r.Error, &r.ApprovalID, &r.Gate, &r.StartedAt, &r.CompletedAt,
	)
	if err == sql.ErrNoRows {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.Status = hub.RunStatus(status)
	if err := unmarshalRunJSON(r, stepsJSON, outputsJSON); err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns retrieves run records, optionally filtered by family, most
// recent first.
func (d *DB) ListRuns(ctx context.Context, family string, limit int) ([]*hub.RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, family, status, route, steps, outputs, response, error, approval_id, gate, started_at, completed_at
	          FROM runs`
	args := []any{}
	if family != "" {
		query += ` WHERE family = $1`
		args = append(args, family)
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT %d`, limit)

	rows, err := d.Pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*hub.RunRecord
	for rows.Next() {
		r := &hub.RunRecord{}
		var status string
		var stepsJSON, outputsJSON []byte
		if err := rows.Scan(&r.ID, &r.Family, &status, &r.Route, &stepsJSON, &outputsJSON,
			&r.Response, &r.Error, &r.ApprovalID, &r.Gate, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = hub.RunStatus(status)
		if err := unmarshalRunJSON(r, stepsJSON, outputsJSON); err != nil {
			return nil, fmt.Errorf("list runs: %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// unmarshalRunJSON decodes the JSONB columns of a run row. A corrupt row
// is an error, not an empty history.
func unmarshalRunJSON(r *hub.RunRecord, stepsJSON, outputsJSON []byte) error {
	if len(stepsJSON) > 0 {
		if err := json.Unmarshal(stepsJSON, &r.Steps); err != nil {
			return fmt.Errorf("decode steps: %w", err)
		}
	}
	if len(outputsJSON) > 0 {
		if err := json.Unmarshal(outputsJSON, &r.Outputs); err != nil {
			return fmt.Errorf("decode outputs: %w", err)
		}
	}
	return nil
}
