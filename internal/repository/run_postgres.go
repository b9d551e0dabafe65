package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/soochol/aihub/internal/hub"
)

// RunDB defines the DB-layer methods needed by the persistent run repo.
// *db.DB satisfies this interface.
type RunDB interface {
	CreateRun(ctx context.Context, r *hub.RunRecord) error
	UpdateRun(ctx context.Context, r *hub.RunRecord) error
	GetRun(ctx context.Context, id string) (*hub.RunRecord, error)
	ListRuns(ctx context.Context, family string, limit int) ([]*hub.RunRecord, error)
}

// PostgresRunRepository persists run records in PostgreSQL.
type PostgresRunRepository struct {
	db RunDB
}

func NewPostgresRunRepository(db RunDB) *PostgresRunRepository {
	return &PostgresRunRepository{db: db}
}

func (r *PostgresRunRepository) Create(ctx context.Context, rec *hub.RunRecord) error {
	return r.db.CreateRun(ctx, rec)
}

func (r *PostgresRunRepository) Update(ctx context.Context, rec *hub.RunRecord) error {
	return r.db.UpdateRun(ctx, rec)
}

func (r *PostgresRunRepository) Get(ctx context.Context, id string) (*hub.RunRecord, error) {
	rec, err := r.db.GetRun(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return rec, err
}

func (r *PostgresRunRepository) List(ctx context.Context, family string, limit int) ([]*hub.RunRecord, error) {
	return r.db.ListRuns(ctx, family, limit)
}
