package repository

import (
	"context"
	"errors"

	"github.com/soochol/aihub/internal/hub"
)

// ErrRunNotFound is returned when a run record does not exist.
var ErrRunNotFound = errors.New("run not found")

// RunRepository stores run records.
type RunRepository interface {
	Create(ctx context.Context, r *hub.RunRecord) error
	Update(ctx context.Context, r *hub.RunRecord) error
	Get(ctx context.Context, id string) (*hub.RunRecord, error)
	List(ctx context.Context, family string, limit int) ([]*hub.RunRecord, error)
}
