package storage

import (
	"context"
	"errors"

	"tiny-dp-go/internal/model"
)

var ErrMissingID = errors.New("storage: run id is required")

// Store persists evaluation runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.Run) error
	GetRun(ctx context.Context, id string) (model.Run, bool, error)
	ListRuns(ctx context.Context) ([]model.Run, error)
	DeleteRun(ctx context.Context, id string) error
}
