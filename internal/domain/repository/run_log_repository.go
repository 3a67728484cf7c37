package repository

import (
	"context"

	"chronos-reconciler/internal/domain/entity"
)

// RunLogRepository records reconciliation and update passes
type RunLogRepository interface {
	Save(ctx context.Context, run *entity.RunLog) error
	// FindRecent returns the latest runs, newest first. An empty kind matches every kind.
	FindRecent(ctx context.Context, kind string, limit int) ([]*entity.RunLog, error)
}
