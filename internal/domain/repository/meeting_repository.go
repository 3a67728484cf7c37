package repository

import (
	"context"

	"chronos-reconciler/internal/domain/entity"
)

// MeetingRepository persists host changes of meetings
type MeetingRepository interface {
	UpdateHost(ctx context.Context, meetingID, hostID string) error
	// UpsertHosts writes a batch of host changes keyed by meeting id
	UpsertHosts(ctx context.Context, changes []entity.HostChange) error
}
