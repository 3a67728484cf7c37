package repository

import (
	"context"

	"chronos-reconciler/internal/domain/entity"
)

// DirectoryRepository reads the mirrored conferencing users and meetings.
// Pages shorter than limit signal the end of the data.
type DirectoryRepository interface {
	ListUsersPage(ctx context.Context, offset, limit int) ([]entity.ZoomUser, error)
	ListMeetingsPage(ctx context.Context, offset, limit int) ([]entity.ZoomMeeting, error)
}
