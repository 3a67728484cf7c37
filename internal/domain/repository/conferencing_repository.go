package repository

import "context"

// ConferencingRepository is the remote conferencing API.
// UpdateMeetingHost returns entity.ErrCredentialExpired (wrapped) when the
// access token is rejected, *entity.RemoteError on other non-2xx answers and
// *entity.NetworkError on transport failures.
type ConferencingRepository interface {
	UpdateMeetingHost(ctx context.Context, accessToken, meetingID, newHostEmail string) error
}
