package entity

import (
	"strings"
	"time"
)

// UnknownHost is displayed for meetings whose host is not a known user
const UnknownHost = "Unknown"

// ZoomUser is a conferencing account that can host meetings
type ZoomUser struct {
	ID          string `json:"id" bson:"id"`
	FirstName   string `json:"first_name" bson:"firstName"`
	LastName    string `json:"last_name" bson:"lastName"`
	DisplayName string `json:"display_name" bson:"displayName"`
	Email       string `json:"email" bson:"email"`
}

// FullName returns "first last" trimmed
func (u ZoomUser) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// Name returns the stored display name, or the full name when it is empty
func (u ZoomUser) Name() string {
	if name := strings.TrimSpace(u.DisplayName); name != "" {
		return name
	}
	return u.FullName()
}

// ZoomMeeting is a conferencing meeting as mirrored in the data store
type ZoomMeeting struct {
	MeetingID string     `json:"meeting_id" bson:"meetingId"`
	Topic     string     `json:"topic" bson:"topic"`
	HostID    string     `json:"host_id" bson:"hostId"`
	JoinURL   string     `json:"join_url,omitempty" bson:"joinUrl,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty" bson:"createdAt,omitempty"`

	// HostName is resolved from the user snapshot and never persisted
	HostName string `json:"host_name,omitempty" bson:"-"`
}

// HostChange is the persisted side effect of a successful reassignment
type HostChange struct {
	MeetingID string `json:"meeting_id"`
	HostID    string `json:"host_id"`
}

// Credential is the stored conferencing API token pair
type Credential struct {
	ID           string     `json:"id"`
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// Expired reports whether the access token is known to be past its expiry
func (c Credential) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
