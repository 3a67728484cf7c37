package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"chronos-reconciler/internal/domain/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore reads and writes the mirrored Zoom tables over a direct
// Postgres connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

// ZoomUsers GORM model for database mapping
type ZoomUsers struct {
	ID          string `gorm:"column:id;primaryKey"`
	FirstName   string `gorm:"column:first_name"`
	LastName    string `gorm:"column:last_name"`
	DisplayName string `gorm:"column:display_name"`
	Email       string `gorm:"column:email"`
}

// TableName overrides the default table name
func (ZoomUsers) TableName() string {
	return usersTable
}

// ZoomMeetings GORM model for database mapping
type ZoomMeetings struct {
	MeetingID string     `gorm:"column:meeting_id;primaryKey"`
	Topic     string     `gorm:"column:topic"`
	HostID    string     `gorm:"column:host_id;index"`
	JoinURL   string     `gorm:"column:join_url"`
	CreatedAt *time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name
func (ZoomMeetings) TableName() string {
	return meetingsTable
}

// ZoomTokens GORM model for database mapping
type ZoomTokens struct {
	ID           uint       `gorm:"column:id;primaryKey"`
	AccessToken  string     `gorm:"column:access_token"`
	RefreshToken string     `gorm:"column:refresh_token"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	UpdatedAt    *time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (ZoomTokens) TableName() string {
	return tokensTable
}

// ListUsersPage reads one page of users ordered by id
func (r *GormStore) ListUsersPage(ctx context.Context, offset, limit int) ([]entity.ZoomUser, error) {
	var rows []ZoomUsers
	result := r.db.WithContext(ctx).Order("id").Offset(offset).Limit(limit).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	// Convert GORM models to domain entities
	users := make([]entity.ZoomUser, 0, len(rows))
	for _, row := range rows {
		users = append(users, entity.ZoomUser{
			ID:          row.ID,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			DisplayName: row.DisplayName,
			Email:       row.Email,
		})
	}
	return users, nil
}

// ListMeetingsPage reads one page of meetings ordered by meeting id
func (r *GormStore) ListMeetingsPage(ctx context.Context, offset, limit int) ([]entity.ZoomMeeting, error) {
	var rows []ZoomMeetings
	result := r.db.WithContext(ctx).Order("meeting_id").Offset(offset).Limit(limit).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	meetings := make([]entity.ZoomMeeting, 0, len(rows))
	for _, row := range rows {
		meetings = append(meetings, entity.ZoomMeeting{
			MeetingID: row.MeetingID,
			Topic:     row.Topic,
			HostID:    row.HostID,
			JoinURL:   row.JoinURL,
			CreatedAt: row.CreatedAt,
		})
	}
	return meetings, nil
}

// UpdateHost sets the host of a single meeting
func (r *GormStore) UpdateHost(ctx context.Context, meetingID, hostID string) error {
	return r.db.WithContext(ctx).
		Model(&ZoomMeetings{}).
		Where("meeting_id = ?", meetingID).
		Update("host_id", hostID).Error
}

// UpsertHosts writes a batch of host changes keyed by meeting id
func (r *GormStore) UpsertHosts(ctx context.Context, changes []entity.HostChange) error {
	if len(changes) == 0 {
		return nil
	}

	rows := make([]ZoomMeetings, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, ZoomMeetings{MeetingID: c.MeetingID, HostID: c.HostID})
	}

	return r.db.WithContext(ctx).
		Select("meeting_id", "host_id").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "meeting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"host_id"}),
		}).
		Create(&rows).Error
}

// GetCredential reads the single stored token row
func (r *GormStore) GetCredential(ctx context.Context) (*entity.Credential, error) {
	var row ZoomTokens
	result := r.db.WithContext(ctx).Order("id").First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, entity.ErrNoCredential
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &entity.Credential{
		ID:           strconv.FormatUint(uint64(row.ID), 10),
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

// SaveCredential updates the stored token row, or inserts it when cred has no id
func (r *GormStore) SaveCredential(ctx context.Context, cred *entity.Credential) error {
	now := time.Now().UTC()
	row := ZoomTokens{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		ExpiresAt:    cred.ExpiresAt,
		UpdatedAt:    &now,
	}

	if cred.ID == "" {
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
		cred.ID = strconv.FormatUint(uint64(row.ID), 10)
		return nil
	}

	id, err := strconv.ParseUint(cred.ID, 10, 64)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&ZoomTokens{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  row.AccessToken,
			"refresh_token": row.RefreshToken,
			"expires_at":    row.ExpiresAt,
			"updated_at":    row.UpdatedAt,
		}).Error
}
