package usecase

import (
	"context"
	"strings"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/utils"
)

// MeetingFilter narrows a meeting listing
type MeetingFilter struct {
	// Query matches the topic (accent and case insensitive) or the meeting id
	Query string
	// Host matches the resolved host name
	Host string
}

// FilterMeetings returns the indexed meetings matching f, in snapshot order
func FilterMeetings(index *MatchIndex, f MeetingFilter) []entity.ZoomMeeting {
	query := utils.Fold(f.Query)
	rawQuery := strings.TrimSpace(f.Query)
	host := utils.Fold(f.Host)

	matches := make([]entity.ZoomMeeting, 0)
	for _, m := range index.Meetings() {
		if host != "" && !strings.Contains(utils.Fold(m.HostName), host) {
			continue
		}
		if rawQuery != "" &&
			!(query != "" && strings.Contains(utils.Fold(m.Topic), query)) &&
			!strings.Contains(m.MeetingID, rawQuery) {
			continue
		}
		matches = append(matches, *m)
	}
	return matches
}

// SearchMeetings loads a fresh snapshot and filters its meetings
func (s *ReconciliationService) SearchMeetings(ctx context.Context, f MeetingFilter, progress ProgressFunc) ([]entity.ZoomMeeting, error) {
	users, meetings, err := s.LoadSnapshot(ctx, progress)
	if err != nil {
		return nil, err
	}
	found := FilterMeetings(BuildMatchIndex(users, meetings), f)
	s.logger.Debug("Meeting search", "query", f.Query, "host", f.Host, "matches", len(found))
	return found, nil
}
