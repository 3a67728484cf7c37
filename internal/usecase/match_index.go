package usecase

import (
	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/utils"
)

// MatchIndex holds the lookup structures of one reconciliation pass.
// It is read-only once built and safe for concurrent lookups.
type MatchIndex struct {
	usersByID       map[string]*entity.ZoomUser
	usersByName     map[string]*entity.ZoomUser
	meetingsByTopic map[string]*entity.ZoomMeeting
	meetings        []*entity.ZoomMeeting

	instructorChoices *utils.ChoiceMap[*entity.ZoomUser]
	meetingChoices    *utils.ChoiceMap[*entity.ZoomMeeting]
}

// BuildMatchIndex indexes the user and meeting snapshots. Inputs are copied;
// the caller's slices are never modified.
func BuildMatchIndex(users []entity.ZoomUser, meetings []entity.ZoomMeeting) *MatchIndex {
	idx := &MatchIndex{
		usersByID:         make(map[string]*entity.ZoomUser, len(users)),
		usersByName:       make(map[string]*entity.ZoomUser, len(users)*2),
		meetingsByTopic:   make(map[string]*entity.ZoomMeeting, len(meetings)),
		meetings:          make([]*entity.ZoomMeeting, 0, len(meetings)),
		instructorChoices: utils.NewChoiceMap[*entity.ZoomUser](),
		meetingChoices:    utils.NewChoiceMap[*entity.ZoomMeeting](),
	}

	for i := range users {
		u := users[i]
		u.DisplayName = u.Name()
		user := &u

		if user.ID != "" {
			idx.usersByID[user.ID] = user
		}

		displayKey := utils.Canonical(user.DisplayName)
		if displayKey != "" {
			idx.usersByName[displayKey] = user
		}
		// The full name only adds a key when it differs from the display name
		fullName := user.FullName()
		if fullKey := utils.Canonical(fullName); fullKey != "" && fullKey != displayKey {
			idx.usersByName[fullKey] = user
		}

		idx.instructorChoices.Set(utils.Normalize(user.DisplayName), user)
		if fullName != "" {
			idx.instructorChoices.Set(utils.Normalize(fullName), user)
		}
	}

	for i := range meetings {
		m := meetings[i]
		m.HostName = entity.UnknownHost
		if host, ok := idx.usersByID[m.HostID]; ok && host.DisplayName != "" {
			m.HostName = host.DisplayName
		}
		meeting := &m
		idx.meetings = append(idx.meetings, meeting)

		// Duplicate topics: last one wins
		if key := utils.Canonical(meeting.Topic); key != "" {
			idx.meetingsByTopic[key] = meeting
		}
		idx.meetingChoices.Set(utils.Normalize(meeting.Topic), meeting)
	}

	return idx
}

// UserByID returns the user with the given id
func (idx *MatchIndex) UserByID(id string) (*entity.ZoomUser, bool) {
	u, ok := idx.usersByID[id]
	return u, ok
}

// UserByCanonicalName looks up a user by canonical key. Empty keys never match.
func (idx *MatchIndex) UserByCanonicalName(key string) (*entity.ZoomUser, bool) {
	if key == "" {
		return nil, false
	}
	u, ok := idx.usersByName[key]
	return u, ok
}

// MeetingByCanonicalTopic looks up a meeting by canonical key. Empty keys never match.
func (idx *MatchIndex) MeetingByCanonicalTopic(key string) (*entity.ZoomMeeting, bool) {
	if key == "" {
		return nil, false
	}
	m, ok := idx.meetingsByTopic[key]
	return m, ok
}

// Meetings returns every indexed meeting with its host name resolved
func (idx *MatchIndex) Meetings() []*entity.ZoomMeeting {
	return idx.meetings
}

// InstructorChoices is the fuzzy choice map of normalized user names
func (idx *MatchIndex) InstructorChoices() *utils.ChoiceMap[*entity.ZoomUser] {
	return idx.instructorChoices
}

// MeetingChoices is the fuzzy choice map of normalized topics
func (idx *MatchIndex) MeetingChoices() *utils.ChoiceMap[*entity.ZoomMeeting] {
	return idx.meetingChoices
}

// Stats returns the number of users, name keys and topic keys
func (idx *MatchIndex) Stats() (users, names, topics int) {
	return len(idx.usersByID), len(idx.usersByName), len(idx.meetingsByTopic)
}
