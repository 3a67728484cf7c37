package usecase

import (
	"context"
	"testing"

	"chronos-reconciler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleUsers() []entity.ZoomUser {
	return []entity.ZoomUser{
		{ID: "u1", DisplayName: "Maria Lopez", Email: "maria@example.com"},
		{ID: "u2", FirstName: "José", LastName: "Pérez", Email: "jose@example.com"},
		{ID: "u3", FirstName: "Ana", LastName: "Gomez", DisplayName: "Anita G", Email: "ana@example.com"},
	}
}

func sampleMeetings() []entity.ZoomMeeting {
	return []entity.ZoomMeeting{
		{MeetingID: "m1", Topic: "Caterpillar Group 3", HostID: "u1"},
		{MeetingID: "m2", Topic: "Grupo 5 - CH Adidas (Online)", HostID: "u2"},
		{MeetingID: "m3", Topic: "Orphan Meeting", HostID: "ghost"},
	}
}

func TestBuildMatchIndex(t *testing.T) {
	users := sampleUsers()
	idx := BuildMatchIndex(users, sampleMeetings())

	u, ok := idx.UserByCanonicalName("joseperez")
	require.True(t, ok)
	assert.Equal(t, "u2", u.ID)
	assert.Equal(t, "José Pérez", u.DisplayName)
	assert.Empty(t, users[1].DisplayName, "input must not be modified")

	// Both display and full name keys exist when they differ
	_, ok = idx.UserByCanonicalName("anitag")
	assert.True(t, ok)
	_, ok = idx.UserByCanonicalName("anagomez")
	assert.True(t, ok)

	m, ok := idx.MeetingByCanonicalTopic("grupo5chadidas")
	require.True(t, ok)
	assert.Equal(t, "m2", m.MeetingID)
	assert.Equal(t, "José Pérez", m.HostName)

	orphan, ok := idx.MeetingByCanonicalTopic("orphanmeeting")
	require.True(t, ok)
	assert.Equal(t, entity.UnknownHost, orphan.HostName)

	usersCount, names, topics := idx.Stats()
	assert.Equal(t, 3, usersCount)
	assert.Equal(t, 4, names)
	assert.Equal(t, 3, topics)
}

func TestBuildMatchIndexSkipsEmptyKeys(t *testing.T) {
	idx := BuildMatchIndex(
		[]entity.ZoomUser{{ID: "u1"}},
		[]entity.ZoomMeeting{{MeetingID: "m1", Topic: ""}, {MeetingID: "m2", Topic: "Online"}},
	)

	_, ok := idx.MeetingByCanonicalTopic("")
	assert.False(t, ok)
	_, ok = idx.UserByCanonicalName("")
	assert.False(t, ok)

	_, names, topics := idx.Stats()
	assert.Zero(t, names)
	assert.Zero(t, topics)
	assert.Len(t, idx.Meetings(), 2)
}

func TestBuildMatchIndexDuplicateTopicLastWins(t *testing.T) {
	idx := BuildMatchIndex(nil, []entity.ZoomMeeting{
		{MeetingID: "first", Topic: "Grupo 1 Caterpillar"},
		{MeetingID: "second", Topic: "GRUPO 1 - caterpillar"},
	})

	m, ok := idx.MeetingByCanonicalTopic("grupo1caterpillar")
	require.True(t, ok)
	assert.Equal(t, "second", m.MeetingID)
}

func TestClassifyTable(t *testing.T) {
	host := &entity.ZoomUser{ID: "u1"}
	other := &entity.ZoomUser{ID: "u2"}
	meeting := &entity.ZoomMeeting{MeetingID: "m1", HostID: "u1"}

	tests := []struct {
		name       string
		meeting    *entity.ZoomMeeting
		instructor *entity.ZoomUser
		status     entity.Status
		reason     string
	}{
		{"host matches", meeting, host, entity.StatusAssigned, entity.ReasonNone},
		{"host differs", meeting, other, entity.StatusToUpdate, entity.ReasonNone},
		{"no instructor", meeting, nil, entity.StatusToUpdate, entity.ReasonInstructorNotFound},
		{"no meeting", nil, host, entity.StatusNotFound, entity.ReasonMeetingNotFound},
		{"nothing", nil, nil, entity.StatusNotFound, entity.ReasonNothingFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, reason := Classify(tt.meeting, tt.instructor)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestExactMatchSkipsFuzzySearch(t *testing.T) {
	calls := 0
	scorer := func(a, b string) float64 {
		calls++
		return 100
	}
	c := NewClassifier(BuildMatchIndex(sampleUsers(), sampleMeetings()), scorer)

	u, ok := c.ResolveInstructor("MARÍA LÓPEZ")
	require.True(t, ok)
	assert.Equal(t, "u1", u.ID)

	m, ok := c.ResolveMeeting("caterpillar group 3")
	require.True(t, ok)
	assert.Equal(t, "m1", m.MeetingID)

	assert.Zero(t, calls)

	// A miss falls back to the scorer
	_, ok = c.ResolveInstructor("Somebody Else")
	assert.True(t, ok)
	assert.NotZero(t, calls)
}

func TestResolveFuzzy(t *testing.T) {
	c := NewClassifier(BuildMatchIndex(sampleUsers(), sampleMeetings()), nil)

	m, ok := c.ResolveMeeting("CH Adidas Grupo 7")
	require.True(t, ok)
	assert.Equal(t, "m2", m.MeetingID)

	u, ok := c.ResolveInstructor("Perez Jose")
	require.True(t, ok)
	assert.Equal(t, "u2", u.ID)

	_, ok = c.ResolveMeeting("Completely Unrelated")
	assert.False(t, ok)

	_, ok = c.ResolveInstructor("")
	assert.False(t, ok)
}

func TestReconcileScenarios(t *testing.T) {
	users := []entity.ZoomUser{{ID: "u1", DisplayName: "Maria Lopez"}}
	meetings := []entity.ZoomMeeting{{MeetingID: "m1", Topic: "Caterpillar Group 3", HostID: "u1"}}
	schedules := []entity.ScheduleRecord{
		{Instructor: "Maria Lopez", Program: "Caterpillar Group 3", StartTime: "9:00 AM", EndTime: "10:30 PM"},
		{Instructor: "Lopez M.", Program: "Caterpillar Group 3"},
		{Instructor: "Maria Lopez", Program: "Unknown Course"},
		{Instructor: "Nobody", Program: "Nothing"},
	}

	results, err := Reconcile(context.Background(), users, meetings, schedules, nil)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, entity.StatusAssigned, results[0].Status)
	assert.Equal(t, "m1", results[0].MeetingID)
	assert.Equal(t, entity.ReasonNone, results[0].Reason)
	assert.Nil(t, results[0].Instructor)
	assert.Equal(t, "Maria Lopez", results[0].CurrentHost)
	assert.Equal(t, "09:00", results[0].StartTime24)
	assert.Equal(t, "22:30", results[0].EndTime24)

	assert.Equal(t, entity.StatusToUpdate, results[1].Status)
	assert.Equal(t, "m1", results[1].MeetingID)
	assert.Equal(t, entity.ReasonInstructorNotFound, results[1].Reason)
	assert.Nil(t, results[1].Instructor)

	assert.Equal(t, entity.StatusNotFound, results[2].Status)
	assert.Equal(t, entity.NoMeeting, results[2].MeetingID)
	assert.Equal(t, entity.ReasonMeetingNotFound, results[2].Reason)

	assert.Equal(t, entity.StatusNotFound, results[3].Status)
	assert.Equal(t, entity.ReasonNothingFound, results[3].Reason)
}

func TestReconcileToUpdateCarriesInstructor(t *testing.T) {
	users := []entity.ZoomUser{
		{ID: "u1", DisplayName: "Maria Lopez"},
		{ID: "u2", DisplayName: "Carlos Ruiz", Email: "carlos@example.com"},
	}
	meetings := []entity.ZoomMeeting{{MeetingID: "m1", Topic: "Caterpillar Group 3", HostID: "u1"}}

	results, err := Reconcile(context.Background(), users, meetings, []entity.ScheduleRecord{
		{Instructor: "Carlos Ruiz", Program: "Caterpillar Group 3"},
	}, nil)
	require.NoError(t, err)

	require.NotNil(t, results[0].Instructor)
	assert.Equal(t, entity.StatusToUpdate, results[0].Status)
	assert.Equal(t, "u2", results[0].Instructor.ID)
	assert.Equal(t, "carlos@example.com", results[0].Instructor.Email)
}

func TestClassifyAllKeepsOrderAndReportsProgress(t *testing.T) {
	users := sampleUsers()
	meetings := sampleMeetings()

	schedules := make([]entity.ScheduleRecord, 250)
	for i := range schedules {
		if i%2 == 0 {
			schedules[i] = entity.ScheduleRecord{Instructor: "Maria Lopez", Program: "Caterpillar Group 3"}
		} else {
			schedules[i] = entity.ScheduleRecord{Instructor: "Nobody", Program: "Nothing"}
		}
	}

	rec := &progressRecorder{}
	results, err := NewClassifier(BuildMatchIndex(users, meetings), nil).
		ClassifyAll(context.Background(), schedules, 4, rec.Func())
	require.NoError(t, err)
	require.Len(t, results, 250)

	for i, r := range results {
		if i%2 == 0 {
			assert.Equal(t, entity.StatusAssigned, r.Status, "record %d", i)
		} else {
			assert.Equal(t, entity.StatusNotFound, r.Status, "record %d", i)
		}
	}

	msgs := rec.Messages()
	assert.Len(t, msgs, 25)
	assert.Contains(t, msgs, "Processing 250/250...")
}

func TestClassifyAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClassifier(BuildMatchIndex(sampleUsers(), sampleMeetings()), nil).
		ClassifyAll(ctx, make([]entity.ScheduleRecord, 10), 2, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterMeetings(t *testing.T) {
	idx := BuildMatchIndex(sampleUsers(), sampleMeetings())

	ids := func(ms []entity.ZoomMeeting) []string {
		out := make([]string, 0, len(ms))
		for _, m := range ms {
			out = append(out, m.MeetingID)
		}
		return out
	}

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(FilterMeetings(idx, MeetingFilter{})))
	assert.Equal(t, []string{"m2"}, ids(FilterMeetings(idx, MeetingFilter{Query: "adidas"})))
	assert.Equal(t, []string{"m3"}, ids(FilterMeetings(idx, MeetingFilter{Query: "m3"})))
	assert.Equal(t, []string{"m2"}, ids(FilterMeetings(idx, MeetingFilter{Host: "perez"})))
	assert.Equal(t, []string{"m3"}, ids(FilterMeetings(idx, MeetingFilter{Host: "unknown"})))
	assert.Empty(t, FilterMeetings(idx, MeetingFilter{Query: "adidas", Host: "lopez"}))
}
