package entity

import (
	"encoding/json"
	"fmt"
)

// Status is the outcome of classifying one schedule record
type Status int

const (
	// StatusAssigned means the meeting is already hosted by the instructor
	StatusAssigned Status = iota
	// StatusToUpdate means the meeting was found but needs a new host
	StatusToUpdate
	// StatusNotFound means no meeting could be resolved
	StatusNotFound
)

// Reasons attached to reconciliation results
const (
	ReasonNone               = "none"
	ReasonInstructorNotFound = "Instructor not found"
	ReasonMeetingNotFound    = "Meeting not found"
	ReasonNothingFound       = "Neither meeting nor instructor found"
)

// NoMeeting is the meeting id reported when no meeting was resolved
const NoMeeting = "none"

func (s Status) String() string {
	switch s {
	case StatusAssigned:
		return "assigned"
	case StatusToUpdate:
		return "to_update"
	case StatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the status as its string form
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the string form
func (s *Status) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v {
	case "assigned":
		*s = StatusAssigned
	case "to_update":
		*s = StatusToUpdate
	case "not_found":
		*s = StatusNotFound
	default:
		return fmt.Errorf("unknown status %q", v)
	}
	return nil
}

// ReconciliationResult is the classification of one schedule record
type ReconciliationResult struct {
	Schedule  ScheduleRecord `json:"schedule"`
	Status    Status         `json:"status"`
	MeetingID string         `json:"meetingId"`
	Reason    string         `json:"reason"`

	// Instructor is set only for StatusToUpdate results with a resolved instructor
	Instructor *ZoomUser `json:"instructor,omitempty"`

	// Display helpers
	MeetingTopic string `json:"meetingTopic,omitempty"`
	CurrentHost  string `json:"currentHost,omitempty"`
	StartTime24  string `json:"startTime24,omitempty"`
	EndTime24    string `json:"endTime24,omitempty"`
}

// ReconciliationSummary counts results per status
type ReconciliationSummary struct {
	Assigned int `json:"assigned"`
	ToUpdate int `json:"toUpdate"`
	NotFound int `json:"notFound"`
}

// Summarize counts results per status
func Summarize(results []ReconciliationResult) ReconciliationSummary {
	var s ReconciliationSummary
	for _, r := range results {
		switch r.Status {
		case StatusAssigned:
			s.Assigned++
		case StatusToUpdate:
			s.ToUpdate++
		case StatusNotFound:
			s.NotFound++
		}
	}
	return s
}

// AssignmentCommand asks for a meeting to be moved to a new host
type AssignmentCommand struct {
	MeetingID    string `json:"meetingId" validate:"required"`
	NewHostEmail string `json:"newHostEmail" validate:"required,email"`
	NewHostID    string `json:"newHostId" validate:"required"`
	Topic        string `json:"topic"`
}

// CommandFromResult derives the command for a result that needs a new host.
// It returns false when the result is not actionable.
func CommandFromResult(r ReconciliationResult) (AssignmentCommand, bool) {
	if r.Status != StatusToUpdate || r.Instructor == nil || r.MeetingID == "" || r.MeetingID == NoMeeting {
		return AssignmentCommand{}, false
	}
	topic := r.MeetingTopic
	if topic == "" {
		topic = r.Schedule.Program
	}
	return AssignmentCommand{
		MeetingID:    r.MeetingID,
		NewHostEmail: r.Instructor.Email,
		NewHostID:    r.Instructor.ID,
		Topic:        topic,
	}, true
}

// CommandsFromResults derives commands for every actionable result
func CommandsFromResults(results []ReconciliationResult) []AssignmentCommand {
	var cmds []AssignmentCommand
	for _, r := range results {
		if cmd, ok := CommandFromResult(r); ok {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

// UpdateOutcome is the result of applying one command, or of a batch flush
type UpdateOutcome struct {
	Success   bool   `json:"success"`
	MeetingID string `json:"meetingId,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// UpdateReport aggregates outcomes of an update pass
type UpdateReport struct {
	Successes []UpdateOutcome `json:"successes"`
	Errors    []UpdateOutcome `json:"errors"`
}
