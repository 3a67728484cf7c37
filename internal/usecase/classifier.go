package usecase

import (
	"context"
	"fmt"
	"sync/atomic"

	"chronos-reconciler/internal/domain/entity"
	"chronos-reconciler/pkg/utils"
	"chronos-reconciler/templates"

	"golang.org/x/sync/errgroup"
)

const (
	classifyChunkSize = 64
	progressEvery     = 10
)

// Classifier resolves schedule records against a MatchIndex
type Classifier struct {
	index  *MatchIndex
	scorer utils.Scorer
}

// NewClassifier creates a classifier. A nil scorer selects utils.TokenSetRatio.
func NewClassifier(index *MatchIndex, scorer utils.Scorer) *Classifier {
	if scorer == nil {
		scorer = utils.TokenSetRatio
	}
	return &Classifier{
		index:  index,
		scorer: scorer,
	}
}

// ResolveInstructor finds the user for a free-text instructor name:
// exact canonical key first, then fuzzy search.
func (c *Classifier) ResolveInstructor(name string) (*entity.ZoomUser, bool) {
	if u, ok := c.index.UserByCanonicalName(utils.Canonical(name)); ok {
		return u, true
	}
	return utils.FuzzyFind(name, c.index.InstructorChoices(), c.scorer, utils.InstructorThreshold)
}

// ResolveMeeting finds the meeting for a free-text program/group name:
// exact canonical key first, then fuzzy search.
func (c *Classifier) ResolveMeeting(program string) (*entity.ZoomMeeting, bool) {
	if m, ok := c.index.MeetingByCanonicalTopic(utils.Canonical(program)); ok {
		return m, true
	}
	return utils.FuzzyFind(program, c.index.MeetingChoices(), c.scorer, utils.MeetingThreshold)
}

// Classify derives the status and reason from the two resolution outcomes
func Classify(meeting *entity.ZoomMeeting, instructor *entity.ZoomUser) (entity.Status, string) {
	switch {
	case meeting != nil && instructor != nil && meeting.HostID == instructor.ID:
		return entity.StatusAssigned, entity.ReasonNone
	case meeting != nil && instructor != nil:
		return entity.StatusToUpdate, entity.ReasonNone
	case meeting != nil:
		return entity.StatusToUpdate, entity.ReasonInstructorNotFound
	case instructor != nil:
		return entity.StatusNotFound, entity.ReasonMeetingNotFound
	default:
		return entity.StatusNotFound, entity.ReasonNothingFound
	}
}

// ClassifyRecord builds the result of one schedule record
func (c *Classifier) ClassifyRecord(schedule entity.ScheduleRecord) entity.ReconciliationResult {
	instructor, _ := c.ResolveInstructor(schedule.Instructor)
	meeting, _ := c.ResolveMeeting(schedule.Program)

	status, reason := Classify(meeting, instructor)

	result := entity.ReconciliationResult{
		Schedule:    schedule,
		Status:      status,
		MeetingID:   entity.NoMeeting,
		Reason:      reason,
		StartTime24: schedule.StartTime24(),
		EndTime24:   schedule.EndTime24(),
	}
	if meeting != nil {
		result.MeetingID = meeting.MeetingID
		result.MeetingTopic = meeting.Topic
		result.CurrentHost = meeting.HostName
	}
	if status == entity.StatusToUpdate && instructor != nil {
		found := *instructor
		result.Instructor = &found
	}
	return result
}

// ClassifyAll classifies every record using up to workers goroutines.
// Results keep the input order. Cancelling ctx abandons the pass.
func (c *Classifier) ClassifyAll(ctx context.Context, schedules []entity.ScheduleRecord, workers int, progress ProgressFunc) ([]entity.ReconciliationResult, error) {
	results := make([]entity.ReconciliationResult, len(schedules))
	if len(schedules) == 0 {
		return results, nil
	}
	if workers < 1 {
		workers = 1
	}

	report := newProgressReporter(progress)
	total := len(schedules)
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < total; start += classifyChunkSize {
		end := min(start+classifyChunkSize, total)
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = c.ClassifyRecord(schedules[i])

				n := done.Add(1)
				if n%progressEvery == 0 || int(n) == total {
					report.Send(fmt.Sprintf(templates.MSG_ANALYZING, n, total))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
