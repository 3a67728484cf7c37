package entity

import "chronos-reconciler/pkg/utils"

// ScheduleRecord is one parsed timetable row
type ScheduleRecord struct {
	Date       string `json:"date" bson:"date"`
	Shift      string `json:"shift" bson:"shift"`
	Area       string `json:"area" bson:"area"`
	StartTime  string `json:"startTime" bson:"startTime"` // one or more comma separated 12-hour times
	EndTime    string `json:"endTime" bson:"endTime"`
	Code       string `json:"code" bson:"code"`
	Instructor string `json:"instructor" bson:"instructor"`
	Program    string `json:"program" bson:"program"`
	Minutes    string `json:"minutes" bson:"minutes"`
	Units      int    `json:"units" bson:"units" validate:"gte=0"`
}

// ScheduleKey identifies a schedule record. Minutes and units are left out
// so re-imported rows with a different duration still collapse.
type ScheduleKey struct {
	Date, Shift, Area, StartTime, EndTime, Code, Instructor, Program string
}

// Key returns the identity of the record
func (s ScheduleRecord) Key() ScheduleKey {
	return ScheduleKey{
		Date:       s.Date,
		Shift:      s.Shift,
		Area:       s.Area,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Code:       s.Code,
		Instructor: s.Instructor,
		Program:    s.Program,
	}
}

// Equal reports whether two records describe the same class
func (s ScheduleRecord) Equal(other ScheduleRecord) bool {
	return s.Key() == other.Key()
}

// StartTime24 returns the start time(s) in 24-hour format
func (s ScheduleRecord) StartTime24() string {
	return utils.To24Hour(s.StartTime)
}

// EndTime24 returns the end time(s) in 24-hour format
func (s ScheduleRecord) EndTime24() string {
	return utils.To24Hour(s.EndTime)
}

// DeduplicateSchedules appends the records of incoming that are not already
// present in existing (or earlier in incoming) and reports how many were
// skipped as duplicates.
func DeduplicateSchedules(existing, incoming []ScheduleRecord) ([]ScheduleRecord, int) {
	seen := make(map[ScheduleKey]struct{}, len(existing)+len(incoming))
	for _, s := range existing {
		seen[s.Key()] = struct{}{}
	}

	unique := make([]ScheduleRecord, 0, len(incoming))
	duplicates := 0
	for _, s := range incoming {
		key := s.Key()
		if _, dup := seen[key]; dup {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, s)
	}
	return unique, duplicates
}
