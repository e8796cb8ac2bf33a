package store

import "time"

// Activity is a named, trackable unit of work.
type Activity struct {
	ID                 int64
	Name               string
	Description        string
	DefaultTargetHours float64
	Tags               string
	IsActive           bool
}

// ActivityUpdate carries the fields to change on an activity. Nil fields are
// left untouched.
type ActivityUpdate struct {
	Name               *string
	Description        *string
	DefaultTargetHours *float64
	Tags               *string
	IsActive           *bool
}

func (u ActivityUpdate) empty() bool {
	return u.Name == nil && u.Description == nil && u.DefaultTargetHours == nil &&
		u.Tags == nil && u.IsActive == nil
}

// DailyEntry is the single merged record for one activity on one date.
type DailyEntry struct {
	ID                  int64
	Date                time.Time // calendar date, midnight UTC
	ActivityID          int64
	DurationHours       float64
	ObjectivesSucceeded string
	TargetHours         float64
	CompletionPercent   float64
	StopReason          string
	Comments            string
	PlanTotalHours      float64
	PlanDays            int
}

// EntryFields are the optional outcome fields of a merge-upsert. A nil field
// keeps the stored value; a non-nil field replaces it.
type EntryFields struct {
	Objectives        *string
	TargetHours       *float64
	CompletionPercent *float64
	StopReason        *string
	Comments          *string
	PlanTotalHours    *float64
	PlanDays          *int
}

func (f EntryFields) applyTo(e *DailyEntry) {
	if f.Objectives != nil {
		e.ObjectivesSucceeded = *f.Objectives
	}
	if f.TargetHours != nil {
		e.TargetHours = *f.TargetHours
	}
	if f.CompletionPercent != nil {
		e.CompletionPercent = *f.CompletionPercent
	}
	if f.StopReason != nil {
		e.StopReason = *f.StopReason
	}
	if f.Comments != nil {
		e.Comments = *f.Comments
	}
	if f.PlanTotalHours != nil {
		e.PlanTotalHours = *f.PlanTotalHours
	}
	if f.PlanDays != nil {
		e.PlanDays = *f.PlanDays
	}
}

// EntryRow is a daily entry joined with its activity name, as returned by
// range queries.
type EntryRow struct {
	Date              time.Time
	ActivityName      string
	DurationHours     float64
	Objectives        string
	TargetHours       float64
	CompletionPercent float64
	StopReason        string
	Comments          string
	PlanTotalHours    float64
	PlanDays          int
}

// ActivityStats aggregates entries per activity over a date range.
type ActivityStats struct {
	ActivityName         string
	TotalHours           float64
	AvgHoursPerEntry     float64
	AvgCompletionPercent float64
}

// Ptr returns a pointer to v, for filling optional update fields.
func Ptr[T any](v T) *T {
	return &v
}

const dateLayout = "2006-01-02"

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
