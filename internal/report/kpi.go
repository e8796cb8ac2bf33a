// Package report derives productivity KPIs from daily entry rows. Nothing
// here touches the database.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/store"
)

// NominalDayHours is the length of a working day; hours beyond it on a
// date count as overtime.
const NominalDayHours = 8.0

// Score weights.
const (
	focusWeight     = 0.6
	completedWeight = 0.3
	switchPenalty   = 0.1
)

// ActivityHours is the total logged against one activity.
type ActivityHours struct {
	Activity string
	Hours    float64
}

// KPIs summarizes a range of entries. Ratio fields are nil when their
// denominator is zero.
type KPIs struct {
	Entries        int
	ActualHours    float64
	PlannedHours   float64
	FocusedHours   float64
	CompletedTasks int

	PlannedVsActual *float64 // actual / planned, percent
	FocusRatio      *float64 // focused / actual, percent
	CompletionRate  *float64 // entries at 100%, percent
	AvgTaskHours    *float64

	HoursByActivity []ActivityHours // descending by hours
	Switches        int
	OvertimeHours   float64
	Productivity    float64
}

// PlannedHours is the plan for a single entry: its own target when set,
// otherwise the per-day share of a multi-day plan, otherwise zero.
func PlannedHours(r store.EntryRow) float64 {
	if r.TargetHours > 0 {
		return r.TargetHours
	}
	if r.PlanTotalHours > 0 {
		days := r.PlanDays
		if days < 1 {
			days = 1
		}
		return r.PlanTotalHours / float64(days)
	}
	return 0
}

// Compute returns the KPIs of rows. An empty input yields a zero KPIs.
func Compute(rows []store.EntryRow) KPIs {
	var k KPIs
	if len(rows) == 0 {
		return k
	}
	k.Entries = len(rows)

	byActivity := make(map[string]float64)
	dayHours := make(map[time.Time]float64)
	dayActivities := make(map[time.Time]map[string]struct{})

	for _, r := range rows {
		k.ActualHours += r.DurationHours
		k.PlannedHours += PlannedHours(r)
		k.FocusedHours += r.DurationHours * r.CompletionPercent / 100
		if r.CompletionPercent >= 100 {
			k.CompletedTasks++
		}

		byActivity[r.ActivityName] += r.DurationHours

		day := store.DateOf(r.Date)
		dayHours[day] += r.DurationHours
		if dayActivities[day] == nil {
			dayActivities[day] = make(map[string]struct{})
		}
		dayActivities[day][r.ActivityName] = struct{}{}
	}

	if k.PlannedHours > 0 {
		k.PlannedVsActual = percent(k.ActualHours, k.PlannedHours)
	}
	if k.ActualHours > 0 {
		k.FocusRatio = percent(k.FocusedHours, k.ActualHours)
	}
	k.CompletionRate = percent(float64(k.CompletedTasks), float64(k.Entries))
	avg := k.ActualHours / float64(k.Entries)
	k.AvgTaskHours = &avg

	for name, hours := range byActivity {
		k.HoursByActivity = append(k.HoursByActivity, ActivityHours{Activity: name, Hours: hours})
	}
	sort.Slice(k.HoursByActivity, func(i, j int) bool {
		a, b := k.HoursByActivity[i], k.HoursByActivity[j]
		if a.Hours != b.Hours {
			return a.Hours > b.Hours
		}
		return a.Activity < b.Activity
	})

	for day, names := range dayActivities {
		if n := len(names); n > 1 {
			k.Switches += n - 1
		}
		if over := dayHours[day] - NominalDayHours; over > 0 {
			k.OvertimeHours += over
		}
	}

	k.Productivity = k.FocusedHours*focusWeight +
		float64(k.CompletedTasks)*completedWeight -
		float64(k.Switches)*switchPenalty
	return k
}

func percent(num, den float64) *float64 {
	v := num / den * 100
	return &v
}

// Line is one labelled KPI value ready for display.
type Line struct {
	Label string
	Value string
}

// Lines renders k in a fixed order.
func (k KPIs) Lines() []Line {
	var parts []string
	for _, a := range k.HoursByActivity {
		parts = append(parts, fmt.Sprintf("%s: %.1fh", a.Activity, a.Hours))
	}
	return []Line{
		{"Planned vs actual", formatPercent(k.PlannedVsActual)},
		{"Focus ratio", formatPercent(k.FocusRatio)},
		{"Hours by activity", strings.Join(parts, ", ")},
		{"Task switches", fmt.Sprintf("%d", k.Switches)},
		{"Overtime", fmt.Sprintf("%.1fh", k.OvertimeHours)},
		{"Completion rate", formatPercent(k.CompletionRate)},
		{"Avg task duration", formatHours(k.AvgTaskHours)},
		{"Productivity score", fmt.Sprintf("%.1f", k.Productivity)},
	}
}

func formatPercent(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.0f%%", *v)
}

func formatHours(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2fh", *v)
}
