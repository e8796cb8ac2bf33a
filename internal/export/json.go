package export

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
)

type jsonTasks struct {
	ExportedAt string     `json:"exported_at"`
	Count      int        `json:"count"`
	Tasks      []jsonTask `json:"tasks"`
}

type jsonTask struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	DefaultTargetHours float64 `json:"default_target_hours"`
	Tags               string  `json:"tags"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

func writeActivitiesJSON(out io.Writer, activities []store.Activity) error {
	doc := jsonTasks{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(activities),
	}
	for _, a := range activities {
		doc.Tasks = append(doc.Tasks, jsonTask{
			Name:               a.Name,
			Description:        a.Description,
			DefaultTargetHours: a.DefaultTargetHours,
			Tags:               a.Tags,
			IsActive:           store.Ptr(a.IsActive),
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal json")
	}
	if _, err := out.Write(data); err != nil {
		return eris.Wrap(err, "write json")
	}
	return nil
}

// readActivitiesJSON accepts either a bare list of tasks or an object with
// a "tasks" list.
func readActivitiesJSON(in io.Reader) ([]store.Activity, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, eris.Wrap(err, "read json")
	}

	var tasks []jsonTask
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return nil, eris.Wrap(err, "decode task list")
		}
	} else {
		var doc jsonTasks
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, eris.Wrap(err, "decode task document")
		}
		tasks = doc.Tasks
	}

	var activities []store.Activity
	for _, t := range tasks {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		active := true
		if t.IsActive != nil {
			active = *t.IsActive
		}
		activities = append(activities, store.Activity{
			Name:               name,
			Description:        t.Description,
			DefaultTargetHours: t.DefaultTargetHours,
			Tags:               t.Tags,
			IsActive:           active,
		})
	}
	return activities, nil
}

type jsonReport struct {
	ExportedAt string          `json:"exported_at"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Count      int             `json:"count"`
	Entries    []jsonEntry     `json:"entries"`
	Statistics []jsonStatistic `json:"statistics"`
}

type jsonEntry struct {
	Date              string  `json:"date"`
	Activity          string  `json:"activity"`
	DurationHours     float64 `json:"duration_hours"`
	Duration          string  `json:"duration"`
	Objectives        string  `json:"objectives_succeeded,omitempty"`
	TargetHours       float64 `json:"target_hours"`
	CompletionPercent float64 `json:"completion_percent"`
	StopReason        string  `json:"stop_reason,omitempty"`
	Comments          string  `json:"comments,omitempty"`
	PlanTotalHours    float64 `json:"plan_total_hours"`
	PlanDays          int     `json:"plan_days"`
}

type jsonStatistic struct {
	Activity             string  `json:"activity"`
	TotalHours           float64 `json:"total_hours"`
	AvgHoursPerEntry     float64 `json:"avg_hours_per_entry"`
	AvgCompletionPercent float64 `json:"avg_completion_percent"`
}

// EntriesToJSON writes the entries of [from, to] together with their
// per-activity statistics.
func EntriesToJSON(rows []store.EntryRow, stats []store.ActivityStats, from, to time.Time, path string) error {
	report := jsonReport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
		Count:      len(rows),
	}
	for _, e := range rows {
		report.Entries = append(report.Entries, jsonEntry{
			Date:              e.Date.Format("2006-01-02"),
			Activity:          e.ActivityName,
			DurationHours:     e.DurationHours,
			Duration:          formatDuration(e.DurationHours),
			Objectives:        e.Objectives,
			TargetHours:       e.TargetHours,
			CompletionPercent: e.CompletionPercent,
			StopReason:        e.StopReason,
			Comments:          e.Comments,
			PlanTotalHours:    e.PlanTotalHours,
			PlanDays:          e.PlanDays,
		})
	}
	for _, s := range stats {
		report.Statistics = append(report.Statistics, jsonStatistic{
			Activity:             s.ActivityName,
			TotalHours:           s.TotalHours,
			AvgHoursPerEntry:     s.AvgHoursPerEntry,
			AvgCompletionPercent: s.AvgCompletionPercent,
		})
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal json")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write json file")
	}
	return nil
}
