package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
)

var activityHeader = []string{"name", "description", "default_target_hours", "tags", "is_active"}

func writeActivitiesCSV(out io.Writer, activities []store.Activity) error {
	w := csv.NewWriter(out)
	if err := w.Write(activityHeader); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, a := range activities {
		active := "0"
		if a.IsActive {
			active = "1"
		}
		row := []string{
			a.Name,
			a.Description,
			strconv.FormatFloat(a.DefaultTargetHours, 'f', -1, 64),
			a.Tags,
			active,
		}
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "write activity %q", a.Name)
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

// readActivitiesCSV maps columns by header name, so column order and extra
// columns do not matter. Only "name" is required.
func readActivitiesCSV(in io.Reader) ([]store.Activity, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, eris.New(`csv header has no "name" column`)
	}
	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var activities []store.Activity
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read csv line %d", line)
		}
		name := field(row, "name")
		if name == "" {
			continue
		}
		target, err := parseHours(field(row, "default_target_hours"))
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		active, err := parseActive(field(row, "is_active"))
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		activities = append(activities, store.Activity{
			Name:               name,
			Description:        field(row, "description"),
			DefaultTargetHours: target,
			Tags:               field(row, "tags"),
			IsActive:           active,
		})
	}
	return activities, nil
}

func parseHours(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "default_target_hours %q", s)
	}
	return v, nil
}

// parseActive treats a missing value as active.
func parseActive(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, eris.Errorf("is_active %q is not a boolean", s)
}

var entryHeader = []string{
	"date", "activity", "duration_hours", "duration", "objectives_succeeded", "target_hours",
	"completion_percent", "stop_reason", "comments", "plan_total_hours", "plan_days",
}

// EntriesToCSV writes one row per daily entry.
func EntriesToCSV(rows []store.EntryRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "create csv file")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(entryHeader); err != nil {
		return eris.Wrap(err, "write csv header")
	}
	for _, e := range rows {
		row := []string{
			e.Date.Format("2006-01-02"),
			e.ActivityName,
			strconv.FormatFloat(e.DurationHours, 'f', 2, 64),
			formatDuration(e.DurationHours),
			e.Objectives,
			strconv.FormatFloat(e.TargetHours, 'f', -1, 64),
			strconv.FormatFloat(e.CompletionPercent, 'f', -1, 64),
			e.StopReason,
			e.Comments,
			strconv.FormatFloat(e.PlanTotalHours, 'f', -1, 64),
			fmt.Sprintf("%d", e.PlanDays),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "write entry row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "flush csv")
	}
	return f.Close()
}
