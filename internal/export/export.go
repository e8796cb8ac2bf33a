// Package export moves activity metadata in and out of CSV and JSON files,
// and writes daily entry reports.
package export

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and .json.
var ErrUnsupportedFormat = eris.New("unsupported file format")

// ActivityLister is the part of the store ExportTasks reads from.
type ActivityLister interface {
	ListActivities(includeInactive bool) ([]store.Activity, error)
}

// ActivityImporter is the part of the store ImportTasks writes to.
type ActivityImporter interface {
	ImportActivities(activities []store.Activity) (int, error)
}

type format int

const (
	formatCSV format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return formatCSV, nil
	case ".json":
		return formatJSON, nil
	}
	return 0, eris.Wrapf(ErrUnsupportedFormat, "%s", path)
}

// ExportTasks writes every activity, active or not, to path. The format
// follows the extension. It returns the number of activities written.
func ExportTasks(src ActivityLister, path string) (int, error) {
	f, err := formatOf(path)
	if err != nil {
		return 0, err
	}
	activities, err := src.ListActivities(true)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "create export file")
	}
	defer out.Close()

	switch f {
	case formatJSON:
		err = writeActivitiesJSON(out, activities)
	default:
		err = writeActivitiesCSV(out, activities)
	}
	if err != nil {
		return 0, err
	}
	if err := out.Close(); err != nil {
		return 0, eris.Wrap(err, "close export file")
	}
	return len(activities), nil
}

// ImportTasks reads activities from path and inserts those whose names are
// free. It returns how many were inserted.
func ImportTasks(dst ActivityImporter, path string) (int, error) {
	activities, err := ReadActivities(path)
	if err != nil {
		return 0, err
	}
	return dst.ImportActivities(activities)
}

// ReadActivities parses an activity file without touching the store.
// Rows without a name are dropped.
func ReadActivities(path string) ([]store.Activity, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	in, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open import file")
	}
	defer in.Close()

	var activities []store.Activity
	switch f {
	case formatJSON:
		activities, err = readActivitiesJSON(in)
	default:
		activities, err = readActivitiesCSV(in)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return activities, nil
}

// formatDuration renders fractional hours as HH:MM:SS.
func formatDuration(hours float64) string {
	secs := int64(math.Round(hours * 3600))
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
