package store

import (
	"database/sql"
	"math"
	"time"

	"github.com/rotisserie/eris"
)

const entryColumns = `id, date, activity_id, duration_hours, COALESCE(objectives_succeeded, ''),
	COALESCE(target_hours, 0), COALESCE(completion_percent, 0), COALESCE(stop_reason, ''),
	COALESCE(comments, ''), COALESCE(plan_total_hours, 0), COALESCE(plan_days, 1)`

// GetDailyEntry looks up the entry for (date, activityID). It returns
// ErrNotFound when no session has been logged yet.
func (s *Store) GetDailyEntry(date time.Time, activityID int64) (*DailyEntry, error) {
	return getDailyEntry(s.db, date, activityID)
}

func getDailyEntry(q querier, date time.Time, activityID int64) (*DailyEntry, error) {
	row := q.QueryRow(
		`SELECT `+entryColumns+` FROM daily_entries WHERE date = ? AND activity_id = ?`,
		formatDate(date), activityID,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "entry %s for activity %d", formatDate(date), activityID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get entry %s for activity %d", formatDate(date), activityID)
	}
	return e, nil
}

// UpsertDailyEntry merges one session into the entry for (date, activityID).
// The duration is always added to what is stored; every other field replaces
// the stored value when set and keeps it when nil. A new row starts from
// zero values with PlanDays = 1.
//
// The read and the write happen in one transaction.
func (s *Store) UpsertDailyEntry(date time.Time, activityID int64, durationDelta float64, f EntryFields) (*DailyEntry, error) {
	if err := validateEntry(durationDelta, f); err != nil {
		return nil, err
	}

	var merged *DailyEntry
	err := s.withTx(func(tx *sql.Tx) error {
		existing, err := getDailyEntry(tx, date, activityID)
		switch {
		case eris.Is(err, ErrNotFound):
			e := &DailyEntry{
				Date:          DateOf(date),
				ActivityID:    activityID,
				DurationHours: durationDelta,
				PlanDays:      1,
			}
			f.applyTo(e)
			if err := insertEntry(tx, e); err != nil {
				return err
			}
			merged = e
			s.log.Debug("created daily entry", "date", formatDate(date), "activity", activityID, "hours", e.DurationHours)
			return nil
		case err != nil:
			return err
		}

		existing.DurationHours += durationDelta
		f.applyTo(existing)
		if err := updateEntry(tx, existing); err != nil {
			return err
		}
		merged = existing
		s.log.Debug("merged daily entry", "date", formatDate(date), "activity", activityID, "hours", existing.DurationHours)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

func insertEntry(tx *sql.Tx, e *DailyEntry) error {
	res, err := tx.Exec(
		`INSERT INTO daily_entries (date, activity_id, duration_hours, objectives_succeeded, target_hours,
		 completion_percent, stop_reason, comments, plan_total_hours, plan_days)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatDate(e.Date), e.ActivityID, e.DurationHours, e.ObjectivesSucceeded, e.TargetHours,
		e.CompletionPercent, e.StopReason, e.Comments, e.PlanTotalHours, e.PlanDays,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return eris.Wrapf(ErrNotFound, "activity %d", e.ActivityID)
		}
		return eris.Wrapf(err, "insert entry %s for activity %d", formatDate(e.Date), e.ActivityID)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return eris.Wrap(err, "get last insert id")
	}
	e.ID = id
	return nil
}

func updateEntry(tx *sql.Tx, e *DailyEntry) error {
	_, err := tx.Exec(
		`UPDATE daily_entries
		 SET duration_hours = ?, objectives_succeeded = ?, target_hours = ?, completion_percent = ?,
		     stop_reason = ?, comments = ?, plan_total_hours = ?, plan_days = ?
		 WHERE id = ?`,
		e.DurationHours, e.ObjectivesSucceeded, e.TargetHours, e.CompletionPercent,
		e.StopReason, e.Comments, e.PlanTotalHours, e.PlanDays, e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "update entry %d", e.ID)
	}
	return nil
}

func validateEntry(durationDelta float64, f EntryFields) error {
	if math.IsNaN(durationDelta) || durationDelta < 0 {
		return eris.Wrapf(ErrInvalidInput, "duration delta %v must be >= 0", durationDelta)
	}
	if f.TargetHours != nil && (math.IsNaN(*f.TargetHours) || *f.TargetHours < 0) {
		return eris.Wrapf(ErrInvalidInput, "target hours %v must be >= 0", *f.TargetHours)
	}
	if f.CompletionPercent != nil {
		p := *f.CompletionPercent
		if math.IsNaN(p) || p < 0 || p > 100 {
			return eris.Wrapf(ErrInvalidInput, "completion percent %v must be within 0-100", p)
		}
	}
	if f.PlanTotalHours != nil && (math.IsNaN(*f.PlanTotalHours) || *f.PlanTotalHours < 0) {
		return eris.Wrapf(ErrInvalidInput, "plan total hours %v must be >= 0", *f.PlanTotalHours)
	}
	if f.PlanDays != nil && *f.PlanDays < 1 {
		return eris.Wrapf(ErrInvalidInput, "plan days %d must be >= 1", *f.PlanDays)
	}
	return nil
}

// DeleteDailyEntry removes the entry for (date, activityID).
func (s *Store) DeleteDailyEntry(date time.Time, activityID int64) error {
	res, err := s.db.Exec(
		`DELETE FROM daily_entries WHERE date = ? AND activity_id = ?`, formatDate(date), activityID,
	)
	if err != nil {
		return eris.Wrapf(err, "delete entry %s for activity %d", formatDate(date), activityID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "get rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "entry %s for activity %d", formatDate(date), activityID)
	}
	return nil
}

func (s *Store) GetDailyEntriesByDate(date time.Time) ([]DailyEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryColumns+` FROM daily_entries WHERE date = ? ORDER BY activity_id`, formatDate(date),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "list entries for %s", formatDate(date))
	}
	defer rows.Close()

	var entries []DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan entry row")
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate entry rows")
	}
	return entries, nil
}

// GetEntriesBetween returns entries joined with activity names for the
// inclusive range [from, to], ordered by date.
func (s *Store) GetEntriesBetween(from, to time.Time) ([]EntryRow, error) {
	rows, err := s.db.Query(`
		SELECT de.date, a.name, de.duration_hours, COALESCE(de.objectives_succeeded, ''),
		       COALESCE(de.target_hours, 0), COALESCE(de.completion_percent, 0),
		       COALESCE(de.stop_reason, ''), COALESCE(de.comments, ''),
		       COALESCE(de.plan_total_hours, 0), COALESCE(de.plan_days, 1)
		FROM daily_entries de
		JOIN activities a ON a.id = de.activity_id
		WHERE de.date BETWEEN ? AND ?
		ORDER BY de.date ASC, a.name ASC`,
		formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, eris.Wrap(err, "query entries between")
	}
	defer rows.Close()

	var out []EntryRow
	for rows.Next() {
		var r EntryRow
		var day string
		if err := rows.Scan(&day, &r.ActivityName, &r.DurationHours, &r.Objectives, &r.TargetHours,
			&r.CompletionPercent, &r.StopReason, &r.Comments, &r.PlanTotalHours, &r.PlanDays); err != nil {
			return nil, eris.Wrap(err, "scan entry row")
		}
		if r.Date, err = parseDate(day); err != nil {
			return nil, eris.Wrapf(err, "parse entry date %q", day)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate entry rows")
	}
	return out, nil
}

// GetStatisticsByActivity aggregates the inclusive range [from, to] per
// activity, ordered by total hours descending. The order of ties is
// unspecified.
func (s *Store) GetStatisticsByActivity(from, to time.Time) ([]ActivityStats, error) {
	rows, err := s.db.Query(`
		SELECT a.name,
		       COALESCE(SUM(de.duration_hours), 0) AS total_hours,
		       COALESCE(AVG(de.duration_hours), 0),
		       COALESCE(AVG(de.completion_percent), 0)
		FROM daily_entries de
		JOIN activities a ON a.id = de.activity_id
		WHERE de.date BETWEEN ? AND ?
		GROUP BY a.id, a.name
		ORDER BY total_hours DESC, a.id`,
		formatDate(from), formatDate(to),
	)
	if err != nil {
		return nil, eris.Wrap(err, "query statistics by activity")
	}
	defer rows.Close()

	var stats []ActivityStats
	for rows.Next() {
		var st ActivityStats
		if err := rows.Scan(&st.ActivityName, &st.TotalHours, &st.AvgHoursPerEntry, &st.AvgCompletionPercent); err != nil {
			return nil, eris.Wrap(err, "scan statistics row")
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate statistics rows")
	}
	return stats, nil
}

func scanEntry(r rowScanner) (*DailyEntry, error) {
	e := &DailyEntry{}
	var day string
	if err := r.Scan(&e.ID, &day, &e.ActivityID, &e.DurationHours, &e.ObjectivesSucceeded, &e.TargetHours,
		&e.CompletionPercent, &e.StopReason, &e.Comments, &e.PlanTotalHours, &e.PlanDays); err != nil {
		return nil, err
	}
	d, err := parseDate(day)
	if err != nil {
		return nil, eris.Wrapf(err, "parse entry date %q", day)
	}
	e.Date = d
	return e, nil
}
