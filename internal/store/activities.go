package store

import (
	"database/sql"
	"strings"

	"github.com/rotisserie/eris"
)

const activityColumns = `id, name, COALESCE(description, ''), COALESCE(default_target_hours, 0),
	COALESCE(tags, ''), is_active`

// CreateActivity inserts a new active activity. A taken name yields
// ErrDuplicateName and leaves the table unchanged.
func (s *Store) CreateActivity(name, description string, defaultTargetHours float64, tags string) (*Activity, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, eris.Wrap(ErrInvalidInput, "activity name is empty")
	}
	if defaultTargetHours < 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "default target hours %v is negative", defaultTargetHours)
	}

	res, err := s.db.Exec(
		`INSERT INTO activities (name, description, default_target_hours, tags, is_active) VALUES (?, ?, ?, ?, 1)`,
		name, description, defaultTargetHours, tags,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, eris.Wrapf(ErrDuplicateName, "create activity %q", name)
		}
		return nil, eris.Wrapf(err, "insert activity %q", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "get last insert id")
	}
	s.log.Info("created activity", "id", id, "name", name)

	return &Activity{
		ID:                 id,
		Name:               name,
		Description:        description,
		DefaultTargetHours: defaultTargetHours,
		Tags:               tags,
		IsActive:           true,
	}, nil
}

func (s *Store) GetActivity(id int64) (*Activity, error) {
	row := s.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "activity %d", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get activity %d", id)
	}
	return a, nil
}

func (s *Store) GetActivityByName(name string) (*Activity, error) {
	row := s.db.QueryRow(`SELECT `+activityColumns+` FROM activities WHERE name = ?`, name)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "activity %q", name)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "get activity %q", name)
	}
	return a, nil
}

// ListActivities returns activities ordered by name.
func (s *Store) ListActivities(includeInactive bool) ([]Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, eris.Wrap(err, "list activities")
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan activity row")
		}
		activities = append(activities, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate activity rows")
	}
	return activities, nil
}

// UpdateActivity changes only the fields set in u.
func (s *Store) UpdateActivity(id int64, u ActivityUpdate) error {
	if u.empty() {
		return nil
	}

	var (
		parts []string
		args  []any
	)
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return eris.Wrap(ErrInvalidInput, "activity name is empty")
		}
		parts = append(parts, "name = ?")
		args = append(args, name)
	}
	if u.Description != nil {
		parts = append(parts, "description = ?")
		args = append(args, *u.Description)
	}
	if u.DefaultTargetHours != nil {
		if *u.DefaultTargetHours < 0 {
			return eris.Wrapf(ErrInvalidInput, "default target hours %v is negative", *u.DefaultTargetHours)
		}
		parts = append(parts, "default_target_hours = ?")
		args = append(args, *u.DefaultTargetHours)
	}
	if u.Tags != nil {
		parts = append(parts, "tags = ?")
		args = append(args, *u.Tags)
	}
	if u.IsActive != nil {
		parts = append(parts, "is_active = ?")
		args = append(args, boolToInt(*u.IsActive))
	}
	args = append(args, id)

	res, err := s.db.Exec(`UPDATE activities SET `+strings.Join(parts, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return eris.Wrapf(ErrDuplicateName, "rename activity %d", id)
		}
		return eris.Wrapf(err, "update activity %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "get rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "activity %d", id)
	}
	s.log.Info("updated activity", "id", id)
	return nil
}

// DeleteActivity removes the activity and every daily entry referencing it.
// Entries are deleted explicitly because databases created by early
// versions have no ON DELETE CASCADE.
func (s *Store) DeleteActivity(id int64) error {
	var removed int64
	err := s.withTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(`DELETE FROM daily_entries WHERE activity_id = ?`, id)
		if err != nil {
			return eris.Wrapf(err, "delete entries of activity %d", id)
		}
		removed, _ = res.RowsAffected()

		res, err = tx.Exec(`DELETE FROM activities WHERE id = ?`, id)
		if err != nil {
			return eris.Wrapf(err, "delete activity %d", id)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return eris.Wrap(err, "get rows affected")
		}
		if n == 0 {
			return eris.Wrapf(ErrNotFound, "activity %d", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("deleted activity", "id", id, "entries", removed)
	return nil
}

// ImportActivities inserts activities whose names are not yet taken and
// returns how many were inserted. Duplicates and blank names are skipped.
func (s *Store) ImportActivities(activities []Activity) (int, error) {
	imported := 0
	err := s.withTx(func(tx *sql.Tx) error {
		for _, a := range activities {
			name := strings.TrimSpace(a.Name)
			if name == "" {
				continue
			}
			target := a.DefaultTargetHours
			if target < 0 {
				target = 0
			}
			res, err := tx.Exec(
				`INSERT INTO activities (name, description, default_target_hours, tags, is_active)
				 VALUES (?, ?, ?, ?, ?) ON CONFLICT(name) DO NOTHING`,
				name, a.Description, target, a.Tags, boolToInt(a.IsActive),
			)
			if err != nil {
				return eris.Wrapf(err, "import activity %q", name)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return eris.Wrap(err, "get rows affected")
			}
			if n == 0 {
				s.log.Info("skipped duplicate activity during import", "name", name)
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("imported activities", "count", imported, "rows", len(activities))
	return imported, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(r rowScanner) (*Activity, error) {
	a := &Activity{}
	var active int
	if err := r.Scan(&a.ID, &a.Name, &a.Description, &a.DefaultTargetHours, &a.Tags, &active); err != nil {
		return nil, err
	}
	a.IsActive = active == 1
	return a, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
