package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/rotisserie/eris"
)

//go:embed schema/001_base.sql
var baseSchema string

// migration is one idempotent schema step. Every step checks its own
// precondition, so the whole list is applied on every open regardless of the
// database's vintage.
type migration struct {
	name  string
	apply func(tx *sql.Tx) (changed bool, err error)
}

// migrations is ordered and append-only. Columns added after the first
// release are listed individually; fresh databases already have them from
// the base schema and skip the ALTER.
var migrations = []migration{
	{name: "base schema", apply: execSchema(baseSchema)},
	addColumn("daily_entries", "target_hours", "REAL NOT NULL DEFAULT 0"),
	addColumn("daily_entries", "completion_percent", "REAL NOT NULL DEFAULT 0"),
	addColumn("daily_entries", "stop_reason", "TEXT NOT NULL DEFAULT ''"),
	addColumn("daily_entries", "comments", "TEXT NOT NULL DEFAULT ''"),
	addColumn("daily_entries", "plan_total_hours", "REAL NOT NULL DEFAULT 0"),
	addColumn("daily_entries", "plan_days", "INTEGER NOT NULL DEFAULT 1"),
	addColumn("activities", "description", "TEXT NOT NULL DEFAULT ''"),
	addColumn("activities", "default_target_hours", "REAL NOT NULL DEFAULT 0"),
	addColumn("activities", "tags", "TEXT NOT NULL DEFAULT ''"),
	addColumn("activities", "is_active", "INTEGER NOT NULL DEFAULT 1"),
}

// migrate applies every step in a single transaction and records the step
// count in user_version.
func (s *Store) migrate() error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, m := range migrations {
			changed, err := m.apply(tx)
			if err != nil {
				return eris.Wrapf(err, "migration %q", m.name)
			}
			if changed {
				s.log.Info("applied schema migration", "step", m.name)
			}
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", len(migrations))); err != nil {
			return eris.Wrap(err, "set user_version")
		}
		return nil
	})
}

func execSchema(ddl string) func(tx *sql.Tx) (bool, error) {
	return func(tx *sql.Tx) (bool, error) {
		if _, err := tx.Exec(ddl); err != nil {
			return false, err
		}
		return false, nil
	}
}

// addColumn adds table.column only when the live table lacks it. Extra
// unknown columns are ignored.
func addColumn(table, column, ddl string) migration {
	return migration{
		name: table + "." + column,
		apply: func(tx *sql.Tx) (bool, error) {
			exists, err := hasColumn(tx, table, column)
			if err != nil {
				return false, err
			}
			if exists {
				return false, nil
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl)
			if _, err := tx.Exec(stmt); err != nil {
				return false, eris.Wrapf(err, "add column %s.%s", table, column)
			}
			return true, nil
		},
	}
}

func hasColumn(q querier, table, column string) (bool, error) {
	var n int
	err := q.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "inspect columns of %s", table)
	}
	return n > 0, nil
}
