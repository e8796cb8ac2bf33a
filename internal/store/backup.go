package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

const backupStampLayout = "20060102-150405"

// Backup copies the database file to a timestamped sibling
// (<stem>-backup-<stamp><ext>) and returns its path.
//
// The copy holds the store's only connection, so no write transaction can
// be in flight, and the WAL is checkpointed into the main file first.
func (s *Store) Backup() (string, error) {
	if s.path == memoryPath || s.path == "" {
		return "", ErrNoDatabaseFile
	}

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return "", eris.Wrap(err, "acquire connection for backup")
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", eris.Wrap(err, "checkpoint wal")
	}

	target, err := copyToBackup(s.path, time.Now())
	if err != nil {
		return "", err
	}
	s.log.Info("database backed up", "path", target)
	return target, nil
}

func backupName(dbPath string, now time.Time, attempt int) string {
	ext := filepath.Ext(dbPath)
	stem := strings.TrimSuffix(filepath.Base(dbPath), ext)
	name := fmt.Sprintf("%s-backup-%s", stem, now.Format(backupStampLayout))
	if attempt > 0 {
		name += fmt.Sprintf("-%d", attempt)
	}
	return filepath.Join(filepath.Dir(dbPath), name+ext)
}

func copyToBackup(src string, now time.Time) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", eris.Wrapf(err, "open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", eris.Wrapf(err, "stat %s", src)
	}

	var (
		out    *os.File
		target string
	)
	// Two backups within the same second get a numeric suffix.
	for attempt := 0; attempt < 100; attempt++ {
		target = backupName(src, now, attempt)
		out, err = os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
		if err == nil || !os.IsExist(err) {
			break
		}
	}
	if err != nil {
		return "", eris.Wrapf(err, "create backup %s", target)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return "", eris.Wrapf(err, "copy database to %s", target)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "close backup %s", target)
	}
	return target, nil
}
