package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/export"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	exportEntries bool
	exportRange   rangeFlags
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the database to a timestamped file next to it",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export activities, or entries with --entries, to CSV or JSON",
	Long: `Export activity metadata (name, description, target, tags, status) to a
.csv or .json file. With --entries, export the daily entries of a date range
instead; JSON entry reports also carry per-activity statistics.

Without a file argument the export is written to export_dir.

Examples:
  studytrack export activities.csv
  studytrack export --entries --days 30 report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import activities from CSV or JSON, skipping names that exist",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(backupCmd, exportCmd, importCmd)
	exportCmd.Flags().BoolVar(&exportEntries, "entries", false, "Export daily entries instead of activities")
	exportRange.register(exportCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	path, err := current.store.Backup()
	if err != nil {
		return eris.Wrap(err, "backup failed")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("Backup written to"), path)
	return nil
}

// exportPath picks the output file, defaulting to a timestamped CSV in the
// configured export directory.
func exportPath(args []string, kind string, now time.Time) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	dir := current.cfg.ExportDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "failed to create export directory %s", dir)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%s.csv", kind, now.Format("20060102-150405"))), nil
}

func runExport(cmd *cobra.Command, args []string) error {
	now := time.Now()
	out := cmd.OutOrStdout()

	if !exportEntries {
		path, err := exportPath(args, "activities", now)
		if err != nil {
			return err
		}
		n, err := export.ExportTasks(current.store, path)
		if err != nil {
			return eris.Wrap(err, "export failed")
		}
		fmt.Fprintf(out, "%s %d activities to %s\n", successStyle.Render("Exported"), n, path)
		return nil
	}

	path, err := exportPath(args, "entries", now)
	if err != nil {
		return err
	}
	from, to, err := exportRange.resolve(now, current.cfg.DefaultRangeDays)
	if err != nil {
		return err
	}
	rows, err := current.store.GetEntriesBetween(from, to)
	if err != nil {
		return eris.Wrap(err, "failed to load entries")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = export.EntriesToCSV(rows, path)
	case ".json":
		stats, serr := current.store.GetStatisticsByActivity(from, to)
		if serr != nil {
			return eris.Wrap(serr, "failed to compute statistics")
		}
		err = export.EntriesToJSON(rows, stats, from, to, path)
	default:
		err = eris.Wrapf(export.ErrUnsupportedFormat, "%s", path)
	}
	if err != nil {
		return eris.Wrap(err, "export failed")
	}
	fmt.Fprintf(out, "%s %d entries to %s\n", successStyle.Render("Exported"), len(rows), path)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	n, err := export.ImportTasks(current.store, args[0])
	if err != nil {
		return eris.Wrap(err, "import failed")
	}
	current.log.Info("activities imported", "path", args[0], "inserted", n)
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d new activities\n", successStyle.Render("Imported"), n)
	return nil
}
