// Package cli is the studytrack command tree. It wires the config, the
// store and the timer engines together.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Azzedine-prog/TAWSK/internal/config"
	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	cfgPath     string
	dbOverride  string
	logOverride string
	verbose     bool
)

// app is the state shared by every subcommand once PersistentPreRunE has
// run.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	closeFn func() error
}

var current *app

// noStore marks commands that must not open the database.
const noStore = "no-store"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "studytrack",
	Short: "Track hours against activities, one merged record per day",
	Long: `studytrack logs time against named activities. Every session on the same
day merges into a single daily entry: hours add up, while outcome fields
(objectives, target, completion, comments) keep their latest value.

Examples:
  studytrack activity add "Deep Work" --target 3
  studytrack timer "Deep Work"          # stopwatch, Ctrl-C to stop and log
  studytrack focus "Deep Work"          # 25/5 work/break session
  studytrack log "Deep Work" --hours 1.5 --completion 80
  studytrack stats --days 30
  studytrack kpi`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return teardown()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		//nolint:errcheck // the store may already be closed
		teardown()
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), eris.ToString(err, verbose))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "Config file (default: <user config dir>/studytrack/config.yaml)")
	pf.StringVar(&dbOverride, "db", "", "Database file, overrides db_path and "+config.EnvDB)
	pf.StringVar(&logOverride, "log-level", "", "Log level: debug, info, warn, error")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Show full error traces")
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return eris.Wrap(err, "failed to load config")
	}
	if logOverride != "" {
		cfg.LogLevel = logOverride
	}

	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, log: logger, closeFn: closeLog}
	current = a

	if cmd.Annotations[noStore] == "true" {
		return nil
	}

	dbPath := cfg.DBPath
	if dbOverride != "" {
		dbPath = dbOverride
	}
	s, err := store.New(dbPath, store.WithLogger(logger))
	if err != nil {
		return eris.Wrapf(err, "failed to open database %s", dbPath)
	}
	a.store = s
	logger.Debug("database opened", "path", dbPath)
	return nil
}

func teardown() error {
	a := current
	if a == nil {
		return nil
	}
	current = nil

	var firstErr error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = eris.Wrap(err, "failed to close database")
		}
	}
	if a.closeFn != nil {
		if err := a.closeFn(); err != nil && firstErr == nil {
			firstErr = eris.Wrap(err, "failed to close log file")
		}
	}
	return firstErr
}
