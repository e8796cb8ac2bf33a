package cli

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	logHours   float64
	logDate    string
	logOutcome outcomeFlags
)

var logCmd = &cobra.Command{
	Use:   "log <id|name>",
	Short: "Add hours and outcome fields to a day's entry",
	Long: `Merge one session into the daily entry for an activity. Hours are added to
the day's total; outcome flags replace the stored value and omitted flags
keep it.

Examples:
  studytrack log "Deep Work" --hours 1.5
  studytrack log "Deep Work" --date 2024-05-01 --completion 100 --objectives "chapter 3"
  studytrack log 2 --hours 0 --comments "tired"     # only change comments`,
	Args: cobra.ExactArgs(1),
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().Float64Var(&logHours, "hours", 0, "Hours to add to the day's total")
	logCmd.Flags().StringVar(&logDate, "date", "today", "Day to log against (YYYY-MM-DD, today, yesterday)")
	logOutcome.register(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	a, err := resolveActivity(current.store, args[0])
	if err != nil {
		return eris.Wrapf(err, "activity %q", args[0])
	}
	date, err := parseDay(logDate, time.Now())
	if err != nil {
		return err
	}

	e, err := current.store.UpsertDailyEntry(date, a.ID, logHours, logOutcome.fields(cmd))
	if err != nil {
		return eris.Wrapf(err, "failed to log %q", a.Name)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s on %s: %s total\n",
		successStyle.Render("Logged"), titleStyle.Render(a.Name), date.Format(dateLayout), formatHours(e.DurationHours))
	return nil
}
