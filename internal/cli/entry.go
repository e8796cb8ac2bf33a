package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var entryDate string

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Inspect or remove daily entries",
}

var entryShowCmd = &cobra.Command{
	Use:   "show [id|name]",
	Short: "Show one activity's entry, or every entry of the day",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEntryShow,
}

var entryDeleteCmd = &cobra.Command{
	Use:     "delete <id|name>",
	Aliases: []string{"rm"},
	Short:   "Delete an activity's entry for a day",
	Args:    cobra.ExactArgs(1),
	RunE:    runEntryDelete,
}

func init() {
	rootCmd.AddCommand(entryCmd)
	entryCmd.AddCommand(entryShowCmd, entryDeleteCmd)
	entryCmd.PersistentFlags().StringVar(&entryDate, "date", "today", "Day (YYYY-MM-DD, today, yesterday)")
}

func runEntryShow(cmd *cobra.Command, args []string) error {
	date, err := parseDay(entryDate, time.Now())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		a, err := resolveActivity(current.store, args[0])
		if err != nil {
			return eris.Wrapf(err, "activity %q", args[0])
		}
		e, err := current.store.GetDailyEntry(date, a.ID)
		if eris.Is(err, store.ErrNotFound) {
			fmt.Fprintf(out, "%s\n", mutedStyle.Render("No entry for "+a.Name+" on "+date.Format(dateLayout)))
			return nil
		}
		if err != nil {
			return eris.Wrap(err, "failed to load entry")
		}
		printEntry(out, a.Name, e)
		return nil
	}

	entries, err := current.store.GetDailyEntriesByDate(date)
	if err != nil {
		return eris.Wrap(err, "failed to load entries")
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No entries on "+date.Format(dateLayout)))
		return nil
	}
	names, err := activityNames()
	if err != nil {
		return err
	}
	for i := range entries {
		printEntry(out, names[entries[i].ActivityID], &entries[i])
	}
	return nil
}

func runEntryDelete(cmd *cobra.Command, args []string) error {
	date, err := parseDay(entryDate, time.Now())
	if err != nil {
		return err
	}
	a, err := resolveActivity(current.store, args[0])
	if err != nil {
		return eris.Wrapf(err, "activity %q", args[0])
	}
	if err := current.store.DeleteDailyEntry(date, a.ID); err != nil {
		return eris.Wrapf(err, "failed to delete entry for %q on %s", a.Name, date.Format(dateLayout))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s entry for %s on %s\n",
		warningStyle.Render("Deleted"), a.Name, date.Format(dateLayout))
	return nil
}

func activityNames() (map[int64]string, error) {
	activities, err := current.store.ListActivities(true)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list activities")
	}
	names := make(map[int64]string, len(activities))
	for _, a := range activities {
		names[a.ID] = a.Name
	}
	return names, nil
}

func printEntry(w io.Writer, name string, e *store.DailyEntry) {
	fmt.Fprintf(w, "%s  %s\n", headerStyle.Render(name), mutedStyle.Render(e.Date.Format(dateLayout)))
	fmt.Fprintf(w, "  hours:       %s\n", formatHours(e.DurationHours))
	fmt.Fprintf(w, "  target:      %s\n", formatHours(e.TargetHours))
	fmt.Fprintf(w, "  completion:  %.0f%%\n", e.CompletionPercent)
	if e.PlanTotalHours > 0 {
		fmt.Fprintf(w, "  plan:        %s over %d day(s)\n", formatHours(e.PlanTotalHours), e.PlanDays)
	}
	if e.ObjectivesSucceeded != "" {
		fmt.Fprintf(w, "  objectives:  %s\n", e.ObjectivesSucceeded)
	}
	if e.StopReason != "" {
		fmt.Fprintf(w, "  stop reason: %s\n", e.StopReason)
	}
	if e.Comments != "" {
		fmt.Fprintf(w, "  comments:    %s\n", e.Comments)
	}
}
