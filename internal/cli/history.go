package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/report"
	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	historyRange    rangeFlags
	historyActivity string
	statsRange      rangeFlags
	kpiRange        rangeFlags
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"h"},
	Short:   "List daily entries in a date range",
	Long: `List daily entries, oldest first.

Examples:
  studytrack history                       # last default_range_days days
  studytrack history --days 30 --activity "Deep Work"
  studytrack history --from 2024-05-01 --to 2024-05-31`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Total and average hours per activity",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Planning and focus indicators for a date range",
	Args:  cobra.NoArgs,
	RunE:  runKPI,
}

func init() {
	rootCmd.AddCommand(historyCmd, statsCmd, kpiCmd)
	historyRange.register(historyCmd)
	historyCmd.Flags().StringVar(&historyActivity, "activity", "", "Only show this activity (exact name)")
	statsRange.register(statsCmd)
	kpiRange.register(kpiCmd)
}

func loadRows(r *rangeFlags) ([]store.EntryRow, time.Time, time.Time, error) {
	from, to, err := r.resolve(time.Now(), current.cfg.DefaultRangeDays)
	if err != nil {
		return nil, from, to, err
	}
	rows, err := current.store.GetEntriesBetween(from, to)
	if err != nil {
		return nil, from, to, eris.Wrap(err, "failed to load entries")
	}
	return rows, from, to, nil
}

func rangeTitle(label string, from, to time.Time) string {
	return fmt.Sprintf("%s  %s", headerStyle.Render(label),
		mutedStyle.Render(from.Format(dateLayout)+" to "+to.Format(dateLayout)))
}

func runHistory(cmd *cobra.Command, args []string) error {
	rows, from, to, err := loadRows(&historyRange)
	if err != nil {
		return err
	}
	if historyActivity != "" {
		filtered := rows[:0]
		for _, r := range rows {
			if r.ActivityName == historyActivity {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rangeTitle("History", from, to))
	if len(rows) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No entries."))
		return nil
	}

	fmt.Fprintf(out, "%-10s  %-24s %8s %8s %6s  %s\n", "DATE", "ACTIVITY", "HOURS", "TARGET", "DONE", "NOTES")
	var total float64
	for _, r := range rows {
		total += r.DurationHours
		fmt.Fprintf(out, "%-10s  %-24s %8s %8s %5.0f%%  %s\n",
			r.Date.Format(dateLayout), truncate(r.ActivityName, 24), formatHours(r.DurationHours),
			formatHours(r.TargetHours), r.CompletionPercent, truncate(notes(r), 40))
	}
	fmt.Fprintf(out, "%-10s  %-24s %8s\n", "", titleStyle.Render("total"), formatHours(total))
	return nil
}

func notes(r store.EntryRow) string {
	var parts []string
	for _, s := range []string{r.Objectives, r.StopReason, r.Comments} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " | ")
}

func runStats(cmd *cobra.Command, args []string) error {
	from, to, err := statsRange.resolve(time.Now(), current.cfg.DefaultRangeDays)
	if err != nil {
		return err
	}
	stats, err := current.store.GetStatisticsByActivity(from, to)
	if err != nil {
		return eris.Wrap(err, "failed to compute statistics")
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rangeTitle("Statistics", from, to))
	if len(stats) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No entries."))
		return nil
	}
	fmt.Fprintf(out, "%-28s %10s %12s %12s\n", "ACTIVITY", "TOTAL", "AVG/ENTRY", "COMPLETION")
	for _, s := range stats {
		fmt.Fprintf(out, "%-28s %10s %12s %11.0f%%\n",
			truncate(s.ActivityName, 28), formatHours(s.TotalHours), formatHours(s.AvgHoursPerEntry), s.AvgCompletionPercent)
	}
	return nil
}

func runKPI(cmd *cobra.Command, args []string) error {
	rows, from, to, err := loadRows(&kpiRange)
	if err != nil {
		return err
	}
	k := report.Compute(rows)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, rangeTitle("KPIs", from, to))
	var b strings.Builder
	for i, l := range k.Lines() {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-20s %s", l.Label, titleStyle.Render(l.Value))
	}
	fmt.Fprintln(out, panelStyle.Render(b.String()))
	return nil
}
