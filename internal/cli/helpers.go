package cli

import (
	"strconv"
	"strings"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

// resolveActivity accepts an activity id or an exact name. A numeric
// argument that matches no id is retried as a name.
func resolveActivity(s *store.Store, arg string) (*store.Activity, error) {
	arg = strings.TrimSpace(arg)
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		a, err := s.GetActivity(id)
		if err == nil {
			return a, nil
		}
		if !eris.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}
	return s.GetActivityByName(arg)
}

// parseDay understands "today", "yesterday" and YYYY-MM-DD, relative to now.
func parseDay(s string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return store.DateOf(now), nil
	case "yesterday":
		return store.DateOf(now.AddDate(0, 0, -1)), nil
	}
	d, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, eris.Wrapf(store.ErrInvalidInput, "date %q is not YYYY-MM-DD", s)
	}
	return d, nil
}

// rangeFlags is the --from/--to/--days trio shared by report commands.
type rangeFlags struct {
	from string
	to   string
	days int
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&r.from, "from", "", "First day (YYYY-MM-DD); overrides --days")
	cmd.Flags().StringVar(&r.to, "to", "today", "Last day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&r.days, "days", 0, "Number of days ending at --to (default from config)")
}

// resolve returns the inclusive [from, to] range. defaultDays applies when
// neither --from nor --days is given.
func (r *rangeFlags) resolve(now time.Time, defaultDays int) (time.Time, time.Time, error) {
	to, err := parseDay(r.to, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if r.from != "" {
		from, err := parseDay(r.from, now)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if from.After(to) {
			return time.Time{}, time.Time{}, eris.Wrapf(store.ErrInvalidInput, "--from %s is after --to %s",
				from.Format(dateLayout), to.Format(dateLayout))
		}
		return from, to, nil
	}
	days := r.days
	if days <= 0 {
		days = defaultDays
	}
	if days < 1 {
		days = 1
	}
	return to.AddDate(0, 0, -(days - 1)), to, nil
}

// outcomeFlags collects the optional outcome fields of a merge-upsert.
// Flags the user did not pass stay nil and keep the stored value.
type outcomeFlags struct {
	objectives string
	target     float64
	completion float64
	stopReason string
	comments   string
	planTotal  float64
	planDays   int
}

func (o *outcomeFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.objectives, "objectives", "", "Objectives succeeded")
	f.Float64Var(&o.target, "target-hours", 0, "Target hours for the day")
	f.Float64Var(&o.completion, "completion", 0, "Completion percent (0-100)")
	f.StringVar(&o.stopReason, "stop-reason", "", "Why the session ended")
	f.StringVar(&o.comments, "comments", "", "Free-form comments")
	f.Float64Var(&o.planTotal, "plan-total", 0, "Total hours planned across --plan-days")
	f.IntVar(&o.planDays, "plan-days", 1, "Days the plan spans")
}

func (o *outcomeFlags) fields(cmd *cobra.Command) store.EntryFields {
	changed := cmd.Flags().Changed
	var f store.EntryFields
	if changed("objectives") {
		f.Objectives = store.Ptr(o.objectives)
	}
	if changed("target-hours") {
		f.TargetHours = store.Ptr(o.target)
	}
	if changed("completion") {
		f.CompletionPercent = store.Ptr(o.completion)
	}
	if changed("stop-reason") {
		f.StopReason = store.Ptr(o.stopReason)
	}
	if changed("comments") {
		f.Comments = store.Ptr(o.comments)
	}
	if changed("plan-total") {
		f.PlanTotalHours = store.Ptr(o.planTotal)
	}
	if changed("plan-days") {
		f.PlanDays = store.Ptr(o.planDays)
	}
	return f
}
