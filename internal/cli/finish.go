package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/store"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

const (
	reasonTarget      = "target reached"
	reasonInterrupted = "interrupted"
)

// sessionFlags are shared by the foreground timer and focus commands.
type sessionFlags struct {
	noPrompt bool
	outcome  outcomeFlags
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noPrompt, "no-prompt", false, "Do not ask for outcome fields when the session ends")
	f.outcome.register(cmd)
}

// outcomeFlagSet reports whether any outcome field was passed on the command
// line, in which case the interactive prompt is skipped.
func outcomeFlagSet(cmd *cobra.Command) bool {
	for _, name := range []string{"objectives", "target-hours", "completion", "stop-reason", "comments", "plan-total", "plan-days"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

// finishSession merges one finished session into today's entry. Outcome
// fields come from flags when given, otherwise from the prompt on a
// terminal, otherwise only the stop reason is recorded.
func finishSession(cmd *cobra.Command, f *sessionFlags, a *store.Activity, worked time.Duration, reason string) error {
	out := cmd.OutOrStdout()
	hours := worked.Hours()
	if worked < time.Second {
		fmt.Fprintln(out, mutedStyle.Render("Less than a second tracked, nothing logged."))
		return nil
	}

	var fields store.EntryFields
	switch {
	case outcomeFlagSet(cmd):
		fields = f.outcome.fields(cmd)
		if fields.StopReason == nil {
			fields.StopReason = store.Ptr(reason)
		}
	case !f.noPrompt && interactive():
		var err error
		fields, err = promptOutcome(a.Name, hours, reason)
		if err != nil {
			// The time was tracked; keep it even if the form was dismissed.
			current.log.Warn("outcome prompt failed, logging hours only", "err", err)
			fields = store.EntryFields{StopReason: store.Ptr(reason)}
		}
	default:
		fields = store.EntryFields{StopReason: store.Ptr(reason)}
	}

	date := store.DateOf(time.Now())
	e, err := current.store.UpsertDailyEntry(date, a.ID, hours, fields)
	if err != nil {
		return eris.Wrapf(err, "failed to log session for %q", a.Name)
	}
	current.log.Info("session logged", "activity", a.ID, "hours", hours, "reason", *fields.StopReason)
	printSessionSummary(out, a.Name, worked, e)
	rememberActivity(a.ID)
	return nil
}

func printSessionSummary(w io.Writer, name string, worked time.Duration, e *store.DailyEntry) {
	fmt.Fprintf(w, "%s %s for %s (%s today)\n",
		successStyle.Render("Logged"), formatClock(worked), titleStyle.Render(name), formatHours(e.DurationHours))
}

// rememberActivity stores the last used activity in the config file. A
// failure here never fails the command.
func rememberActivity(id int64) {
	cfg := current.cfg
	if cfg.Path() == "" {
		return
	}
	cfg.LastSelectedActivity = &id
	if err := cfg.Save(); err != nil {
		current.log.Warn("failed to remember last activity", "err", err)
	}
}

// activityArg resolves the optional activity argument, falling back to the
// last activity used by timer or focus.
func activityArg(args []string) (*store.Activity, error) {
	if len(args) == 1 {
		a, err := resolveActivity(current.store, args[0])
		if err != nil {
			return nil, eris.Wrapf(err, "activity %q", args[0])
		}
		return a, nil
	}
	last := current.cfg.LastSelectedActivity
	if last == nil {
		return nil, eris.New("no activity given and none used before")
	}
	a, err := current.store.GetActivity(*last)
	if err != nil {
		return nil, eris.Wrapf(err, "last used activity #%d", *last)
	}
	return a, nil
}
