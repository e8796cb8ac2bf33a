package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/focus"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	focusWork  time.Duration
	focusBreak time.Duration
	focusFlags sessionFlags
)

var focusCmd = &cobra.Command{
	Use:     "focus [id|name]",
	Aliases: []string{"pomodoro", "f"},
	Short:   "Run one work/break cycle and log the work time",
	Long: `Run a work phase followed by a break phase in the foreground. Only work
time is logged; the break is never counted. Ctrl-C ends the cycle early
and logs the work done so far.

Durations default to the pomodoro block of the config file.

Examples:
  studytrack focus "Deep Work"
  studytrack focus "Deep Work" --work 50m --break 10m
  studytrack focus --break 0`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
	focusCmd.Flags().DurationVar(&focusWork, "work", 0, "Work phase length (default from config)")
	focusCmd.Flags().DurationVar(&focusBreak, "break", 0, "Break phase length (default from config)")
	focusFlags.register(focusCmd)
}

func runFocus(cmd *cobra.Command, args []string) error {
	a, err := activityArg(args)
	if err != nil {
		return err
	}

	work := current.cfg.Pomodoro.Work()
	if cmd.Flags().Changed("work") {
		work = focusWork
	}
	brk := current.cfg.Pomodoro.Break()
	if cmd.Flags().Changed("break") {
		brk = focusBreak
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := focus.NewManager(focus.WithTickInterval(current.cfg.TickInterval), focus.WithLogger(current.log))
	defer m.Close()

	out := cmd.OutOrStdout()
	finished := make(chan struct{}, 1)
	cb := focus.Callbacks{
		OnTick: func(t focus.Tick) {
			style := timerRunningStyle
			if t.Phase == focus.PhaseBreak {
				style = phaseBreakStyle
			}
			fmt.Fprintf(out, "\r%-6s %s  %s", t.Phase, style.Render(formatClock(t.Remaining)),
				mutedStyle.Render("work "+formatClock(t.Work)))
		},
		OnPhase: func(p focus.Phase) {
			switch p {
			case focus.PhaseBreak:
				fmt.Fprintf(out, "\n%s\n", phaseBreakStyle.Render("Work phase done, take a break."))
			case focus.PhaseFinished:
				fmt.Fprintf(out, "\n%s\n", successStyle.Render("Cycle complete."))
			}
		},
		OnComplete: func(time.Duration) {
			select {
			case finished <- struct{}{}:
			default:
			}
		},
	}

	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%s: %s work, %s break. Ctrl-C to stop early.",
		a.Name, formatClock(work), formatClock(brk))))
	if err := m.Start(a.ID, work, brk, cb); err != nil {
		return eris.Wrap(err, "failed to start focus session")
	}

	reason := reasonInterrupted
	select {
	case <-ctx.Done():
	case <-finished:
		reason = reasonTarget
	}
	stop()

	worked := m.Stop(a.ID)
	defer m.Reset(a.ID)
	if reason == reasonInterrupted {
		fmt.Fprintln(out)
	}

	return finishSession(cmd, &focusFlags, a, worked, reason)
}
