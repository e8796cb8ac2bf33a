package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Azzedine-prog/TAWSK/internal/timer"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	timerTarget float64
	timerFlags  sessionFlags
)

var timerCmd = &cobra.Command{
	Use:     "timer [id|name]",
	Aliases: []string{"t"},
	Short:   "Run a stopwatch for an activity and log it when done",
	Long: `Run a stopwatch in the foreground. It stops when the target is reached or
on Ctrl-C, then merges the elapsed time into today's entry.

The target defaults to the activity's default target hours; --target 0 runs
without one. Without an argument the last used activity is timed.

Examples:
  studytrack timer "Deep Work"
  studytrack timer "Deep Work" --target 0.5
  studytrack timer --no-prompt --stop-reason "meeting"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTimer,
}

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().Float64Var(&timerTarget, "target", 0, "Stop after this many hours (default: activity target)")
	timerFlags.register(timerCmd)
}

func runTimer(cmd *cobra.Command, args []string) error {
	a, err := activityArg(args)
	if err != nil {
		return err
	}

	target := a.DefaultTargetHours
	if cmd.Flags().Changed("target") {
		target = timerTarget
	}
	if target < 0 {
		return eris.New("--target must not be negative")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := timer.NewManager(timer.WithTickInterval(current.cfg.TickInterval), timer.WithLogger(current.log))
	defer m.Close()

	out := cmd.OutOrStdout()
	reached := make(chan struct{}, 1)
	onTick := func(elapsed time.Duration) {
		fmt.Fprintf(out, "\r%s  %s", titleStyle.Render(a.Name), timerRunningStyle.Render(formatClock(elapsed)))
	}
	onComplete := func(time.Duration) {
		select {
		case reached <- struct{}{}:
		default:
		}
	}

	targetDur := time.Duration(target * float64(time.Hour))
	hint := "Ctrl-C to stop"
	if targetDur > 0 {
		hint = fmt.Sprintf("target %s, Ctrl-C to stop early", formatClock(targetDur))
	}
	// From here on only the tick callback writes to out until Stop returns.
	fmt.Fprintln(out, mutedStyle.Render(hint))
	if err := m.Start(a.ID, onTick, targetDur, onComplete); err != nil {
		return eris.Wrap(err, "failed to start timer")
	}

	reason := reasonInterrupted
	select {
	case <-ctx.Done():
	case <-reached:
		reason = reasonTarget
	}
	// Restore default signal handling so a second Ctrl-C aborts the prompt.
	stop()

	elapsed := m.Stop(a.ID)
	fmt.Fprintf(out, "\r%s  %s\n", titleStyle.Render(a.Name), timerPausedStyle.Render(formatClock(elapsed)))
	defer m.Reset(a.ID)

	return finishSession(cmd, &timerFlags, a, elapsed, reason)
}
