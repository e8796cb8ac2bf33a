// Package timer runs one independent stopwatch per activity. A running
// stopwatch owns a background loop that reports ticks and fires a one-shot
// completion callback when its target is crossed.
package timer

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// ErrStopped is returned by Start on a stopwatch that was stopped and not
// yet reset.
var ErrStopped = eris.New("timer stopped; reset before starting again")

// State is the lifecycle state of a stopwatch.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// targetState replaces a completion flag: pending moves to reached exactly
// once, and only Reset moves it back to none.
type targetState int

const (
	targetNone targetState = iota
	targetPending
	targetReached
)

// TickFunc receives the current elapsed time roughly once per tick interval.
type TickFunc func(elapsed time.Duration)

// CompleteFunc receives the elapsed time at the moment the target was crossed.
type CompleteFunc func(elapsed time.Duration)

// Snapshot is a point-in-time copy of a stopwatch.
type Snapshot struct {
	ActivityID    int64
	RunID         string
	State         State
	Elapsed       time.Duration
	Target        time.Duration
	TargetReached bool
}

// stopwatch is guarded by mu. The background loop and the caller both
// mutate it; unrelated activities never share a lock.
type stopwatch struct {
	mu sync.Mutex

	activityID int64
	runID      string
	state      State

	accumulated time.Duration
	startedAt   time.Time // monotonic reading, valid while running

	target      time.Duration
	targetState targetState

	onTick     TickFunc
	onComplete CompleteFunc

	// quit is closed to ask the current loop to exit; done is closed by the
	// loop when it has exited. A new loop waits on the previous done so
	// callbacks stay in tick order.
	quit chan struct{}
	done chan struct{}
}

func newStopwatch(activityID int64) *stopwatch {
	return &stopwatch{activityID: activityID, state: Idle}
}

// elapsed must be called with mu held.
func (w *stopwatch) elapsed(now time.Time) time.Duration {
	if w.state == Running {
		return w.accumulated + now.Sub(w.startedAt)
	}
	return w.accumulated
}

// fold moves the running segment into the accumulator. mu must be held.
func (w *stopwatch) fold(now time.Time) {
	if w.state != Running {
		return
	}
	w.accumulated += now.Sub(w.startedAt)
	w.startedAt = time.Time{}
}

// signalQuit asks the live loop, if any, to exit. mu must be held.
func (w *stopwatch) signalQuit() {
	if w.quit != nil {
		close(w.quit)
		w.quit = nil
	}
}

func (w *stopwatch) snapshot(now time.Time) Snapshot {
	return Snapshot{
		ActivityID:    w.activityID,
		RunID:         w.runID,
		State:         w.state,
		Elapsed:       w.elapsed(now),
		Target:        w.target,
		TargetReached: w.targetState == targetReached,
	}
}

func quitRequested(quit <-chan struct{}) bool {
	select {
	case <-quit:
		return true
	default:
		return false
	}
}
