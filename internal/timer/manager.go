package timer

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const (
	DefaultTickInterval = time.Second
	DefaultJoinTimeout  = 2 * time.Second
)

// Manager owns the stopwatches, keyed by activity id. The map lock is only
// held to look up or create an entry; each stopwatch has its own lock.
type Manager struct {
	mu     sync.Mutex
	timers map[int64]*stopwatch

	interval    time.Duration
	joinTimeout time.Duration
	log         *slog.Logger
}

type Option func(*Manager)

func WithTickInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithJoinTimeout bounds how long Stop waits for a loop to exit.
func WithJoinTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.joinTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		timers:      make(map[int64]*stopwatch),
		interval:    DefaultTickInterval,
		joinTimeout: DefaultJoinTimeout,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) get(activityID int64) *stopwatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers[activityID]
}

func (m *Manager) ensure(activityID int64) *stopwatch {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.timers[activityID]
	if !ok {
		w = newStopwatch(activityID)
		m.timers[activityID] = w
	}
	return w
}

// Start runs the stopwatch for activityID, resuming it if paused. It is a
// no-op when the stopwatch is already running.
//
// A positive target arms a one-shot completion: on the first tick at or past
// it the stopwatch pauses itself and onComplete fires. A zero target keeps
// whatever target is already armed. Once the target has been reached it
// does not fire again until Reset.
func (m *Manager) Start(activityID int64, onTick TickFunc, target time.Duration, onComplete CompleteFunc) error {
	w := m.ensure(activityID)

	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.state {
	case Running:
		return nil
	case Stopped:
		return eris.Wrapf(ErrStopped, "activity %d", activityID)
	}

	w.onTick = onTick
	w.onComplete = onComplete
	if target > 0 && w.targetState != targetReached {
		w.target = target
		w.targetState = targetPending
	}
	if w.runID == "" {
		w.runID = uuid.NewString()
	}

	w.state = Running
	w.startedAt = time.Now()

	prev := w.done
	w.quit = make(chan struct{})
	w.done = make(chan struct{})
	go m.loop(w, w.quit, w.done, prev)

	m.log.Debug("timer started", "activity", activityID, "run", w.runID, "target", w.target)
	return nil
}

// Pause folds the running segment into the accumulator. Pausing a stopwatch
// that is not running does nothing.
func (m *Manager) Pause(activityID int64) {
	w := m.get(activityID)
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != Running {
		return
	}
	w.fold(time.Now())
	w.state = Paused
	w.signalQuit()
	m.log.Debug("timer paused", "activity", activityID, "elapsed", w.accumulated)
}

// Stop pauses the stopwatch and waits for its loop to exit, so no callback
// runs after Stop returns. The accumulated time is kept until Reset and is
// returned. Stop must not be called from inside a callback of the same
// activity.
func (m *Manager) Stop(activityID int64) time.Duration {
	w := m.get(activityID)
	if w == nil {
		return 0
	}

	w.mu.Lock()
	w.fold(time.Now())
	if w.state != Idle {
		w.state = Stopped
	}
	w.signalQuit()
	done := w.done
	elapsed := w.accumulated
	runID := w.runID
	w.mu.Unlock()

	m.join(activityID, done)
	m.log.Debug("timer stopped", "activity", activityID, "run", runID, "elapsed", elapsed)
	return elapsed
}

// Reset zeroes the stopwatch and clears its target. Other activities are
// unaffected.
func (m *Manager) Reset(activityID int64) {
	w := m.get(activityID)
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signalQuit()
	w.state = Idle
	w.accumulated = 0
	w.startedAt = time.Time{}
	w.target = 0
	w.targetState = targetNone
	w.onTick = nil
	w.onComplete = nil
	w.runID = ""
	m.log.Debug("timer reset", "activity", activityID)
}

// Elapsed returns the accumulated time, including the running segment.
func (m *Manager) Elapsed(activityID int64) time.Duration {
	w := m.get(activityID)
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.elapsed(time.Now())
}

func (m *Manager) Snapshot(activityID int64) Snapshot {
	w := m.get(activityID)
	if w == nil {
		return Snapshot{ActivityID: activityID, State: Idle}
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshot(time.Now())
}

// Running lists the activities whose stopwatch is currently running.
func (m *Manager) Running() []int64 {
	m.mu.Lock()
	timers := make([]*stopwatch, 0, len(m.timers))
	for _, w := range m.timers {
		timers = append(timers, w)
	}
	m.mu.Unlock()

	var ids []int64
	for _, w := range timers {
		w.mu.Lock()
		if w.state == Running {
			ids = append(ids, w.activityID)
		}
		w.mu.Unlock()
	}
	return ids
}

// Close stops every stopwatch and waits for their loops.
func (m *Manager) Close() {
	m.mu.Lock()
	ids := make([]int64, 0, len(m.timers))
	for id := range m.timers {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		m.Stop(id)
	}
}

func (m *Manager) join(activityID int64, done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(m.joinTimeout):
		m.log.Warn("timer loop did not exit in time", "activity", activityID, "timeout", m.joinTimeout)
	}
}

func (m *Manager) loop(w *stopwatch, quit <-chan struct{}, done chan<- struct{}, prev <-chan struct{}) {
	defer close(done)

	if prev != nil {
		select {
		case <-prev:
		case <-quit:
			return
		}
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if !m.tick(w, quit) {
				return
			}
		}
	}
}

// tick reports one tick and handles target completion. It returns false
// when the loop should exit.
func (m *Manager) tick(w *stopwatch, quit <-chan struct{}) bool {
	w.mu.Lock()
	if quitRequested(quit) || w.state != Running {
		w.mu.Unlock()
		return false
	}

	now := time.Now()
	elapsed := w.elapsed(now)
	onTick := w.onTick
	runID := w.runID

	var onComplete CompleteFunc
	completed := false
	if w.targetState == targetPending && elapsed >= w.target {
		w.fold(now)
		w.state = Paused
		w.targetState = targetReached
		w.quit = nil
		onComplete = w.onComplete
		completed = true
	}
	w.mu.Unlock()

	if onTick != nil {
		m.safeCall(w.activityID, runID, "tick", func() { onTick(elapsed) })
	}
	if completed {
		m.log.Info("timer target reached", "activity", w.activityID, "run", runID, "elapsed", elapsed)
		if onComplete != nil {
			m.safeCall(w.activityID, runID, "complete", func() { onComplete(elapsed) })
		}
		return false
	}
	return true
}

func (m *Manager) safeCall(activityID int64, runID, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("timer callback failed",
				"activity", activityID, "run", runID, "callback", name, "panic", r)
		}
	}()
	fn()
}
