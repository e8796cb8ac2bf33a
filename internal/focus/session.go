// Package focus runs work/break focus sessions. Only time spent in the work
// phase counts as worked time; the break phase is tracked for display.
package focus

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	// ErrFinished is returned by Start on a finished session that was not reset.
	ErrFinished = eris.New("focus session finished; reset before starting again")
	// ErrInvalidDurations is returned for a non-positive work phase or a
	// negative break phase.
	ErrInvalidDurations = eris.New("invalid focus durations")
)

type State int

const (
	Idle State = iota
	Running
	Paused
	Finished
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Finished:
		return "finished"
	}
	return "unknown"
}

type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseWork:
		return "work"
	case PhaseBreak:
		return "break"
	case PhaseFinished:
		return "finished"
	}
	return "unknown"
}

func (p Phase) next() Phase {
	if p == PhaseWork {
		return PhaseBreak
	}
	return PhaseFinished
}

// Tick is the view handed to OnTick and returned by Snapshot.
type Tick struct {
	State     State
	Phase     Phase
	Work      time.Duration // total work time so far
	Remaining time.Duration // left in the current phase
}

// Callbacks are optional. They run on the session's loop goroutine, never
// concurrently with each other, and must not call Stop on the same session.
type Callbacks struct {
	OnTick     func(Tick)
	OnPhase    func(Phase)
	OnComplete func(work time.Duration)
}

const (
	DefaultTickInterval = time.Second
	DefaultJoinTimeout  = 2 * time.Second
)

type settings struct {
	interval    time.Duration
	joinTimeout time.Duration
	log         *slog.Logger
}

func defaultSettings() settings {
	return settings{
		interval:    DefaultTickInterval,
		joinTimeout: DefaultJoinTimeout,
		log:         slog.Default(),
	}
}

// Option configures a Session or a Manager.
type Option func(*settings)

func WithTickInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithJoinTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.joinTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is one work/break cycle for an activity.
//
// The phase clock is kept as phaseElapsed folded at startedAt; a phase
// boundary restarts it at zero.
type Session struct {
	mu sync.Mutex
	settings

	activityID int64
	runID      string
	workTarget time.Duration
	breakTgt   time.Duration
	cb         Callbacks

	state        State
	phase        Phase
	phaseElapsed time.Duration
	startedAt    time.Time
	workDone     time.Duration // work credited by a completed work phase or Stop

	quit chan struct{}
	done chan struct{}
}

// NewSession creates an idle session. work must be positive; brk may be
// zero, in which case the break phase ends on the first tick after work.
func NewSession(activityID int64, work, brk time.Duration, cb Callbacks, opts ...Option) (*Session, error) {
	if err := validateDurations(work, brk); err != nil {
		return nil, err
	}
	s := &Session{
		settings:   defaultSettings(),
		activityID: activityID,
		workTarget: work,
		breakTgt:   brk,
		cb:         cb,
		state:      Idle,
		phase:      PhaseWork,
	}
	for _, opt := range opts {
		opt(&s.settings)
	}
	return s, nil
}

func validateDurations(work, brk time.Duration) error {
	if work <= 0 || brk < 0 {
		return eris.Wrapf(ErrInvalidDurations, "work %v, break %v", work, brk)
	}
	return nil
}

func (s *Session) ActivityID() int64 { return s.activityID }

// Start begins the work phase from idle, or resumes a paused session. It is
// a no-op while running.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case Running:
		return nil
	case Finished:
		return eris.Wrapf(ErrFinished, "activity %d", s.activityID)
	case Idle:
		s.phase = PhaseWork
		s.phaseElapsed = 0
		s.workDone = 0
		s.runID = uuid.NewString()
		s.log.Debug("focus session started", "activity", s.activityID, "run", s.runID,
			"work", s.workTarget, "break", s.breakTgt)
	case Paused:
		s.log.Debug("focus session resumed", "activity", s.activityID, "run", s.runID)
	}

	s.state = Running
	s.startedAt = time.Now()

	prev := s.done
	s.quit = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.quit, s.done, prev)
	return nil
}

// Pause folds the phase clock and releases the loop. No-op unless running.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Running {
		return
	}
	s.fold(time.Now())
	s.state = Paused
	s.signalQuit()
	s.log.Debug("focus session paused", "activity", s.activityID, "run", s.runID)
}

// Stop finishes the session early, waits for the loop to exit and returns
// the work time accumulated so far. OnComplete is not called. Stopping an
// idle or finished session returns its current total and does nothing else.
func (s *Session) Stop() time.Duration {
	s.mu.Lock()
	if s.state == Idle {
		s.mu.Unlock()
		return 0
	}
	if s.state != Finished {
		now := time.Now()
		s.fold(now)
		s.workDone = s.workAt(now)
		s.state = Finished
		s.phase = PhaseFinished
		s.phaseElapsed = 0
		s.log.Debug("focus session stopped", "activity", s.activityID, "run", s.runID, "work", s.workDone)
	}
	s.signalQuit()
	done := s.done
	work := s.workDone
	s.mu.Unlock()

	s.join(done)
	return work
}

// Reset returns the session to idle with every accumulator zeroed. It does
// not wait for the loop, which exits at its next wake-up.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signalQuit()
	s.state = Idle
	s.phase = PhaseWork
	s.phaseElapsed = 0
	s.startedAt = time.Time{}
	s.workDone = 0
	s.runID = ""
}

// Snapshot reports the session as OnTick would see it now.
func (s *Session) Snapshot() Tick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(time.Now())
}

// Work returns the work time accumulated so far.
func (s *Session) Work() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workAt(time.Now())
}

// reconfigure replaces durations and callbacks of an idle session.
func (s *Session) reconfigure(work, brk time.Duration, cb Callbacks) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Idle {
		return false
	}
	s.workTarget = work
	s.breakTgt = brk
	s.cb = cb
	return true
}

func (s *Session) target(p Phase) time.Duration {
	switch p {
	case PhaseWork:
		return s.workTarget
	case PhaseBreak:
		return s.breakTgt
	}
	return 0
}

// The helpers below expect mu to be held.

func (s *Session) phaseElapsedAt(now time.Time) time.Duration {
	if s.state == Running {
		return s.phaseElapsed + now.Sub(s.startedAt)
	}
	return s.phaseElapsed
}

func (s *Session) fold(now time.Time) {
	if s.state != Running {
		return
	}
	s.phaseElapsed += now.Sub(s.startedAt)
	s.startedAt = now
}

// workAt never credits more than the work target, even before the loop has
// observed the boundary.
func (s *Session) workAt(now time.Time) time.Duration {
	if s.phase != PhaseWork {
		return s.workDone
	}
	return min(s.phaseElapsedAt(now), s.workTarget)
}

func (s *Session) view(now time.Time) Tick {
	t := Tick{State: s.state, Phase: s.phase, Work: s.workAt(now)}
	if s.phase != PhaseFinished {
		t.Remaining = max(s.target(s.phase)-s.phaseElapsedAt(now), 0)
	}
	return t
}

func (s *Session) signalQuit() {
	if s.quit != nil {
		close(s.quit)
		s.quit = nil
	}
}

func (s *Session) join(done <-chan struct{}) {
	if done == nil {
		return
	}
	select {
	case <-done:
	case <-time.After(s.joinTimeout):
		s.log.Warn("focus loop did not exit in time", "activity", s.activityID, "timeout", s.joinTimeout)
	}
}

func (s *Session) loop(quit <-chan struct{}, done chan<- struct{}, prev <-chan struct{}) {
	defer close(done)

	if prev != nil {
		select {
		case <-prev:
		case <-quit:
			return
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-quit:
			return
		case <-ticker.C:
			if !s.tick(quit) {
				return
			}
		}
	}
}

// tick reports the current view, then advances to the next phase if the
// current one has reached its target. It returns false once the session is
// finished.
func (s *Session) tick(quit <-chan struct{}) bool {
	s.mu.Lock()
	select {
	case <-quit:
		s.mu.Unlock()
		return false
	default:
	}
	if s.state != Running {
		s.mu.Unlock()
		return false
	}

	now := time.Now()
	view := s.view(now)
	cb := s.cb
	runID := s.runID

	// At most one boundary per tick, so every phase gets its own ticks even
	// when a tick arrives late.
	s.fold(now)
	var phases []Phase
	if s.phaseElapsed >= s.target(s.phase) {
		if s.phase == PhaseWork {
			s.workDone = s.workTarget
		}
		s.phase = s.phase.next()
		s.phaseElapsed = 0
		phases = append(phases, s.phase)
	}

	finished := s.phase == PhaseFinished
	work := s.workDone
	if finished {
		s.state = Finished
		s.phaseElapsed = 0
		s.quit = nil
	}
	s.mu.Unlock()

	if cb.OnTick != nil {
		s.safeCall(runID, "tick", func() { cb.OnTick(view) })
	}
	for _, p := range phases {
		s.log.Debug("focus phase changed", "activity", s.activityID, "run", runID, "phase", p.String())
		if cb.OnPhase != nil {
			s.safeCall(runID, "phase", func() { cb.OnPhase(p) })
		}
	}
	if finished {
		if cb.OnComplete != nil {
			s.safeCall(runID, "complete", func() { cb.OnComplete(work) })
		}
		return false
	}
	return true
}

func (s *Session) safeCall(runID, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("focus callback failed",
				"activity", s.activityID, "run", runID, "callback", name, "panic", r)
		}
	}()
	fn()
}
