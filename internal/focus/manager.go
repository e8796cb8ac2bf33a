package focus

import (
	"sync"
	"time"
)

// Manager keeps one Session per activity id. The map lock only guards
// lookups; sessions lock themselves, so activities never wait on each other.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
	opts     []Option
}

// NewManager creates a manager whose sessions share opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		opts:     opts,
	}
}

// Start begins a session for activityID, or resumes it if paused. An idle
// session picks up the given durations and callbacks; a paused one keeps
// its own. A finished session must be reset first.
func (m *Manager) Start(activityID int64, work, brk time.Duration, cb Callbacks) error {
	if err := validateDurations(work, brk); err != nil {
		return err
	}

	m.mu.Lock()
	s, ok := m.sessions[activityID]
	if !ok {
		var err error
		s, err = NewSession(activityID, work, brk, cb, m.opts...)
		if err != nil {
			m.mu.Unlock()
			return err
		}
		m.sessions[activityID] = s
	}
	m.mu.Unlock()

	s.reconfigure(work, brk, cb)
	return s.Start()
}

// Session returns the session for activityID, or nil.
func (m *Manager) Session(activityID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[activityID]
}

func (m *Manager) Pause(activityID int64) {
	if s := m.Session(activityID); s != nil {
		s.Pause()
	}
}

// Resume restarts a paused session. It does nothing for unknown activities.
func (m *Manager) Resume(activityID int64) error {
	s := m.Session(activityID)
	if s == nil {
		return nil
	}
	return s.Start()
}

// Stop ends the session and returns its work time. See Session.Stop.
func (m *Manager) Stop(activityID int64) time.Duration {
	if s := m.Session(activityID); s != nil {
		return s.Stop()
	}
	return 0
}

func (m *Manager) Reset(activityID int64) {
	if s := m.Session(activityID); s != nil {
		s.Reset()
	}
}

// Snapshot returns an idle view for activities without a session.
func (m *Manager) Snapshot(activityID int64) Tick {
	if s := m.Session(activityID); s != nil {
		return s.Snapshot()
	}
	return Tick{State: Idle, Phase: PhaseWork}
}

// Close stops every session and waits for their loops.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
