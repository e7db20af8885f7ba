package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/apexlabs/ntamock-backend/internal/metrics"
	"github.com/apexlabs/ntamock-backend/internal/model"
)

const sweepInterval = time.Minute

// Manager is the registry of live sessions, at most one per student.
type Manager struct {
	pipeline  *Pipeline
	ticker    TickerFactory
	retention time.Duration
	log       zerolog.Logger

	mu        sync.RWMutex
	sessions  map[string]*Session
	byStudent map[string]string
}

// NewManager creates a Manager. Finished sessions are kept for retention
// so the summary and review stay reachable. A nil ticker uses wall time.
func NewManager(pipeline *Pipeline, ticker TickerFactory, retention time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		pipeline:  pipeline,
		ticker:    ticker,
		retention: retention,
		log:       log.With().Str("component", "session_manager").Logger(),
		sessions:  make(map[string]*Session),
		byStudent: make(map[string]string),
	}
}

// Start opens a fresh session for student on exam and starts its timer.
// A previous session of the same student is torn down first, unless it is
// mid-submission: then it stays registered until the sweep so Drain and Get
// still reach it.
func (m *Manager) Start(exam *model.Exam, student *model.Student) (*Session, error) {
	s, err := New(exam, student, m.pipeline, m.ticker, m.log)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	var previous *Session
	if prevID, ok := m.byStudent[student.ID]; ok {
		if prev := m.sessions[prevID]; prev != nil && !prev.inFlight() {
			previous = prev
			delete(m.sessions, prevID)
		}
	}
	m.sessions[s.ID] = s
	m.byStudent[student.ID] = s.ID
	m.mu.Unlock()

	if previous != nil {
		previous.Close()
		metrics.LiveSessions.Dec()
	}

	s.Start()
	metrics.LiveSessions.Inc()
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// ActiveFor returns the current session of a student.
func (m *Manager) ActiveFor(studentID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byStudent[studentID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return m.sessions[id], nil
}

// End closes and forgets a session.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	m.removeLocked(s)
	m.mu.Unlock()

	s.Close()
	metrics.LiveSessions.Dec()
	return nil
}

// List returns an overview of every session, newest first.
func (m *Manager) List() []Overview {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Overview, 0, len(all))
	for _, s := range all {
		out = append(out, s.Overview())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out
}

// Run sweeps expired sessions until ctx is done, then closes everything.
func (m *Manager) Run(ctx context.Context) {
	m.log.Info().Dur("retention", m.retention).Msg("Session sweeper started")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			m.log.Info().Msg("Session sweeper stopped")
			return
		case now := <-ticker.C:
			if n := m.Sweep(now); n > 0 {
				m.log.Debug().Int("removed", n).Msg("Swept finished sessions")
			}
		}
	}
}

// Drain waits until every in-flight submission has finished or ctx is
// done, and reports how many were still running when it gave up.
func (m *Manager) Drain(ctx context.Context) int {
	m.mu.RLock()
	var running []*Session
	for _, s := range m.sessions {
		if s.inFlight() {
			running = append(running, s)
		}
	}
	m.mu.RUnlock()

	for i, s := range running {
		select {
		case <-s.Done():
		case <-ctx.Done():
			return len(running) - i
		}
	}
	return 0
}

// Sweep removes sessions that ended more than the retention period
// before now and returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.retention)

	m.mu.Lock()
	var expired []*Session
	for _, s := range m.sessions {
		if s.endedBefore(cutoff) {
			expired = append(expired, s)
		}
	}
	for _, s := range expired {
		m.removeLocked(s)
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		metrics.LiveSessions.Dec()
	}
	return len(expired)
}

func (m *Manager) removeLocked(s *Session) {
	delete(m.sessions, s.ID)
	if m.byStudent[s.student.ID] == s.ID {
		delete(m.byStudent, s.student.ID)
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.sessions = make(map[string]*Session)
	m.byStudent = make(map[string]string)
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
		metrics.LiveSessions.Dec()
	}
}
