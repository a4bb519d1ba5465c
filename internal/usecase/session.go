package usecase

import (
	"context"
	"errors"
	"sync"

	"intervu/internal/domain"
	"intervu/internal/ports"
)

// ErrNoSession is returned when no interview session has ever been started.
var ErrNoSession = errors.New("no interview session")

// SessionManager owns the single backend session held by the interview
// screen. It holds at most one session id at a time.
type SessionManager struct {
	svc    ports.InterviewService
	events ports.EventSink

	mu        sync.Mutex
	sessionID string
	personaID string
}

func NewSessionManager(svc ports.InterviewService, events ports.EventSink) *SessionManager {
	return &SessionManager{svc: svc, events: events}
}

// Start creates a fresh remote session for the persona. On failure no local
// state changes; the previous session id (if any) is kept.
func (m *SessionManager) Start(ctx context.Context, personaID string) (string, error) {
	id, err := m.svc.StartSession(ctx, personaID)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.sessionID = id
	m.personaID = personaID
	m.mu.Unlock()

	m.events.SessionChanged(id, true)
	return id, nil
}

// Ensure returns the held session id if the backend still reports it active,
// otherwise transparently starts a replacement session for the same persona.
// A failing status check is treated as "inactive", not as a fatal error.
func (m *SessionManager) Ensure(ctx context.Context) (string, error) {
	m.mu.Lock()
	id := m.sessionID
	personaID := m.personaID
	m.mu.Unlock()

	if id != "" {
		status, err := m.svc.SessionStatus(ctx, id)
		if err == nil && status.Active {
			return id, nil
		}
	}
	if personaID == "" {
		return "", ErrNoSession
	}
	return m.Start(ctx, personaID)
}

// End terminates the remote session best-effort. Local state is cleared no
// matter what the backend says; teardown must never block on the network.
func (m *SessionManager) End(ctx context.Context) (domain.SessionSummary, bool) {
	m.mu.Lock()
	id := m.sessionID
	m.sessionID = ""
	m.mu.Unlock()

	m.events.SessionChanged("", false)
	if id == "" {
		return domain.SessionSummary{}, false
	}

	summary, err := m.svc.EndSession(ctx, id)
	if err != nil {
		return domain.SessionSummary{}, false
	}
	return summary, true
}

// Current returns the held session id, if any.
func (m *SessionManager) Current() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID, m.sessionID != ""
}
