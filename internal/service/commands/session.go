package commands

import (
	"sync"
	"time"
)

// sessionTTL bounds how long a removal waits for /confirm.
const sessionTTL = 5 * time.Minute

// Session is the per-sender chat state.
type Session struct {
	PendingRemoval string
	UpdatedAt      time.Time
}

// SessionManager handles sender conversation states.
type SessionManager struct {
	sessions map[string]Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

// GetSession retrieves the current state for a sender; stale sessions read as empty.
func (sm *SessionManager) GetSession(sender string) Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	state, exists := sm.sessions[sender]
	if !exists || sm.now().Sub(state.UpdatedAt) > sessionTTL {
		return Session{}
	}
	return state
}

// UpdateSession stores the state for a sender.
func (sm *SessionManager) UpdateSession(sender string, state Session) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	state.UpdatedAt = sm.now()
	sm.sessions[sender] = state
}

// ClearSession removes a sender's session.
func (sm *SessionManager) ClearSession(sender string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sender)
}
