// Package api exposes a stepper.Stepper to out-of-process consumers over
// HTTP and WebSocket, grounded on the teacher's api/server.go,
// api/session_manager.go, api/websocket.go, and api/broadcaster.go.
package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/archlab/tea-scoreboard/config"
	"github.com/archlab/tea-scoreboard/stepper"
)

// ErrSessionNotFound is returned when a session ID has no active session.
var ErrSessionNotFound = errors.New("api: session not found")

// ErrSessionAlreadyExists is returned by the vanishingly unlikely ID
// collision in CreateSession.
var ErrSessionAlreadyExists = errors.New("api: session already exists")

// Session is one active simulator run, addressable over the API.
type Session struct {
	ID        string
	Stepper   *stepper.Stepper
	CreatedAt time.Time
}

// SessionManager owns every active session, grounded on
// api.SessionManager.
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
}

// NewSessionManager returns an empty session manager holding broadcaster
// (may be nil). The manager itself never broadcasts; Server's tick and run
// handlers publish snapshots through their own Broadcaster.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession builds a fresh stepper from cfg and program and registers
// it under a new session ID.
func (sm *SessionManager) CreateSession(cfg *config.Config, program []uint32) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	s := stepper.New()
	if err := s.Reset(cfg, program); err != nil {
		return nil, err
	}

	session := &Session{ID: id, Stepper: s, CreatedAt: time.Now()}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.sessions[id]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[id] = session
	return session, nil
}

// GetSession returns the session registered under id.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes the session registered under id.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every active session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
