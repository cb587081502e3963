package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/spinlab/fv1asm/debugger"
	"github.com/spinlab/fv1asm/parser"
	"github.com/spinlab/fv1asm/sim"
)

// ErrSessionNotFound is returned when a session ID has no matching session.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionAlreadyExists is returned on a generated-ID collision, which
// should never happen in practice but is checked the way the teacher's
// session_manager.go checks it.
var ErrSessionAlreadyExists = errors.New("session already exists")

// Session is one client's debug session: a simulator plus debug surface
// and the assembler options it was last assembled with.
type Session struct {
	ID        string
	Debugger  *debugger.Debugger
	Options   parser.Options
	CreatedAt time.Time

	mu sync.Mutex
}

// SessionManager owns the live session map, grounded on the teacher's
// api/session_manager.go (mutex-guarded map + broadcaster reference for
// future event fan-out).
type SessionManager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	broadcaster *Broadcaster
}

// NewSessionManager creates an empty session manager.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession allocates a fresh simulator and debug session.
func (sm *SessionManager) CreateSession(opts parser.Options) (*Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	s := sim.NewSim(opts.DelaySize)
	d := debugger.NewDebugger(s)

	session := &Session{
		ID:        id,
		Debugger:  d,
		Options:   opts,
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.sessions[id]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[id] = session
	return session, nil
}

// GetSession looks up a session by ID.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, exists := sm.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// DestroySession removes a session.
func (sm *SessionManager) DestroySession(id string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.sessions[id]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, id)
	return nil
}

// ListSessions returns every live session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count reports the number of live sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
