package tutor

import (
	"sync"
	"time"
)

// SessionStore hands out per-user sessions. Acquire serializes turns per user
// id: the returned release func must be called once the turn is over, and no
// second turn for the same user proceeds until then. This closes the
// lost-update race on LastQuiz and the rate window under concurrent requests
// for one user; requests for different users proceed independently.
type SessionStore interface {
	// Acquire returns the session for userID, creating it lazily, with the
	// per-user lock held until release is called.
	Acquire(userID string) (sess *Session, release func())
	Delete(userID string)
}

type (
	sessionEntry struct {
		mu   sync.Mutex
		sess *Session
	}

	// MemorySessionStore keeps sessions in process memory; state is discarded
	// on restart.
	MemorySessionStore struct {
		mu      sync.RWMutex
		entries map[string]*sessionEntry
	}
)

var _ SessionStore = (*MemorySessionStore)(nil)

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{entries: make(map[string]*sessionEntry)}
}

func (st *MemorySessionStore) entry(userID string) *sessionEntry {
	st.mu.RLock()
	e, ok := st.entries[userID]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok = st.entries[userID]; !ok {
		e = &sessionEntry{sess: &Session{UserID: userID}}
		st.entries[userID] = e
	}
	return e
}

func (st *MemorySessionStore) Acquire(userID string) (*Session, func()) {
	e := st.entry(userID)
	e.mu.Lock()
	return e.sess, e.mu.Unlock
}

func (st *MemorySessionStore) Delete(userID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, userID)
}

// session implements the limiter's sessionAccessor. The limiter guards the
// rate window with its own mutex, so no entry lock is taken here.
func (st *MemorySessionStore) session(userID string) *Session {
	return st.entry(userID).sess
}

// AppendTurn records one conversational exchange entry, insertion order
// significant.
func (s *Session) AppendTurn(role, text string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: at})
}
