package api

import (
	"sync"
	"time"

	"github.com/cruzdariel/Sendy/flights"
	"github.com/google/uuid"
)

// Session holds one uploaded dataset between upload and share creation.
// Sessions live only in process memory: restarting the server loses
// un-shared uploads, which is the intended lifecycle.
type Session struct {
	ID        string
	Original  []flights.Record
	Filtered  []flights.Record
	Snapshot  *flights.Snapshot
	StartDate string
	EndDate   string
	CreatedAt time.Time
}

// SessionStore is a process-local, concurrency-safe session registry. It
// hands out value copies of sessions, never pointers into the map, so a
// handler reading session fields cannot race with a concurrent SetFilter.
// The record slices and snapshot inside a copy are safe to share because
// they are never mutated after construction, only replaced wholesale.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Create registers a new session for an uploaded dataset and returns a
// copy of it.
func (s *SessionStore) Create(records []flights.Record, snapshot *flights.Snapshot) Session {
	session := &Session{
		ID:        uuid.NewString(),
		Original:  records,
		Filtered:  records,
		Snapshot:  snapshot,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	return *session
}

// Get returns a copy of a session's current state.
func (s *SessionStore) Get(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, false
	}
	return *session, true
}

// SetFilter replaces a session's filtered view and snapshot.
func (s *SessionStore) SetFilter(id string, filtered []flights.Record, snapshot *flights.Snapshot, startDate, endDate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return false
	}
	session.Filtered = filtered
	session.Snapshot = snapshot
	session.StartDate = startDate
	session.EndDate = endDate
	return true
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}
