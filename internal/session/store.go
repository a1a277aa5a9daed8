package session

import "sync"

// Store owns the mapping from sender id to Session. Sessions are created
// lazily and kept for the process lifetime; there is no eviction.
type Store struct {
	levelInterval int

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty store whose sessions use the given level-up
// interval.
func NewStore(levelInterval int) *Store {
	return &Store{
		levelInterval: levelInterval,
		sessions:      make(map[string]*Session),
	}
}

// Get returns the session for userID, creating an idle one on first
// contact. Every call touches the session's last-activity timestamp.
func (s *Store) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		sess = New(s.levelInterval)
		s.sessions[userID] = sess
	}
	sess.Touch()
	return sess
}

// Len returns how many sessions the store currently holds
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
