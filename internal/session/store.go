package session

import (
	"context"
	"sync"

	"github.com/octobees/venue-finder/internal/entity"
)

// Store keeps sessions between events.
type Store interface {
	Load(ctx context.Context, chatID int64) (entity.SearchSession, bool, error)
	Save(ctx context.Context, s entity.SearchSession) error
}

// MemoryStore is a process-local Store keyed by chat id.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]entity.SearchSession
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]entity.SearchSession)}
}

// Load returns the stored session for chatID.
func (s *MemoryStore) Load(_ context.Context, chatID int64) (entity.SearchSession, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[chatID]
	if ok && sess.Location != nil {
		loc := *sess.Location
		sess.Location = &loc
	}
	return sess, ok, nil
}

// Save stores the session.
func (s *MemoryStore) Save(_ context.Context, sess entity.SearchSession) error {
	if sess.Location != nil {
		loc := *sess.Location
		sess.Location = &loc
	}
	s.mu.Lock()
	s.sessions[sess.ChatID] = sess
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored sessions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// chatLocks hands out one mutex per chat and forgets it once nobody holds or waits for it.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	sync.Mutex
	refs int
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int64]*chatLock)}
}

func (c *chatLocks) lock(chatID int64) func() {
	c.mu.Lock()
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}

func (c *chatLocks) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
