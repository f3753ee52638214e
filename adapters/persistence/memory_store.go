package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/khoahotran/fittrack/internal/domain/onboarding"
)

// MemoryStore keeps sessions in process memory. It backs tests and the single-node dev mode.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]string
	locks    map[string]memoryLock
	lockSeq  uint64
	now      func() time.Time
}

type memoryLock struct {
	until time.Time
	token uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]string),
		locks:    make(map[string]memoryLock),
		now:      time.Now,
	}
}

func (m *MemoryStore) ForSession(sessionID string) onboarding.Store {
	return &memorySession{parent: m, id: sessionID}
}

type memorySession struct {
	parent *MemoryStore
	id     string
}

func (s *memorySession) Get(_ context.Context, key string) (string, bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	v, ok := s.parent.sessions[s.id][key]
	return v, ok, nil
}

func (s *memorySession) Set(_ context.Context, key, value string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	kv, ok := s.parent.sessions[s.id]
	if !ok {
		kv = make(map[string]string)
		s.parent.sessions[s.id] = kv
	}
	kv[key] = value
	return nil
}

func (s *memorySession) Remove(_ context.Context, keys ...string) error {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()
	for _, k := range keys {
		delete(s.parent.sessions[s.id], k)
	}
	return nil
}

func (s *memorySession) TryLock(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	s.parent.mu.Lock()
	defer s.parent.mu.Unlock()

	lockKey := s.id + ":" + key
	now := s.parent.now()
	if held, ok := s.parent.locks[lockKey]; ok && now.Before(held.until) {
		return func() {}, false, nil
	}
	s.parent.lockSeq++
	token := s.parent.lockSeq
	s.parent.locks[lockKey] = memoryLock{until: now.Add(ttl), token: token}

	// An expired lock may have been taken over; only the current holder deletes it.
	release := func() {
		s.parent.mu.Lock()
		defer s.parent.mu.Unlock()
		if held, ok := s.parent.locks[lockKey]; ok && held.token == token {
			delete(s.parent.locks, lockKey)
		}
	}
	return release, true, nil
}
