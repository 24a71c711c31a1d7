package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/team-sheet-sync/internal/platform/resilience"
)

type entry struct {
	value     any
	expiresAt time.Time
	touchedAt time.Time
}

// Store is a keyed TTL cache with an optional entry cap. When the cap is
// reached the least recently touched entry is evicted.
type Store struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	flight     resilience.SingleFlight[any]
	now        func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return NewBoundedStore(ttl, 0)
}

// NewBoundedStore keeps at most maxEntries values; maxEntries <= 0 means unbounded.
func NewBoundedStore(ttl time.Duration, maxEntries int) *Store {
	return &Store{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *Store) Get(_ context.Context, key string) (any, bool) {
	if key == "" {
		return nil, false
	}

	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && !e.expiresAt.After(now) {
		delete(s.entries, key)
		return nil, false
	}
	e.touchedAt = now
	s.entries[key] = e

	return e.value, true
}

func (s *Store) Set(_ context.Context, key string, value any) {
	if key == "" {
		return
	}

	now := s.now()
	expiresAt := time.Time{}
	if s.ttl > 0 {
		expiresAt = now.Add(s.ttl)
	}

	s.mu.Lock()
	if _, exists := s.entries[key]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictLocked(now)
	}
	s.entries[key] = entry{
		value:     value,
		expiresAt: expiresAt,
		touchedAt: now,
	}
	s.mu.Unlock()
}

// evictLocked drops expired entries first, then the least recently touched one.
func (s *Store) evictLocked(now time.Time) {
	if s.ttl > 0 {
		for key, e := range s.entries {
			if !e.expiresAt.After(now) {
				delete(s.entries, key)
			}
		}
		if len(s.entries) < s.maxEntries {
			return
		}
	}

	oldestKey := ""
	var oldest time.Time
	for key, e := range s.entries {
		if oldestKey == "" || e.touchedAt.Before(oldest) {
			oldestKey = key
			oldest = e.touchedAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *Store) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (any, error)) (any, error) {
	if loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, nil
	}

	value, err, _ := s.flight.Do(key, func() (any, error) {
		if cached, ok := s.Get(ctx, key); ok {
			return cached, nil
		}

		loaded, loadErr := loader(ctx)
		if loadErr != nil {
			return nil, loadErr
		}
		s.Set(ctx, key, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}

	return value, nil
}
