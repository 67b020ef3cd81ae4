package http

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterTTL             = 10 * time.Minute
	limiterCleanupInterval = time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// userLimiterStore is an echo RateLimiterStore holding one token bucket
// per identifier. Idle buckets are evicted after limiterTTL.
type userLimiterStore struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	entries     map[string]*limiterEntry
	lastCleanup time.Time
	now         func() time.Time
}

func newUserLimiterStore(perSecond float64, burst int) *userLimiterStore {
	if burst <= 0 {
		burst = 1
	}
	return &userLimiterStore{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		now:     time.Now,
	}
}

// Allow implements middleware.RateLimiterStore.
func (s *userLimiterStore) Allow(identifier string) (bool, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCleanup) >= limiterCleanupInterval {
		s.cleanupLocked(now)
	}

	entry, ok := s.entries[identifier]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.entries[identifier] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1), nil
}

func (s *userLimiterStore) cleanupLocked(now time.Time) {
	for key, entry := range s.entries {
		if now.Sub(entry.lastSeen) > limiterTTL {
			delete(s.entries, key)
		}
	}
	s.lastCleanup = now
}

func (s *userLimiterStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
