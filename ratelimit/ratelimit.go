// Package ratelimit implements the fixed window counters shared by the
// HTTP handlers and the websocket gateway. Both transports go through
// the same Limiter instance so a client cannot dodge a limit by
// switching transports.
package ratelimit

import (
	"errors"
	"hash/fnv"
	"strconv"
	"sync"
	"time"
)

// ErrRateLimited is returned when an identity exhausted its window
var ErrRateLimited = errors.New("rate limit exceeded")

const shardCount = 16

// Limit describes one class of limited operation
type Limit struct {
	Max    int
	Window time.Duration
}

type counter struct {
	count   int
	resetAt time.Time
}

type shard struct {
	mu       sync.Mutex
	counters map[string]*counter
}

// Limiter tracks fixed window counters keyed by (identity, window index).
// Counters are striped across shards so unrelated identities never
// contend on one lock.
type Limiter struct {
	shards [shardCount]*shard
}

// New creates an empty limiter
func New() *Limiter {
	l := &Limiter{}
	for i := range l.shards {
		l.shards[i] = &shard{counters: make(map[string]*counter)}
	}
	return l
}

// Allow records one hit for identity under the given limit. The call
// that would exceed Max fails with ErrRateLimited and leaves the counter
// unchanged, so a client that retries the rejected call is not punished
// further within the same window.
func (l *Limiter) Allow(identity string, limit Limit) error {
	now := time.Now()
	windowIndex := now.UnixMilli() / limit.Window.Milliseconds()
	key := identity + "#" + strconv.FormatInt(windowIndex, 10)

	s := l.shard(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[key]
	if !ok || now.After(c.resetAt) {
		if limit.Max < 1 {
			return ErrRateLimited
		}
		s.counters[key] = &counter{count: 1, resetAt: now.Add(limit.Window)}
		return nil
	}
	if c.count >= limit.Max {
		return ErrRateLimited
	}
	c.count++
	return nil
}

// Sweep drops counters whose window has passed. Purely memory
// management: the window index in the key already keeps an expired
// counter from ever being read again.
func (l *Limiter) Sweep() {
	now := time.Now()
	for _, s := range l.shards {
		s.mu.Lock()
		for key, c := range s.counters {
			if now.After(c.resetAt) {
				delete(s.counters, key)
			}
		}
		s.mu.Unlock()
	}
}

// Size returns the number of live counters across all shards
func (l *Limiter) Size() int {
	total := 0
	for _, s := range l.shards {
		s.mu.Lock()
		total += len(s.counters)
		s.mu.Unlock()
	}
	return total
}

func (l *Limiter) shard(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}
