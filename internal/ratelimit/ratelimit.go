// Package ratelimit enforces the cooldown between accepted submissions.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultCooldown is the minimum gap between two accepted submissions of a form.
const DefaultCooldown = 3 * time.Second

// Limiter decides whether a submission may go through. Allow records the
// attempt only when it is allowed; retryAfter is set when it is not.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// Memory keeps the last accepted submission per key in process.
type Memory struct {
	mu       sync.Mutex
	last     map[string]time.Time
	cooldown time.Duration
	now      func() time.Time

	stop chan struct{}
	done chan struct{}
}

type MemoryOption func(*Memory)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// NewMemory starts a limiter and its sweeper goroutine. Call Close to stop it.
func NewMemory(cooldown time.Duration, opts ...MemoryOption) *Memory {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	m := &Memory{
		last:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	go m.sweep(time.Minute)

	return m
}

func (m *Memory) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if last, ok := m.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < m.cooldown {
			return false, m.cooldown - elapsed, nil
		}
	}
	m.last[key] = now
	return true, 0, nil
}

// Forget drops the record for key, e.g. when its session ends.
func (m *Memory) Forget(key string) {
	m.mu.Lock()
	delete(m.last, key)
	m.mu.Unlock()
}

// Close stops the sweeper and waits for it to exit.
func (m *Memory) Close() {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	<-m.done
}

// sweep removes records older than the cooldown.
func (m *Memory) sweep(every time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for key, last := range m.last {
				if now.Sub(last) >= m.cooldown {
					delete(m.last, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
