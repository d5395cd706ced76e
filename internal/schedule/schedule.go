// Package schedule runs delayed callbacks that can be superseded.
//
// Every task is filed under a key. Scheduling a key again, or cancelling it,
// invalidates the previous task for that key: its timer is stopped and, if it
// already fired, its Ticket reports Stale so the callback can bail out under
// the caller's own lock.
package schedule

import (
	"sync"
	"time"
)

type task struct {
	timer *time.Timer
	gen   uint64
	fired bool
}

// Scheduler is safe for concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	tasks   map[string]*task
	nextGen uint64
	stopped bool
}

// Ticket identifies one scheduled run of a key.
type Ticket struct {
	s   *Scheduler
	key string
	gen uint64
}

func New() *Scheduler {
	return &Scheduler{tasks: make(map[string]*task)}
}

// Schedule runs fn after delay unless the key is scheduled again, cancelled
// or the scheduler is stopped first. fn runs on its own goroutine.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func(Ticket)) Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGen++
	t := Ticket{s: s, key: key, gen: s.nextGen}
	if s.stopped {
		return t
	}

	if prev, ok := s.tasks[key]; ok {
		prev.timer.Stop()
	}

	entry := &task{gen: t.gen}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		if cur, ok := s.tasks[key]; !ok || cur.gen != t.gen {
			s.mu.Unlock()
			return
		}
		entry.fired = true
		s.mu.Unlock()
		fn(t)
	})
	s.tasks[key] = entry

	return t
}

// Cancel drops the task filed under key. It reports whether a task was
// still waiting for its timer.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.tasks[key]
	if !ok {
		return false
	}
	delete(s.tasks, key)
	entry.timer.Stop()
	return !entry.fired
}

// Pending counts tasks whose timer has not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, t := range s.tasks {
		if !t.fired {
			n++
		}
	}
	return n
}

// Stop cancels every task. Later calls to Schedule are ignored.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.stopped = true
}

// Stale reports whether the ticket was superseded by a later Schedule or a
// Cancel of the same key, or by Stop.
func (t Ticket) Stale() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	cur, ok := t.s.tasks[t.key]
	return !ok || cur.gen != t.gen
}

// Done forgets a fired task so its key no longer holds an entry. It is a
// no-op when the ticket is stale.
func (t Ticket) Done() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if cur, ok := t.s.tasks[t.key]; ok && cur.gen == t.gen {
		delete(t.s.tasks, t.key)
	}
}
