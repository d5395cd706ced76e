package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"donation-form/internal/form"
	"donation-form/internal/models"
	"donation-form/internal/ratelimit"
	"donation-form/internal/render"
	"donation-form/internal/schedule"
	"donation-form/internal/validation"
)

// Deps are the collaborators shared by every session.
type Deps struct {
	Renderer  *render.Renderer
	Limiter   ratelimit.Limiter
	Publisher Publisher
}

// Store holds the open form sessions. Sessions idle for longer than the
// TTL are closed by Run.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Controller

	rules atomic.Pointer[validation.Rules]
	deps  Deps
	opts  Options
	ttl   time.Duration
	now   func() time.Time
}

func NewStore(rules *validation.Rules, deps Deps, opts Options, ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*Controller),
		deps:     deps,
		opts:     opts.withDefaults(),
		ttl:      ttl,
		now:      time.Now,
	}
	s.rules.Store(rules)
	return s
}

// SetRules swaps the rules for every session, open ones included. Open forms
// are checked against the new rules right away.
func (s *Store) SetRules(r *validation.Rules) {
	s.rules.Store(r)

	for _, c := range s.snapshot() {
		c.RulesChanged()
	}
}

func (s *Store) snapshot() []*Controller {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Controller, 0, len(s.sessions))
	for _, c := range s.sessions {
		out = append(out, c)
	}
	return out
}

func (s *Store) Rules() *validation.Rules {
	return s.rules.Load()
}

// Create opens a session and schedules its load announcement.
func (s *Store) Create() (*Controller, render.View) {
	c := &Controller{
		id:        uuid.NewString(),
		state:     form.NewState(NewSecurityToken()),
		rules:     s.Rules,
		applied:   s.Rules(),
		renderer:  s.deps.Renderer,
		limiter:   s.deps.Limiter,
		publisher: s.deps.Publisher,
		sched:     schedule.New(),
		opts:      s.opts,
		now:       s.now,
	}
	c.lastSeen = c.now()

	s.mu.Lock()
	s.sessions[c.id] = c
	s.mu.Unlock()

	c.after("announce", s.opts.AnnounceDelay, func() form.Event { return form.Loaded{} })

	log.Debug().Str("session_id", c.id).Msg("Form session created")
	return c, c.View()
}

func (s *Store) Get(id string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return c, nil
}

// Remove closes the session and forgets its cooldown.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	c, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return
	}
	c.Close()
	if f, ok := s.deps.Limiter.(interface{ Forget(string) }); ok {
		f.Forget(id)
	}
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Run sweeps idle sessions until ctx is done, then closes the rest.
func (s *Store) Run(ctx context.Context) error {
	every := s.ttl / 2
	if every < time.Second {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return nil
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Store) sweep() {
	cutoff := s.now().Add(-s.ttl)

	var idle []string
	for _, c := range s.snapshot() {
		if c.LastSeen().Before(cutoff) {
			idle = append(idle, c.ID())
		}
	}

	for _, id := range idle {
		s.Remove(id)
	}
	if len(idle) > 0 {
		log.Info().Int("count", len(idle)).Int("open", s.Len()).Msg("Expired idle form sessions")
	}
}

func (s *Store) closeAll() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*Controller)
	s.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
}
