package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestScheduleRuns(t *testing.T) {
	s := New()
	defer s.Stop()

	done := make(chan Ticket, 1)
	s.Schedule("fade", 5*time.Millisecond, func(tk Ticket) { done <- tk })

	select {
	case tk := <-done:
		assert.False(t, tk.Stale())
		tk.Done()
		assert.True(t, tk.Stale())
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	assert.Zero(t, s.Pending())
}

func TestScheduleSupersedesSameKey(t *testing.T) {
	s := New()
	defer s.Stop()

	var first atomic.Int32
	done := make(chan struct{})

	s.Schedule("submit", 20*time.Millisecond, func(Ticket) { first.Add(1) })
	s.Schedule("submit", 5*time.Millisecond, func(Ticket) { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("replacement task did not run")
	}
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, first.Load())
}

func TestCancel(t *testing.T) {
	s := New()
	defer s.Stop()

	var ran atomic.Bool
	tk := s.Schedule("message", 10*time.Millisecond, func(Ticket) { ran.Store(true) })
	require.Equal(t, 1, s.Pending())

	assert.True(t, s.Cancel("message"))
	assert.False(t, s.Cancel("message"))
	assert.True(t, tk.Stale())

	time.Sleep(30 * time.Millisecond)
	assert.False(t, ran.Load())
}

func TestTicketGoesStaleAfterFiring(t *testing.T) {
	s := New()
	defer s.Stop()

	fired := make(chan Ticket, 1)
	release := make(chan struct{})
	s.Schedule("fade", time.Millisecond, func(tk Ticket) {
		fired <- tk
		<-release
	})

	tk := <-fired
	assert.False(t, tk.Stale())

	// A newer schedule of the same key lands while the old callback is
	// still running; the old callback must see itself as stale.
	s.Schedule("fade", time.Hour, func(Ticket) {})
	assert.True(t, tk.Stale())
	close(release)
}

func TestStop(t *testing.T) {
	s := New()

	var ran atomic.Bool
	s.Schedule("a", 10*time.Millisecond, func(Ticket) { ran.Store(true) })
	s.Stop()

	tk := s.Schedule("b", time.Millisecond, func(Ticket) { ran.Store(true) })
	assert.True(t, tk.Stale())
	assert.Zero(t, s.Pending())

	time.Sleep(30 * time.Millisecond)
	assert.False(t, ran.Load())
}
