package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sent struct {
	sessionID string
	kind      string
	n         Notification
}

type recorder chan sent

func (r recorder) Publish(sessionID, kind string, payload any) {
	r <- sent{sessionID, kind, payload.(Notification)}
}

func next(t *testing.T, r recorder) sent {
	t.Helper()
	select {
	case s := <-r:
		return s
	case <-time.After(time.Second):
		t.Fatal("nothing published")
		return sent{}
	}
}

func TestNew(t *testing.T) {
	assert.Equal(t, "check", New(KindSuccess, "ok").Icon)
	assert.Equal(t, "times", New(KindError, "no").Icon)
	assert.Equal(t, "info-circle", New(KindInfo, "hm").Icon)
	assert.True(t, New(KindInfo, "hm").Visible)
}

func TestNotifyAutoDismiss(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := make(recorder, 4)
	c := NewCenter(r, "notification", 10*time.Millisecond)
	defer c.Stop()

	n := c.CopyResult("s1", true)
	assert.Equal(t, MsgCopied, n.Message)

	shown := next(t, r)
	assert.Equal(t, "s1", shown.sessionID)
	assert.Equal(t, "notification", shown.kind)
	assert.True(t, shown.n.Visible)

	hidden := next(t, r)
	assert.Equal(t, n.ID, hidden.n.ID)
	assert.False(t, hidden.n.Visible)
}

func TestNewerNotificationRestartsTimer(t *testing.T) {
	r := make(recorder, 4)
	c := NewCenter(r, "notification", 30*time.Millisecond)
	defer c.Stop()

	first := c.CopyResult("s1", false)
	assert.Equal(t, KindError, first.Kind)
	assert.Equal(t, MsgCopyFailed, first.Message)
	second := c.Notify("s1", KindInfo, "outra")

	next(t, r)
	next(t, r)

	hidden := next(t, r)
	assert.Equal(t, second.ID, hidden.n.ID)
	assert.False(t, hidden.n.Visible)

	select {
	case s := <-r:
		require.Failf(t, "unexpected publish", "%+v", s)
	case <-time.After(60 * time.Millisecond):
	}
}

func TestForget(t *testing.T) {
	r := make(recorder, 4)
	c := NewCenter(r, "notification", 10*time.Millisecond)
	defer c.Stop()

	c.Notify("s1", KindInfo, "x")
	c.Forget("s1")
	next(t, r)

	select {
	case s := <-r:
		require.Failf(t, "unexpected publish", "%+v", s)
	case <-time.After(40 * time.Millisecond):
	}
}
