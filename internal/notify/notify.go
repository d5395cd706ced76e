// Package notify sends toast notifications to a form session and takes
// them down again after a while.
package notify

import (
	"time"

	"github.com/google/uuid"

	"donation-form/internal/schedule"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

const (
	MsgCopied     = "Chave PIX copiada com sucesso!"
	MsgCopyFailed = "Erro ao copiar. Tente selecionar e copiar manualmente."
)

// DefaultTTL is how long a notification stays on screen.
const DefaultTTL = 4 * time.Second

// Notification is a toast. A Visible=false notification with the same ID
// takes it down.
type Notification struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Icon    string `json:"icon"`
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

// Publisher pushes a message to the browser holding a session.
type Publisher interface {
	Publish(sessionID, kind string, payload any)
}

// New builds a visible notification.
func New(kind Kind, message string) Notification {
	icon := "info-circle"
	switch kind {
	case KindSuccess:
		icon = "check"
	case KindError:
		icon = "times"
	}
	return Notification{
		ID:      uuid.NewString(),
		Kind:    kind,
		Icon:    icon,
		Message: message,
		Visible: true,
	}
}

// Center shows at most one notification per session: a new one replaces the
// previous and restarts the dismissal timer.
type Center struct {
	pub   Publisher
	kind  string
	ttl   time.Duration
	sched *schedule.Scheduler
}

// NewCenter publishes notifications under the given message kind.
func NewCenter(pub Publisher, kind string, ttl time.Duration) *Center {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Center{pub: pub, kind: kind, ttl: ttl, sched: schedule.New()}
}

func (c *Center) Notify(sessionID string, kind Kind, message string) Notification {
	n := New(kind, message)
	c.pub.Publish(sessionID, c.kind, n)

	c.sched.Schedule("notification:"+sessionID, c.ttl, func(t schedule.Ticket) {
		if t.Stale() {
			return
		}
		t.Done()

		dismissed := n
		dismissed.Visible = false
		c.pub.Publish(sessionID, c.kind, dismissed)
	})
	return n
}

// CopyResult reports the outcome of copying the PIX key in the browser.
func (c *Center) CopyResult(sessionID string, ok bool) Notification {
	if ok {
		return c.Notify(sessionID, KindSuccess, MsgCopied)
	}
	return c.Notify(sessionID, KindError, MsgCopyFailed)
}

// Forget drops the pending dismissal of a session.
func (c *Center) Forget(sessionID string) {
	c.sched.Cancel("notification:" + sessionID)
}

func (c *Center) Stop() {
	c.sched.Stop()
}
