// Package session owns the live donation forms. A Controller serialises the
// events of one form, runs the reducer, carries out its effects with a
// cancellable scheduler and pushes deferred views to the browser.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"donation-form/internal/form"
	"donation-form/internal/models"
	"donation-form/internal/ratelimit"
	"donation-form/internal/render"
	"donation-form/internal/schedule"
	"donation-form/internal/validation"
)

// Publisher pushes a message to the browser holding a session.
type Publisher interface {
	Publish(sessionID, kind string, payload any)
}

// Message kinds sent through the Publisher.
const (
	KindView         = "view"
	KindNotification = "notification"
)

// Options are the delays of the deferred transitions.
type Options struct {
	SubmitDelay   time.Duration
	ErrorFade     time.Duration
	MessageTTL    time.Duration
	AnnounceDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		SubmitDelay:   2 * time.Second,
		ErrorFade:     300 * time.Millisecond,
		MessageTTL:    5 * time.Second,
		AnnounceDelay: time.Second,
	}
}

// withDefaults fills the unset durations from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SubmitDelay <= 0 {
		o.SubmitDelay = d.SubmitDelay
	}
	if o.ErrorFade <= 0 {
		o.ErrorFade = d.ErrorFade
	}
	if o.MessageTTL <= 0 {
		o.MessageTTL = d.MessageTTL
	}
	if o.AnnounceDelay <= 0 {
		o.AnnounceDelay = d.AnnounceDelay
	}
	return o
}

type Outcome string

const (
	OutcomeAccepted   Outcome = "accepted"
	OutcomeCooldown   Outcome = "cooldown"
	OutcomeIncomplete Outcome = "incomplete"
)

// SubmitInput carries what the request knows about the browser.
type SubmitInput struct {
	UserAgent string
}

type Controller struct {
	id string

	mu       sync.Mutex
	state    form.State
	lastSeen time.Time
	closed   bool

	rules     func() *validation.Rules
	applied   *validation.Rules
	renderer  *render.Renderer
	limiter   ratelimit.Limiter
	publisher Publisher
	sched     *schedule.Scheduler
	opts      Options
	now       func() time.Time
}

func (c *Controller) ID() string { return c.id }

// LastSeen is the time of the last request that touched the form.
func (c *Controller) LastSeen() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

func (c *Controller) View() render.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastSeen = c.now()
	rules, announcements := c.current()
	return c.renderer.Render(rules, c.state, announcements)
}

func (c *Controller) SelectPreset(amount decimal.Decimal) (render.View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.rules().IsPreset(amount) {
		return render.View{}, models.ErrUnknownPreset
	}
	return c.dispatch(form.PresetClicked{Amount: amount}), nil
}

func (c *Controller) InputCustomAmount(value string) render.View {
	return c.Dispatch(form.CustomAmountInput{Value: value})
}

func (c *Controller) BlurCustomAmount() render.View {
	return c.Dispatch(form.CustomAmountBlurred{})
}

func (c *Controller) SelectPaymentMethod(method models.PaymentMethod) render.View {
	return c.Dispatch(form.PaymentMethodSelected{Method: method})
}

func (c *Controller) InputDonorField(field models.Field, value string) (render.View, error) {
	if _, err := models.ParseDonorField(string(field)); err != nil {
		return render.View{}, err
	}
	return c.Dispatch(form.DonorFieldInput{Field: field, Value: value}), nil
}

func (c *Controller) BlurDonorField(field models.Field) (render.View, error) {
	if _, err := models.ParseDonorField(string(field)); err != nil {
		return render.View{}, err
	}
	return c.Dispatch(form.DonorFieldBlurred{Field: field}), nil
}

// Dispatch applies one event and returns the resulting view.
func (c *Controller) Dispatch(ev form.Event) render.View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dispatch(ev)
}

// Submit runs the submission gate. Every rejection is reported through the
// view.
func (c *Controller) Submit(ctx context.Context, in SubmitInput) (Outcome, render.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger := log.With().Str("session_id", c.id).Logger()
	// Judge the form by the rules in force now.
	c.current()

	if c.state.Phase == form.PhaseSubmitting {
		return OutcomeCooldown, c.dispatch(form.SubmitRejected{Reason: form.RejectCooldown})
	}
	if !c.state.Form.IsValid {
		return OutcomeIncomplete, c.dispatch(form.SubmitRejected{Reason: form.RejectIncomplete})
	}

	info := c.state.Form.DonorInfo
	if validation.DetectSuspicious(info.Name, info.Email, info.Phone) {
		// The donor only sees the generic message.
		logger.Warn().Msg("Suspicious input detected, submission blocked")
		return OutcomeIncomplete, c.dispatch(form.SubmitRejected{Reason: form.RejectIncomplete})
	}

	allowed, retryAfter, err := c.limiter.Allow(ctx, c.id)
	if err != nil {
		logger.Error().Err(err).Msg("Rate limiter unavailable, allowing submission")
		allowed = true
	}
	if !allowed {
		logger.Debug().Dur("retry_after", retryAfter).Msg("Submission within cooldown")
		return OutcomeCooldown, c.dispatch(form.SubmitRejected{Reason: form.RejectCooldown})
	}

	rec := c.record(in)
	logger.Info().
		Str("donation_id", rec.ID).
		Float64("amount", rec.Amount).
		Str("payment_method", string(rec.PaymentMethod)).
		Msg("Donation submitted")

	return OutcomeAccepted, c.dispatch(form.SubmitAccepted{Record: rec})
}

// Close stops every pending timer. Later timer callbacks are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := c.sched.Pending(); n > 0 {
		log.Debug().Str("session_id", c.id).Int("pending_timers", n).Msg("Dropping form timers")
	}
	c.closed = true
	c.sched.Stop()
}

func (c *Controller) dispatch(ev form.Event) render.View {
	c.lastSeen = c.now()

	rules, announcements := c.current()
	next, out := form.Reduce(rules, c.state, ev)
	c.state = next
	c.run(out.Effects)

	return c.renderer.Render(rules, c.state, append(announcements, out.Announcements...))
}

// current returns the rules in force, first re-checking the form when they
// were swapped since the last event.
func (c *Controller) current() (*validation.Rules, []string) {
	rules := c.rules()
	if rules == c.applied {
		return rules, nil
	}
	c.applied = rules

	next, out := form.Reduce(rules, c.state, form.RulesChanged{})
	c.state = next
	c.run(out.Effects)
	return rules, out.Announcements
}

// RulesChanged re-checks the form after a rules swap and pushes the new view.
func (c *Controller) RulesChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	rules, announcements := c.current()
	c.publisher.Publish(c.id, KindView, c.renderer.Render(rules, c.state, announcements))
}

func (c *Controller) run(effects []form.Effect) {
	for _, e := range effects {
		switch e := e.(type) {
		case form.ScheduleFade:
			field := e.Field
			c.after("fade:"+string(field), c.opts.ErrorFade, func() form.Event {
				return form.ErrorFadeElapsed{Field: field}
			})
		case form.CancelFade:
			c.sched.Cancel("fade:" + string(e.Field))
		case form.ScheduleMessageExpiry:
			c.after("message", c.opts.MessageTTL, func() form.Event {
				return form.MessageExpired{}
			})
		case form.ScheduleCompletion:
			c.after("submit", c.opts.SubmitDelay, func() form.Event {
				return form.SubmitCompleted{SecurityToken: NewSecurityToken()}
			})
		}
	}
}

// after dispatches the event built by next once delay has passed, unless the
// key was rescheduled or cancelled meanwhile, and pushes the new view.
func (c *Controller) after(key string, delay time.Duration, next func() form.Event) {
	c.sched.Schedule(key, delay, func(t schedule.Ticket) {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || t.Stale() {
			return
		}
		t.Done()

		rules, announcements := c.current()
		state, out := form.Reduce(rules, c.state, next())
		c.state = state
		c.run(out.Effects)

		c.publisher.Publish(c.id, KindView, c.renderer.Render(rules, c.state, append(announcements, out.Announcements...)))
	})
}

func (c *Controller) record(in SubmitInput) models.DonationRecord {
	f := c.state.Form
	amount, _ := f.Amount.Decimal.Float64()
	now := c.now()

	return models.DonationRecord{
		ID:            NewSecurityToken(),
		Amount:        amount,
		Currency:      models.CurrencyBRL,
		PaymentMethod: *f.PaymentMethod,
		Donor: models.Donor{
			Name:  validation.Sanitize(f.DonorInfo.Name),
			Email: validation.Sanitize(f.DonorInfo.Email),
			Phone: validation.Sanitize(f.DonorInfo.Phone),
		},
		Status:    models.DonationStatusPending,
		CreatedAt: now.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Metadata: models.DonationMetadata{
			Source:    models.DonationSourceWebsite,
			UserAgent: in.UserAgent,
			Timestamp: now.UnixMilli(),
		},
	}
}
