package form

import (
	"github.com/shopspring/decimal"

	"donation-form/internal/models"
)

// Event is something that happened to the form: a DOM interaction, a
// submission decision or an elapsed timer.
type Event interface {
	event()
}

type (
	// PresetClicked toggles a preset amount button.
	PresetClicked struct{ Amount decimal.Decimal }

	CustomAmountInput   struct{ Value string }
	CustomAmountBlurred struct{}

	PaymentMethodSelected struct{ Method models.PaymentMethod }

	DonorFieldInput struct {
		Field models.Field
		Value string
	}
	DonorFieldBlurred struct{ Field models.Field }

	SubmitRejected struct{ Reason RejectReason }
	SubmitAccepted struct{ Record models.DonationRecord }
	// SubmitCompleted ends the simulated submission. SecurityToken replaces
	// the token of the reset form.
	SubmitCompleted struct{ SecurityToken string }

	ErrorFadeElapsed struct{ Field models.Field }
	MessageExpired   struct{}
	Loaded           struct{}

	// RulesChanged re-checks the form against rules that were swapped while
	// it was open.
	RulesChanged struct{}
)

func (PresetClicked) event()         {}
func (CustomAmountInput) event()     {}
func (CustomAmountBlurred) event()   {}
func (PaymentMethodSelected) event() {}
func (DonorFieldInput) event()       {}
func (DonorFieldBlurred) event()     {}
func (SubmitRejected) event()        {}
func (SubmitAccepted) event()        {}
func (SubmitCompleted) event()       {}
func (ErrorFadeElapsed) event()      {}
func (MessageExpired) event()        {}
func (Loaded) event()                {}
func (RulesChanged) event()          {}

type RejectReason string

const (
	RejectCooldown   RejectReason = "cooldown"
	RejectIncomplete RejectReason = "incomplete"
)

// Effect is deferred work for the caller. Durations are the caller's
// business; effects only say what to schedule or cancel.
type Effect interface {
	effect()
}

type (
	// ScheduleFade clears a hidden error message once it has faded out.
	ScheduleFade struct{ Field models.Field }
	// CancelFade drops a pending fade because the message is shown again.
	CancelFade struct{ Field models.Field }
	// ScheduleMessageExpiry removes the top-of-form message later.
	ScheduleMessageExpiry struct{}
	// ScheduleCompletion finishes the simulated submission later.
	ScheduleCompletion struct{}
)

func (ScheduleFade) effect()          {}
func (CancelFade) effect()            {}
func (ScheduleMessageExpiry) effect() {}
func (ScheduleCompletion) effect()    {}

// Output is what Reduce asks the caller to do besides storing the state.
type Output struct {
	Effects       []Effect
	Announcements []string
}

func (o *Output) effect(e ...Effect) {
	o.Effects = append(o.Effects, e...)
}

func (o *Output) announce(msg string) {
	o.Announcements = append(o.Announcements, msg)
}
