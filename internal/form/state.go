// Package form is the donation form state machine. Reduce is pure: it takes
// the current State and one Event and returns the next State together with
// the deferred work (Effects) and screen reader Announcements the caller
// must carry out.
package form

import (
	"github.com/shopspring/decimal"

	"donation-form/internal/models"
	"donation-form/internal/validation"
)

// Phase is the submission gate state.
type Phase string

const (
	PhaseIncomplete Phase = "incomplete"
	PhaseReady      Phase = "ready"
	PhaseSubmitting Phase = "submitting"
	PhaseSuccess    Phase = "success"
)

// Decoration statuses map to the CSS classes of an input.
const (
	StatusNeutral = ""
	StatusValid   = "valid"
	StatusError   = "error"
)

// Decoration is the visual validation state of one input. A hidden message
// keeps its text until the fade finishes.
type Decoration struct {
	Status         string `json:"status"`
	Message        string `json:"message"`
	MessageVisible bool   `json:"message_visible"`
}

type MessageKind string

const MessageError MessageKind = "error"

// FormMessage is the transient banner at the top of the form.
type FormMessage struct {
	Kind    MessageKind `json:"kind"`
	Text    string      `json:"text"`
	Details []string    `json:"details,omitempty"`
}

const (
	MsgCooldown   = "Por favor, aguarde antes de enviar novamente."
	MsgIncomplete = "Por favor, preencha todos os campos obrigatórios."
)

// State is everything one form session shows. Pointer fields are replaced,
// never mutated in place, so copies of a State can be shared safely.
type State struct {
	Form models.FormState

	Preset       decimal.NullDecimal
	CustomAmount string

	Amount Decoration
	Name   Decoration
	Email  Decoration
	Phone  Decoration

	Phase   Phase
	Message *FormMessage

	// Pending is the record of the submission in flight, Receipt the one
	// shown after it completed.
	Pending *models.DonationRecord
	Receipt *models.DonationRecord

	SecurityToken string
}

// NewState returns a freshly loaded form.
func NewState(securityToken string) State {
	return State{
		Form:          models.NewFormState(),
		Phase:         PhaseIncomplete,
		SecurityToken: securityToken,
	}
}

// Decoration returns the decoration of field, or nil for an unknown field.
func (s *State) Decoration(field models.Field) *Decoration {
	switch field {
	case models.FieldAmount:
		return &s.Amount
	case models.FieldName:
		return &s.Name
	case models.FieldEmail:
		return &s.Email
	case models.FieldPhone:
		return &s.Phone
	}
	return nil
}

// DonorValid reports whether the donor block may be submitted: name and
// e-mail valid, phone blank or valid.
func DonorValid(rules *validation.Rules, info models.DonorInfo) bool {
	return rules.ValidateName(info.Name).Valid &&
		rules.ValidateEmail(info.Email).Valid &&
		rules.ValidatePhone(info.Phone).Valid
}

// Missing lists the groups still blocking submission, in form order.
func Missing(rules *validation.Rules, f models.FormState) (amount, method, donor bool) {
	return !f.Amount.Valid, f.PaymentMethod == nil, !DonorValid(rules, f.DonorInfo)
}

// Summary is the list shown under a rejected submission.
func Summary(rules *validation.Rules, f models.FormState) []string {
	var errs []string
	if !f.Amount.Valid || !f.Amount.Decimal.IsPositive() {
		errs = append(errs, "Selecione um valor para doação")
	}
	if f.PaymentMethod == nil {
		errs = append(errs, "Escolha uma forma de pagamento")
	}
	if !rules.ValidateName(f.DonorInfo.Name).Valid {
		errs = append(errs, "Nome inválido")
	}
	if !rules.ValidateEmail(f.DonorInfo.Email).Valid {
		errs = append(errs, "E-mail inválido")
	}
	if !rules.ValidatePhone(f.DonorInfo.Phone).Valid {
		errs = append(errs, "Telefone inválido")
	}
	return errs
}

// refresh recomputes the derived fields: Step, IsValid and the gate phase.
func (s *State) refresh(rules *validation.Rules) {
	amount, method, donor := Missing(rules, s.Form)
	switch {
	case amount:
		s.Form.Step = 1
	case method:
		s.Form.Step = 2
	case donor:
		s.Form.Step = 3
	default:
		s.Form.Step = 4
	}
	s.Form.IsValid = s.Form.Step == 4

	if s.Phase == PhaseSubmitting {
		return
	}
	if s.Form.IsValid {
		s.Phase = PhaseReady
	} else {
		s.Phase = PhaseIncomplete
	}
}
