package form

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"donation-form/internal/models"
	"donation-form/internal/validation"
)

const MsgLoaded = "Página de doação carregada. Use Tab para navegar pelos campos."

// Reduce applies ev to s. Edits are ignored while a submission is in flight;
// the first edit after a success dismisses the receipt.
func Reduce(rules *validation.Rules, s State, ev Event) (State, Output) {
	var out Output

	switch e := ev.(type) {
	case PresetClicked:
		if !rules.IsPreset(e.Amount) || !beginEdit(&s) {
			return s, out
		}
		if s.Preset.Valid && s.Preset.Decimal.Equal(e.Amount) {
			s.Preset = decimal.NullDecimal{}
			s.Form.Amount = decimal.NullDecimal{}
			out.announce("Valor de doação desmarcado")
		} else {
			s.Preset = decimal.NewNullDecimal(e.Amount)
			s.Form.Amount = decimal.NewNullDecimal(e.Amount)
			s.CustomAmount = ""
			out.effect(decorate(&s.Amount, models.FieldAmount, validation.Result{Empty: true})...)
			out.announce("Valor de " + validation.FormatCurrency(e.Amount) + " selecionado")
		}

	case CustomAmountInput:
		if !beginEdit(&s) {
			return s, out
		}
		s.CustomAmount = e.Value
		s.Preset = decimal.NullDecimal{}

		amount, res := rules.ValidateAmount(e.Value)
		if res.Valid {
			s.Form.Amount = decimal.NewNullDecimal(amount)
		} else {
			s.Form.Amount = decimal.NullDecimal{}
		}
		out.effect(decorate(&s.Amount, models.FieldAmount, res)...)

	case CustomAmountBlurred:
		if !beginEdit(&s) {
			return s, out
		}
		if strings.TrimSpace(s.CustomAmount) != "" {
			if amount, res := rules.ValidateAmount(s.CustomAmount); res.Valid {
				s.CustomAmount = validation.FormatCurrency(amount)
			}
		}

	case PaymentMethodSelected:
		if !beginEdit(&s) {
			return s, out
		}
		m := e.Method
		s.Form.PaymentMethod = &m
		out.announce("Forma de pagamento " + m.Label() + " selecionada")

	case DonorFieldInput:
		if !beginEdit(&s) {
			return s, out
		}
		out.effect(inputDonorField(rules, &s, e.Field, e.Value)...)

	case DonorFieldBlurred:
		if !beginEdit(&s) {
			return s, out
		}
		out.effect(blurDonorField(rules, &s, e.Field)...)

	case SubmitRejected:
		msg := &FormMessage{Kind: MessageError, Text: MsgCooldown}
		if e.Reason != RejectCooldown {
			msg.Text = MsgIncomplete
			msg.Details = Summary(rules, s.Form)
		}
		s.Message = msg
		out.effect(ScheduleMessageExpiry{})
		return s, out

	case SubmitAccepted:
		if s.Phase != PhaseReady {
			return s, out
		}
		rec := e.Record
		s.Phase = PhaseSubmitting
		s.Pending = &rec
		s.Message = nil
		out.effect(ScheduleCompletion{})
		return s, out

	case SubmitCompleted:
		if s.Phase != PhaseSubmitting {
			return s, out
		}
		receipt := s.Pending
		s = NewState(e.SecurityToken)
		s.Phase = PhaseSuccess
		s.Receipt = receipt
		return s, out

	case ErrorFadeElapsed:
		if d := s.Decoration(e.Field); d != nil && !d.MessageVisible {
			d.Message = ""
		}
		return s, out

	case MessageExpired:
		s.Message = nil
		return s, out

	case Loaded:
		out.announce(MsgLoaded)
		return s, out

	case RulesChanged:
		out.effect(recheck(rules, &s, &out)...)

	default:
		return s, out
	}

	s.refresh(rules)
	return s, out
}

// recheck drops a preset that is gone and validates the entered values again.
// Inputs without a decoration stay untouched.
func recheck(rules *validation.Rules, s *State, out *Output) []Effect {
	var effects []Effect

	switch {
	case s.Preset.Valid:
		if !rules.IsPreset(s.Preset.Decimal) {
			s.Preset = decimal.NullDecimal{}
			s.Form.Amount = decimal.NullDecimal{}
			out.announce("Valor de doação desmarcado")
		}
	case strings.TrimSpace(s.CustomAmount) != "":
		amount, res := rules.ValidateAmount(s.CustomAmount)
		if res.Valid {
			s.Form.Amount = decimal.NewNullDecimal(amount)
		} else {
			s.Form.Amount = decimal.NullDecimal{}
		}
		effects = append(effects, decorate(&s.Amount, models.FieldAmount, res)...)
	}

	info := s.Form.DonorInfo
	if s.Name.Status != StatusNeutral {
		effects = append(effects, decorate(&s.Name, models.FieldName, rules.ValidateName(info.Name))...)
	}
	if s.Email.Status != StatusNeutral {
		effects = append(effects, decorate(&s.Email, models.FieldEmail, rules.ValidateEmail(info.Email))...)
	}
	if s.Phone.Status != StatusNeutral {
		effects = append(effects, decorate(&s.Phone, models.FieldPhone, rules.ValidatePhone(info.Phone))...)
	}
	return effects
}

func beginEdit(s *State) bool {
	if s.Phase == PhaseSubmitting {
		return false
	}
	s.Receipt = nil
	return true
}

// inputDonorField stores a typed value. Name and e-mail keep surrounding
// spaces until blur so typing "Maria " does not eat the space.
func inputDonorField(rules *validation.Rules, s *State, field models.Field, raw string) []Effect {
	info := &s.Form.DonorInfo

	switch field {
	case models.FieldName:
		info.Name = norm.NFC.String(validation.StripMarkup(raw))
		return decorate(&s.Name, field, rules.ValidateName(info.Name))

	case models.FieldEmail:
		info.Email = strings.ToLower(validation.StripMarkup(raw))
		res := validation.Result{Empty: true}
		if strings.TrimSpace(info.Email) != "" {
			res = rules.ValidateEmail(info.Email)
		}
		return decorate(&s.Email, field, res)

	case models.FieldPhone:
		info.Phone = validation.FormatPhone(raw)
		return decorate(&s.Phone, field, rules.ValidatePhone(info.Phone))
	}
	return nil
}

func blurDonorField(rules *validation.Rules, s *State, field models.Field) []Effect {
	info := &s.Form.DonorInfo

	switch field {
	case models.FieldName:
		info.Name = validation.NormalizeName(info.Name)
		if info.Name == "" {
			return nil
		}
		return decorate(&s.Name, field, rules.ValidateName(info.Name))

	case models.FieldEmail:
		info.Email = validation.NormalizeEmail(info.Email)
		return decorate(&s.Email, field, rules.ValidateEmail(info.Email))

	case models.FieldPhone:
		return decorate(&s.Phone, field, rules.ValidatePhone(info.Phone))
	}
	return nil
}

// decorate moves d to the state res calls for. It returns no effects when
// nothing changes, so validating the same input twice is invisible.
func decorate(d *Decoration, field models.Field, res validation.Result) []Effect {
	var next Decoration
	switch {
	case res.Empty:
		next.Status = StatusNeutral
	case res.Valid:
		next.Status = StatusValid
	default:
		next = Decoration{Status: StatusError, Message: res.Message, MessageVisible: true}
	}
	if !next.MessageVisible {
		next.Message = d.Message
	}
	if next == *d {
		return nil
	}

	var effects []Effect
	switch {
	case next.MessageVisible && !d.MessageVisible:
		effects = append(effects, CancelFade{Field: field})
	case !next.MessageVisible && d.MessageVisible:
		effects = append(effects, ScheduleFade{Field: field})
	}
	*d = next
	return effects
}
