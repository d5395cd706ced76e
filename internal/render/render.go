// Package render turns a form State into the View the page applies: CSS
// classes, texts, ARIA attributes and HTML fragments.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"

	"donation-form/internal/form"
	"donation-form/internal/models"
	"donation-form/internal/validation"
)

// PanelContent is the operator supplied text of the payment panels.
// PixNote may hold simple markup; it is sanitized before use.
type PanelContent struct {
	BankName    string
	AccountType string
	CNPJ        string
	PixKey      string
	PixNote     string
}

type View struct {
	Step    int        `json:"step"`
	IsValid bool       `json:"is_valid"`
	Phase   form.Phase `json:"phase"`

	AmountButtons  []ButtonView `json:"amount_buttons"`
	CustomAmount   InputView    `json:"custom_amount"`
	PaymentButtons []ButtonView `json:"payment_buttons"`
	PaymentPanel   string       `json:"payment_panel"`

	Name  InputView `json:"name"`
	Email InputView `json:"email"`
	Phone InputView `json:"phone"`

	DonateButton ButtonState  `json:"donate_button"`
	SubmitHelp   string       `json:"submit_help"`
	Progress     ProgressView `json:"progress"`
	Message      string       `json:"message,omitempty"`
	Success      string       `json:"success,omitempty"`

	SecurityToken string   `json:"security_token"`
	Announcements []string `json:"announcements,omitempty"`
}

type ButtonView struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Selected    bool   `json:"selected"`
	AriaPressed string `json:"aria_pressed"`
	AriaLabel   string `json:"aria_label"`
	TabIndex    int    `json:"tabindex"`
}

type ErrorView struct {
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

type InputView struct {
	Value string    `json:"value"`
	Class string    `json:"class"`
	Error ErrorView `json:"error"`
}

// ButtonState is the donate button.
type ButtonState struct {
	Label     string `json:"label"`
	AriaLabel string `json:"aria_label"`
	Icon      string `json:"icon"`
	Disabled  bool   `json:"disabled"`
}

type StepView struct {
	Number int    `json:"number"`
	Label  string `json:"label"`
	Class  string `json:"class"`
}

type ProgressView struct {
	Steps   []StepView `json:"steps"`
	Percent float64    `json:"percent"`
}

var stepLabels = []string{"Valor", "Pagamento", "Dados", "Confirmação"}

// Renderer is safe for concurrent use once built.
type Renderer struct {
	panels map[models.PaymentMethod]string
}

// NewRenderer renders the payment panels once; they only depend on content.
func NewRenderer(content PanelContent) (*Renderer, error) {
	data := struct {
		PanelContent
		PixNote template.HTML
	}{
		PanelContent: content,
		PixNote:      template.HTML(bluemonday.UGCPolicy().Sanitize(content.PixNote)),
	}

	r := &Renderer{panels: make(map[models.PaymentMethod]string, len(models.PaymentMethods))}
	for _, m := range models.PaymentMethods {
		html, err := execute(string(m), data)
		if err != nil {
			return nil, fmt.Errorf("failed to render %s panel: %w", m, err)
		}
		r.panels[m] = html
	}
	return r, nil
}

// Render builds the View of s. announcements are passed through untouched.
func (r *Renderer) Render(rules *validation.Rules, s form.State, announcements []string) View {
	f := s.Form
	v := View{
		Step:          f.Step,
		IsValid:       f.IsValid,
		Phase:         s.Phase,
		CustomAmount:  input(s.CustomAmount, s.Amount),
		Name:          input(f.DonorInfo.Name, s.Name),
		Email:         input(f.DonorInfo.Email, s.Email),
		Phone:         input(f.DonorInfo.Phone, s.Phone),
		SecurityToken: s.SecurityToken,
		Announcements: announcements,
	}

	v.AmountButtons = amountButtons(rules.Presets, s.Preset)
	v.PaymentButtons = paymentButtons(f.PaymentMethod)
	if f.PaymentMethod != nil {
		v.PaymentPanel = r.panels[*f.PaymentMethod]
	}

	v.DonateButton, v.SubmitHelp = donateButton(rules, s)
	v.Progress = progress(f.Step)

	if s.Message != nil {
		v.Message = message(s.Message)
	}
	if s.Phase == form.PhaseSuccess && s.Receipt != nil {
		v.Success = success(s.Receipt)
	}
	return v
}

func input(value string, d form.Decoration) InputView {
	return InputView{
		Value: value,
		Class: d.Status,
		Error: ErrorView{Text: d.Message, Visible: d.MessageVisible},
	}
}

// amountButtons applies a roving tabindex: the selected button, or the
// first one when nothing is selected, is the only tab stop.
func amountButtons(presets []decimal.Decimal, selected decimal.NullDecimal) []ButtonView {
	buttons := make([]ButtonView, 0, len(presets))
	for i, p := range presets {
		label := validation.FormatCurrency(p)
		on := selected.Valid && selected.Decimal.Equal(p)

		b := ButtonView{
			Value:       p.String(),
			Label:       label,
			Selected:    on,
			AriaPressed: fmt.Sprint(on),
			AriaLabel:   "Doar " + label,
			TabIndex:    -1,
		}
		if on {
			b.AriaLabel = label + " - selecionado"
		}
		if on || (!selected.Valid && i == 0) {
			b.TabIndex = 0
		}
		buttons = append(buttons, b)
	}
	return buttons
}

func paymentButtons(selected *models.PaymentMethod) []ButtonView {
	buttons := make([]ButtonView, 0, len(models.PaymentMethods))
	for i, m := range models.PaymentMethods {
		on := selected != nil && *selected == m

		b := ButtonView{
			Value:       string(m),
			Label:       m.Label(),
			Selected:    on,
			AriaPressed: fmt.Sprint(on),
			AriaLabel:   m.Label(),
			TabIndex:    -1,
		}
		if on {
			b.AriaLabel = m.Label() + " - selecionado"
		}
		if on || (selected == nil && i == 0) {
			b.TabIndex = 0
		}
		buttons = append(buttons, b)
	}
	return buttons
}

func donateButton(rules *validation.Rules, s form.State) (ButtonState, string) {
	f := s.Form

	if s.Phase == form.PhaseSubmitting {
		return ButtonState{
			Label:     "Processando...",
			AriaLabel: "Processando doação",
			Icon:      "spinner",
			Disabled:  true,
		}, "Processando sua doação"
	}

	if f.IsValid {
		amount := validation.FormatCurrency(f.Amount.Decimal)
		return ButtonState{
			Label:     "Doar " + amount,
			AriaLabel: "Finalizar doação de " + amount,
			Icon:      "heart",
		}, "Clique para finalizar sua doação"
	}

	var short, long []string
	amount, method, donor := form.Missing(rules, f)
	if amount {
		short = append(short, "valor")
		long = append(long, "valor da doação")
	}
	if method {
		short = append(short, "forma de pagamento")
		long = append(long, "forma de pagamento")
	}
	if donor {
		short = append(short, "dados pessoais")
		long = append(long, "dados pessoais")
	}

	return ButtonState{
		Label:     "Finalizar doação",
		AriaLabel: "Finalizar doação - preencha: " + strings.Join(short, ", "),
		Icon:      "heart",
		Disabled:  true,
	}, "Preencha os seguintes campos: " + strings.Join(long, ", ")
}

func progress(step int) ProgressView {
	p := ProgressView{Percent: float64(step-1) / 3 * 100}
	for i, label := range stepLabels {
		sv := StepView{Number: i + 1, Label: label}
		switch {
		case sv.Number < step:
			sv.Class = "completed"
		case sv.Number == step:
			sv.Class = "active"
		}
		p.Steps = append(p.Steps, sv)
	}
	return p
}

func message(m *form.FormMessage) string {
	icon := "info-circle"
	if m.Kind == form.MessageError {
		icon = "exclamation-triangle"
	}
	html, _ := execute("message", struct {
		*form.FormMessage
		Icon string
	}{m, icon})
	return html
}

func success(rec *models.DonationRecord) string {
	html, _ := execute("success", struct {
		Name, Amount, Method, ID string
	}{
		Name:   rec.Donor.Name,
		Amount: validation.FormatCurrency(decimal.NewFromFloat(rec.Amount)),
		Method: rec.PaymentMethod.Label(),
		ID:     rec.ID,
	})
	return html
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
