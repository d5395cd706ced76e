package models

import (
	"github.com/shopspring/decimal"
)

// PaymentMethod is one of the payment options offered by the form.
type PaymentMethod string

const (
	PaymentPix          PaymentMethod = "pix"
	PaymentCreditCard   PaymentMethod = "credit_card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentMethods lists the methods in the order the form shows them.
var PaymentMethods = []PaymentMethod{PaymentPix, PaymentCreditCard, PaymentBankTransfer}

// ParsePaymentMethod maps the wire value to a PaymentMethod.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrUnknownPaymentMethod
}

// Label is the human readable name used in buttons and receipts.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentPix:
		return "PIX"
	case PaymentCreditCard:
		return "Cartão de Crédito"
	case PaymentBankTransfer:
		return "Transferência Bancária"
	}
	return string(m)
}

// Field identifies an input of the donation form.
type Field string

const (
	FieldAmount Field = "amount"
	FieldName   Field = "name"
	FieldEmail  Field = "email"
	FieldPhone  Field = "phone"
)

// DonorFields are the fields of the donor info group.
var DonorFields = []Field{FieldName, FieldEmail, FieldPhone}

// ParseField maps a path segment to any form Field.
func ParseField(s string) (Field, error) {
	if s == string(FieldAmount) {
		return FieldAmount, nil
	}
	return ParseDonorField(s)
}

// ParseDonorField maps a path segment to a donor Field.
func ParseDonorField(s string) (Field, error) {
	for _, f := range DonorFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", ErrUnknownField
}

// DonorInfo holds the donor fields as currently shown in the form.
type DonorInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// FormState is the aggregate the donation controller owns for one page view.
type FormState struct {
	Amount        decimal.NullDecimal `json:"amount"`
	PaymentMethod *PaymentMethod      `json:"payment_method"`
	DonorInfo     DonorInfo           `json:"donor_info"`
	Step          int                 `json:"step"`
	IsValid       bool                `json:"is_valid"`
}

// NewFormState returns the state of a freshly loaded form.
func NewFormState() FormState {
	return FormState{Step: 1}
}

// Donor is the sanitized donor block of a DonationRecord.
type Donor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// DonationMetadata describes where a simulated submission came from.
type DonationMetadata struct {
	Source    string `json:"source"`
	UserAgent string `json:"userAgent"`
	Timestamp int64  `json:"timestamp"`
}

// DonationRecord is the payload a submission would carry. It only lives for
// the duration of the simulated submission and is never sent anywhere.
type DonationRecord struct {
	ID            string           `json:"id"`
	Amount        float64          `json:"amount"`
	Currency      string           `json:"currency"`
	PaymentMethod PaymentMethod    `json:"paymentMethod"`
	Donor         Donor            `json:"donor"`
	Status        string           `json:"status"`
	CreatedAt     string           `json:"createdAt"`
	Metadata      DonationMetadata `json:"metadata"`
}

const (
	CurrencyBRL           = "BRL"
	DonationStatusPending = "pending"
	DonationSourceWebsite = "website"
)
