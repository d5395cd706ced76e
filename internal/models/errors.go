package models

import "errors"

var (
	ErrUnknownPreset        = errors.New("amount is not one of the preset values")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrUnknownField         = errors.New("unknown form field")
	ErrSessionNotFound      = errors.New("form session not found")
	ErrInvalidToken         = errors.New("invalid or expired session token")
)
