package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientGrant   = errors.New("daily grant already used")
	ErrServiceUnavailable  = errors.New("service unavailable")
	ErrSessionExhausted    = errors.New("session exhausted")
	ErrValidation          = errors.New("validation failed")
	ErrActionInFlight      = errors.New("action already in flight")
)
