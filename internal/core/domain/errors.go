package domain

import "errors"

// Sentinel errors returned by the core services.
// Adapters map them to transport status codes with errors.Is.
var (
	ErrChildNotFound       = errors.New("child not found")
	ErrVaccinationNotFound = errors.New("vaccination not found")
	ErrHealthEventNotFound = errors.New("health event not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidDate         = errors.New("invalid date")
	ErrUnknownGuideline    = errors.New("unknown guideline")
)
