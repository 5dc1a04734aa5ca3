package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidInput      = errors.New("invalid campaign")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrAlreadyMailed     = errors.New("campaign has already mailed")
)
