package ai

import "errors"

// Precondition failures, returned before any network call.
var (
	ErrSettingsNotFound = errors.New("AI model settings not found. Please configure your AI model in settings.")
	ErrNoModelSelected  = errors.New("No AI model selected. Please select a model in settings.")
	ErrEmptyContent     = errors.New("story content is empty")
)

// ErrEmptyResponse means the model answered with nothing usable.
var ErrEmptyResponse = errors.New("Received empty response after cleaning")

// OpError is the user-facing failure of an AI operation. Err keeps the
// underlying cause for logs.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "Failed to " + e.Op + ". Please try again later."
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsPrecondition reports whether err is a precondition failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrSettingsNotFound) || errors.Is(err, ErrNoModelSelected) || errors.Is(err, ErrEmptyContent)
}

var errNoBackend = errors.New("no model backend configured")
