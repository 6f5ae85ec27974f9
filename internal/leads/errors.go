package leads

import "errors"

// ValidationError is a rejection of a submission. Its message is safe to
// return to the submitter verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var (
	// ErrMissingFields is returned when type, name or email is blank
	ErrMissingFields = &ValidationError{Message: "missing required fields"}

	// ErrInvalidCategory is returned when type is not a known category
	ErrInvalidCategory = &ValidationError{Message: "invalid category"}

	// ErrInputTooLong is returned when name, email or message exceeds its limit
	ErrInputTooLong = &ValidationError{Message: "input too long"}

	// ErrInvalidEmail is returned when the email does not look like an address
	ErrInvalidEmail = &ValidationError{Message: "invalid email"}

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")
)
