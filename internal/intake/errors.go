package intake

import "net/http"

// MsgStoreFailed is the only detail a caller sees when persistence fails.
const MsgStoreFailed = "could not save request"

// MsgUnavailable is returned when the service is missing required configuration.
const MsgUnavailable = "internal server error"

// Error is a submission failure mapped to an HTTP status. Message is safe to
// return to the submitter; Err carries the internal cause for logging.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

func badRequest(msg string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg, Err: err}
}

func internalError(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
