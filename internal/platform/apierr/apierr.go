package apierr

import "fmt"

// Error is the error type internal/ingest and internal/httpapi construct
// at their boundaries: a taxonomy Code (see codes.go), an HTTP
// Status to answer with when the failure surfaces over the wire, and
// the underlying cause. Internal callers (internal/ingest) that never
// touch HTTP leave Status zero and read Code/Error() directly.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" && e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error destined for an HTTP response.
func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// Wrap builds an Error for an internal (non-HTTP) component boundary;
// Status is left zero since the caller isn't answering a request.
func Wrap(code string, err error) *Error {
	return &Error{Code: code, Err: err}
}

// Msg is a Wrap convenience for callers that only have a message
// string, not an error value (e.g. an extraction result's Err string).
func Msg(code, msg string) *Error {
	return &Error{Code: code, Err: fmt.Errorf("%s", msg)}
}
