package ingress

import (
	"errors"
	"fmt"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrTooManyFiles    = errors.New("too many files")
	ErrUnexpectedField = errors.New("unexpected file field")
	ErrDisallowedMime  = errors.New("file type not allowed")
	ErrMalformed       = errors.New("malformed multipart body")
	ErrNoFile          = errors.New("no file uploaded")
)

// RejectError describes why an upload was refused at the edge.
type RejectError struct {
	Err   error
	Field string
	Mime  string
	// Allowed lists the accepted MIME types when Err is ErrDisallowedMime.
	Allowed []string
	Limit   int64
	Reason  string
}

func (e *RejectError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg += fmt.Sprintf(" (field %q)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *RejectError) Unwrap() error {
	return e.Err
}

func malformed(reason string) *RejectError {
	return &RejectError{Err: ErrMalformed, Reason: reason}
}
