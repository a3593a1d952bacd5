// Package apierr carries the HTTP status and message key a page failure is
// rendered with.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Status int
	Code   string
	// Key names a message catalog entry; empty means format Err itself.
	Key string
	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("page error (%d)", e.Status)
	}
	return "page error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// WithKey returns a copy of e rendered through catalog key.
func (e *Error) WithKey(key string) *Error {
	out := *e
	out.Key = key
	return &out
}

// As unwraps err to an *Error, or wraps it as an internal failure.
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(http.StatusBadGateway, "upstream", err)
}
