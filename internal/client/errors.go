package client

import (
	"errors"
	"net/http"
	"strings"
)

// SessionExpiredMessage is the text carried by a 403 from an authenticated
// endpoint.
const SessionExpiredMessage = "Sua sessão expirou. Por favor, faça login novamente."

var (
	// ErrSessionExpired matches every failure caused by a missing, expired or
	// rejected session token.
	ErrSessionExpired = errors.New("session expired")
	ErrMissingUserID  = errors.New("user id required")
)

// HTTPError is a non-2xx response. Message is the response body, or the
// operation's default text when the body is empty.
type HTTPError struct {
	StatusCode int
	Op         string
	Message    string
	Body       string
	cause      error
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return msg
	}
	if txt := http.StatusText(e.StatusCode); txt != "" {
		return txt
	}
	return "http error"
}

func (e *HTTPError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func parseHTTPError(op string, status int, raw []byte, fallback string, authed bool) error {
	body := strings.TrimSpace(string(raw))
	if authed && status == http.StatusForbidden {
		return &HTTPError{
			StatusCode: status,
			Op:         op,
			Message:    SessionExpiredMessage,
			Body:       body,
			cause:      ErrSessionExpired,
		}
	}
	msg := body
	if msg == "" {
		msg = fallback
	}
	return &HTTPError{StatusCode: status, Op: op, Message: msg, Body: body}
}

// StatusCode extracts the HTTP status from err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
