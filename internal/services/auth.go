package services

import (
	"errors"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the signup form accepts.
const MinPasswordLength = 6

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordTooShort = errors.New("password too short")
)

// ValidateSignup runs the form checks done before any request is sent.
func ValidateSignup(password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
