package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the auth service. The HTTP layer maps them to
// status codes in one place.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidCode        = errors.New("invalid or expired verification code")
	ErrAlreadyVerified    = errors.New("account already verified or not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminExists        = errors.New("admin already exists")
	ErrEmailDelivery      = errors.New("failed to send verification email")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrOAuthFailed        = errors.New("oauth login failed")
)

// ValidationError names the offending field; it unwraps to ErrInvalidInput.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func required(field string) error {
	return &ValidationError{Field: field, Msg: "is required"}
}

// UnverifiedError is returned by Signin for accounts that still have to
// confirm their email. It unwraps to ErrNotVerified.
type UnverifiedError struct{ Email string }

func (e *UnverifiedError) Error() string { return "email not verified: " + e.Email }

func (e *UnverifiedError) Unwrap() error { return ErrNotVerified }
