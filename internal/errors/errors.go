// Package errors provides standardized domain errors for business logic.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors that can be used across all domain modules.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates missing or invalid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates insufficient permissions.
	ErrForbidden = errors.New("forbidden")

	// ErrLocked indicates the resource is temporarily locked.
	ErrLocked = errors.New("locked")

	// ErrMethodNotAllowed indicates the operation is not permitted for the
	// resource's current state (e.g. an explicit write against a proxied secret).
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrCryptoError indicates a local cryptographic operation failed:
	// a GCM tag mismatch, a malformed ciphertext envelope, or non-UTF-8
	// decrypted bytes. Never carries plaintext in its message.
	ErrCryptoError = errors.New("cryptographic operation failed")

	// ErrKmsError indicates the external KMS rejected a GenerateDataKey or
	// Decrypt call, or that no KEK is provisioned to serve a request.
	ErrKmsError = errors.New("kms operation failed")

	// ErrDatabaseError indicates a persistence failure not covered by the
	// more specific sentinels above (ErrConflict, ErrNotFound).
	ErrDatabaseError = errors.New("database error")
)

// New creates a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
