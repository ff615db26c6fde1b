// Package errdef defines the error kinds shared across packages. Handlers and middleware inspect
// the kind to decide between a flash message, a redirect or an HTTP status.
package errdef

import (
	"errors"
	"fmt"
)

func NewForbidden(format string, a ...any) error {
	return forbidden{fmt.Errorf(format, a...)}
}

type forbidden struct{ error }

func IsForbidden(err error) bool {
	var e forbidden
	return errors.As(err, &e)
}

func NewBadRequest(format string, a ...any) error {
	return badRequest{fmt.Errorf(format, a...)}
}

type badRequest struct{ error }

func IsBadRequest(err error) bool {
	var e badRequest
	return errors.As(err, &e)
}

func NewDuplicated(format string, a ...any) error {
	return duplicated{fmt.Errorf(format, a...)}
}

type duplicated struct{ error }

func IsDuplicated(err error) bool {
	var e duplicated
	return errors.As(err, &e)
}

func NewUnauthorized(format string, a ...any) error {
	return unauthorized{fmt.Errorf(format, a...)}
}

type unauthorized struct{ error }

func IsUnauthorized(err error) bool {
	var e unauthorized
	return errors.As(err, &e)
}

// NewNotFound creates an error representing a resource that could not be found.
func NewNotFound(format string, a ...any) error {
	return notFound{fmt.Errorf(format, a...)}
}

type notFound struct{ error }

// IsNotFound returns true if err is an error representing a resource that could not be found and false otherwise.
func IsNotFound(err error) bool {
	var e notFound
	return errors.As(err, &e)
}

// NewConflict creates an error representing a conflicting state.
func NewConflict(format string, a ...any) error {
	return conflict{fmt.Errorf(format, a...)}
}

type conflict struct{ error }

// IsConflict returns true if err is an error representing a conflict and false otherwise.
func IsConflict(err error) bool {
	var e conflict
	return errors.As(err, &e)
}

// NewValidation creates an error representing well-formed input that breaks a domain rule, like an
// event scheduled in the past. Its message is meant to be shown to the user.
func NewValidation(format string, a ...any) error {
	return validation{fmt.Errorf(format, a...)}
}

type validation struct{ error }

// IsValidation returns true if err is an error representing a domain rule violation and false otherwise.
func IsValidation(err error) bool {
	var e validation
	return errors.As(err, &e)
}

// NewInvalidUpload creates an error representing a rejected file upload.
func NewInvalidUpload(format string, a ...any) error {
	return invalidUpload{fmt.Errorf(format, a...)}
}

type invalidUpload struct{ error }

// IsInvalidUpload returns true if err is an error representing a rejected file upload and false otherwise.
func IsInvalidUpload(err error) bool {
	var e invalidUpload
	return errors.As(err, &e)
}

// IsUserFacing returns true if err is of a kind whose message is safe to show to the user.
func IsUserFacing(err error) bool {
	return IsBadRequest(err) ||
		IsValidation(err) ||
		IsInvalidUpload(err) ||
		IsNotFound(err) ||
		IsUnauthorized(err) ||
		IsForbidden(err) ||
		IsDuplicated(err) ||
		IsConflict(err)
}
