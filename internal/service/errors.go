// Package service holds the business rules of the platform: accounts and
// sessions, the mission lifecycle, the admin dashboard, quotes and driver
// recruitment.  Handlers translate the errors defined here into HTTP status
// codes.
package service

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// ValidationError reports malformed input.  Fields maps a JSON field path to
// a human readable problem.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + e.Fields[k]
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// invalid is shorthand for a single-field ValidationError.
func invalid(field, problem string) *ValidationError {
	return &ValidationError{Message: "invalid input", Fields: map[string]string{field: problem}}
}

// fieldErrors accumulates problems before they are turned into one error.
type fieldErrors map[string]string

func (f fieldErrors) add(field, problem string) {
	if _, ok := f[field]; !ok {
		f[field] = problem
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: "invalid input", Fields: f}
}

// merge folds a ValidationError from check into f and passes any other
// error through.
func (f fieldErrors) merge(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	for k, v := range ve.Fields {
		f.add(k, v)
	}
	return nil
}
