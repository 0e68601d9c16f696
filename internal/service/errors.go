// Package service provides business logic for the application.
package service

import (
	"errors"
	"sort"
	"strings"

	"github.com/reelist/reelist/internal/auth"
)

// Service errors.
var (
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = auth.ErrUnauthorized
	ErrUserNotFound       = errors.New("user not found")
	ErrListNotFound       = errors.New("list not found")
	ErrForbidden          = errors.New("not the owner of this list")
	ErrMovieNotFound      = errors.New("movie not found")
	ErrCatalogUnavailable = errors.New("movie catalog unavailable")
	ErrInvalidCursor      = errors.New("invalid pagination cursor")
)

// ValidationError carries per-field input errors.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(fields map[string]string) error {
	return &ValidationError{Fields: fields}
}
