// Package validator collects field-level input errors.
package validator

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/reelist/reelist/internal/model"
)

// Input limits.
const (
	MinPasswordLength = 6
	// Passwords are accepted between 6 and 72 characters.
	MaxPasswordLength = 72
	MaxEmailLength    = 254
	MaxListNameLength = 100
	MinSearchLength   = 3
	MaxSearchLength   = 200
	MaxPageSize       = 100
	MaxSearchPage     = 100
)

// EmailRX is a permissive shape check run after net/mail parsing.
var EmailRX = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Validator accumulates errors keyed by field name.
type Validator struct {
	Errors map[string]string
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

// Valid reports whether no errors were recorded.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError records message for key unless key already has an error.
func (v *Validator) AddError(key, message string) {
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = message
	}
}

// Check records message for key when ok is false.
func (v *Validator) Check(ok bool, key, message string) {
	if !ok {
		v.AddError(key, message)
	}
}

// Matches reports whether value matches rx.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}


// ValidateEmail checks an address that has already been normalized.
func ValidateEmail(v *Validator, email string) {
	v.Check(email != "", "email", "must be provided")
	v.Check(len(email) <= MaxEmailLength, "email", "must not be more than 254 bytes long")
	if email == "" {
		return
	}
	addr, err := mail.ParseAddress(email)
	v.Check(err == nil && addr.Address == email && Matches(email, EmailRX), "email", "must be a valid email address")
}

// ValidatePassword checks length in characters.
func ValidatePassword(v *Validator, password string) {
	n := utf8.RuneCountInString(password)
	v.Check(password != "", "password", "must be provided")
	v.Check(n >= MinPasswordLength, "password", "must be at least 6 characters long")
	v.Check(n <= MaxPasswordLength, "password", "must not be more than 72 characters long")
}

// ValidateListName checks a list name that has already been trimmed.
func ValidateListName(v *Validator, name string) {
	v.Check(name != "", "name", "must be provided")
	v.Check(utf8.RuneCountInString(name) <= MaxListNameLength, "name", "must not be more than 100 characters long")
	v.Check(utf8.ValidString(name) && !hasControl(name), "name", "must not contain control characters")
}

// ValidateVisibility accepts only the known visibility values.
func ValidateVisibility(v *Validator, visibility model.Visibility) {
	v.Check(visibility.IsValid(), "visibility", "must be public or private")
}

// ValidateMovieID checks a single external movie identifier.
func ValidateMovieID(v *Validator, key, id string) {
	v.Check(model.ValidMovieID(id), key, "must be a non-empty id of at most 64 bytes")
	v.Check(!hasControl(id) && strings.TrimSpace(id) == id, key, "must not contain whitespace or control characters")
}

// ValidateMovieIDs checks every identifier of a list payload.
func ValidateMovieIDs(v *Validator, ids []string) {
	for _, id := range ids {
		ValidateMovieID(v, "movies", id)
		if !v.Valid() {
			return
		}
	}
}

// ValidateSearch checks a title query and page number.
func ValidateSearch(v *Validator, query string, page int) {
	v.Check(utf8.RuneCountInString(query) <= MaxSearchLength, "q", "must not be more than 200 characters long")
	v.Check(page >= 1, "page", "must be greater than zero")
	v.Check(page <= MaxSearchPage, "page", "must be a maximum of 100")
}

// ValidatePageSize checks a pagination limit.
func ValidatePageSize(v *Validator, limit int) {
	v.Check(limit > 0, "limit", "must be greater than zero")
	v.Check(limit <= MaxPageSize, "limit", "must be a maximum of 100")
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}
