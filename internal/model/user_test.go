package model

import (
	"strings"
	"testing"
	"time"
)

func TestUsernameFromEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		email string
		want  string
	}{
		{"ana@example.com", "ana"},
		{"first.last+tag@mail.example.org", "first.last+tag"},
		{"no-at-sign", "no-at-sign"},
		{"@example.com", ""},
	}

	for _, tt := range tests {
		if got := UsernameFromEmail(tt.email); got != tt.want {
			t.Errorf("UsernameFromEmail(%q) = %q, want %q", tt.email, got, tt.want)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	if got := NormalizeEmail("  Ana@Example.COM "); got != "ana@example.com" {
		t.Errorf("NormalizeEmail() = %q, want ana@example.com", got)
	}
}

func TestSession_IsActive(t *testing.T) {
	t.Parallel()

	now := time.Now()
	revokedAt := now.Add(-time.Minute)

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{"active", Session{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", Session{ExpiresAt: now.Add(-time.Second)}, false},
		{"expires exactly now", Session{ExpiresAt: now}, false},
		{"revoked", Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.session.IsActive(now); got != tt.want {
				t.Errorf("IsActive() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidMovieID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{"tt0111161", true},
		{"any-opaque-key", true},
		{"", false},
		{strings.Repeat("x", MaxMovieIDLength), true},
		{strings.Repeat("x", MaxMovieIDLength+1), false},
	}

	for _, tt := range tests {
		if got := ValidMovieID(tt.id); got != tt.want {
			t.Errorf("ValidMovieID(len=%d) = %v, want %v", len(tt.id), got, tt.want)
		}
	}
}
