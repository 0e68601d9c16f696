package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/reelist/reelist/internal/model"
)

func TestGenerateSessionToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}

	if !strings.HasPrefix(tok.Plaintext, "rls_") {
		t.Errorf("Token should start with rls_, got: %s", tok.Plaintext)
	}
	if len(tok.Prefix) != TokenPrefixLen {
		t.Errorf("Prefix should be %d chars, got: %d", TokenPrefixLen, len(tok.Prefix))
	}
	if !strings.HasPrefix(tok.Hash, "$argon2id$v=") {
		t.Errorf("Hash should be in PHC format, got: %s", tok.Hash)
	}

	parsed, err := ParseSessionToken(tok.Plaintext)
	if err != nil {
		t.Fatalf("generated token should parse: %v", err)
	}
	if parsed.Prefix != tok.Prefix {
		t.Errorf("parsed prefix = %s, want %s", parsed.Prefix, tok.Prefix)
	}

	match, err := VerifyPassword(tok.Plaintext, tok.Hash)
	if err != nil || !match {
		t.Errorf("token should verify against its hash, match=%v err=%v", match, err)
	}
}

func TestGenerateSessionToken_UniqueSecrets(t *testing.T) {
	t.Parallel()

	const n = 20
	seen := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		tok, err := GenerateSessionToken()
		if err != nil {
			t.Fatalf("GenerateSessionToken failed: %v", err)
		}
		if seen[tok.Plaintext] {
			t.Fatalf("duplicate token at iteration %d", i)
		}
		seen[tok.Plaintext] = true
	}
}

func TestParseSessionToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		wantPrefix string
		wantErr    error
	}{
		{"valid", "rls_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "abc123", nil},
		{"wrong scheme", "pk_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "", ErrInvalidTokenFormat},
		{"uppercase hex", "rls_ABC123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "", ErrInvalidTokenFormat},
		{"short prefix", "rls_abc_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", "", ErrInvalidTokenFormat},
		{"short secret", "rls_abc123_4f8d2e1b", "", ErrInvalidTokenFormat},
		{"long secret", "rls_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1bx", "", ErrInvalidTokenFormat},
		{"empty", "", "", ErrInvalidTokenFormat},
		{"trailing space", "rls_abc123_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b ", "", ErrInvalidTokenFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed, err := ParseSessionToken(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseSessionToken(%q) error = %v, want %v", tt.token, err, tt.wantErr)
			}
			if tt.wantErr == nil && parsed.Prefix != tt.wantPrefix {
				t.Errorf("Prefix = %s, want %s", parsed.Prefix, tt.wantPrefix)
			}
		})
	}
}

func TestAuthContextHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if AuthFromContext(ctx) != nil {
		t.Error("expected nil auth on empty context")
	}
	if UserIDFromContext(ctx) != "" || SessionIDFromContext(ctx) != "" {
		t.Error("expected empty IDs on empty context")
	}

	ctx = ContextWithAuth(ctx, &model.AuthContext{UserID: "u1", SessionID: "s1"})
	if got := UserIDFromContext(ctx); got != "u1" {
		t.Errorf("UserIDFromContext() = %q, want u1", got)
	}
	if got := SessionIDFromContext(ctx); got != "s1" {
		t.Errorf("SessionIDFromContext() = %q, want s1", got)
	}
}
