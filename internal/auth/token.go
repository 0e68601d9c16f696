package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Session token format: rls_{prefix}_{secret}
// Example: rls_7a9f3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenScheme    = "rls"
	TokenPrefixLen = 6  // hex encoded 3 bytes, used for lookup
	TokenSecretLen = 32 // hex encoded 16 bytes
)

var (
	// ErrInvalidTokenFormat indicates the token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid session token format")

	// ErrUnauthorized is returned for any rejected, expired or revoked session.
	ErrUnauthorized = errors.New("invalid or expired session")

	tokenFormatRegex = regexp.MustCompile(`^rls_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedToken contains the parts of a newly issued session token.
type GeneratedToken struct {
	Plaintext string // Returned to the client once
	Hash      string // Argon2id hash for storage
	Prefix    string // Lookup key
}

// GenerateSessionToken creates a new random session token.
func GenerateSessionToken() (*GeneratedToken, error) {
	prefix, err := randomHex(TokenPrefixLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}

	secret, err := randomHex(TokenSecretLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("%s_%s_%s", TokenScheme, prefix, secret)

	hash, err := Hash(plaintext, TokenParams)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	return &GeneratedToken{
		Plaintext: plaintext,
		Hash:      hash,
		Prefix:    prefix,
	}, nil
}

// ParsedToken contains the parsed parts of a session token.
type ParsedToken struct {
	Prefix string
	Secret string
}

// ParseSessionToken extracts the components of a plaintext token.
func ParseSessionToken(token string) (*ParsedToken, error) {
	matches := tokenFormatRegex.FindStringSubmatch(token)
	if matches == nil {
		return nil, ErrInvalidTokenFormat
	}

	return &ParsedToken{
		Prefix: matches[1],
		Secret: matches[2],
	}, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
