package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/reelist/reelist/internal/auth"
	"github.com/reelist/reelist/internal/model"
)

// SessionTokenHeader is the alternative to "Authorization: Bearer".
const SessionTokenHeader = "X-Session-Token"

// DefaultAuthFailureDelay is the minimum time spent on a rejected token.
const DefaultAuthFailureDelay = 200 * time.Millisecond

// Authenticator resolves a session token to an auth context.
// The boolean reports a cache hit. Rejected tokens yield auth.ErrUnauthorized.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AuthContext, bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	// FailureDelay pads rejected requests so failure reasons are not distinguishable by timing.
	FailureDelay time.Duration
}

// Auth returns a middleware that requires a valid session token.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, true)
}

// OptionalAuth attaches the auth context when a token is presented.
// Requests without a token continue anonymously; a bad token is still rejected.
func OptionalAuth(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, false)
}

func authenticate(cfg AuthConfig, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractSessionToken(r)
			if token == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			start := time.Now()
			authCtx, cacheHit, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				reason := "invalid_token"
				if !errors.Is(err, auth.ErrUnauthorized) {
					reason = "lookup_error"
					cfg.Logger.Error("session lookup failed",
						slog.String("error", err.Error()),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				}
				logAuthFailure(cfg.Logger, r, reason)
				padFailure(start, cfg.FailureDelay)
				writeAuthError(w)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("session_id", authCtx.SessionID),
				slog.String("token_prefix", authCtx.TokenPrefix),
				slog.String("user_id", authCtx.UserID),
				slog.Bool("cache_hit", cacheHit),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ExtractSessionToken reads the session token from the request.
// Supports both "Authorization: Bearer <token>" and "X-Session-Token: <token>".
func ExtractSessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(r.Header.Get(SessionTokenHeader))
}

func padFailure(start time.Time, min time.Duration) {
	if elapsed := time.Since(start); elapsed < min {
		time.Sleep(min - elapsed)
	}
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing session")
}
