package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reelist/reelist/internal/auth"
	"github.com/reelist/reelist/internal/cache"
	"github.com/reelist/reelist/internal/mailer"
	"github.com/reelist/reelist/internal/metrics"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/repository"
	"github.com/reelist/reelist/internal/validator"
)

// touchTimeout bounds the background last_used_at update.
const touchTimeout = 2 * time.Second

// AccountStore is the persistence needed for users and sessions.
type AccountStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateSession(ctx context.Context, s *model.Session) error
	GetActiveSessionsByPrefix(ctx context.Context, prefix string, now time.Time) ([]*model.Session, error)
	RevokeSession(ctx context.Context, id string) error
	TouchSession(ctx context.Context, id string) error
}

// AuthCache caches validated sessions keyed by a token digest.
type AuthCache interface {
	GetAuthContext(ctx context.Context, key string) (*model.AuthContext, error)
	SetAuthContext(ctx context.Context, key string, authCtx *model.AuthContext) error
	DeleteAuthContext(ctx context.Context, key string) error
}

// MailQueue accepts mail for background delivery.
type MailQueue interface {
	Enqueue(msg mailer.Message)
}

// AccountService handles sign-up, sign-in and session validation.
type AccountService struct {
	store      AccountStore
	cache      AuthCache
	mail       MailQueue
	logger     *slog.Logger
	metrics    metrics.Recorder
	sessionTTL time.Duration
	now        func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// AccountConfig configures an AccountService.
type AccountConfig struct {
	Store      AccountStore
	Cache      AuthCache
	Mail       MailQueue
	Logger     *slog.Logger
	Metrics    metrics.Recorder
	SessionTTL time.Duration
}

// NewAccountService creates a new AccountService.
func NewAccountService(cfg AccountConfig) *AccountService {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	return &AccountService{
		store:      cfg.Store,
		cache:      cfg.Cache,
		mail:       cfg.Mail,
		logger:     cfg.Logger.With("component", "service.account"),
		metrics:    cfg.Metrics,
		sessionTTL: cfg.SessionTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SignUpInput defines input for creating an account.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// SignInInput defines input for signing in.
type SignInInput struct {
	Email    string
	Password string
}

// AuthResult is returned by SignUp and SignIn.
type AuthResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// SignUp creates a profile and issues its first session.
func (s *AccountService) SignUp(ctx context.Context, input SignUpInput) (*AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	email := model.NormalizeEmail(input.Email)

	v := validator.New()
	validator.ValidateEmail(v, email)
	validator.ValidatePassword(v, input.Password)
	if !v.Valid() {
		return nil, newValidationError(v.Errors)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		Username:     model.UsernameFromEmail(email),
		PasswordHash: hash,
		ListIDs:      []string{},
		CreatedAt:    s.now(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSignUp()

	if s.mail != nil {
		s.mail.Enqueue(mailer.Message{
			Recipient: user.Email,
			Template:  mailer.WelcomeTemplate,
			Data:      map[string]any{"Username": user.Username},
		})
	}

	return result, nil
}

// SignIn verifies credentials and issues a new session.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *AccountService) SignIn(ctx context.Context, input SignInInput) (*AuthResult, error) {
	email := model.NormalizeEmail(input.Email)

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		// Spend the same hashing work as a real verification.
		_, _ = auth.VerifyPassword(input.Password, s.dummyPasswordHash())
		s.metrics.IncSignIn("failed")
		return nil, ErrInvalidCredentials
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		s.metrics.IncSignIn("failed")
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.IncSignIn("success")
	return result, nil
}

// SignOut revokes the session behind token and evicts its cached auth context.
func (s *AccountService) SignOut(ctx context.Context, authCtx *model.AuthContext, token string) error {
	if authCtx == nil || authCtx.SessionID == "" {
		return ErrUnauthorized
	}

	if err := s.store.RevokeSession(ctx, authCtx.SessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	if err := s.cache.DeleteAuthContext(ctx, auth.QuickHash(token)); err != nil {
		s.logger.Warn("failed to evict auth context", "session_id", authCtx.SessionID, "error", err)
	}

	return nil
}

// Profile returns the signed-in user's profile.
func (s *AccountService) Profile(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// Authenticate resolves a plaintext session token to an auth context.
// The boolean reports whether the result came from cache.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.AuthContext, bool, error) {
	parsed, err := auth.ParseSessionToken(token)
	if err != nil {
		return nil, false, ErrUnauthorized
	}

	cacheKey := auth.QuickHash(token)
	if cached, err := s.cache.GetAuthContext(ctx, cacheKey); err == nil {
		return cached, true, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("auth cache unavailable", "error", err)
	}

	sessions, err := s.store.GetActiveSessionsByPrefix(ctx, parsed.Prefix, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("failed to load sessions: %w", err)
	}

	// Several sessions may share a prefix; verify the full token against each.
	var matched *model.Session
	for _, sess := range sessions {
		ok, err := auth.VerifyPassword(token, sess.TokenHash)
		if err != nil {
			continue
		}
		if ok {
			matched = sess
			break
		}
	}
	if matched == nil {
		return nil, false, ErrUnauthorized
	}

	user, err := s.store.GetUserByID(ctx, matched.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, false, ErrUnauthorized
		}
		return nil, false, fmt.Errorf("failed to load session user: %w", err)
	}

	authCtx := &model.AuthContext{
		SessionID:   matched.ID,
		TokenPrefix: matched.TokenPrefix,
		UserID:      user.ID,
		Email:       user.Email,
		Username:    user.Username,
		ExpiresAt:   matched.ExpiresAt,
	}

	if err := s.cache.SetAuthContext(ctx, cacheKey, authCtx); err != nil {
		s.logger.Warn("failed to cache auth context", "session_id", matched.ID, "error", err)
	}

	go func(id string) {
		tctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := s.store.TouchSession(tctx, id); err != nil {
			s.logger.Debug("failed to touch session", "session_id", id, "error", err)
		}
	}(matched.ID)

	return authCtx, false, nil
}

func (s *AccountService) issueSession(ctx context.Context, user *model.User) (*AuthResult, error) {
	token, err := auth.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &model.Session{
		ID:          ulid.Make().String(),
		UserID:      user.ID,
		TokenHash:   token.Hash,
		TokenPrefix: token.Prefix,
		ExpiresAt:   now.Add(s.sessionTTL),
		CreatedAt:   now,
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &AuthResult{
		User:      user,
		Token:     token.Plaintext,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

func (s *AccountService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword("reelist-timing-equalizer")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
