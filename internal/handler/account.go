package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/reelist/reelist/internal/auth"
	"github.com/reelist/reelist/internal/handler/dto"
	"github.com/reelist/reelist/internal/middleware"
	"github.com/reelist/reelist/internal/model"
	"github.com/reelist/reelist/internal/service"
)

// AccountService is the account surface used by AccountHandler.
type AccountService interface {
	SignUp(ctx context.Context, input service.SignUpInput) (*service.AuthResult, error)
	SignIn(ctx context.Context, input service.SignInInput) (*service.AuthResult, error)
	SignOut(ctx context.Context, authCtx *model.AuthContext, token string) error
	Profile(ctx context.Context, userID string) (*model.User, error)
}

// AccountHandler handles sign-up, sign-in and profile requests.
type AccountHandler struct {
	svc    AccountService
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

// SignUp handles POST /api/v1/auth/signup.
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.SignUp(r.Context(), service.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_signed_up",
		"user_id", result.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToSessionResponse(result.User, result.Token, result.ExpiresAt))
}

// SignIn handles POST /api/v1/auth/signin.
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.SignIn(r.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_signed_in",
		"user_id", result.User.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToSessionResponse(result.User, result.Token, result.ExpiresAt))
}

// SignOut handles POST /api/v1/auth/signout.
func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.AuthFromContext(r.Context())
	if err := h.svc.SignOut(r.Context(), authCtx, middleware.ExtractSessionToken(r)); err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	h.logger.Info("user_signed_out",
		"user_id", authCtx.UserID,
		"session_id", auth.SessionIDFromContext(r.Context()),
	)

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/me.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		handleServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProfileResponse(user))
}
