package dto

import (
	"time"

	"github.com/reelist/reelist/internal/model"
)

// SignUpRequest is the body of POST /auth/signup.
type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// SignInRequest is the body of POST /auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileResponse is a user's public profile.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ListIDs   []string  `json:"list_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse is returned after sign-up and sign-in.
// The token is shown exactly once.
type SessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      ProfileResponse `json:"user"`
}

// ToProfileResponse converts a User model to ProfileResponse.
func ToProfileResponse(user *model.User) ProfileResponse {
	listIDs := user.ListIDs
	if listIDs == nil {
		listIDs = []string{}
	}
	return ProfileResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		ListIDs:   listIDs,
		CreatedAt: user.CreatedAt,
	}
}

// ToSessionResponse builds the sign-up/sign-in response.
func ToSessionResponse(user *model.User, token string, expiresAt time.Time) *SessionResponse {
	return &SessionResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToProfileResponse(user),
	}
}
