package dto

import (
	"strings"
	"time"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// LoginRequest accepts either a username or an email together with the password.
type LoginRequest struct {
	Username string `json:"username" validate:"required_without=Email,max=255"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// Login returns the identifier used to look the principal up.
func (r LoginRequest) Login() string {
	if email := strings.TrimSpace(r.Email); email != "" {
		return email
	}
	return strings.TrimSpace(r.Username)
}

// PrincipalResponse describes the authenticated account.
type PrincipalResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	FullName    string `json:"full_name,omitempty"`
	InterviewID string `json:"interview_id,omitempty"`
}

// LoginResponse carries the signed token.
type LoginResponse struct {
	Token     string            `json:"token"`
	TokenType string            `json:"token_type"`
	ExpiresAt time.Time         `json:"expires_at"`
	User      PrincipalResponse `json:"user"`
}

// CreateUserRequest provisions a persistent principal.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"required,oneof=admin recruiter"`
}

// UserResponse is the public view of a persistent principal.
type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:        model.ID,
		Username:  model.Username,
		Email:     model.Email,
		Role:      model.Role,
		CreatedAt: model.CreatedAt,
	}
}

// CredentialCleanupResponse reports how many expired temporary principals were removed.
type CredentialCleanupResponse struct {
	Deleted int64 `json:"deleted"`
}
