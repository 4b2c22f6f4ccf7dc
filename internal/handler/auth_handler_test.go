package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/router"
)

func TestAuthHandler_LoginReturnsToken(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "rita", models.RoleRecruiter)

	login := env.login(t, "rita@example.com", "correct-horse")
	require.Equal(t, "Bearer", login.TokenType)
	require.Equal(t, models.RoleRecruiter, login.User.Role)
	require.True(t, login.ExpiresAt.After(time.Now()))
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "rita", models.RoleRecruiter)

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "rita",
		"password": "wrong-password",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	var denied struct {
		Success bool `json:"success"`
		Details struct {
			Reason string `json:"reason"`
		} `json:"details"`
	}
	decodeResponse(t, resp, &denied)
	require.False(t, denied.Success)
	require.Equal(t, "invalid_credentials", denied.Details.Reason)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "rita"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nobody",
		"password": "whatever",
	})
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAuthHandler_LoginIsRateLimited(t *testing.T) {
	env := newTestEnv(t, func(deps *router.Dependencies) {
		deps.LoginLimiter = middleware.RateLimit("login", 2, time.Minute)
	})

	for i := 0; i < 2; i++ {
		resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "x", "password": "y"})
		require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}

	resp := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "x", "password": "y"})
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestAdminHandler_CreatesUsers(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "root", models.RoleAdmin)
	admin := env.login(t, "root", "correct-horse")

	payload := dto.CreateUserRequest{
		Username: "rita",
		Email:    "rita@example.com",
		Password: "s3cure-pass",
		Role:     models.RoleRecruiter,
	}

	resp := env.do(t, http.MethodPost, "/api/v1/admin/users", admin.Token, payload)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	var user dto.UserResponse
	decodeData(t, resp, &user)
	require.Equal(t, "rita", user.Username)
	require.Equal(t, models.RoleRecruiter, user.Role)

	resp = env.do(t, http.MethodPost, "/api/v1/admin/users", admin.Token, payload)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	payload.Username = "candy"
	payload.Email = "candy@example.com"
	payload.Role = models.RoleCandidate
	resp = env.do(t, http.MethodPost, "/api/v1/admin/users", admin.Token, payload)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	recruiter := env.login(t, "rita", "s3cure-pass")
	resp = env.do(t, http.MethodPost, "/api/v1/admin/credentials/cleanup", recruiter.Token, nil)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/v1/admin/credentials/cleanup", admin.Token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var cleanup dto.CredentialCleanupResponse
	decodeData(t, resp, &cleanup)
	require.Zero(t, cleanup.Deleted)
}
