package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/repository"
)

// AuthService authenticates persistent and temporary principals and issues tokens.
type AuthService interface {
	Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error)
	CreateUser(ctx context.Context, payload dto.CreateUserRequest) (dto.UserResponse, error)
	CleanupExpiredCredentials(ctx context.Context) (dto.CredentialCleanupResponse, error)
}

type authService struct {
	users       repository.UserRepository
	credentials repository.CredentialRepository
	validator   *validator.Validate
	secret      []byte
	tokenTTL    time.Duration
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAuthService builds the authentication service.
func NewAuthService(users repository.UserRepository, credentials repository.CredentialRepository, validate *validator.Validate, secret string, tokenTTL time.Duration, logger zerolog.Logger) AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	return &authService{
		users:       users,
		credentials: credentials,
		validator:   validate,
		secret:      []byte(secret),
		tokenTTL:    tokenTTL,
		logger:      logger.With().Str("component", "auth_service").Logger(),
		now:         time.Now,
	}
}

// Login checks persistent principals first and then temporary candidate credentials.
func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LoginResponse{}, err
	}

	login := payload.Login()

	user, err := s.users.FindByLogin(ctx, login)
	switch {
	case err == nil:
		if !passwordMatches(user.PasswordHash, payload.Password) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return s.issue(jwt.MapClaims{"sub": user.ID, "role": user.Role}, s.now().Add(s.tokenTTL), dto.PrincipalResponse{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
			Role:     user.Role,
		})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return dto.LoginResponse{}, err
	}

	credential, err := s.credentials.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LoginResponse{}, ErrInvalidCredentials
		}
		return dto.LoginResponse{}, err
	}

	// order matters: a wrong password never reveals the account state
	if !passwordMatches(credential.PasswordHash, payload.Password) {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}
	now := s.now()
	if credential.Expired(now) {
		s.logger.Info().Str("credential_id", credential.ID).Msg("expired credential login rejected")
		return dto.LoginResponse{}, ErrCredentialExpired
	}
	if credential.Attempted {
		s.logger.Info().Str("credential_id", credential.ID).Msg("attempted credential login rejected")
		return dto.LoginResponse{}, ErrCredentialAttempted
	}

	expiresAt := now.Add(s.tokenTTL)
	if credential.ExpiresAt.Before(expiresAt) {
		expiresAt = credential.ExpiresAt
	}

	return s.issue(jwt.MapClaims{
		"sub":          credential.ID,
		"role":         models.RoleCandidate,
		"interview_id": credential.InterviewID,
	}, expiresAt, dto.PrincipalResponse{
		ID:          credential.ID,
		Username:    credential.Username,
		Email:       credential.Email,
		Role:        models.RoleCandidate,
		FullName:    credential.FullName,
		InterviewID: credential.InterviewID,
	})
}

func (s *authService) issue(claims jwt.MapClaims, expiresAt time.Time, principal dto.PrincipalResponse) (dto.LoginResponse, error) {
	claims["iat"] = s.now().Unix()
	claims["exp"] = expiresAt.Unix()

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info().Str("principal_id", principal.ID).Str("role", principal.Role).Msg("login succeeded")

	return dto.LoginResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC(),
		User:      principal,
	}, nil
}

func (s *authService) CreateUser(ctx context.Context, payload dto.CreateUserRequest) (dto.UserResponse, error) {
	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	payload.Role = strings.ToLower(strings.TrimSpace(payload.Role))

	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	exists, err := s.users.ExistsByLogin(ctx, payload.Username, payload.Email)
	if err != nil {
		return dto.UserResponse{}, err
	}
	if exists {
		return dto.UserResponse{}, ErrUserExists
	}

	hash, err := hashPassword(payload.Password)
	if err != nil {
		return dto.UserResponse{}, err
	}

	user := models.User{
		Username:     payload.Username,
		Email:        payload.Email,
		PasswordHash: hash,
		Role:         payload.Role,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user created")

	return dto.NewUserResponse(user), nil
}

func (s *authService) CleanupExpiredCredentials(ctx context.Context) (dto.CredentialCleanupResponse, error) {
	deleted, err := s.credentials.DeleteExpired(ctx, s.now())
	if err != nil {
		return dto.CredentialCleanupResponse{}, err
	}

	s.logger.Info().Int64("deleted", deleted).Msg("expired credentials removed")

	return dto.CredentialCleanupResponse{Deleted: deleted}, nil
}
