package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// CredentialRepository persists temporary interview principals.
type CredentialRepository interface {
	GetByID(ctx context.Context, id string) (models.Credential, error)
	FindByLogin(ctx context.Context, login string) (models.Credential, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository instantiates a GORM-backed repository.
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) GetByID(ctx context.Context, id string) (models.Credential, error) {
	var credential models.Credential
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&credential).Error; err != nil {
		return models.Credential{}, err
	}
	return credential, nil
}

// FindByLogin returns the newest credential whose email or username matches the login.
func (r *credentialRepository) FindByLogin(ctx context.Context, login string) (models.Credential, error) {
	normalized := strings.ToLower(strings.TrimSpace(login))

	var credential models.Credential
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ? OR LOWER(username) = ?", normalized, normalized).
		Order("created_at DESC").
		First(&credential).Error
	if err != nil {
		return models.Credential{}, err
	}
	return credential, nil
}

func (r *credentialRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.Credential{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
