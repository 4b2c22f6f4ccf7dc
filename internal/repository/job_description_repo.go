package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// JobDescriptionRepository defines persistence operations for job descriptions.
type JobDescriptionRepository interface {
	Create(ctx context.Context, jd *models.JobDescription) error
	GetByID(ctx context.Context, id string) (models.JobDescription, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.JobDescription, error)
	List(ctx context.Context, recruiterID string, limit int) ([]models.JobDescription, error)
}

type jobDescriptionRepository struct {
	db *gorm.DB
}

// NewJobDescriptionRepository instantiates a GORM-backed repository.
func NewJobDescriptionRepository(db *gorm.DB) JobDescriptionRepository {
	return &jobDescriptionRepository{db: db}
}

func (r *jobDescriptionRepository) Create(ctx context.Context, jd *models.JobDescription) error {
	return r.db.WithContext(ctx).Create(jd).Error
}

func (r *jobDescriptionRepository) GetByID(ctx context.Context, id string) (models.JobDescription, error) {
	var jd models.JobDescription
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&jd).Error; err != nil {
		return models.JobDescription{}, err
	}
	return jd, nil
}

func (r *jobDescriptionRepository) GetByIDs(ctx context.Context, ids []string) ([]models.JobDescription, error) {
	if len(ids) == 0 {
		return []models.JobDescription{}, nil
	}

	var jds []models.JobDescription
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&jds).Error; err != nil {
		return nil, err
	}
	return jds, nil
}

// List returns the newest job descriptions; an empty recruiter id lists across all recruiters.
func (r *jobDescriptionRepository) List(ctx context.Context, recruiterID string, limit int) ([]models.JobDescription, error) {
	query := r.db.WithContext(ctx).Model(&models.JobDescription{})
	if recruiterID != "" {
		query = query.Where("recruiter_id = ?", recruiterID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var jds []models.JobDescription
	if err := query.Order("created_at DESC").Find(&jds).Error; err != nil {
		return nil, err
	}
	return jds, nil
}
