package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// ResumeRepository stores the outcome of screening runs.
type ResumeRepository interface {
	CreateBatch(ctx context.Context, records []models.ResumeRecord) error
	GetByID(ctx context.Context, id string) (models.ResumeRecord, error)
	List(ctx context.Context, recruiterID string, limit int) ([]models.ResumeRecord, error)
}

type resumeRepository struct {
	db *gorm.DB
}

// NewResumeRepository instantiates a GORM-backed repository.
func NewResumeRepository(db *gorm.DB) ResumeRepository {
	return &resumeRepository{db: db}
}

func (r *resumeRepository) CreateBatch(ctx context.Context, records []models.ResumeRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&records).Error
}

func (r *resumeRepository) GetByID(ctx context.Context, id string) (models.ResumeRecord, error) {
	var record models.ResumeRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		return models.ResumeRecord{}, err
	}
	return record, nil
}

// List returns screening results newest first; an empty recruiter id lists everything.
func (r *resumeRepository) List(ctx context.Context, recruiterID string, limit int) ([]models.ResumeRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.ResumeRecord{})
	if recruiterID != "" {
		query = query.Where("recruiter_id = ?", recruiterID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var records []models.ResumeRecord
	if err := query.Order("created_at DESC").Order("rank ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
