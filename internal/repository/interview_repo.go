package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// InterviewRepository persists interview sessions. Every mutation of an existing
// session is guarded by its version column.
type InterviewRepository interface {
	CreateWithCredential(ctx context.Context, interview *models.Interview, credential *models.Credential) error
	GetByID(ctx context.Context, id string) (models.Interview, error)
	ListByCredential(ctx context.Context, credentialID string) ([]models.Interview, error)
	ListByRecruiter(ctx context.Context, recruiterID string, status models.InterviewStatus) ([]models.Interview, error)
	UpdateVersioned(ctx context.Context, interview *models.Interview, expectedVersion int) error
	Complete(ctx context.Context, interview *models.Interview, expectedVersion int) error
	Cancel(ctx context.Context, interview *models.Interview, expectedVersion int) error
}

type interviewRepository struct {
	db *gorm.DB
}

// NewInterviewRepository instantiates a GORM-backed repository.
func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

// CreateWithCredential stores a new session and its temporary principal atomically.
func (r *interviewRepository) CreateWithCredential(ctx context.Context, interview *models.Interview, credential *models.Credential) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(credential).Error; err != nil {
			return err
		}
		interview.CredentialID = credential.ID
		if err := tx.Create(interview).Error; err != nil {
			return err
		}
		credential.InterviewID = interview.ID
		return tx.Model(&models.Credential{}).
			Where("id = ?", credential.ID).
			Update("interview_id", interview.ID).Error
	})
}

func (r *interviewRepository) GetByID(ctx context.Context, id string) (models.Interview, error) {
	var interview models.Interview
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&interview).Error; err != nil {
		return models.Interview{}, err
	}
	return interview, nil
}

func (r *interviewRepository) ListByCredential(ctx context.Context, credentialID string) ([]models.Interview, error) {
	var interviews []models.Interview
	err := r.db.WithContext(ctx).
		Where("credential_id = ?", credentialID).
		Order("created_at DESC").
		Find(&interviews).Error
	if err != nil {
		return nil, err
	}
	return interviews, nil
}

// ListByRecruiter filters by recruiter and, when non-empty, by status.
func (r *interviewRepository) ListByRecruiter(ctx context.Context, recruiterID string, status models.InterviewStatus) ([]models.Interview, error) {
	query := r.db.WithContext(ctx).Model(&models.Interview{})
	if recruiterID != "" {
		query = query.Where("recruiter_id = ?", recruiterID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var interviews []models.Interview
	if err := query.Order("updated_at DESC").Find(&interviews).Error; err != nil {
		return nil, err
	}
	return interviews, nil
}

func (r *interviewRepository) UpdateVersioned(ctx context.Context, interview *models.Interview, expectedVersion int) error {
	return saveVersioned(r.db.WithContext(ctx), interview, expectedVersion)
}

// Complete stores the final session state and burns the candidate credential in one transaction.
func (r *interviewRepository) Complete(ctx context.Context, interview *models.Interview, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, interview, expectedVersion); err != nil {
			return err
		}
		if interview.CredentialID == "" {
			return nil
		}
		return tx.Model(&models.Credential{}).
			Where("id = ?", interview.CredentialID).
			Update("attempted", true).Error
	})
}

// Cancel stores the cancelled session and expires the candidate credential in one transaction.
func (r *interviewRepository) Cancel(ctx context.Context, interview *models.Interview, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, interview, expectedVersion); err != nil {
			return err
		}
		if interview.CredentialID == "" {
			return nil
		}
		expiry := time.Now().UTC()
		if interview.CancelledAt != nil {
			expiry = *interview.CancelledAt
		}
		return tx.Model(&models.Credential{}).
			Where("id = ?", interview.CredentialID).
			Update("expires_at", expiry).Error
	})
}

func saveVersioned(tx *gorm.DB, interview *models.Interview, expectedVersion int) error {
	now := time.Now().UTC()
	result := tx.Model(&models.Interview{}).
		Where("id = ? AND version = ?", interview.ID, expectedVersion).
		Updates(map[string]interface{}{
			"status":         interview.Status,
			"plan":           interview.Plan,
			"history":        interview.History,
			"evaluations":    interview.Evaluations,
			"recommendation": interview.Recommendation,
			"summary_text":   interview.SummaryText,
			"started_at":     interview.StartedAt,
			"completed_at":   interview.CompletedAt,
			"cancelled_at":   interview.CancelledAt,
			"version":        expectedVersion + 1,
			"updated_at":     now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}

	interview.Version = expectedVersion + 1
	interview.UpdatedAt = now
	return nil
}
