package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ResumeRecord is one screened resume within a ranking run.
type ResumeRecord struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	RunID            string    `gorm:"size:36;index;not null" json:"run_id"`
	RecruiterID      string    `gorm:"size:36;index;not null" json:"recruiter_id"`
	JobDescriptionID *string   `gorm:"size:36;index" json:"job_description_id"`
	CandidateName    string    `gorm:"size:255;not null" json:"candidate_name"`
	ResumeText       string    `gorm:"type:text" json:"-"`
	SimilarityScore  int       `gorm:"not null" json:"similarity_score"`
	Rank             int       `gorm:"not null" json:"rank"`
	Status           string    `gorm:"size:32;not null" json:"status"`
	Summary          string    `gorm:"type:text" json:"summary"`
	VectorID         string    `gorm:"size:320;index" json:"vector_id"`
	FileName         string    `gorm:"size:255" json:"file_name"`
	FileURL          string    `gorm:"size:512" json:"file_url"`
	CreatedAt        time.Time `json:"created_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (r *ResumeRecord) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// ResumeVector is a stored embedding in the resume vector index.
type ResumeVector struct {
	ID            string         `gorm:"primaryKey;size:320" json:"id"`
	CandidateName string         `gorm:"size:255" json:"candidate_name"`
	TextHash      string         `gorm:"size:64" json:"text_hash"`
	Dimensions    int            `gorm:"not null" json:"dimensions"`
	Embedding     datatypes.JSON `gorm:"type:json;not null" json:"-"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
