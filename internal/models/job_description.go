package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	JobDescriptionSourceGenerated = "generated"
	JobDescriptionSourceManual    = "manual"
)

// JobDescription is a role description produced by the writer model or supplied by a recruiter.
type JobDescription struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	JobTitle         string    `gorm:"size:255;not null" json:"job_title"`
	CompanyTone      string    `gorm:"size:255" json:"company_tone"`
	Responsibilities string    `gorm:"type:text" json:"responsibilities"`
	Skills           string    `gorm:"type:text" json:"skills"`
	Experience       string    `gorm:"size:255" json:"experience"`
	Content          string    `gorm:"type:text;not null" json:"content"`
	Source           string    `gorm:"size:16;not null" json:"source"`
	RecruiterID      string    `gorm:"size:36;index;not null" json:"recruiter_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (j *JobDescription) BeforeCreate(_ *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}
