package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Principal roles.
const (
	RoleAdmin     = "admin"
	RoleRecruiter = "recruiter"
	RoleCandidate = "candidate"
)

// User is a persistent principal (admin or recruiter).
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:255;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:16;not null" json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Credential is a temporary one-shot principal provisioned for a single interview.
type Credential struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     string    `gorm:"size:255;index;not null" json:"username"`
	Email        string    `gorm:"size:255;index;not null" json:"email"`
	FullName     string    `gorm:"size:255" json:"full_name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	InterviewID  string    `gorm:"size:36;index" json:"interview_id"`
	ExpiresAt    time.Time `gorm:"not null;index" json:"expires_at"`
	Attempted    bool      `gorm:"not null;default:false" json:"attempted"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (c *Credential) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Expired reports whether the credential's window has closed.
func (c Credential) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
