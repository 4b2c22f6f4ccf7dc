package dto

import (
	"time"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// GenerateJobDescriptionRequest describes the brief handed to the writer model.
type GenerateJobDescriptionRequest struct {
	JobTitle         string `json:"job_title" validate:"required,min=2,max=255"`
	CompanyTone      string `json:"company_tone" validate:"omitempty,max=255"`
	Responsibilities string `json:"responsibilities" validate:"required,min=3,max=5000"`
	Skills           string `json:"skills" validate:"required,min=2,max=5000"`
	Experience       string `json:"experience" validate:"required,max=255"`
}

// CreateJobDescriptionRequest stores a recruiter supplied description verbatim.
type CreateJobDescriptionRequest struct {
	JobTitle string `json:"job_title" validate:"required,min=2,max=255"`
	Content  string `json:"content" validate:"required,min=20,max=20000"`
}

// JobDescriptionResponse is the serialized representation returned to API clients.
type JobDescriptionResponse struct {
	ID               string    `json:"id"`
	JobTitle         string    `json:"job_title"`
	CompanyTone      string    `json:"company_tone,omitempty"`
	Responsibilities string    `json:"responsibilities,omitempty"`
	Skills           string    `json:"skills,omitempty"`
	Experience       string    `json:"experience,omitempty"`
	Content          string    `json:"content"`
	Source           string    `json:"source"`
	RecruiterID      string    `json:"recruiter_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewJobDescriptionResponse converts a model into a DTO.
func NewJobDescriptionResponse(model models.JobDescription) JobDescriptionResponse {
	return JobDescriptionResponse{
		ID:               model.ID,
		JobTitle:         model.JobTitle,
		CompanyTone:      model.CompanyTone,
		Responsibilities: model.Responsibilities,
		Skills:           model.Skills,
		Experience:       model.Experience,
		Content:          model.Content,
		Source:           model.Source,
		RecruiterID:      model.RecruiterID,
		CreatedAt:        model.CreatedAt,
	}
}

// NewJobDescriptionResponseSlice converts a slice of models into DTOs.
func NewJobDescriptionResponseSlice(items []models.JobDescription) []JobDescriptionResponse {
	responses := make([]JobDescriptionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewJobDescriptionResponse(item))
	}
	return responses
}
