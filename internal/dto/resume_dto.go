package dto

import (
	"time"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// RankResumesRequest holds the non-file fields of a ranking submission.
type RankResumesRequest struct {
	JobDescriptionID string `form:"job_description_id" validate:"omitempty,uuid"`
	JobDescription   string `form:"job_description" validate:"omitempty,min=20,max=20000"`
	TopK             int    `form:"top_k" validate:"omitempty,min=1,max=100"`
}

// ResumeUpload is one submitted resume file.
type ResumeUpload struct {
	FileName string
	Data     []byte
}

// RankedCandidateResponse is one ranked resume in a run.
type RankedCandidateResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	SimilarityScore int    `json:"similarity_score"`
	Rank            int    `json:"rank"`
	Status          string `json:"status"`
	Summary         string `json:"summary"`
	FileName        string `json:"file_name"`
	FileURL         string `json:"file_url,omitempty"`
}

// SkippedResumeResponse names a resume dropped from the run and why.
type SkippedResumeResponse struct {
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
}

// RankingResponse is the outcome of a ranking run.
type RankingResponse struct {
	RunID            string                    `json:"run_id"`
	JobDescriptionID *string                   `json:"job_description_id,omitempty"`
	JobTitle         string                    `json:"job_title,omitempty"`
	TotalSubmitted   int                       `json:"total_submitted"`
	TotalRanked      int                       `json:"total_ranked"`
	TopK             int                       `json:"top_k"`
	Candidates       []RankedCandidateResponse `json:"candidates"`
	Skipped          []SkippedResumeResponse   `json:"skipped"`
}

// ResumeRecordResponse is a stored screening result.
type ResumeRecordResponse struct {
	ID               string    `json:"id"`
	RunID            string    `json:"run_id"`
	JobDescriptionID *string   `json:"job_description_id,omitempty"`
	CandidateName    string    `json:"candidate_name"`
	SimilarityScore  int       `json:"similarity_score"`
	Rank             int       `json:"rank"`
	Status           string    `json:"status"`
	Summary          string    `json:"summary"`
	FileName         string    `json:"file_name"`
	FileURL          string    `json:"file_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// NewRankedCandidateResponse converts a stored record into its ranking view.
func NewRankedCandidateResponse(model models.ResumeRecord) RankedCandidateResponse {
	return RankedCandidateResponse{
		ID:              model.ID,
		Name:            model.CandidateName,
		SimilarityScore: model.SimilarityScore,
		Rank:            model.Rank,
		Status:          model.Status,
		Summary:         model.Summary,
		FileName:        model.FileName,
		FileURL:         model.FileURL,
	}
}

// NewResumeRecordResponse converts a model into a DTO.
func NewResumeRecordResponse(model models.ResumeRecord) ResumeRecordResponse {
	return ResumeRecordResponse{
		ID:               model.ID,
		RunID:            model.RunID,
		JobDescriptionID: model.JobDescriptionID,
		CandidateName:    model.CandidateName,
		SimilarityScore:  model.SimilarityScore,
		Rank:             model.Rank,
		Status:           model.Status,
		Summary:          model.Summary,
		FileName:         model.FileName,
		FileURL:          model.FileURL,
		CreatedAt:        model.CreatedAt,
	}
}

// NewResumeRecordResponseSlice converts a slice of models into DTOs.
func NewResumeRecordResponseSlice(records []models.ResumeRecord) []ResumeRecordResponse {
	responses := make([]ResumeRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, NewResumeRecordResponse(record))
	}
	return responses
}
