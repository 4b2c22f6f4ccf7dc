package dto

import (
	"math"
	"time"

	"github.com/noah-isme/talentflow-api/internal/models"
)

// AssignInterviewRequest describes the payload for assigning an interview to a candidate.
type AssignInterviewRequest struct {
	CandidateName     string `json:"candidate_name" validate:"required,min=2,max=255"`
	CandidateUsername string `json:"candidate_username" validate:"required,min=3,max=255"`
	JobDescriptionID  string `json:"job_description_id" validate:"required,uuid"`
	MaxQuestions      int    `json:"max_questions" validate:"omitempty,min=1,max=20"`
}

// CandidateCredentialResponse is shown exactly once, at assignment time.
type CandidateCredentialResponse struct {
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	ExpiresAt time.Time `json:"expires_at"`
	ValidFor  string    `json:"valid_for"`
	Message   string    `json:"message"`
}

// AssignInterviewResponse pairs the new session with its one-time login.
type AssignInterviewResponse struct {
	Interview            InterviewResponse           `json:"interview"`
	CandidateCredentials CandidateCredentialResponse `json:"candidate_credentials"`
}

// InterviewResponse is the serialized representation of a session.
type InterviewResponse struct {
	ID                 string     `json:"id"`
	JobDescriptionID   string     `json:"job_description_id"`
	CandidateName      string     `json:"candidate_name"`
	CandidateUsername  string     `json:"candidate_username"`
	Status             string     `json:"status"`
	MaxQuestions       int        `json:"max_questions"`
	QuestionsCompleted int        `json:"questions_completed"`
	Recommendation     string     `json:"recommendation,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// NewInterviewResponse converts a model into a DTO.
func NewInterviewResponse(model models.Interview) InterviewResponse {
	return InterviewResponse{
		ID:                 model.ID,
		JobDescriptionID:   model.JobDescriptionID,
		CandidateName:      model.CandidateName,
		CandidateUsername:  model.CandidateUsername,
		Status:             string(model.Status),
		MaxQuestions:       model.MaxQuestions,
		QuestionsCompleted: len(model.EvaluationList()),
		Recommendation:     string(model.Recommendation),
		CreatedAt:          model.CreatedAt,
		StartedAt:          model.StartedAt,
		CompletedAt:        model.CompletedAt,
		CancelledAt:        model.CancelledAt,
	}
}

// NewInterviewResponseSlice converts a slice of models into DTOs.
func NewInterviewResponseSlice(items []models.Interview) []InterviewResponse {
	responses := make([]InterviewResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewInterviewResponse(item))
	}
	return responses
}

// StartInterviewResponse returns the opening question.
type StartInterviewResponse struct {
	InterviewID     string `json:"interview_id"`
	Status          string `json:"status"`
	CurrentQuestion string `json:"current_question"`
	QuestionNumber  int    `json:"question_number"`
	TotalQuestions  int    `json:"total_questions"`
}

// SubmitAnswerRequest carries the candidate's answer to the pending question.
type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required,min=1,max=5000"`
}

// EvaluationResponse is the rating given to one answer.
type EvaluationResponse struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// SubmitAnswerResponse returns the evaluation and either the next question or the final summary.
type SubmitAnswerResponse struct {
	InterviewID        string                    `json:"interview_id"`
	Status             string                    `json:"status"`
	Evaluation         EvaluationResponse        `json:"evaluation"`
	QuestionsCompleted int                       `json:"questions_completed"`
	TotalQuestions     int                       `json:"total_questions"`
	NextQuestion       string                    `json:"next_question,omitempty"`
	QuestionNumber     int                       `json:"question_number,omitempty"`
	Summary            *InterviewSummaryResponse `json:"summary,omitempty"`
}

// InterviewStatusResponse reports the progress of a session.
type InterviewStatusResponse struct {
	InterviewID        string `json:"interview_id"`
	Status             string `json:"status"`
	CurrentQuestion    string `json:"current_question,omitempty"`
	QuestionsCompleted int    `json:"questions_completed"`
	TotalQuestions     int    `json:"total_questions"`
}

// NewInterviewStatusResponse derives the progress view from a session.
func NewInterviewStatusResponse(model models.Interview) InterviewStatusResponse {
	response := InterviewStatusResponse{
		InterviewID:        model.ID,
		Status:             string(model.Status),
		QuestionsCompleted: len(model.EvaluationList()),
		TotalQuestions:     model.MaxQuestions,
	}
	if question, ok := model.PendingQuestion(); ok && model.Status == models.InterviewStatusInProgress {
		response.CurrentQuestion = question
	}
	return response
}

// TranscriptEntry is one question with its answer and evaluation.
type TranscriptEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// InterviewSummaryResponse is the final outcome of a completed session.
type InterviewSummaryResponse struct {
	InterviewID    string            `json:"interview_id"`
	CandidateName  string            `json:"candidate_name"`
	Recommendation string            `json:"recommendation"`
	SummaryText    string            `json:"summary_text"`
	AverageScore   float64           `json:"average_score"`
	Transcript     []TranscriptEntry `json:"transcript"`
	CompletedAt    *time.Time        `json:"completed_at,omitempty"`
}

// NewInterviewSummaryResponse pairs each answered question with its evaluation.
func NewInterviewSummaryResponse(model models.Interview) InterviewSummaryResponse {
	history := model.HistoryEntries()
	evaluations := model.EvaluationList()

	transcript := make([]TranscriptEntry, 0, len(evaluations))
	for i, evaluation := range evaluations {
		if i >= len(history) {
			break
		}
		transcript = append(transcript, TranscriptEntry{
			Question: history[i].Question,
			Answer:   history[i].Answer,
			Rating:   evaluation.Rating,
			Feedback: evaluation.Feedback,
		})
	}

	return InterviewSummaryResponse{
		InterviewID:    model.ID,
		CandidateName:  model.CandidateName,
		Recommendation: string(model.Recommendation),
		SummaryText:    model.SummaryText,
		AverageScore:   RoundScore(model.AverageRating()),
		Transcript:     transcript,
		CompletedAt:    model.CompletedAt,
	}
}

// InterviewResultResponse is one row of the recruiter's completed interview results.
type InterviewResultResponse struct {
	InterviewID       string     `json:"interview_id"`
	CandidateName     string     `json:"candidate_name"`
	CandidateUsername string     `json:"candidate_username"`
	JobDescriptionID  string     `json:"job_description_id"`
	JobTitle          string     `json:"job_title"`
	AverageScore      float64    `json:"average_score"`
	Recommendation    string     `json:"recommendation"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
}

// InterviewEvent is pushed to recruiter feeds whenever a session changes.
type InterviewEvent struct {
	Type               string    `json:"type"`
	InterviewID        string    `json:"interview_id"`
	RecruiterID        string    `json:"recruiter_id"`
	CandidateName      string    `json:"candidate_name"`
	Status             string    `json:"status"`
	QuestionsCompleted int       `json:"questions_completed"`
	TotalQuestions     int       `json:"total_questions"`
	Recommendation     string    `json:"recommendation,omitempty"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// RoundScore rounds a score to two decimal places.
func RoundScore(value float64) float64 {
	return math.Round(value*100) / 100
}
