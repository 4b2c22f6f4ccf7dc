package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InterviewStatus is the lifecycle state of an interview session.
type InterviewStatus string

const (
	InterviewStatusAssigned   InterviewStatus = "Assigned"
	InterviewStatusInProgress InterviewStatus = "In Progress"
	InterviewStatusCompleted  InterviewStatus = "Completed"
	InterviewStatusCancelled  InterviewStatus = "Cancelled"
)

// Valid reports whether the status is one of the known states.
func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewStatusAssigned, InterviewStatusInProgress, InterviewStatusCompleted, InterviewStatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible.
func (s InterviewStatus) Terminal() bool {
	return s == InterviewStatusCompleted || s == InterviewStatusCancelled
}

// CanTransitionTo is the single source of truth for the interview state machine.
func (s InterviewStatus) CanTransitionTo(next InterviewStatus) bool {
	switch s {
	case InterviewStatusAssigned:
		return next == InterviewStatusInProgress || next == InterviewStatusCancelled
	case InterviewStatusInProgress:
		return next == InterviewStatusCompleted || next == InterviewStatusCancelled
	case InterviewStatusCompleted, InterviewStatusCancelled:
		return false
	default:
		return false
	}
}

// Recommendation is the final hiring verdict of a completed interview.
type Recommendation string

const (
	RecommendationProceed Recommendation = "Proceed"
	RecommendationHold    Recommendation = "Hold"
	RecommendationReject  Recommendation = "Reject"
)

// ParseRecommendation normalises free-form model output into one of the three verdicts.
func ParseRecommendation(raw string) (Recommendation, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "proceed":
		return RecommendationProceed, true
	case "hold":
		return RecommendationHold, true
	case "reject":
		return RecommendationReject, true
	default:
		return "", false
	}
}

// QAEntry is one asked question and, once submitted, its answer.
type QAEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Answered bool   `json:"answered"`
}

// Evaluation is the rating given to one answered question.
type Evaluation struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Interview is a single candidate's AI interview session.
type Interview struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	JobDescriptionID  string          `gorm:"size:36;index;not null" json:"job_description_id"`
	RecruiterID       string          `gorm:"size:36;index;not null" json:"recruiter_id"`
	CredentialID      string          `gorm:"size:36;index" json:"credential_id"`
	CandidateName     string          `gorm:"size:255;not null" json:"candidate_name"`
	CandidateUsername string          `gorm:"size:255;not null" json:"candidate_username"`
	Status            InterviewStatus `gorm:"size:32;not null;index" json:"status"`
	Plan              datatypes.JSON  `gorm:"type:json" json:"-"`
	History           datatypes.JSON  `gorm:"type:json" json:"-"`
	Evaluations       datatypes.JSON  `gorm:"type:json" json:"-"`
	Recommendation    Recommendation  `gorm:"size:16" json:"recommendation"`
	SummaryText       string          `gorm:"type:text" json:"summary_text"`
	MaxQuestions      int             `gorm:"not null" json:"max_questions"`
	Version           int             `gorm:"not null;default:1" json:"version"`
	StartedAt         *time.Time      `json:"started_at"`
	CompletedAt       *time.Time      `json:"completed_at"`
	CancelledAt       *time.Time      `json:"cancelled_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// BeforeCreate assigns an identifier when none was provided.
func (i *Interview) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Version == 0 {
		i.Version = 1
	}
	return nil
}

// SetPlan stores the ordered topic list.
func (i *Interview) SetPlan(topics []string) {
	i.Plan = encodeJSON(topics, "[]")
}

// PlanTopics decodes the stored topic list.
func (i Interview) PlanTopics() []string {
	var topics []string
	decodeJSON(i.Plan, &topics)
	return topics
}

// SetHistory stores the question/answer transcript.
func (i *Interview) SetHistory(entries []QAEntry) {
	i.History = encodeJSON(entries, "[]")
}

// HistoryEntries decodes the question/answer transcript.
func (i Interview) HistoryEntries() []QAEntry {
	var entries []QAEntry
	decodeJSON(i.History, &entries)
	return entries
}

// SetEvaluations stores the per-answer ratings.
func (i *Interview) SetEvaluations(evaluations []Evaluation) {
	i.Evaluations = encodeJSON(evaluations, "[]")
}

// EvaluationList decodes the per-answer ratings.
func (i Interview) EvaluationList() []Evaluation {
	var evaluations []Evaluation
	decodeJSON(i.Evaluations, &evaluations)
	return evaluations
}

// PendingQuestion returns the most recent unanswered question, if any.
func (i Interview) PendingQuestion() (string, bool) {
	entries := i.HistoryEntries()
	if len(entries) == 0 {
		return "", false
	}
	last := entries[len(entries)-1]
	if last.Answered {
		return "", false
	}
	return last.Question, true
}

// AverageRating returns the mean rating across all evaluations.
func (i Interview) AverageRating() float64 {
	evaluations := i.EvaluationList()
	if len(evaluations) == 0 {
		return 0
	}
	total := 0
	for _, evaluation := range evaluations {
		total += evaluation.Rating
	}
	return float64(total) / float64(len(evaluations))
}

func encodeJSON(value interface{}, fallback string) datatypes.JSON {
	data, err := json.Marshal(value)
	if err != nil || string(data) == "null" {
		return datatypes.JSON([]byte(fallback))
	}
	return datatypes.JSON(data)
}

func decodeJSON(raw datatypes.JSON, target interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, target)
}
