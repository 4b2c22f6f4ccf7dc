package service

import (
	"errors"
	"fmt"

	"github.com/noah-isme/talentflow-api/internal/models"
)

var (
	// ErrInvalidInput marks request problems detected outside struct validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("forbidden")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrCredentialExpired   = errors.New("account expired")
	ErrCredentialAttempted = errors.New("interview already attempted")
	ErrUserExists          = errors.New("user already exists")

	ErrJobDescriptionNotFound = errors.New("job description not found")
	ErrResumeNotFound         = errors.New("resume not found")
	ErrNoRankableResumes      = errors.New("no resume contained enough extractable text")

	ErrInterviewNotFound      = errors.New("interview not found")
	ErrConcurrentModification = errors.New("interview was modified concurrently")

	ErrSpeechUnavailable = errors.New("speech provider not configured")
)

// InterviewStateError reports an operation attempted from the wrong status.
type InterviewStateError struct {
	Current   models.InterviewStatus
	Operation string
}

func (e *InterviewStateError) Error() string {
	return fmt.Sprintf("cannot %s interview with status %q", e.Operation, e.Current)
}

// UpstreamError wraps a failure of a hosted model or the vector index.
type UpstreamError struct {
	Operation string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstream(operation string, err error) error {
	return &UpstreamError{Operation: operation, Err: err}
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID          string
	Role        string
	InterviewID string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

// IsCandidate reports whether the actor is a temporary interview principal.
func (a Actor) IsCandidate() bool {
	return a.Role == models.RoleCandidate
}
