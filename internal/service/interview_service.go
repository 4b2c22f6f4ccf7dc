package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/observability"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

// InterviewAI is the hosted model behind interview planning, questioning and grading.
type InterviewAI interface {
	PlanTopics(ctx context.Context, jobDescription string) ([]string, error)
	NextQuestion(ctx context.Context, directive ai.QuestionDirective, history []ai.Exchange) (string, error)
	EvaluateAnswer(ctx context.Context, question, answer string) (ai.Rating, error)
	Summarize(ctx context.Context, history []ai.Exchange, ratings []ai.Rating) (ai.Verdict, error)
}

// InterviewConfig tunes interview assignment.
type InterviewConfig struct {
	DefaultMaxQuestions int
	CredentialTTL       time.Duration
}

// InterviewService drives interview sessions through their lifecycle.
type InterviewService interface {
	Assign(ctx context.Context, actor Actor, payload dto.AssignInterviewRequest) (dto.AssignInterviewResponse, error)
	Start(ctx context.Context, actor Actor, id string) (dto.StartInterviewResponse, error)
	SubmitAnswer(ctx context.Context, actor Actor, id string, payload dto.SubmitAnswerRequest) (dto.SubmitAnswerResponse, error)
	Status(ctx context.Context, actor Actor, id string) (dto.InterviewStatusResponse, error)
	Summary(ctx context.Context, actor Actor, id string) (dto.InterviewSummaryResponse, error)
	Cancel(ctx context.Context, actor Actor, id string) (dto.InterviewResponse, error)
	ListMine(ctx context.Context, actor Actor) ([]dto.InterviewResponse, error)
	Results(ctx context.Context, actor Actor) ([]dto.InterviewResultResponse, error)
}

type interviewService struct {
	repo      repository.InterviewRepository
	jobs      repository.JobDescriptionRepository
	model     InterviewAI
	feed      InterviewFeed
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	cfg       InterviewConfig
	tracer    trace.Tracer
	logger    zerolog.Logger
	now       func() time.Time
}

// NewInterviewService builds the interview service.
func NewInterviewService(repo repository.InterviewRepository, jobs repository.JobDescriptionRepository, model InterviewAI, feed InterviewFeed, validate *validator.Validate, cfg InterviewConfig, logger zerolog.Logger) InterviewService {
	if cfg.DefaultMaxQuestions <= 0 {
		cfg.DefaultMaxQuestions = 5
	}
	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = 24 * time.Hour
	}

	return &interviewService{
		repo:      repo,
		jobs:      jobs,
		model:     model,
		feed:      feed,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/noah-isme/talentflow-api/internal/service/interview"),
		logger:    logger.With().Str("component", "interview_service").Logger(),
		now:       time.Now,
	}
}

func (s *interviewService) Assign(ctx context.Context, actor Actor, payload dto.AssignInterviewRequest) (dto.AssignInterviewResponse, error) {
	payload.CandidateName = s.clean(payload.CandidateName)
	payload.CandidateUsername = strings.ToLower(s.clean(payload.CandidateUsername))
	payload.JobDescriptionID = strings.TrimSpace(payload.JobDescriptionID)

	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignInterviewResponse{}, err
	}

	jd, err := s.jobs.GetByID(ctx, payload.JobDescriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignInterviewResponse{}, ErrJobDescriptionNotFound
		}
		return dto.AssignInterviewResponse{}, err
	}
	if !actor.IsAdmin() && jd.RecruiterID != actor.ID {
		return dto.AssignInterviewResponse{}, ErrJobDescriptionNotFound
	}

	maxQuestions := payload.MaxQuestions
	if maxQuestions <= 0 {
		maxQuestions = s.cfg.DefaultMaxQuestions
	}

	password, err := generatePassword(candidatePasswordLength)
	if err != nil {
		return dto.AssignInterviewResponse{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return dto.AssignInterviewResponse{}, err
	}

	interviewID := uuid.NewString()
	login := candidateLogin(payload.CandidateUsername, interviewID)

	now := s.now()
	credential := models.Credential{
		Username:     login,
		Email:        candidateEmail(login),
		FullName:     payload.CandidateName,
		PasswordHash: hash,
		ExpiresAt:    now.Add(s.cfg.CredentialTTL),
	}

	interview := models.Interview{
		ID:                interviewID,
		JobDescriptionID:  jd.ID,
		RecruiterID:       actor.ID,
		CandidateName:     payload.CandidateName,
		CandidateUsername: login,
		Status:            models.InterviewStatusAssigned,
		MaxQuestions:      maxQuestions,
	}
	interview.SetPlan(nil)
	interview.SetHistory(nil)
	interview.SetEvaluations(nil)

	if err := s.repo.CreateWithCredential(ctx, &interview, &credential); err != nil {
		return dto.AssignInterviewResponse{}, err
	}

	observability.InterviewTransitions().WithLabelValues(string(models.InterviewStatusAssigned)).Inc()
	s.publish(ctx, InterviewEventAssigned, interview)

	s.logger.Info().
		Str("interview_id", interview.ID).
		Str("credential_id", credential.ID).
		Str("recruiter_id", actor.ID).
		Int("max_questions", maxQuestions).
		Msg("interview assigned")

	return dto.AssignInterviewResponse{
		Interview: dto.NewInterviewResponse(interview),
		CandidateCredentials: dto.CandidateCredentialResponse{
			Username:  credential.Username,
			Email:     credential.Email,
			Password:  password,
			ExpiresAt: credential.ExpiresAt.UTC(),
			ValidFor:  describeValidity(s.cfg.CredentialTTL),
			Message:   "Share these credentials with the candidate. The password is shown only once.",
		},
	}, nil
}

func (s *interviewService) Start(ctx context.Context, actor Actor, id string) (dto.StartInterviewResponse, error) {
	interview, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.StartInterviewResponse{}, err
	}
	if interview.Status != models.InterviewStatusAssigned {
		return dto.StartInterviewResponse{}, &InterviewStateError{Current: interview.Status, Operation: "start"}
	}

	jd, err := s.jobs.GetByID(ctx, interview.JobDescriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StartInterviewResponse{}, ErrJobDescriptionNotFound
		}
		return dto.StartInterviewResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "interviews.start", trace.WithAttributes(attribute.String("interview.id", interview.ID)))
	defer span.End()

	topics, err := s.model.PlanTopics(spanCtx, jd.Content)
	if err != nil {
		span.RecordError(err)
		return dto.StartInterviewResponse{}, s.upstreamFailure("interview planning", interview.ID, err)
	}

	question, err := s.model.NextQuestion(spanCtx, nextQuestionDirective(topics, nil, nil), nil)
	if err != nil {
		span.RecordError(err)
		return dto.StartInterviewResponse{}, s.upstreamFailure("interview question", interview.ID, err)
	}

	expected := interview.Version
	startedAt := s.now()
	interview.Status = models.InterviewStatusInProgress
	interview.StartedAt = &startedAt
	interview.SetPlan(topics)
	interview.SetHistory([]models.QAEntry{{Question: question}})
	interview.SetEvaluations(nil)

	if err := s.save(spanCtx, &interview, expected, s.repo.UpdateVersioned); err != nil {
		return dto.StartInterviewResponse{}, err
	}

	observability.InterviewTransitions().WithLabelValues(string(models.InterviewStatusInProgress)).Inc()
	s.publish(ctx, InterviewEventStarted, interview)
	s.logger.Info().Str("interview_id", interview.ID).Int("topics", len(topics)).Msg("interview started")

	return dto.StartInterviewResponse{
		InterviewID:     interview.ID,
		Status:          string(interview.Status),
		CurrentQuestion: question,
		QuestionNumber:  1,
		TotalQuestions:  interview.MaxQuestions,
	}, nil
}

func (s *interviewService) SubmitAnswer(ctx context.Context, actor Actor, id string, payload dto.SubmitAnswerRequest) (dto.SubmitAnswerResponse, error) {
	payload.Answer = s.clean(payload.Answer)
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	interview, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.SubmitAnswerResponse{}, err
	}
	if interview.Status != models.InterviewStatusInProgress {
		return dto.SubmitAnswerResponse{}, &InterviewStateError{Current: interview.Status, Operation: "answer"}
	}

	plan := interview.PlanTopics()
	history := interview.HistoryEntries()
	evaluations := interview.EvaluationList()
	if len(evaluations) >= interview.MaxQuestions {
		return dto.SubmitAnswerResponse{}, &InterviewStateError{Current: interview.Status, Operation: "answer"}
	}

	spanCtx, span := s.tracer.Start(ctx, "interviews.answer", trace.WithAttributes(
		attribute.String("interview.id", interview.ID),
		attribute.Int("interview.answered", len(evaluations)),
	))
	defer span.End()

	if _, pending := interview.PendingQuestion(); !pending {
		question, err := s.model.NextQuestion(spanCtx, nextQuestionDirective(plan, history, evaluations), exchanges(history))
		if err != nil {
			span.RecordError(err)
			return dto.SubmitAnswerResponse{}, s.upstreamFailure("interview question", interview.ID, err)
		}
		history = append(history, models.QAEntry{Question: question})
	}

	current := &history[len(history)-1]
	rating, err := s.model.EvaluateAnswer(spanCtx, current.Question, payload.Answer)
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAnswerResponse{}, s.upstreamFailure("answer evaluation", interview.ID, err)
	}

	current.Answer = payload.Answer
	current.Answered = true
	evaluations = append(evaluations, models.Evaluation{Rating: rating.Score, Feedback: rating.Feedback})

	expected := interview.Version
	response := dto.SubmitAnswerResponse{
		InterviewID:        interview.ID,
		Evaluation:         dto.EvaluationResponse{Rating: rating.Score, Feedback: rating.Feedback},
		QuestionsCompleted: len(evaluations),
		TotalQuestions:     interview.MaxQuestions,
	}

	if len(evaluations) >= interview.MaxQuestions {
		verdict, err := s.model.Summarize(spanCtx, exchanges(history), ratings(evaluations))
		if err != nil {
			span.RecordError(err)
			return dto.SubmitAnswerResponse{}, s.upstreamFailure("interview summary", interview.ID, err)
		}
		recommendation, ok := models.ParseRecommendation(verdict.Recommendation)
		if !ok {
			err := fmt.Errorf("unexpected recommendation %q", verdict.Recommendation)
			span.RecordError(err)
			return dto.SubmitAnswerResponse{}, s.upstreamFailure("interview summary", interview.ID, err)
		}

		completedAt := s.now()
		interview.Status = models.InterviewStatusCompleted
		interview.CompletedAt = &completedAt
		interview.Recommendation = recommendation
		interview.SummaryText = verdict.SummaryText
		interview.SetHistory(history)
		interview.SetEvaluations(evaluations)

		if err := s.save(spanCtx, &interview, expected, s.repo.Complete); err != nil {
			return dto.SubmitAnswerResponse{}, err
		}

		observability.InterviewTransitions().WithLabelValues(string(models.InterviewStatusCompleted)).Inc()
		observability.InterviewsCompleted().WithLabelValues(string(recommendation)).Inc()
		s.publish(ctx, InterviewEventCompleted, interview)
		s.logger.Info().Str("interview_id", interview.ID).Str("recommendation", string(recommendation)).Msg("interview completed")

		summary := dto.NewInterviewSummaryResponse(interview)
		response.Status = string(interview.Status)
		response.Summary = &summary
		return response, nil
	}

	next, err := s.model.NextQuestion(spanCtx, nextQuestionDirective(plan, history, evaluations), exchanges(history))
	if err != nil {
		span.RecordError(err)
		return dto.SubmitAnswerResponse{}, s.upstreamFailure("interview question", interview.ID, err)
	}
	history = append(history, models.QAEntry{Question: next})

	interview.SetHistory(history)
	interview.SetEvaluations(evaluations)
	if err := s.save(spanCtx, &interview, expected, s.repo.UpdateVersioned); err != nil {
		return dto.SubmitAnswerResponse{}, err
	}

	s.publish(ctx, InterviewEventAnswered, interview)

	response.Status = string(interview.Status)
	response.NextQuestion = next
	response.QuestionNumber = len(history)
	return response, nil
}

func (s *interviewService) Status(ctx context.Context, actor Actor, id string) (dto.InterviewStatusResponse, error) {
	interview, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.InterviewStatusResponse{}, err
	}
	return dto.NewInterviewStatusResponse(interview), nil
}

func (s *interviewService) Summary(ctx context.Context, actor Actor, id string) (dto.InterviewSummaryResponse, error) {
	interview, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.InterviewSummaryResponse{}, err
	}
	if interview.Status != models.InterviewStatusCompleted {
		return dto.InterviewSummaryResponse{}, &InterviewStateError{Current: interview.Status, Operation: "summarize"}
	}
	return dto.NewInterviewSummaryResponse(interview), nil
}

func (s *interviewService) Cancel(ctx context.Context, actor Actor, id string) (dto.InterviewResponse, error) {
	interview, err := s.load(ctx, actor, id)
	if err != nil {
		return dto.InterviewResponse{}, err
	}
	if !interview.Status.CanTransitionTo(models.InterviewStatusCancelled) {
		return dto.InterviewResponse{}, &InterviewStateError{Current: interview.Status, Operation: "cancel"}
	}

	expected := interview.Version
	cancelledAt := s.now()
	interview.Status = models.InterviewStatusCancelled
	interview.CancelledAt = &cancelledAt

	if err := s.save(ctx, &interview, expected, s.repo.Cancel); err != nil {
		return dto.InterviewResponse{}, err
	}

	observability.InterviewTransitions().WithLabelValues(string(models.InterviewStatusCancelled)).Inc()
	s.publish(ctx, InterviewEventCancelled, interview)
	s.logger.Info().Str("interview_id", interview.ID).Str("actor_id", actor.ID).Msg("interview cancelled")

	return dto.NewInterviewResponse(interview), nil
}

func (s *interviewService) ListMine(ctx context.Context, actor Actor) ([]dto.InterviewResponse, error) {
	if !actor.IsCandidate() {
		return nil, ErrForbidden
	}

	interviews, err := s.repo.ListByCredential(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return dto.NewInterviewResponseSlice(interviews), nil
}

func (s *interviewService) Results(ctx context.Context, actor Actor) ([]dto.InterviewResultResponse, error) {
	recruiterID := actor.ID
	if actor.IsAdmin() {
		recruiterID = ""
	}

	interviews, err := s.repo.ListByRecruiter(ctx, recruiterID, models.InterviewStatusCompleted)
	if err != nil {
		return nil, err
	}

	jdIDs := make([]string, 0, len(interviews))
	seen := make(map[string]struct{}, len(interviews))
	for _, interview := range interviews {
		if _, ok := seen[interview.JobDescriptionID]; ok {
			continue
		}
		seen[interview.JobDescriptionID] = struct{}{}
		jdIDs = append(jdIDs, interview.JobDescriptionID)
	}

	jds, err := s.jobs.GetByIDs(ctx, jdIDs)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(jds))
	for _, jd := range jds {
		titles[jd.ID] = jd.JobTitle
	}

	results := make([]dto.InterviewResultResponse, 0, len(interviews))
	for _, interview := range interviews {
		title, ok := titles[interview.JobDescriptionID]
		if !ok {
			title = "Unknown Role"
		}
		results = append(results, dto.InterviewResultResponse{
			InterviewID:       interview.ID,
			CandidateName:     interview.CandidateName,
			CandidateUsername: interview.CandidateUsername,
			JobDescriptionID:  interview.JobDescriptionID,
			JobTitle:          title,
			AverageScore:      dto.RoundScore(interview.AverageRating()),
			Recommendation:    string(interview.Recommendation),
			CompletedAt:       interview.CompletedAt,
		})
	}

	return results, nil
}

func (s *interviewService) load(ctx context.Context, actor Actor, id string) (models.Interview, error) {
	interview, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Interview{}, ErrInterviewNotFound
		}
		return models.Interview{}, err
	}

	if err := authorizeInterview(actor, interview); err != nil {
		return models.Interview{}, err
	}
	return interview, nil
}

type versionedWrite func(ctx context.Context, interview *models.Interview, expectedVersion int) error

func (s *interviewService) save(ctx context.Context, interview *models.Interview, expected int, write versionedWrite) error {
	if err := write(ctx, interview, expected); err != nil {
		if errors.Is(err, repository.ErrStaleVersion) {
			s.logger.Warn().Str("interview_id", interview.ID).Int("version", expected).Msg("interview write lost to a concurrent update")
			return ErrConcurrentModification
		}
		return err
	}
	return nil
}

func (s *interviewService) upstreamFailure(operation, interviewID string, err error) error {
	s.logger.Error().Err(err).Str("operation", operation).Str("interview_id", interviewID).Msg("hosted model call failed")
	return upstream(operation, err)
}

func (s *interviewService) publish(ctx context.Context, eventType string, interview models.Interview) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(ctx, dto.InterviewEvent{
		Type:               eventType,
		InterviewID:        interview.ID,
		RecruiterID:        interview.RecruiterID,
		CandidateName:      interview.CandidateName,
		Status:             string(interview.Status),
		QuestionsCompleted: len(interview.EvaluationList()),
		TotalQuestions:     interview.MaxQuestions,
		Recommendation:     string(interview.Recommendation),
		OccurredAt:         s.now().UTC(),
	})
}

func (s *interviewService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func authorizeInterview(actor Actor, interview models.Interview) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleRecruiter:
		if interview.RecruiterID == actor.ID {
			return nil
		}
	case models.RoleCandidate:
		if interview.CredentialID == actor.ID {
			return nil
		}
	}
	return ErrForbidden
}

// nextQuestionDirective decides the next question from plan, history and evaluations alone:
// a weak last answer (rating below 3) is probed again, otherwise the plan advances,
// and a closing question follows once the plan is exhausted.
func nextQuestionDirective(plan []string, history []models.QAEntry, evaluations []models.Evaluation) ai.QuestionDirective {
	if n := len(evaluations); n > 0 && evaluations[n-1].Rating < 3 && len(history) > 0 {
		return ai.QuestionDirective{Kind: ai.QuestionFollowUp, Subject: lastAnsweredQuestion(history)}
	}
	if len(evaluations) < len(plan) {
		return ai.QuestionDirective{Kind: ai.QuestionTopic, Subject: plan[len(evaluations)]}
	}
	return ai.QuestionDirective{Kind: ai.QuestionClosing}
}

func lastAnsweredQuestion(history []models.QAEntry) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Answered {
			return history[i].Question
		}
	}
	return history[len(history)-1].Question
}

func exchanges(history []models.QAEntry) []ai.Exchange {
	result := make([]ai.Exchange, 0, len(history))
	for _, entry := range history {
		result = append(result, ai.Exchange{Question: entry.Question, Answer: entry.Answer})
	}
	return result
}

func ratings(evaluations []models.Evaluation) []ai.Rating {
	result := make([]ai.Rating, 0, len(evaluations))
	for _, evaluation := range evaluations {
		result = append(result, ai.Rating{Score: evaluation.Rating, Feedback: evaluation.Feedback})
	}
	return result
}
