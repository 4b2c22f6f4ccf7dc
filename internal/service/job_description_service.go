package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

const jobDescriptionListLimit = 100

// JobDescriptionWriter produces a markdown job description from a brief.
type JobDescriptionWriter interface {
	Write(ctx context.Context, brief ai.JobBrief) (string, error)
}

// JobDescriptionService exposes job description use cases.
type JobDescriptionService interface {
	Generate(ctx context.Context, actor Actor, payload dto.GenerateJobDescriptionRequest) (dto.JobDescriptionResponse, error)
	Create(ctx context.Context, actor Actor, payload dto.CreateJobDescriptionRequest) (dto.JobDescriptionResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.JobDescriptionResponse, error)
	Get(ctx context.Context, actor Actor, id string) (dto.JobDescriptionResponse, error)
}

type jobDescriptionService struct {
	repo      repository.JobDescriptionRepository
	writer    JobDescriptionWriter
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewJobDescriptionService builds the job description service.
func NewJobDescriptionService(repo repository.JobDescriptionRepository, writer JobDescriptionWriter, validate *validator.Validate, logger zerolog.Logger) JobDescriptionService {
	return &jobDescriptionService{
		repo:      repo,
		writer:    writer,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/talentflow-api/internal/service/job_description"),
		logger:    logger.With().Str("component", "job_description_service").Logger(),
	}
}

func (s *jobDescriptionService) Generate(ctx context.Context, actor Actor, payload dto.GenerateJobDescriptionRequest) (dto.JobDescriptionResponse, error) {
	payload.JobTitle = s.clean(payload.JobTitle)
	payload.CompanyTone = s.clean(payload.CompanyTone)
	payload.Responsibilities = s.clean(payload.Responsibilities)
	payload.Skills = s.clean(payload.Skills)
	payload.Experience = s.clean(payload.Experience)

	if err := s.validator.Struct(payload); err != nil {
		return dto.JobDescriptionResponse{}, err
	}

	spanCtx, span := s.tracer.Start(ctx, "job_descriptions.generate", trace.WithAttributes(
		attribute.String("job.title", payload.JobTitle),
		attribute.String("recruiter.id", actor.ID),
	))
	defer span.End()

	content, err := s.writer.Write(spanCtx, ai.JobBrief{
		JobTitle:         payload.JobTitle,
		CompanyTone:      payload.CompanyTone,
		Responsibilities: payload.Responsibilities,
		Skills:           payload.Skills,
		Experience:       payload.Experience,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error().Err(err).Str("operation", "job_description.generate").Str("recruiter_id", actor.ID).Msg("job description generation failed")
		return dto.JobDescriptionResponse{}, upstream("job description generation", err)
	}

	model := models.JobDescription{
		JobTitle:         payload.JobTitle,
		CompanyTone:      payload.CompanyTone,
		Responsibilities: payload.Responsibilities,
		Skills:           payload.Skills,
		Experience:       payload.Experience,
		Content:          s.clean(content),
		Source:           models.JobDescriptionSourceGenerated,
		RecruiterID:      actor.ID,
	}
	if err := s.repo.Create(spanCtx, &model); err != nil {
		span.RecordError(err)
		return dto.JobDescriptionResponse{}, err
	}

	s.logger.Info().Str("job_description_id", model.ID).Msg("job description generated")

	return dto.NewJobDescriptionResponse(model), nil
}

func (s *jobDescriptionService) Create(ctx context.Context, actor Actor, payload dto.CreateJobDescriptionRequest) (dto.JobDescriptionResponse, error) {
	payload.JobTitle = s.clean(payload.JobTitle)
	payload.Content = s.clean(payload.Content)

	if err := s.validator.Struct(payload); err != nil {
		return dto.JobDescriptionResponse{}, err
	}

	model := models.JobDescription{
		JobTitle:    payload.JobTitle,
		Content:     payload.Content,
		Source:      models.JobDescriptionSourceManual,
		RecruiterID: actor.ID,
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		return dto.JobDescriptionResponse{}, err
	}

	s.logger.Info().Str("job_description_id", model.ID).Msg("job description stored")

	return dto.NewJobDescriptionResponse(model), nil
}

func (s *jobDescriptionService) List(ctx context.Context, actor Actor) ([]dto.JobDescriptionResponse, error) {
	recruiterID := actor.ID
	if actor.IsAdmin() {
		recruiterID = ""
	}

	items, err := s.repo.List(ctx, recruiterID, jobDescriptionListLimit)
	if err != nil {
		return nil, err
	}

	return dto.NewJobDescriptionResponseSlice(items), nil
}

func (s *jobDescriptionService) Get(ctx context.Context, actor Actor, id string) (dto.JobDescriptionResponse, error) {
	model, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.JobDescriptionResponse{}, ErrJobDescriptionNotFound
		}
		return dto.JobDescriptionResponse{}, err
	}

	if !actor.IsAdmin() && model.RecruiterID != actor.ID {
		return dto.JobDescriptionResponse{}, ErrJobDescriptionNotFound
	}

	return dto.NewJobDescriptionResponse(model), nil
}

// clean strips markup but keeps the plain characters markdown relies on.
func (s *jobDescriptionService) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}
