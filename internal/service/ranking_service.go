package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
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

const resumeListLimit = 100

// Skip reasons reported for dropped resumes.
const (
	skipTooLarge       = "file exceeds upload limit"
	skipNotPDF         = "file is not a PDF document"
	skipExtraction     = "text extraction failed"
	skipInsufficient   = "insufficient extractable text"
	skipEmbeddingError = "embedding failed"
)

// TextExtractor pulls plain text out of an uploaded document.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// FileUploader abstracts uploading binary data and returning a URL or path.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// RankingConfig tunes the ranking pipeline.
type RankingConfig struct {
	DefaultTopK    int
	MaxFileBytes   int64
	EmbeddingModel string
	CachePrefix    string
	CacheTTL       time.Duration
}

// RankingService screens resume batches against a job description.
type RankingService interface {
	Rank(ctx context.Context, actor Actor, payload dto.RankResumesRequest, files []dto.ResumeUpload) (dto.RankingResponse, error)
	List(ctx context.Context, actor Actor) ([]dto.ResumeRecordResponse, error)
	Get(ctx context.Context, actor Actor, id string) (dto.ResumeRecordResponse, error)
}

type rankingService struct {
	resumes   repository.ResumeRepository
	jobs      repository.JobDescriptionRepository
	index     repository.VectorIndex
	embedder  ai.Embedder
	extractor TextExtractor
	uploader  FileUploader
	cache     *embeddingCache
	validator *validator.Validate
	cfg       RankingConfig
	tracer    trace.Tracer
	logger    zerolog.Logger
}

type rankCandidate struct {
	fileName  string
	data      []byte
	text      string
	name      string
	vectorID  string
	embedding []float32
	score     int
}

// NewRankingService builds the ranking service. redisClient and uploader may be nil.
func NewRankingService(
	resumes repository.ResumeRepository,
	jobs repository.JobDescriptionRepository,
	index repository.VectorIndex,
	embedder ai.Embedder,
	extractor TextExtractor,
	uploader FileUploader,
	redisClient *redis.Client,
	validate *validator.Validate,
	cfg RankingConfig,
	logger zerolog.Logger,
) RankingService {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 5
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10 << 20
	}

	componentLogger := logger.With().Str("component", "ranking_service").Logger()

	return &rankingService{
		resumes:   resumes,
		jobs:      jobs,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		uploader:  uploader,
		cache:     newEmbeddingCache(redisClient, cfg.CachePrefix, cfg.CacheTTL, componentLogger),
		validator: validate,
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/noah-isme/talentflow-api/internal/service/ranking"),
		logger:    componentLogger,
	}
}

func (s *rankingService) Rank(ctx context.Context, actor Actor, payload dto.RankResumesRequest, files []dto.ResumeUpload) (dto.RankingResponse, error) {
	payload.JobDescriptionID = strings.TrimSpace(payload.JobDescriptionID)
	payload.JobDescription = strings.TrimSpace(payload.JobDescription)

	if err := s.validator.Struct(payload); err != nil {
		return dto.RankingResponse{}, err
	}
	if len(files) == 0 {
		return dto.RankingResponse{}, invalidInput("at least one resume file is required")
	}

	jdText, jobTitle, jdID, err := s.resolveJobDescription(ctx, actor, payload)
	if err != nil {
		return dto.RankingResponse{}, err
	}

	runID := uuid.NewString()
	spanCtx, span := s.tracer.Start(ctx, "resumes.rank", trace.WithAttributes(
		attribute.String("ranking.run_id", runID),
		attribute.Int("ranking.submitted", len(files)),
	))
	defer span.End()

	jdVector, err := s.embedJobDescription(spanCtx, jdText)
	if err != nil {
		span.RecordError(err)
		return dto.RankingResponse{}, err
	}

	candidates, skipped := s.prepare(spanCtx, runID, files)
	if len(candidates) == 0 {
		s.logger.Warn().Str("run_id", runID).Int("submitted", len(files)).Msg("no rankable resumes in batch")
		return dto.RankingResponse{}, ErrNoRankableResumes
	}

	if err := s.score(spanCtx, runID, jdVector, candidates); err != nil {
		span.RecordError(err)
		return dto.RankingResponse{}, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	records := make([]models.ResumeRecord, 0, len(candidates))
	for i, candidate := range candidates {
		rank := i + 1
		tier := MatchTier(candidate.score)
		records = append(records, models.ResumeRecord{
			RunID:            runID,
			RecruiterID:      actor.ID,
			JobDescriptionID: jdID,
			CandidateName:    candidate.name,
			ResumeText:       candidate.text,
			SimilarityScore:  candidate.score,
			Rank:             rank,
			Status:           tier,
			Summary:          candidateSummary(rank, len(candidates), candidate.score, tier),
			VectorID:         candidate.vectorID,
			FileName:         candidate.fileName,
			FileURL:          s.store(spanCtx, candidate),
		})
	}

	if err := s.resumes.CreateBatch(spanCtx, records); err != nil {
		span.RecordError(err)
		return dto.RankingResponse{}, err
	}

	observability.ResumesRanked().Add(float64(len(records)))

	topK := clampTopK(payload.TopK, s.cfg.DefaultTopK, len(records))
	ranked := make([]dto.RankedCandidateResponse, 0, topK)
	for _, record := range records[:topK] {
		ranked = append(ranked, dto.NewRankedCandidateResponse(record))
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("submitted", len(files)).
		Int("ranked", len(records)).
		Int("top_k", topK).
		Msg("resume ranking completed")

	return dto.RankingResponse{
		RunID:            runID,
		JobDescriptionID: jdID,
		JobTitle:         jobTitle,
		TotalSubmitted:   len(files),
		TotalRanked:      len(records),
		TopK:             topK,
		Candidates:       ranked,
		Skipped:          skipped,
	}, nil
}

func (s *rankingService) resolveJobDescription(ctx context.Context, actor Actor, payload dto.RankResumesRequest) (string, string, *string, error) {
	if payload.JobDescriptionID == "" {
		if len(payload.JobDescription) < minJobDescriptionLength {
			return "", "", nil, invalidInput("job_description_id or a job_description of at least %d characters is required", minJobDescriptionLength)
		}
		return payload.JobDescription, "", nil, nil
	}

	jd, err := s.jobs.GetByID(ctx, payload.JobDescriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", nil, ErrJobDescriptionNotFound
		}
		return "", "", nil, err
	}
	if !actor.IsAdmin() && jd.RecruiterID != actor.ID {
		return "", "", nil, ErrJobDescriptionNotFound
	}

	id := jd.ID
	return jd.Content, jd.JobTitle, &id, nil
}

func (s *rankingService) embedJobDescription(ctx context.Context, text string) ([]float32, error) {
	if vector, ok := s.cache.get(ctx, s.cfg.EmbeddingModel, text); ok {
		return vector, nil
	}

	vectors, err := s.embedder.Embed(ctx, []string{text})
	if err != nil {
		s.logger.Error().Err(err).Str("operation", "embed.job_description").Msg("job description embedding failed")
		return nil, upstream("job description embedding", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, upstream("job description embedding", ai.ErrEmptyResponse)
	}

	s.cache.set(ctx, s.cfg.EmbeddingModel, text, vectors[0])
	return vectors[0], nil
}

// prepare extracts and embeds each resume; a failing item is skipped, never fatal.
func (s *rankingService) prepare(ctx context.Context, runID string, files []dto.ResumeUpload) ([]*rankCandidate, []dto.SkippedResumeResponse) {
	candidates := make([]*rankCandidate, 0, len(files))
	skipped := make([]dto.SkippedResumeResponse, 0)

	skip := func(file dto.ResumeUpload, reason, label string, err error) {
		event := s.logger.Warn().Str("run_id", runID).Str("file_name", file.FileName).Str("reason", reason)
		if err != nil {
			event = event.Err(err)
		}
		event.Msg("resume skipped")
		observability.ResumesSkipped().WithLabelValues(label).Inc()
		skipped = append(skipped, dto.SkippedResumeResponse{FileName: file.FileName, Reason: reason})
	}

	for _, file := range files {
		if int64(len(file.Data)) > s.cfg.MaxFileBytes {
			skip(file, skipTooLarge, "too_large", nil)
			continue
		}
		if !mimetype.Detect(file.Data).Is("application/pdf") {
			skip(file, skipNotPDF, "not_pdf", nil)
			continue
		}

		text, err := s.extractor.Extract(ctx, file.Data)
		if err != nil {
			skip(file, skipExtraction, "extraction", err)
			continue
		}
		text = strings.TrimSpace(text)
		if len(text) < minResumeTextLength {
			skip(file, skipInsufficient, "too_short", nil)
			continue
		}

		vectors, err := s.embedder.Embed(ctx, []string{text})
		if err != nil || len(vectors) == 0 || len(vectors[0]) == 0 {
			if err == nil {
				err = ai.ErrEmptyResponse
			}
			skip(file, skipEmbeddingError, "embedding", err)
			continue
		}

		name := ExtractCandidateName(text)
		candidates = append(candidates, &rankCandidate{
			fileName:  file.FileName,
			data:      file.Data,
			text:      text,
			name:      name,
			vectorID:  ResumeVectorID(name, text),
			embedding: vectors[0],
		})
	}

	return candidates, skipped
}

// score upserts the batch into the vector index and converts each distance into a score.
func (s *rankingService) score(ctx context.Context, runID string, jdVector []float32, candidates []*rankCandidate) error {
	docs := make([]repository.VectorDocument, 0, len(candidates))
	positions := make(map[string]int, len(candidates))
	for _, candidate := range candidates {
		doc := repository.VectorDocument{
			ID:            candidate.vectorID,
			CandidateName: candidate.name,
			TextHash:      contentHash(candidate.text),
			Embedding:     candidate.embedding,
		}
		// identical name and text in one batch share an id; keep a single document
		if pos, ok := positions[doc.ID]; ok {
			docs[pos] = doc
			continue
		}
		positions[doc.ID] = len(docs)
		docs = append(docs, doc)
	}

	if err := s.index.Upsert(ctx, docs); err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Str("operation", "vector.upsert").Msg("vector index upsert failed")
		return upstream("vector index upsert", err)
	}

	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
	}

	neighbors, err := s.index.Query(ctx, jdVector, ids, len(ids))
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", runID).Str("operation", "vector.query").Msg("vector index query failed")
		return upstream("vector index query", err)
	}

	distances := make(map[string]float64, len(neighbors))
	for _, neighbor := range neighbors {
		distances[neighbor.ID] = neighbor.Distance
	}

	for _, candidate := range candidates {
		distance, ok := distances[candidate.vectorID]
		if !ok {
			s.logger.Warn().Str("run_id", runID).Str("vector_id", candidate.vectorID).Msg("no distance returned, using fallback score")
			candidate.score = fallbackSimilarityScore
			continue
		}
		candidate.score = SimilarityScore(distance)
	}

	return nil
}

// store persists the original file; storage failures leave the URL empty.
func (s *rankingService) store(ctx context.Context, candidate *rankCandidate) string {
	if s.uploader == nil {
		return ""
	}

	url, err := s.uploader.Upload(ctx, candidate.fileName, bytes.NewReader(candidate.data))
	if err != nil {
		s.logger.Warn().Err(err).Str("file_name", candidate.fileName).Msg("resume file upload failed")
		return ""
	}
	return url
}

func (s *rankingService) List(ctx context.Context, actor Actor) ([]dto.ResumeRecordResponse, error) {
	recruiterID := actor.ID
	if actor.IsAdmin() {
		recruiterID = ""
	}

	records, err := s.resumes.List(ctx, recruiterID, resumeListLimit)
	if err != nil {
		return nil, err
	}

	return dto.NewResumeRecordResponseSlice(records), nil
}

func (s *rankingService) Get(ctx context.Context, actor Actor, id string) (dto.ResumeRecordResponse, error) {
	record, err := s.resumes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResumeRecordResponse{}, ErrResumeNotFound
		}
		return dto.ResumeRecordResponse{}, err
	}

	if !actor.IsAdmin() && record.RecruiterID != actor.ID {
		return dto.ResumeRecordResponse{}, ErrResumeNotFound
	}

	return dto.NewResumeRecordResponse(record), nil
}
