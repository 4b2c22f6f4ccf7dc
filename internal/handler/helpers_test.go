package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/talentflow-api/internal/config"
	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/handler"
	"github.com/noah-isme/talentflow-api/internal/middleware"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/internal/router"
	"github.com/noah-isme/talentflow-api/internal/service"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

const (
	testSecret         = "handler-test-secret"
	testJobDescription = "Senior Go engineer building payment APIs on PostgreSQL and Redis."
	pdfMagic           = "%PDF-1.4\n"
)

var testConfig = config.Config{
	AppName:    "TalentFlow Test",
	AppEnv:     "test",
	JWTSecret:  testSecret,
	AIProvider: "openai",
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
	Details json.RawMessage `json:"details"`
}

// scriptedInterviewAI numbers its questions and rates every answer with the next scripted score.
type scriptedInterviewAI struct {
	mu        sync.Mutex
	asked     int
	ratings   []int
	summarize error
}

func (s *scriptedInterviewAI) PlanTopics(context.Context, string) ([]string, error) {
	return []string{"Go concurrency", "PostgreSQL"}, nil
}

func (s *scriptedInterviewAI) NextQuestion(context.Context, ai.QuestionDirective, []ai.Exchange) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asked++
	return fmt.Sprintf("Q%d", s.asked), nil
}

func (s *scriptedInterviewAI) EvaluateAnswer(context.Context, string, string) (ai.Rating, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score := 4
	if len(s.ratings) > 0 {
		score, s.ratings = s.ratings[0], s.ratings[1:]
	}
	return ai.Rating{Score: score, Feedback: "noted"}, nil
}

func (s *scriptedInterviewAI) Summarize(context.Context, []ai.Exchange, []ai.Rating) (ai.Verdict, error) {
	if s.summarize != nil {
		return ai.Verdict{}, s.summarize
	}
	return ai.Verdict{Recommendation: "Proceed", SummaryText: "Solid backend fundamentals."}, nil
}

type stubWriter struct {
	err error
}

func (w stubWriter) Write(_ context.Context, brief ai.JobBrief) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	return "<h2>" + brief.JobTitle + "</h2><script>alert(1)</script>\nWe build APIs & services.", nil
}

// stubEmbedder answers from a fixed table; unknown texts fail.
type stubEmbedder struct {
	vectors map[string][]float32
}

func (e stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, ok := e.vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		result = append(result, vector)
	}
	return result, nil
}

type stubExtractor struct{}

func (stubExtractor) Extract(_ context.Context, data []byte) (string, error) {
	text := strings.TrimPrefix(string(data), pdfMagic)
	if strings.HasPrefix(text, "corrupt") {
		return "", errors.New("malformed xref table")
	}
	return text, nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	return []byte("ID3" + text), nil
}

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	auth        service.AuthService
	feed        service.InterviewFeed
	interviewer *scriptedInterviewAI
	embedder    stubEmbedder
}

type envOption func(*router.Dependencies)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := newTestDB(t)
	validate := validator.New(validator.WithRequiredStructEnabled())
	log := zerolog.Nop()

	env := &testEnv{
		db:          db,
		interviewer: &scriptedInterviewAI{},
		embedder:    stubEmbedder{vectors: map[string][]float32{testJobDescription: {1, 0}}},
	}

	jobRepo := repository.NewJobDescriptionRepository(db)
	env.auth = service.NewAuthService(repository.NewUserRepository(db), repository.NewCredentialRepository(db), validate, testSecret, 0, log)
	env.feed = service.NewInterviewFeed(nil, nil, "", log)

	jobService := service.NewJobDescriptionService(jobRepo, stubWriter{}, validate, log)
	rankingService := service.NewRankingService(
		repository.NewResumeRepository(db),
		jobRepo,
		repository.NewVectorRepository(db),
		env.embedder,
		stubExtractor{},
		nil,
		nil,
		validate,
		service.RankingConfig{DefaultTopK: 2, EmbeddingModel: "test"},
		log,
	)
	interviewService := service.NewInterviewService(
		repository.NewInterviewRepository(db),
		jobRepo,
		env.interviewer,
		env.feed,
		validate,
		service.InterviewConfig{DefaultMaxQuestions: 2},
		log,
	)
	speechService := service.NewSpeechService(nil, stubSynthesizer{}, "openai", 0, validate, log)

	deps := router.Dependencies{
		AuthHandler:           handler.NewAuthHandler(env.auth, validate, log),
		AdminHandler:          handler.NewAdminHandler(env.auth, validate, log),
		JobDescriptionHandler: handler.NewJobDescriptionHandler(jobService, validate, log),
		ResumeHandler:         handler.NewResumeHandler(rankingService, validate, log),
		InterviewHandler:      handler.NewInterviewHandler(interviewService, env.feed, validate, log),
		SpeechHandler:         handler.NewSpeechHandler(speechService, validate, log),
	}
	for _, opt := range opts {
		opt(&deps)
	}

	env.app = fiber.New()
	env.app.Use(middleware.CorrelationID())
	router.Register(env.app, testConfig, deps)
	return env
}

// createUser provisions a persistent account directly through the service.
func (e *testEnv) createUser(t *testing.T, username, role string) {
	t.Helper()
	_, err := e.auth.CreateUser(context.Background(), dto.CreateUserRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "correct-horse",
		Role:     role,
	})
	require.NoError(t, err)
}

func (e *testEnv) login(t *testing.T, username, password string) dto.LoginResponse {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body apiEnvelope
	decodeResponse(t, resp, &body)

	var login dto.LoginResponse
	require.NoError(t, json.Unmarshal(body.Data, &login))
	require.NotEmpty(t, login.Token)
	return login
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(data, target))
}

func decodeData(t *testing.T, resp *http.Response, target interface{}) apiEnvelope {
	t.Helper()
	var body apiEnvelope
	decodeResponse(t, resp, &body)
	if target != nil {
		require.NoError(t, json.Unmarshal(body.Data, target))
	}
	return body
}
