package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

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

func seedJobDescription(t *testing.T, db *gorm.DB, recruiterID string) models.JobDescription {
	t.Helper()

	jd := models.JobDescription{
		JobTitle:    "Backend Engineer",
		Content:     "We are hiring a backend engineer experienced with Go, PostgreSQL and distributed systems.",
		Source:      models.JobDescriptionSourceManual,
		RecruiterID: recruiterID,
	}
	require.NoError(t, db.Create(&jd).Error)
	return jd
}

// fakeInterviewAI numbers its questions Q1, Q2, ... and returns scripted ratings.
type fakeInterviewAI struct {
	mu          sync.Mutex
	topics      []string
	ratings     []int
	verdict     ai.Verdict
	planErr     error
	questionErr error
	evaluateErr error
	summaryErr  error
	directives  []ai.QuestionDirective
	questions   int
	evaluations int
}

func newFakeInterviewAI() *fakeInterviewAI {
	return &fakeInterviewAI{
		topics:  []string{"Go concurrency", "PostgreSQL", "API design"},
		verdict: ai.Verdict{Recommendation: "Proceed", SummaryText: "Solid backend fundamentals."},
	}
}

func (f *fakeInterviewAI) PlanTopics(context.Context, string) ([]string, error) {
	if f.planErr != nil {
		return nil, f.planErr
	}
	return f.topics, nil
}

func (f *fakeInterviewAI) NextQuestion(_ context.Context, directive ai.QuestionDirective, _ []ai.Exchange) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.questionErr != nil {
		return "", f.questionErr
	}
	f.directives = append(f.directives, directive)
	f.questions++
	return fmt.Sprintf("Q%d", f.questions), nil
}

func (f *fakeInterviewAI) EvaluateAnswer(context.Context, string, string) (ai.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.evaluateErr != nil {
		return ai.Rating{}, f.evaluateErr
	}
	score := 4
	if f.evaluations < len(f.ratings) {
		score = f.ratings[f.evaluations]
	}
	f.evaluations++
	return ai.Rating{Score: score, Feedback: fmt.Sprintf("feedback %d", f.evaluations)}, nil
}

func (f *fakeInterviewAI) Summarize(context.Context, []ai.Exchange, []ai.Rating) (ai.Verdict, error) {
	if f.summaryErr != nil {
		return ai.Verdict{}, f.summaryErr
	}
	return f.verdict, nil
}
