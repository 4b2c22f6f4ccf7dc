package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/talentflow-api/internal/dto"
	"github.com/noah-isme/talentflow-api/internal/models"
	"github.com/noah-isme/talentflow-api/internal/repository"
	"github.com/noah-isme/talentflow-api/pkg/ai"
)

type recordingFeed struct {
	mu     sync.Mutex
	events []dto.InterviewEvent
}

func (f *recordingFeed) Publish(_ context.Context, event dto.InterviewEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *recordingFeed) Subscribe(string) (<-chan dto.InterviewEvent, func()) {
	ch := make(chan dto.InterviewEvent)
	return ch, func() {}
}

func (f *recordingFeed) Start(context.Context) {}

func (f *recordingFeed) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]string, 0, len(f.events))
	for _, event := range f.events {
		types = append(types, event.Type)
	}
	return types
}

// bumpingRepository simulates a concurrent writer landing just before every versioned update.
type bumpingRepository struct {
	repository.InterviewRepository
	db *gorm.DB
}

func (r bumpingRepository) UpdateVersioned(ctx context.Context, interview *models.Interview, expectedVersion int) error {
	if err := r.db.Model(&models.Interview{}).Where("id = ?", interview.ID).Update("version", gorm.Expr("version + 1")).Error; err != nil {
		return err
	}
	return r.InterviewRepository.UpdateVersioned(ctx, interview, expectedVersion)
}

type interviewFixture struct {
	db        *gorm.DB
	svc       InterviewService
	model     *fakeInterviewAI
	feed      *recordingFeed
	recruiter Actor
	jd        models.JobDescription
}

func newInterviewFixture(t *testing.T) *interviewFixture {
	t.Helper()

	db := newTestDB(t)
	recruiter := Actor{ID: "recruiter-1", Role: models.RoleRecruiter}
	fixture := &interviewFixture{
		db:        db,
		model:     newFakeInterviewAI(),
		feed:      &recordingFeed{},
		recruiter: recruiter,
		jd:        seedJobDescription(t, db, recruiter.ID),
	}
	fixture.svc = fixture.build(repository.NewInterviewRepository(db))
	return fixture
}

func (f *interviewFixture) build(repo repository.InterviewRepository) InterviewService {
	return NewInterviewService(
		repo,
		repository.NewJobDescriptionRepository(f.db),
		f.model,
		f.feed,
		testValidator(),
		InterviewConfig{DefaultMaxQuestions: 3, CredentialTTL: 24 * time.Hour},
		testLogger(),
	)
}

func (f *interviewFixture) assign(t *testing.T, username string, maxQuestions int) (dto.AssignInterviewResponse, Actor) {
	t.Helper()

	resp, err := f.svc.Assign(context.Background(), f.recruiter, dto.AssignInterviewRequest{
		CandidateName:     "Jane Candidate",
		CandidateUsername: username,
		JobDescriptionID:  f.jd.ID,
		MaxQuestions:      maxQuestions,
	})
	require.NoError(t, err)

	var credential models.Credential
	require.NoError(t, f.db.Where("interview_id = ?", resp.Interview.ID).First(&credential).Error)
	return resp, Actor{ID: credential.ID, Role: models.RoleCandidate, InterviewID: resp.Interview.ID}
}

func (f *interviewFixture) reload(t *testing.T, id string) models.Interview {
	t.Helper()
	var interview models.Interview
	require.NoError(t, f.db.Where("id = ?", id).First(&interview).Error)
	return interview
}

func TestInterviewServiceAssignProvisionsCredential(t *testing.T) {
	f := newInterviewFixture(t)

	resp, candidate := f.assign(t, "Jane.Doe", 0)
	require.Equal(t, string(models.InterviewStatusAssigned), resp.Interview.Status)
	require.Equal(t, 3, resp.Interview.MaxQuestions)
	login := "jane.doe_" + strings.ReplaceAll(resp.Interview.ID, "-", "")[:8]
	require.Equal(t, login, resp.CandidateCredentials.Username)
	require.Equal(t, login+"@talentflow.temp", resp.CandidateCredentials.Email)
	require.Equal(t, login, resp.Interview.CandidateUsername)
	require.Len(t, resp.CandidateCredentials.Password, 12)
	require.Equal(t, "24 hours", resp.CandidateCredentials.ValidFor)

	var credential models.Credential
	require.NoError(t, f.db.Where("id = ?", candidate.ID).First(&credential).Error)
	require.Equal(t, resp.Interview.ID, credential.InterviewID)
	require.True(t, passwordMatches(credential.PasswordHash, resp.CandidateCredentials.Password))
	require.Equal(t, []string{InterviewEventAssigned}, f.feed.types())

	_, err := f.svc.Assign(context.Background(), Actor{ID: "recruiter-2", Role: models.RoleRecruiter}, dto.AssignInterviewRequest{
		CandidateName:     "John Candidate",
		CandidateUsername: "john",
		JobDescriptionID:  f.jd.ID,
	})
	require.ErrorIs(t, err, ErrJobDescriptionNotFound)
}

func TestInterviewServiceFullLifecycle(t *testing.T) {
	f := newInterviewFixture(t)
	f.model.ratings = []int{4, 2, 5}
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 3)
	id := assigned.Interview.ID

	started, err := f.svc.Start(ctx, candidate, id)
	require.NoError(t, err)
	require.Equal(t, "Q1", started.CurrentQuestion)
	require.Equal(t, 1, started.QuestionNumber)
	require.Equal(t, 3, started.TotalQuestions)

	status, err := f.svc.Status(ctx, candidate, id)
	require.NoError(t, err)
	require.Equal(t, string(models.InterviewStatusInProgress), status.Status)
	require.Equal(t, "Q1", status.CurrentQuestion)

	_, err = f.svc.Summary(ctx, f.recruiter, id)
	var stateErr *InterviewStateError
	require.ErrorAs(t, err, &stateErr)

	first, err := f.svc.SubmitAnswer(ctx, candidate, id, dto.SubmitAnswerRequest{Answer: "Goroutines and channels."})
	require.NoError(t, err)
	require.Equal(t, 4, first.Evaluation.Rating)
	require.Equal(t, "Q2", first.NextQuestion)
	require.Equal(t, 2, first.QuestionNumber)
	require.Equal(t, 1, first.QuestionsCompleted)

	second, err := f.svc.SubmitAnswer(ctx, candidate, id, dto.SubmitAnswerRequest{Answer: "Not sure."})
	require.NoError(t, err)
	require.Equal(t, "Q3", second.NextQuestion)

	third, err := f.svc.SubmitAnswer(ctx, candidate, id, dto.SubmitAnswerRequest{Answer: "<b>Indexes</b> and query plans."})
	require.NoError(t, err)
	require.Equal(t, string(models.InterviewStatusCompleted), third.Status)
	require.Empty(t, third.NextQuestion)
	require.NotNil(t, third.Summary)
	require.Equal(t, "Proceed", third.Summary.Recommendation)
	require.InDelta(t, 3.67, third.Summary.AverageScore, 0.001)
	require.Len(t, third.Summary.Transcript, 3)
	require.Equal(t, "Indexes and query plans.", third.Summary.Transcript[2].Answer)

	require.Equal(t, []ai.QuestionDirective{
		{Kind: ai.QuestionTopic, Subject: "Go concurrency"},
		{Kind: ai.QuestionTopic, Subject: "PostgreSQL"},
		{Kind: ai.QuestionFollowUp, Subject: "Q2"},
	}, f.model.directives)

	stored := f.reload(t, id)
	require.Equal(t, models.InterviewStatusCompleted, stored.Status)
	require.Equal(t, models.RecommendationProceed, stored.Recommendation)
	require.NotNil(t, stored.CompletedAt)

	var credential models.Credential
	require.NoError(t, f.db.Where("id = ?", candidate.ID).First(&credential).Error)
	require.True(t, credential.Attempted)

	_, err = f.svc.SubmitAnswer(ctx, candidate, id, dto.SubmitAnswerRequest{Answer: "One more"})
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, models.InterviewStatusCompleted, stateErr.Current)

	summary, err := f.svc.Summary(ctx, f.recruiter, id)
	require.NoError(t, err)
	require.Equal(t, "Solid backend fundamentals.", summary.SummaryText)

	results, err := f.svc.Results(ctx, f.recruiter)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "Backend Engineer", results[0].JobTitle)
	require.InDelta(t, 3.67, results[0].AverageScore, 0.001)

	require.Equal(t, []string{
		InterviewEventAssigned,
		InterviewEventStarted,
		InterviewEventAnswered,
		InterviewEventAnswered,
		InterviewEventCompleted,
	}, f.feed.types())
}

func TestInterviewServiceStartRequiresAssigned(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 2)
	_, err := f.svc.Start(ctx, candidate, assigned.Interview.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, candidate, assigned.Interview.ID)
	var stateErr *InterviewStateError
	require.ErrorAs(t, err, &stateErr)
	require.Equal(t, models.InterviewStatusInProgress, stateErr.Current)

	_, err = f.svc.Start(ctx, candidate, "missing")
	require.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestInterviewServiceModelFailureLeavesSessionUntouched(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 3)
	id := assigned.Interview.ID

	f.model.planErr = errors.New("model offline")
	_, err := f.svc.Start(ctx, candidate, id)
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, models.InterviewStatusAssigned, f.reload(t, id).Status)

	f.model.planErr = nil
	_, err = f.svc.Start(ctx, candidate, id)
	require.NoError(t, err)
	before := f.reload(t, id)

	f.model.evaluateErr = errors.New("timeout")
	_, err = f.svc.SubmitAnswer(ctx, candidate, id, dto.SubmitAnswerRequest{Answer: "An answer"})
	require.ErrorAs(t, err, &upstreamErr)

	after := f.reload(t, id)
	require.Equal(t, before.Version, after.Version)
	require.Len(t, after.HistoryEntries(), 1)
	require.False(t, after.HistoryEntries()[0].Answered)
	require.Empty(t, after.EvaluationList())
}

func TestInterviewServiceRejectsUnknownRecommendation(t *testing.T) {
	f := newInterviewFixture(t)
	f.model.verdict = ai.Verdict{Recommendation: "Strong hire", SummaryText: "Great"}
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 1)
	_, err := f.svc.Start(ctx, candidate, assigned.Interview.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, candidate, assigned.Interview.ID, dto.SubmitAnswerRequest{Answer: "An answer"})
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	require.Equal(t, models.InterviewStatusInProgress, f.reload(t, assigned.Interview.ID).Status)
}

func TestInterviewServiceDetectsConcurrentModification(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 2)
	racing := f.build(bumpingRepository{InterviewRepository: repository.NewInterviewRepository(f.db), db: f.db})

	_, err := racing.Start(ctx, candidate, assigned.Interview.ID)
	require.ErrorIs(t, err, ErrConcurrentModification)
	require.Equal(t, models.InterviewStatusAssigned, f.reload(t, assigned.Interview.ID).Status)
}

func TestInterviewServiceAuthorization(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, _ := f.assign(t, "jane", 2)
	_, other := f.assign(t, "john", 2)
	id := assigned.Interview.ID

	_, err := f.svc.Status(ctx, other, id)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Status(ctx, Actor{ID: "recruiter-2", Role: models.RoleRecruiter}, id)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Status(ctx, Actor{ID: "root", Role: models.RoleAdmin}, id)
	require.NoError(t, err)

	_, err = f.svc.ListMine(ctx, f.recruiter)
	require.ErrorIs(t, err, ErrForbidden)

	mine, err := f.svc.ListMine(ctx, other)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, "john", mine[0].CandidateUsername)
}

func TestInterviewServiceCancelExpiresCredential(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 2)

	resp, err := f.svc.Cancel(ctx, f.recruiter, assigned.Interview.ID)
	require.NoError(t, err)
	require.Equal(t, string(models.InterviewStatusCancelled), resp.Status)
	require.NotNil(t, resp.CancelledAt)

	var credential models.Credential
	require.NoError(t, f.db.Where("id = ?", candidate.ID).First(&credential).Error)
	require.False(t, credential.ExpiresAt.After(time.Now()))

	_, err = f.svc.Cancel(ctx, f.recruiter, assigned.Interview.ID)
	var stateErr *InterviewStateError
	require.ErrorAs(t, err, &stateErr)

	_, err = f.svc.Start(ctx, candidate, assigned.Interview.ID)
	require.ErrorAs(t, err, &stateErr)
}

func TestNextQuestionDirective(t *testing.T) {
	plan := []string{"Go", "SQL"}
	answered := func(question string) models.QAEntry {
		return models.QAEntry{Question: question, Answer: "a", Answered: true}
	}

	cases := []struct {
		name        string
		history     []models.QAEntry
		evaluations []models.Evaluation
		expected    ai.QuestionDirective
	}{
		{
			name:     "first question follows the plan",
			expected: ai.QuestionDirective{Kind: ai.QuestionTopic, Subject: "Go"},
		},
		{
			name:        "strong answer advances the plan",
			history:     []models.QAEntry{answered("Q1")},
			evaluations: []models.Evaluation{{Rating: 3}},
			expected:    ai.QuestionDirective{Kind: ai.QuestionTopic, Subject: "SQL"},
		},
		{
			name:        "weak answer is probed again",
			history:     []models.QAEntry{answered("Q1")},
			evaluations: []models.Evaluation{{Rating: 2}},
			expected:    ai.QuestionDirective{Kind: ai.QuestionFollowUp, Subject: "Q1"},
		},
		{
			name:        "exhausted plan closes",
			history:     []models.QAEntry{answered("Q1"), answered("Q2")},
			evaluations: []models.Evaluation{{Rating: 5}, {Rating: 4}},
			expected:    ai.QuestionDirective{Kind: ai.QuestionClosing},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, nextQuestionDirective(plan, tc.history, tc.evaluations))
		})
	}
}

func TestInterviewServiceRepeatedHandleKeepsEarlierCredential(t *testing.T) {
	f := newInterviewFixture(t)
	auth := NewAuthService(
		repository.NewUserRepository(f.db),
		repository.NewCredentialRepository(f.db),
		testValidator(),
		testSecret,
		time.Hour,
		testLogger(),
	)
	// a persistent account already owns the bare handle
	require.NoError(t, f.db.Create(&models.User{
		Username:     "jane",
		Email:        "jane@example.com",
		PasswordHash: "not-a-bcrypt-hash",
		Role:         models.RoleRecruiter,
	}).Error)

	first, _ := f.assign(t, "jane", 0)
	second, _ := f.assign(t, "jane", 0)
	require.NotEqual(t, first.CandidateCredentials.Username, second.CandidateCredentials.Username)
	require.NotEqual(t, first.CandidateCredentials.Email, second.CandidateCredentials.Email)

	for _, assigned := range []dto.AssignInterviewResponse{first, second} {
		creds := assigned.CandidateCredentials
		for _, login := range []string{creds.Username, creds.Email} {
			resp, err := auth.Login(context.Background(), dto.LoginRequest{Username: login, Password: creds.Password})
			require.NoError(t, err, login)
			require.Equal(t, assigned.Interview.ID, resp.User.InterviewID)
			require.Equal(t, models.RoleCandidate, resp.User.Role)
		}
	}
}

func TestInterviewServiceStatusIsRepeatable(t *testing.T) {
	f := newInterviewFixture(t)
	ctx := context.Background()

	assigned, candidate := f.assign(t, "jane", 3)
	_, err := f.svc.Start(ctx, candidate, assigned.Interview.ID)
	require.NoError(t, err)
	version := f.reload(t, assigned.Interview.ID).Version

	for _, actor := range []Actor{candidate, f.recruiter} {
		first, err := f.svc.Status(ctx, actor, assigned.Interview.ID)
		require.NoError(t, err)
		second, err := f.svc.Status(ctx, actor, assigned.Interview.ID)
		require.NoError(t, err)
		require.Equal(t, first, second)
	}
	require.Equal(t, version, f.reload(t, assigned.Interview.ID).Version)
}
