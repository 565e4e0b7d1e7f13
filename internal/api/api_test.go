package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/certstudy/internal/auth"
	"github.com/prepstack/certstudy/internal/goal"
	"github.com/prepstack/certstudy/internal/questions"
	"github.com/prepstack/certstudy/internal/session"
	"github.com/prepstack/certstudy/internal/store"
	"github.com/prepstack/certstudy/internal/user"
)

const testSecret = "api-test-secret"

type fixture struct {
	svc  *Service
	pool *questions.StaticPool
}

func newFixture() *fixture {
	st := store.NewMemoryStore()
	pool := questions.NewStaticPool()
	sessions := session.NewManager(st, pool)
	goals := goal.NewEngine(st, sessions)
	users := user.NewRegistry(st)
	verifier := auth.NewTokenVerifier(auth.StaticSecret(testSecret))
	return &fixture{
		svc:  New(verifier, users, sessions, goals, nil),
		pool: pool,
	}
}

// register creates an account and returns its identity, bypassing token
// issuance, which lives outside this service.
func (fx *fixture) register(t *testing.T, email, name string) auth.Identity {
	t.Helper()
	u, err := fx.svc.Register(context.Background(), RegisterRequest{Email: email, Name: name})
	require.NoError(t, err)
	return auth.Identity{UserID: u.ID, Email: u.Email}
}

func signToken(t *testing.T, userID, email string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   userID,
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthenticateStripsBearerPrefix(t *testing.T) {
	fx := newFixture()
	token := signToken(t, "u1", "a@b.c")

	for _, header := range []string{token, "Bearer " + token, "  Bearer " + token + "  "} {
		id, err := fx.svc.Authenticate(context.Background(), header)
		require.NoError(t, err, "header %q", header)
		assert.Equal(t, "u1", id.UserID)
	}

	_, err := fx.svc.Authenticate(context.Background(), "Bearer bogus")
	status, _ := MapError(err)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRegisterValidation(t *testing.T) {
	fx := newFixture()
	_, err := fx.svc.Register(context.Background(), RegisterRequest{Email: "not-an-email"})
	status, body := MapError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "A valid email address is required", body.Message)
}

func TestSessionFlow(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.register(t, "alice@example.com", "Alice")
	fx.pool.Add("aws", "saa-c03", "q1", "A")
	fx.pool.Add("aws", "saa-c03", "q2", "B")

	s, err := fx.svc.CreateSession(ctx, id, CreateSessionRequest{
		Provider: "aws", Exam: "saa-c03", QuestionCount: 2,
	})
	require.NoError(t, err)

	res, err := fx.svc.SubmitAnswer(ctx, id, s.ID, SubmitAnswerRequest{QuestionID: "q1", Answer: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.AnsweredQuestions)
	res, err = fx.svc.SubmitAnswer(ctx, id, s.ID, SubmitAnswerRequest{QuestionID: "q2", Answer: "C"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.AnsweredQuestions)

	done, err := fx.svc.CompleteSession(ctx, id, s.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	st, err := fx.svc.SessionStats(ctx, id, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.AnsweredQuestions)
	assert.Equal(t, 1, st.CorrectAnswers)
	assert.Equal(t, 50, st.Accuracy)

	// completed sessions reject further answers with a conflict
	_, err = fx.svc.SubmitAnswer(ctx, id, s.ID, SubmitAnswerRequest{QuestionID: "q1", Answer: "B"})
	status, body := MapError(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Session is already completed", body.Message)

	list, err := fx.svc.ListSessions(ctx, id, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSessionOwnershipLooksLikeAbsence(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	alice := fx.register(t, "alice@example.com", "Alice")
	mallory := fx.register(t, "mallory@example.com", "Mallory")

	s, err := fx.svc.CreateSession(ctx, alice, CreateSessionRequest{
		Provider: "aws", Exam: "saa-c03", QuestionCount: 5,
	})
	require.NoError(t, err)

	_, err = fx.svc.GetSession(ctx, mallory, s.ID)
	status, body := MapError(err)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Not found", body.Message)
}

func TestGoalFlowRefreshesOnCompletion(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.register(t, "alice@example.com", "Alice")
	fx.pool.Add("aws", "saa-c03", "q1", "A")
	fx.pool.Add("aws", "saa-c03", "q2", "B")

	g, err := fx.svc.CreateGoal(ctx, id, CreateGoalRequest{
		Title: "Pass SAA", Provider: "aws", Exam: "saa-c03", TargetScore: 80,
		TargetDate: time.Now().AddDate(0, 3, 0).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, g.CurrentScore)

	s, err := fx.svc.CreateSession(ctx, id, CreateSessionRequest{
		Provider: "aws", Exam: "saa-c03", QuestionCount: 2,
	})
	require.NoError(t, err)
	_, err = fx.svc.SubmitAnswer(ctx, id, s.ID, SubmitAnswerRequest{QuestionID: "q1", Answer: "A"})
	require.NoError(t, err)
	_, err = fx.svc.SubmitAnswer(ctx, id, s.ID, SubmitAnswerRequest{QuestionID: "q2", Answer: "B"})
	require.NoError(t, err)
	_, err = fx.svc.CompleteSession(ctx, id, s.ID)
	require.NoError(t, err)

	got, err := fx.svc.GetGoal(ctx, id, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.CurrentScore)
	assert.True(t, got.IsCompleted)

	p, err := fx.svc.GoalProgress(ctx, id, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, p.Percentage)
	assert.True(t, p.OnTrack)
}

func TestGoalValidation(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.register(t, "alice@example.com", "Alice")

	cases := []struct {
		name string
		req  CreateGoalRequest
		msg  string
	}{
		{
			"missing exam",
			CreateGoalRequest{Provider: "aws", TargetScore: 80, TargetDate: "2099-01-01T00:00:00Z"},
			"Provider and exam are required",
		},
		{
			"score too high",
			CreateGoalRequest{Provider: "aws", Exam: "x", TargetScore: 120, TargetDate: "2099-01-01T00:00:00Z"},
			"Target score must be between 1 and 100",
		},
		{
			"bad date",
			CreateGoalRequest{Provider: "aws", Exam: "x", TargetScore: 80, TargetDate: "next tuesday"},
			"Target date must be a valid RFC 3339 timestamp",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.CreateGoal(ctx, id, tc.req)
			status, body := MapError(err)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tc.msg, body.Message)
		})
	}

	_, err := fx.svc.CreateGoal(ctx, id, CreateGoalRequest{
		Provider: "aws", Exam: "x", TargetScore: 80,
		TargetDate: time.Now().Add(-time.Hour).Format(time.RFC3339),
	})
	status, body := MapError(err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Target date must be in the future", body.Message)
}

func TestUpdateAndDeleteGoal(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	id := fx.register(t, "alice@example.com", "Alice")

	g, err := fx.svc.CreateGoal(ctx, id, CreateGoalRequest{
		Title: "Old", Provider: "aws", Exam: "saa-c03", TargetScore: 80,
		TargetDate: time.Now().AddDate(0, 3, 0).Format(time.RFC3339),
	})
	require.NoError(t, err)

	title := "New"
	got, err := fx.svc.UpdateGoal(ctx, id, g.ID, UpdateGoalRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)

	require.NoError(t, fx.svc.DeleteGoal(ctx, id, g.ID))
	_, err = fx.svc.GetGoal(ctx, id, g.ID)
	status, _ := MapError(err)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDuplicateEmailMapsToConflict(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.register(t, "alice@example.com", "Alice")

	_, err := fx.svc.Register(ctx, RegisterRequest{Email: "alice@example.com", Name: "Again"})
	status, body := MapError(err)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "A record with these details already exists", body.Message)
}
