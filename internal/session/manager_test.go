package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepstack/certstudy/internal/questions"
	"github.com/prepstack/certstudy/internal/store"
)

type fixture struct {
	mgr   *Manager
	pool  *questions.StaticPool
	clock *fakeClock
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newFixture() *fixture {
	pool := questions.NewStaticPool()
	clock := &fakeClock{t: time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)}
	n := 0
	mgr := NewManager(store.NewMemoryStore(), pool,
		WithClock(clock.Now),
		WithIDGenerator(func() string { n++; return fmt.Sprintf("sess-%d", n) }),
	)
	return &fixture{mgr: mgr, pool: pool, clock: clock}
}

func TestCreateAndGet(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 20)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", s.ID)
	assert.False(t, s.Completed)
	assert.False(t, s.Paused)
	require.NotNil(t, s.Answers)
	assert.Empty(t, s.Answers)

	got, err := fx.mgr.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestGetEnforcesOwnership(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)

	_, err = fx.mgr.Get(ctx, "u2", s.ID)
	assert.True(t, store.IsNotFound(err), "foreign session must look nonexistent, got %v", err)
	_, err = fx.mgr.Get(ctx, "u1", "no-such-session")
	assert.True(t, store.IsNotFound(err))
}

func TestSubmitAnswerOverwrites(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)

	count, err := fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q1", "A")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// resubmitting the same question replaces, never appends
	count, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q1", "C")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q2", "B")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := fx.mgr.Get(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"q1": "C", "q2": "B"}, got.Answers)
}

func TestCompleteIsTerminal(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q1", "A")
	require.NoError(t, err)

	fx.clock.Advance(30 * time.Minute)
	done, err := fx.mgr.Complete(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.True(t, done.Completed)
	assert.False(t, done.Paused)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, fx.clock.t, *done.CompletedAt)

	// completing again is a no-op success
	again, err := fx.mgr.Complete(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, done, again)

	// the terminal state rejects further submissions and pausing
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q2", "B")
	var ise *InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Session is already completed", ise.Reason)

	_, err = fx.mgr.Pause(ctx, "u1", s.ID)
	require.ErrorAs(t, err, &ise)
}

func TestPauseResume(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)

	p, err := fx.mgr.Pause(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.True(t, p.Paused)

	// pausing a paused session changes nothing
	p2, err := fx.mgr.Pause(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, p, p2)

	r, err := fx.mgr.Resume(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.False(t, r.Paused)
}

func TestListMostRecentFirst(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	var ids []string
	for i := 0; i < 3; i++ {
		s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
		require.NoError(t, err)
		ids = append(ids, s.ID)
		fx.clock.Advance(time.Hour)
	}
	// another user's sessions must not leak into the listing
	_, err := fx.mgr.Create(ctx, "u2", "aws", "saa-c03", 10)
	require.NoError(t, err)

	got, err := fx.mgr.List(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0].ID)
	assert.Equal(t, ids[1], got[1].ID)
	assert.Equal(t, ids[0], got[2].ID)
}

func TestListByExam(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	_, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)
	fx.clock.Advance(time.Minute)
	_, err = fx.mgr.Create(ctx, "u2", "aws", "saa-c03", 10)
	require.NoError(t, err)
	_, err = fx.mgr.Create(ctx, "u1", "gcp", "ace", 10)
	require.NoError(t, err)

	got, err := fx.mgr.ListByExam(ctx, "aws", "saa-c03", 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	for _, s := range got {
		assert.Equal(t, "aws", s.Provider)
		assert.Equal(t, "saa-c03", s.Exam)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)

	count := 25
	got, err := fx.mgr.Update(ctx, "u1", s.ID, SessionUpdate{QuestionCount: &count})
	require.NoError(t, err)
	assert.Equal(t, 25, got.QuestionCount)

	require.NoError(t, fx.mgr.Delete(ctx, "u1", s.ID))
	_, err = fx.mgr.Get(ctx, "u1", s.ID)
	assert.True(t, store.IsNotFound(err))

	err = fx.mgr.Delete(ctx, "u1", s.ID)
	assert.True(t, store.IsNotFound(err))
}

func TestStats(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	fx.pool.Add("aws", "saa-c03", "q1", "A")
	fx.pool.Add("aws", "saa-c03", "q2", "B")
	fx.pool.Add("aws", "saa-c03", "q3", "C")

	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q1", "A")
	require.NoError(t, err)
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q2", "D")
	require.NoError(t, err)
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q3", "C")
	require.NoError(t, err)
	// a question the pool does not know scores as incorrect
	_, err = fx.mgr.SubmitAnswer(ctx, "u1", s.ID, "q9", "A")
	require.NoError(t, err)

	fx.clock.Advance(90 * time.Second)
	_, err = fx.mgr.Complete(ctx, "u1", s.ID)
	require.NoError(t, err)

	st, err := fx.mgr.Stats(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, st.TotalQuestions)
	assert.Equal(t, 4, st.AnsweredQuestions)
	assert.Equal(t, 2, st.CorrectAnswers)
	assert.Equal(t, 50, st.Accuracy)
	assert.Equal(t, int64(90), st.TimeSpentSeconds)
}

func TestStatsEmptySession(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()
	s, err := fx.mgr.Create(ctx, "u1", "aws", "saa-c03", 10)
	require.NoError(t, err)

	st, err := fx.mgr.Stats(ctx, "u1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.AnsweredQuestions)
	assert.Equal(t, 0, st.Accuracy)
	assert.Equal(t, int64(0), st.TimeSpentSeconds)
}
