// Package goal derives study-goal progress from session history. A goal's
// current score is a cached aggregate over the user's completed sessions for
// the same provider/exam pair; the sessions remain the source of truth and
// the score is recomputed on every update.
package goal

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/session"
	"github.com/prepstack/certstudy/internal/store"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

// ErrTargetDatePast rejects goal creation or edits with a deadline that is
// not in the future.
var ErrTargetDatePast = errors.New("goal: target date must be in the future")

// recentSessionWindow bounds how much session history feeds a recompute.
const recentSessionWindow = 50

// statsConcurrency bounds parallel per-session stat derivation.
const statsConcurrency = 4

// Engine owns goal CRUD and progress derivation.
type Engine struct {
	store    store.Store
	sessions *session.Manager
	log      logging.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option { return func(e *Engine) { e.log = l } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithIDGenerator overrides goal id generation (tests).
func WithIDGenerator(gen func() string) Option { return func(e *Engine) { e.newID = gen } }

// NewEngine builds an Engine over the store and the session manager.
func NewEngine(st store.Store, sessions *session.Manager, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		sessions: sessions,
		log:      logging.NopLogger{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateInput carries the caller-supplied fields of a new goal.
type CreateInput struct {
	Title       string
	Provider    string
	Exam        string
	TargetScore int
	TargetDate  time.Time
}

// Create starts a new goal at score zero. Past target dates are rejected even
// though outer validation should have caught them already.
func (e *Engine) Create(ctx context.Context, userID string, in CreateInput) (entity.StudyGoal, error) {
	if !in.TargetDate.After(e.now()) {
		return entity.StudyGoal{}, ErrTargetDatePast
	}
	now := e.now().UTC()
	g := entity.StudyGoal{
		ID:          e.newID(),
		UserID:      userID,
		Title:       in.Title,
		Provider:    in.Provider,
		Exam:        in.Exam,
		TargetScore: in.TargetScore,
		TargetDate:  in.TargetDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	item, err := entity.EncodeGoal(g)
	if err != nil {
		return entity.StudyGoal{}, err
	}
	if err := e.store.Put(ctx, item, true); err != nil {
		return entity.StudyGoal{}, err
	}
	e.log.Info("goal.created", logging.Fields{"goalId": g.ID, "provider": g.Provider, "exam": g.Exam})
	return g, nil
}

// Get returns the goal if it exists and belongs to userID; foreign goals
// behave like nonexistent ones.
func (e *Engine) Get(ctx context.Context, userID, goalID string) (entity.StudyGoal, error) {
	item, err := e.store.Get(ctx, entity.UserPK(userID), entity.GoalSK(goalID))
	if err != nil {
		return entity.StudyGoal{}, err
	}
	g, err := entity.DecodeGoal(item)
	if err != nil {
		e.log.Error("goal.corrupt", logging.Fields{"goalId": goalID})
		return entity.StudyGoal{}, err
	}
	return g, nil
}

// List returns the user's goals ordered by nearest target date first.
func (e *Engine) List(ctx context.Context, userID string, limit int32) ([]entity.StudyGoal, error) {
	if limit <= 0 {
		limit = recentSessionWindow
	}
	items, err := e.store.Query(ctx, store.Query{
		PartitionKey:  entity.UserPK(userID),
		SortKeyPrefix: entity.GoalSKPrefix,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	goals := make([]entity.StudyGoal, 0, len(items))
	for _, it := range items {
		g, err := entity.DecodeGoal(it)
		if err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	sort.SliceStable(goals, func(i, j int) bool {
		return goals[i].TargetDate.Before(goals[j].TargetDate)
	})
	return goals, nil
}

// UpdateInput is the typed partial update for direct goal edits.
type UpdateInput struct {
	Title       *string
	TargetScore *int
	TargetDate  *time.Time
}

// Update applies a direct edit and re-evaluates completion against the
// freshly recomputed score.
func (e *Engine) Update(ctx context.Context, userID, goalID string, in UpdateInput) (entity.StudyGoal, error) {
	g, err := e.Get(ctx, userID, goalID)
	if err != nil {
		return entity.StudyGoal{}, err
	}
	if in.TargetDate != nil && !in.TargetDate.After(e.now()) {
		return entity.StudyGoal{}, ErrTargetDatePast
	}
	score, err := e.RecomputeScore(ctx, userID, g.Provider, g.Exam)
	if err != nil {
		return entity.StudyGoal{}, err
	}
	target := g.TargetScore
	if in.TargetScore != nil {
		target = *in.TargetScore
	}
	upd := store.NewUpdate().
		Set("currentScore", store.NumberAttr(int64(score))).
		Set("isCompleted", store.BoolAttr(score >= target)).
		Set("updatedAt", store.StringAttr(e.now().UTC().Format(time.RFC3339Nano)))
	if in.Title != nil {
		upd.Set("title", store.StringAttr(*in.Title))
	}
	if in.TargetScore != nil {
		upd.Set("targetScore", store.NumberAttr(int64(*in.TargetScore)))
	}
	if in.TargetDate != nil {
		upd.Set("targetDate", store.StringAttr(in.TargetDate.UTC().Format(time.RFC3339Nano))).
			Set(store.AttrGSI1SK, store.StringAttr(entity.ExamGSI1SK(*in.TargetDate)))
	}
	item, err := e.store.Update(ctx, entity.UserPK(userID), entity.GoalSK(goalID), upd)
	if err != nil {
		return entity.StudyGoal{}, err
	}
	return entity.DecodeGoal(item)
}

// Delete removes the goal on explicit user request.
func (e *Engine) Delete(ctx context.Context, userID, goalID string) error {
	return e.store.Delete(ctx, entity.UserPK(userID), entity.GoalSK(goalID))
}

// RecomputeScore aggregates answered/correct counts across the user's recent
// completed sessions for the provider/exam pair and returns the rounded
// percentage, or zero when nothing was answered. Pure aggregation, never
// cached here.
func (e *Engine) RecomputeScore(ctx context.Context, userID, provider, exam string) (int, error) {
	matched, err := e.recentCompleted(ctx, userID, provider, exam)
	if err != nil {
		return 0, err
	}
	stats := make([]*session.Stats, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsConcurrency)
	for i, s := range matched {
		i, s := i, s
		g.Go(func() error {
			st, err := e.sessions.ComputeStats(gctx, s)
			if err != nil {
				return err
			}
			stats[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	totalAnswered, totalCorrect := 0, 0
	for _, st := range stats {
		totalAnswered += st.AnsweredQuestions
		totalCorrect += st.CorrectAnswers
	}
	if totalAnswered == 0 {
		return 0, nil
	}
	return int(math.Round(float64(totalCorrect) / float64(totalAnswered) * 100)), nil
}

// UpdateProgress recomputes the score once and writes it onto every
// non-completed goal the user holds for the provider/exam pair, setting
// isCompleted when the score reaches the target. Callers invoke this after a
// matching session completes; the read-aggregate-write sequence is not
// atomic and a stale cached score heals on the next recompute.
func (e *Engine) UpdateProgress(ctx context.Context, userID, provider, exam string) error {
	goals, err := e.List(ctx, userID, 0)
	if err != nil {
		return err
	}
	score := -1
	for _, g := range goals {
		if g.IsCompleted || g.Provider != provider || g.Exam != exam {
			continue
		}
		if score < 0 {
			if score, err = e.RecomputeScore(ctx, userID, provider, exam); err != nil {
				return err
			}
		}
		upd := store.NewUpdate().
			Set("currentScore", store.NumberAttr(int64(score))).
			Set("isCompleted", store.BoolAttr(score >= g.TargetScore)).
			Set("updatedAt", store.StringAttr(e.now().UTC().Format(time.RFC3339Nano)))
		if _, err := e.store.Update(ctx, entity.UserPK(userID), entity.GoalSK(g.ID), upd); err != nil {
			return err
		}
		e.log.Info("goal.progress", logging.Fields{
			"goalId": g.ID, "score": score, "completed": score >= g.TargetScore,
		})
	}
	return nil
}

// recentCompleted returns the user's completed sessions for the pair within
// the recent-history window.
func (e *Engine) recentCompleted(ctx context.Context, userID, provider, exam string) ([]entity.StudySession, error) {
	recent, err := e.sessions.List(ctx, userID, recentSessionWindow)
	if err != nil {
		return nil, err
	}
	var matched []entity.StudySession
	for _, s := range recent {
		if s.Completed && s.Provider == provider && s.Exam == exam {
			matched = append(matched, s)
		}
	}
	return matched, nil
}
