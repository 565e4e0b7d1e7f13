// Package session owns the study-session lifecycle: creation, answer
// submission, pause/resume, completion, and on-demand statistics. Every read
// and write is qualified by the owning user's partition key, so a session is
// never visible to any other user.
package session

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/questions"
	"github.com/prepstack/certstudy/internal/store"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

// InvalidStateError reports an operation disallowed in the session's current
// state. The reason is human-readable and safe to surface to the caller.
type InvalidStateError struct{ Reason string }

func (e *InvalidStateError) Error() string { return e.Reason }

const alreadyCompletedReason = "Session is already completed"

// defaultListLimit bounds session listings and the recompute window.
const defaultListLimit = 50

// Manager coordinates session state against the store. It holds no per-request
// state; a single Manager serves all requests for the process lifetime.
type Manager struct {
	store store.Store
	pool  questions.Pool
	log   logging.Logger
	now   func() time.Time
	newID func() string
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option { return func(m *Manager) { m.log = l } }

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// WithIDGenerator overrides session id generation (tests).
func WithIDGenerator(gen func() string) Option { return func(m *Manager) { m.newID = gen } }

// NewManager builds a Manager over the given store and question pool.
func NewManager(st store.Store, pool questions.Pool, opts ...Option) *Manager {
	m := &Manager{
		store: st,
		pool:  pool,
		log:   logging.NopLogger{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session with empty answers. The question count is taken
// as given; matching it against a real question pool is the caller's concern.
func (m *Manager) Create(ctx context.Context, userID, provider, exam string, questionCount int) (entity.StudySession, error) {
	now := m.now().UTC()
	s := entity.StudySession{
		ID:            m.newID(),
		UserID:        userID,
		Provider:      provider,
		Exam:          exam,
		QuestionCount: questionCount,
		Answers:       map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	item, err := entity.EncodeSession(s)
	if err != nil {
		return entity.StudySession{}, err
	}
	if err := m.store.Put(ctx, item, true); err != nil {
		return entity.StudySession{}, err
	}
	m.log.Info("session.created", logging.Fields{"sessionId": s.ID, "provider": provider, "exam": exam})
	return s, nil
}

// Get returns the session if it exists and belongs to userID. A foreign
// session behaves exactly like a nonexistent one.
func (m *Manager) Get(ctx context.Context, userID, sessionID string) (entity.StudySession, error) {
	item, err := m.store.Get(ctx, entity.UserPK(userID), entity.SessionSK(sessionID))
	if err != nil {
		return entity.StudySession{}, err
	}
	s, err := entity.DecodeSession(item)
	if err != nil {
		m.log.Error("session.corrupt", logging.Fields{"sessionId": sessionID})
		return entity.StudySession{}, err
	}
	return s, nil
}

// List returns up to limit of the user's sessions, most recent first. Sort
// keys are opaque session ids, so ordering is applied on the decoded creation
// timestamps rather than on the key itself.
func (m *Manager) List(ctx context.Context, userID string, limit int32) ([]entity.StudySession, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := m.store.Query(ctx, store.Query{
		PartitionKey:  entity.UserPK(userID),
		SortKeyPrefix: entity.SessionSKPrefix,
		Limit:         limit,
	})
	if err != nil {
		return nil, err
	}
	sessions := make([]entity.StudySession, 0, len(items))
	for _, it := range items {
		s, err := entity.DecodeSession(it)
		if err != nil {
			m.log.Error("session.corrupt", logging.Fields{"userId": userID})
			return nil, err
		}
		sessions = append(sessions, s)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// ListByExam returns sessions across all users for one provider/exam pair,
// most recent first, via GSI1.
func (m *Manager) ListByExam(ctx context.Context, provider, exam string, limit int32) ([]entity.StudySession, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := m.store.Query(ctx, store.Query{
		PartitionKey: entity.ExamGSI1PK(provider, exam),
		IndexName:    store.IndexGSI1,
		Limit:        limit,
	})
	if err != nil {
		return nil, err
	}
	sessions := make([]entity.StudySession, 0, len(items))
	for _, it := range items {
		// goals share the provider#exam index partition; skip them
		s, err := entity.DecodeSession(it)
		if err != nil {
			if entity.IsCorruptRecord(err) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// SubmitAnswer records or overwrites the answer for one question and returns
// the new answered count. Completed sessions reject submissions. The write
// sets only the single answers entry, so concurrent submissions for different
// questions merge at the store.
func (m *Manager) SubmitAnswer(ctx context.Context, userID, sessionID, questionID, answer string) (int, error) {
	s, err := m.Get(ctx, userID, sessionID)
	if err != nil {
		return 0, err
	}
	if s.Completed {
		return 0, &InvalidStateError{Reason: alreadyCompletedReason}
	}
	upd := store.NewUpdate().
		SetMapEntry("answers", questionID, store.StringAttr(answer)).
		Set("updatedAt", store.StringAttr(m.now().UTC().Format(time.RFC3339Nano)))
	item, err := m.store.Update(ctx, entity.UserPK(userID), entity.SessionSK(sessionID), upd)
	if err != nil {
		return 0, err
	}
	updated, err := entity.DecodeSession(item)
	if err != nil {
		return 0, err
	}
	m.log.Debug("session.answer", logging.Fields{"sessionId": sessionID, "answered": len(updated.Answers)})
	return len(updated.Answers), nil
}

// Complete marks the session finished and stamps the completion time. Calling
// it again on a completed session is a no-op success returning the terminal
// state.
func (m *Manager) Complete(ctx context.Context, userID, sessionID string) (entity.StudySession, error) {
	s, err := m.Get(ctx, userID, sessionID)
	if err != nil {
		return entity.StudySession{}, err
	}
	if s.Completed {
		return s, nil
	}
	now := m.now().UTC()
	ts := now.Format(time.RFC3339Nano)
	upd := store.NewUpdate().
		Set("completed", store.BoolAttr(true)).
		Set("paused", store.BoolAttr(false)).
		Set("completedAt", store.StringAttr(ts)).
		Set("updatedAt", store.StringAttr(ts))
	item, err := m.store.Update(ctx, entity.UserPK(userID), entity.SessionSK(sessionID), upd)
	if err != nil {
		return entity.StudySession{}, err
	}
	updated, err := entity.DecodeSession(item)
	if err != nil {
		return entity.StudySession{}, err
	}
	m.log.Info("session.completed", logging.Fields{"sessionId": sessionID, "answered": len(updated.Answers)})
	return updated, nil
}

// Pause suspends an active session. Completed sessions cannot be paused;
// pausing a paused session is a no-op.
func (m *Manager) Pause(ctx context.Context, userID, sessionID string) (entity.StudySession, error) {
	return m.setPaused(ctx, userID, sessionID, true)
}

// Resume returns a paused session to the active state.
func (m *Manager) Resume(ctx context.Context, userID, sessionID string) (entity.StudySession, error) {
	return m.setPaused(ctx, userID, sessionID, false)
}

func (m *Manager) setPaused(ctx context.Context, userID, sessionID string, paused bool) (entity.StudySession, error) {
	s, err := m.Get(ctx, userID, sessionID)
	if err != nil {
		return entity.StudySession{}, err
	}
	if s.Completed {
		return entity.StudySession{}, &InvalidStateError{Reason: alreadyCompletedReason}
	}
	if s.Paused == paused {
		return s, nil
	}
	upd := store.NewUpdate().
		Set("paused", store.BoolAttr(paused)).
		Set("updatedAt", store.StringAttr(m.now().UTC().Format(time.RFC3339Nano)))
	item, err := m.store.Update(ctx, entity.UserPK(userID), entity.SessionSK(sessionID), upd)
	if err != nil {
		return entity.StudySession{}, err
	}
	return entity.DecodeSession(item)
}

// SessionUpdate is the typed partial update for corrective session edits.
type SessionUpdate struct {
	QuestionCount *int
}

// Update applies a corrective edit under the usual ownership rule.
func (m *Manager) Update(ctx context.Context, userID, sessionID string, su SessionUpdate) (entity.StudySession, error) {
	if _, err := m.Get(ctx, userID, sessionID); err != nil {
		return entity.StudySession{}, err
	}
	upd := store.NewUpdate().
		Set("updatedAt", store.StringAttr(m.now().UTC().Format(time.RFC3339Nano)))
	if su.QuestionCount != nil {
		upd.Set("questionCount", store.NumberAttr(int64(*su.QuestionCount)))
	}
	item, err := m.store.Update(ctx, entity.UserPK(userID), entity.SessionSK(sessionID), upd)
	if err != nil {
		return entity.StudySession{}, err
	}
	return entity.DecodeSession(item)
}

// Delete removes the session under the usual ownership rule.
func (m *Manager) Delete(ctx context.Context, userID, sessionID string) error {
	return m.store.Delete(ctx, entity.UserPK(userID), entity.SessionSK(sessionID))
}
