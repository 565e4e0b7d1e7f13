// Package api is the one typed service surface over the core: request
// shapes, the operations the platform exposes, and the mapping from internal
// error kinds to caller-visible responses. Transport framing (HTTP, Lambda
// events) stays outside; callers hand in a bearer token and a typed request.
package api

import (
	"context"
	"strings"

	"github.com/prepstack/certstudy/internal/auth"
	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/goal"
	"github.com/prepstack/certstudy/internal/session"
	"github.com/prepstack/certstudy/internal/user"
	"github.com/prepstack/certstudy/internal/utils/logging"
)

// ValidationError reports a malformed request; the message is actionable and
// safe to show the caller.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

// Service wires the auth gate, session lifecycle, and goal engine into one
// surface. It is stateless; one instance serves the process.
type Service struct {
	verifier auth.Verifier
	users    *user.Registry
	sessions *session.Manager
	goals    *goal.Engine
	log      logging.Logger
}

// New builds a Service.
func New(verifier auth.Verifier, users *user.Registry, sessions *session.Manager, goals *goal.Engine, log logging.Logger) *Service {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Service{verifier: verifier, users: users, sessions: sessions, goals: goals, log: log}
}

// Authenticate resolves the caller's identity from a bearer token. It runs
// before any entity access on every operation.
func (s *Service) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	return s.verifier.Verify(ctx, strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer")))
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a new user account. Registration is the one operation that
// runs unauthenticated.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (entity.User, error) {
	if !strings.Contains(req.Email, "@") {
		return entity.User{}, &ValidationError{Message: "A valid email address is required"}
	}
	return s.users.Register(ctx, req.Email, req.Name)
}

// Profile returns the caller's own account record.
func (s *Service) Profile(ctx context.Context, id auth.Identity) (entity.User, error) {
	return s.users.Get(ctx, id.UserID)
}

// CreateSessionRequest starts a practice session.
type CreateSessionRequest struct {
	Provider      string `json:"provider"`
	Exam          string `json:"exam"`
	QuestionCount int    `json:"questionCount"`
}

// CreateSession starts a new practice session for the caller.
func (s *Service) CreateSession(ctx context.Context, id auth.Identity, req CreateSessionRequest) (entity.StudySession, error) {
	if req.Provider == "" || req.Exam == "" {
		return entity.StudySession{}, &ValidationError{Message: "Provider and exam are required"}
	}
	if req.QuestionCount <= 0 {
		return entity.StudySession{}, &ValidationError{Message: "Question count must be positive"}
	}
	return s.sessions.Create(ctx, id.UserID, req.Provider, req.Exam, req.QuestionCount)
}

// GetSession returns one of the caller's sessions.
func (s *Service) GetSession(ctx context.Context, id auth.Identity, sessionID string) (entity.StudySession, error) {
	return s.sessions.Get(ctx, id.UserID, sessionID)
}

// ListSessions returns the caller's sessions, most recent first.
func (s *Service) ListSessions(ctx context.Context, id auth.Identity, limit int32) ([]entity.StudySession, error) {
	return s.sessions.List(ctx, id.UserID, limit)
}

// SubmitAnswerRequest records one answer.
type SubmitAnswerRequest struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// AnswerResult reports the running answered count after a submission.
type AnswerResult struct {
	AnsweredQuestions int `json:"answeredQuestions"`
}

// SubmitAnswer records or overwrites an answer in an active session.
func (s *Service) SubmitAnswer(ctx context.Context, id auth.Identity, sessionID string, req SubmitAnswerRequest) (AnswerResult, error) {
	if req.QuestionID == "" {
		return AnswerResult{}, &ValidationError{Message: "Question id is required"}
	}
	n, err := s.sessions.SubmitAnswer(ctx, id.UserID, sessionID, req.QuestionID, req.Answer)
	if err != nil {
		return AnswerResult{}, err
	}
	return AnswerResult{AnsweredQuestions: n}, nil
}

// CompleteSession finalizes a session and refreshes progress on the caller's
// matching goals. Goal refresh failure does not undo the completion; the
// cached score heals on the next recompute, so it is logged and swallowed.
func (s *Service) CompleteSession(ctx context.Context, id auth.Identity, sessionID string) (entity.StudySession, error) {
	completed, err := s.sessions.Complete(ctx, id.UserID, sessionID)
	if err != nil {
		return entity.StudySession{}, err
	}
	if err := s.goals.UpdateProgress(ctx, id.UserID, completed.Provider, completed.Exam); err != nil {
		s.log.Warn("goal.progress.stale", logging.Fields{
			"sessionId": sessionID, "provider": completed.Provider, "exam": completed.Exam,
		})
	}
	return completed, nil
}

// PauseSession suspends an active session.
func (s *Service) PauseSession(ctx context.Context, id auth.Identity, sessionID string) (entity.StudySession, error) {
	return s.sessions.Pause(ctx, id.UserID, sessionID)
}

// ResumeSession reactivates a paused session.
func (s *Service) ResumeSession(ctx context.Context, id auth.Identity, sessionID string) (entity.StudySession, error) {
	return s.sessions.Resume(ctx, id.UserID, sessionID)
}

// SessionStats recomputes statistics for one session.
func (s *Service) SessionStats(ctx context.Context, id auth.Identity, sessionID string) (*session.Stats, error) {
	return s.sessions.Stats(ctx, id.UserID, sessionID)
}

// DeleteSession removes one of the caller's sessions.
func (s *Service) DeleteSession(ctx context.Context, id auth.Identity, sessionID string) error {
	return s.sessions.Delete(ctx, id.UserID, sessionID)
}

// CreateGoalRequest starts a study goal.
type CreateGoalRequest struct {
	Title       string `json:"title"`
	Provider    string `json:"provider"`
	Exam        string `json:"exam"`
	TargetScore int    `json:"targetScore"`
	// TargetDate is RFC 3339.
	TargetDate string `json:"targetDate"`
}

// CreateGoal creates a goal for the caller.
func (s *Service) CreateGoal(ctx context.Context, id auth.Identity, req CreateGoalRequest) (entity.StudyGoal, error) {
	if req.Provider == "" || req.Exam == "" {
		return entity.StudyGoal{}, &ValidationError{Message: "Provider and exam are required"}
	}
	if req.TargetScore <= 0 || req.TargetScore > 100 {
		return entity.StudyGoal{}, &ValidationError{Message: "Target score must be between 1 and 100"}
	}
	targetDate, err := parseTime(req.TargetDate)
	if err != nil {
		return entity.StudyGoal{}, &ValidationError{Message: "Target date must be a valid RFC 3339 timestamp"}
	}
	return s.goals.Create(ctx, id.UserID, goal.CreateInput{
		Title:       req.Title,
		Provider:    req.Provider,
		Exam:        req.Exam,
		TargetScore: req.TargetScore,
		TargetDate:  targetDate,
	})
}

// GetGoal returns one of the caller's goals.
func (s *Service) GetGoal(ctx context.Context, id auth.Identity, goalID string) (entity.StudyGoal, error) {
	return s.goals.Get(ctx, id.UserID, goalID)
}

// ListGoals returns the caller's goals, nearest deadline first.
func (s *Service) ListGoals(ctx context.Context, id auth.Identity, limit int32) ([]entity.StudyGoal, error) {
	return s.goals.List(ctx, id.UserID, limit)
}

// UpdateGoalRequest edits a goal; absent fields are left unchanged.
type UpdateGoalRequest struct {
	Title       *string `json:"title,omitempty"`
	TargetScore *int    `json:"targetScore,omitempty"`
	TargetDate  *string `json:"targetDate,omitempty"`
}

// UpdateGoal applies a goal edit and re-evaluates completion.
func (s *Service) UpdateGoal(ctx context.Context, id auth.Identity, goalID string, req UpdateGoalRequest) (entity.StudyGoal, error) {
	in := goal.UpdateInput{Title: req.Title, TargetScore: req.TargetScore}
	if req.TargetDate != nil {
		t, err := parseTime(*req.TargetDate)
		if err != nil {
			return entity.StudyGoal{}, &ValidationError{Message: "Target date must be a valid RFC 3339 timestamp"}
		}
		in.TargetDate = &t
	}
	return s.goals.Update(ctx, id.UserID, goalID, in)
}

// DeleteGoal removes one of the caller's goals.
func (s *Service) DeleteGoal(ctx context.Context, id auth.Identity, goalID string) error {
	return s.goals.Delete(ctx, id.UserID, goalID)
}

// GoalProgress derives the progress view for one goal.
func (s *Service) GoalProgress(ctx context.Context, id auth.Identity, goalID string) (*goal.Progress, error) {
	return s.goals.Progress(ctx, id.UserID, goalID)
}
