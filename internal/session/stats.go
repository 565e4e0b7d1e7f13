package session

import (
	"context"
	"errors"
	"math"

	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/questions"
)

// Stats is a point-in-time view over one session; nothing here is cached on
// the record.
type Stats struct {
	TotalQuestions    int   `json:"totalQuestions"`
	AnsweredQuestions int   `json:"answeredQuestions"`
	CorrectAnswers    int   `json:"correctAnswers"`
	Accuracy          int   `json:"accuracy"`
	TimeSpentSeconds  int64 `json:"timeSpent"`
}

// Stats recomputes session statistics on demand, cross-checking submitted
// answers against the question pool's answer key.
func (m *Manager) Stats(ctx context.Context, userID, sessionID string) (*Stats, error) {
	s, err := m.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	return m.ComputeStats(ctx, s)
}

// ComputeStats derives statistics for an already-loaded session. Questions
// the pool does not know score as incorrect.
func (m *Manager) ComputeStats(ctx context.Context, s entity.StudySession) (*Stats, error) {
	correct := 0
	for questionID, answer := range s.Answers {
		want, err := m.pool.CorrectAnswer(ctx, s.Provider, s.Exam, questionID)
		if err != nil {
			if errors.Is(err, questions.ErrQuestionUnknown) {
				continue
			}
			return nil, err
		}
		if answer == want {
			correct++
		}
	}
	answered := len(s.Answers)
	accuracy := 0
	if answered > 0 {
		accuracy = int(math.Round(float64(correct) / float64(answered) * 100))
	}
	return &Stats{
		TotalQuestions:    s.QuestionCount,
		AnsweredQuestions: answered,
		CorrectAnswers:    correct,
		Accuracy:          accuracy,
		TimeSpentSeconds:  int64(s.UpdatedAt.Sub(s.CreatedAt).Seconds()),
	}, nil
}
