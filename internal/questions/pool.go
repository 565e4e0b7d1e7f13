// Package questions defines the boundary to the question bank. The core only
// needs the correct-answer key for scoring; bank content and its object
// storage retrieval live outside this repository.
package questions

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrQuestionUnknown is returned when the pool has no entry for a question id.
var ErrQuestionUnknown = errors.New("questions: unknown question")

// Pool supplies the correct answer value for a question in a provider/exam
// pool.
type Pool interface {
	CorrectAnswer(ctx context.Context, provider, exam, questionID string) (string, error)
}

// StaticPool is a map-backed Pool for tests and local runs.
type StaticPool struct {
	mu      sync.RWMutex
	answers map[string]string
}

// NewStaticPool returns an empty StaticPool.
func NewStaticPool() *StaticPool {
	return &StaticPool{answers: map[string]string{}}
}

// Add registers the correct answer for one question.
func (p *StaticPool) Add(provider, exam, questionID, answer string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.answers[poolKey(provider, exam, questionID)] = answer
}

// CorrectAnswer returns the registered answer or ErrQuestionUnknown.
func (p *StaticPool) CorrectAnswer(_ context.Context, provider, exam, questionID string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.answers[poolKey(provider, exam, questionID)]
	if !ok {
		return "", ErrQuestionUnknown
	}
	return a, nil
}

func poolKey(provider, exam, questionID string) string {
	return fmt.Sprintf("%s#%s#%s", provider, exam, questionID)
}

var _ Pool = (*StaticPool)(nil)
