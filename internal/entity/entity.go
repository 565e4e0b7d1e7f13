// Package entity defines the domain entities of the study platform and the
// codec that maps them to and from single-table key-value records. All
// entities share one keyspace, disambiguated by composite partition and sort
// keys, with GSI1 carrying the alternate lookup paths.
package entity

import "time"

// User is one registered account. Email maps to exactly one user id via the
// GSI1 email guard populated at create time.
type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	LastLoginAt time.Time `json:"lastLoginAt,omitempty"`
}

// StudySession is one timed or untimed practice run against a provider/exam
// question pool. Answers is a partial map from question id to the submitted
// answer value; resubmission overwrites. Completed is monotonic.
type StudySession struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	Provider      string            `json:"provider"`
	Exam          string            `json:"exam"`
	QuestionCount int               `json:"questionCount"`
	Answers       map[string]string `json:"answers"`
	Completed     bool              `json:"completed"`
	Paused        bool              `json:"paused"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
}

// StudyGoal is a target score by a deadline for one provider/exam pair.
// CurrentScore is a cached aggregate recomputed from completed sessions; the
// session history stays the source of truth.
type StudyGoal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Title        string    `json:"title"`
	Provider     string    `json:"provider"`
	Exam         string    `json:"exam"`
	TargetScore  int       `json:"targetScore"`
	CurrentScore int       `json:"currentScore"`
	TargetDate   time.Time `json:"targetDate"`
	IsCompleted  bool      `json:"isCompleted"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
