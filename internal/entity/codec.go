package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"

	"github.com/prepstack/certstudy/internal/store"
)

// Entity type discriminator values stored on every record.
const (
	typeUser    = "USER"
	typeSession = "SESSION"
	typeGoal    = "GOAL"
)

// timeLayout is the stored timestamp format. Timestamps are normalized to
// UTC on encode so the codec round-trips exactly.
const timeLayout = time.RFC3339Nano

// CorruptRecordError indicates a stored record that cannot be decoded into a
// domain entity. It signals a data-integrity bug, never a transient
// condition; callers log it and do not retry.
type CorruptRecordError struct {
	Reason string
	Cause  error
}

func (e *CorruptRecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("entity: corrupt record: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("entity: corrupt record: %s", e.Reason)
}

func (e *CorruptRecordError) Unwrap() error { return e.Cause }

// IsCorruptRecord reports whether err is a CorruptRecordError.
func IsCorruptRecord(err error) bool {
	var c *CorruptRecordError
	return errors.As(err, &c)
}

// userRecord is the raw single-table shape of a User.
type userRecord struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	EntityType  string `dynamodbav:"entityType"`
	ID          string `dynamodbav:"id"`
	Email       string `dynamodbav:"email"`
	Name        string `dynamodbav:"name"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
	LastLoginAt string `dynamodbav:"lastLoginAt,omitempty"`
}

// sessionRecord is the raw single-table shape of a StudySession.
type sessionRecord struct {
	PK            string            `dynamodbav:"PK"`
	SK            string            `dynamodbav:"SK"`
	GSI1PK        string            `dynamodbav:"GSI1PK"`
	GSI1SK        string            `dynamodbav:"GSI1SK"`
	EntityType    string            `dynamodbav:"entityType"`
	ID            string            `dynamodbav:"id"`
	UserID        string            `dynamodbav:"userId"`
	Provider      string            `dynamodbav:"provider"`
	Exam          string            `dynamodbav:"exam"`
	QuestionCount int               `dynamodbav:"questionCount"`
	Answers       map[string]string `dynamodbav:"answers"`
	Completed     bool              `dynamodbav:"completed"`
	Paused        bool              `dynamodbav:"paused"`
	CreatedAt     string            `dynamodbav:"createdAt"`
	UpdatedAt     string            `dynamodbav:"updatedAt"`
	CompletedAt   string            `dynamodbav:"completedAt,omitempty"`
}

// goalRecord is the raw single-table shape of a StudyGoal.
type goalRecord struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	GSI1PK       string `dynamodbav:"GSI1PK"`
	GSI1SK       string `dynamodbav:"GSI1SK"`
	EntityType   string `dynamodbav:"entityType"`
	ID           string `dynamodbav:"id"`
	UserID       string `dynamodbav:"userId"`
	Title        string `dynamodbav:"title"`
	Provider     string `dynamodbav:"provider"`
	Exam         string `dynamodbav:"exam"`
	TargetScore  int    `dynamodbav:"targetScore"`
	CurrentScore int    `dynamodbav:"currentScore"`
	TargetDate   string `dynamodbav:"targetDate"`
	IsCompleted  bool   `dynamodbav:"isCompleted"`
	CreatedAt    string `dynamodbav:"createdAt"`
	UpdatedAt    string `dynamodbav:"updatedAt"`
}

// EncodeUser renders a User as a raw record with its primary key and the
// email-lookup GSI1 keys attached.
func EncodeUser(u User) (store.Item, error) {
	rec := userRecord{
		PK:         UserPK(u.ID),
		SK:         UserSK,
		GSI1PK:     EmailGSI1PK(u.Email),
		GSI1SK:     UserPK(u.ID),
		EntityType: typeUser,
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		CreatedAt:  encodeTime(u.CreatedAt),
		UpdatedAt:  encodeTime(u.UpdatedAt),
	}
	if !u.LastLoginAt.IsZero() {
		rec.LastLoginAt = encodeTime(u.LastLoginAt)
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeUser is the inverse of EncodeUser; key and index attributes are
// dropped and only domain fields survive.
func DecodeUser(item store.Item) (User, error) {
	var rec userRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return User{}, &CorruptRecordError{Reason: "user unmarshal", Cause: err}
	}
	if rec.EntityType != typeUser {
		return User{}, &CorruptRecordError{Reason: "record is not a user: " + rec.EntityType}
	}
	if rec.ID == "" || rec.Email == "" {
		return User{}, &CorruptRecordError{Reason: "user record missing id or email"}
	}
	u := User{ID: rec.ID, Email: rec.Email, Name: rec.Name}
	var err error
	if u.CreatedAt, err = decodeTime(rec.CreatedAt, "createdAt"); err != nil {
		return User{}, err
	}
	if u.UpdatedAt, err = decodeTime(rec.UpdatedAt, "updatedAt"); err != nil {
		return User{}, err
	}
	if rec.LastLoginAt != "" {
		if u.LastLoginAt, err = decodeTime(rec.LastLoginAt, "lastLoginAt"); err != nil {
			return User{}, err
		}
	}
	return u, nil
}

// emailGuardRecord reserves an email for one user id. It carries no GSI keys;
// its only job is the key-level uniqueness condition at user creation.
type emailGuardRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"entityType"`
	UserID     string `dynamodbav:"userId"`
}

const typeEmailGuard = "EMAIL_GUARD"

// EncodeEmailGuard renders the uniqueness guard row for an email.
func EncodeEmailGuard(email, userID string) (store.Item, error) {
	return attributevalue.MarshalMap(emailGuardRecord{
		PK:         EmailGuardPK(email),
		SK:         EmailGuardSK,
		EntityType: typeEmailGuard,
		UserID:     userID,
	})
}

// EncodeSession renders a StudySession as a raw record. GSI1 groups the
// session under its provider/exam pair, sorted by creation time.
func EncodeSession(s StudySession) (store.Item, error) {
	rec := sessionRecord{
		PK:            UserPK(s.UserID),
		SK:            SessionSK(s.ID),
		GSI1PK:        ExamGSI1PK(s.Provider, s.Exam),
		GSI1SK:        ExamGSI1SK(s.CreatedAt),
		EntityType:    typeSession,
		ID:            s.ID,
		UserID:        s.UserID,
		Provider:      s.Provider,
		Exam:          s.Exam,
		QuestionCount: s.QuestionCount,
		Answers:       s.Answers,
		Completed:     s.Completed,
		Paused:        s.Paused,
		CreatedAt:     encodeTime(s.CreatedAt),
		UpdatedAt:     encodeTime(s.UpdatedAt),
	}
	if rec.Answers == nil {
		rec.Answers = map[string]string{}
	}
	if s.CompletedAt != nil {
		rec.CompletedAt = encodeTime(*s.CompletedAt)
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeSession is the inverse of EncodeSession. A missing answers attribute
// decodes as an empty map so callers never see nil.
func DecodeSession(item store.Item) (StudySession, error) {
	var rec sessionRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return StudySession{}, &CorruptRecordError{Reason: "session unmarshal", Cause: err}
	}
	if rec.EntityType != typeSession {
		return StudySession{}, &CorruptRecordError{Reason: "record is not a session: " + rec.EntityType}
	}
	if rec.ID == "" || rec.UserID == "" {
		return StudySession{}, &CorruptRecordError{Reason: "session record missing id or userId"}
	}
	s := StudySession{
		ID:            rec.ID,
		UserID:        rec.UserID,
		Provider:      rec.Provider,
		Exam:          rec.Exam,
		QuestionCount: rec.QuestionCount,
		Answers:       rec.Answers,
		Completed:     rec.Completed,
		Paused:        rec.Paused,
	}
	if s.Answers == nil {
		s.Answers = map[string]string{}
	}
	var err error
	if s.CreatedAt, err = decodeTime(rec.CreatedAt, "createdAt"); err != nil {
		return StudySession{}, err
	}
	if s.UpdatedAt, err = decodeTime(rec.UpdatedAt, "updatedAt"); err != nil {
		return StudySession{}, err
	}
	if rec.CompletedAt != "" {
		t, err := decodeTime(rec.CompletedAt, "completedAt")
		if err != nil {
			return StudySession{}, err
		}
		s.CompletedAt = &t
	}
	return s, nil
}

// EncodeGoal renders a StudyGoal as a raw record. GSI1 groups the goal under
// its provider/exam pair, sorted by target date.
func EncodeGoal(g StudyGoal) (store.Item, error) {
	rec := goalRecord{
		PK:           UserPK(g.UserID),
		SK:           GoalSK(g.ID),
		GSI1PK:       ExamGSI1PK(g.Provider, g.Exam),
		GSI1SK:       ExamGSI1SK(g.TargetDate),
		EntityType:   typeGoal,
		ID:           g.ID,
		UserID:       g.UserID,
		Title:        g.Title,
		Provider:     g.Provider,
		Exam:         g.Exam,
		TargetScore:  g.TargetScore,
		CurrentScore: g.CurrentScore,
		TargetDate:   encodeTime(g.TargetDate),
		IsCompleted:  g.IsCompleted,
		CreatedAt:    encodeTime(g.CreatedAt),
		UpdatedAt:    encodeTime(g.UpdatedAt),
	}
	return attributevalue.MarshalMap(rec)
}

// DecodeGoal is the inverse of EncodeGoal.
func DecodeGoal(item store.Item) (StudyGoal, error) {
	var rec goalRecord
	if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
		return StudyGoal{}, &CorruptRecordError{Reason: "goal unmarshal", Cause: err}
	}
	if rec.EntityType != typeGoal {
		return StudyGoal{}, &CorruptRecordError{Reason: "record is not a goal: " + rec.EntityType}
	}
	if rec.ID == "" || rec.UserID == "" {
		return StudyGoal{}, &CorruptRecordError{Reason: "goal record missing id or userId"}
	}
	g := StudyGoal{
		ID:           rec.ID,
		UserID:       rec.UserID,
		Title:        rec.Title,
		Provider:     rec.Provider,
		Exam:         rec.Exam,
		TargetScore:  rec.TargetScore,
		CurrentScore: rec.CurrentScore,
		IsCompleted:  rec.IsCompleted,
	}
	var err error
	if g.TargetDate, err = decodeTime(rec.TargetDate, "targetDate"); err != nil {
		return StudyGoal{}, err
	}
	if g.CreatedAt, err = decodeTime(rec.CreatedAt, "createdAt"); err != nil {
		return StudyGoal{}, err
	}
	if g.UpdatedAt, err = decodeTime(rec.UpdatedAt, "updatedAt"); err != nil {
		return StudyGoal{}, err
	}
	return g, nil
}

func encodeTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func decodeTime(s, field string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, &CorruptRecordError{Reason: "bad " + field + " timestamp", Cause: err}
	}
	return t, nil
}
