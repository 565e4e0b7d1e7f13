package entity

import (
	"fmt"
	"strings"
	"time"
)

// Sort-key prefixes for entity kinds under a user partition.
const (
	SessionSKPrefix = "SESSION#"
	GoalSKPrefix    = "GOAL#"
)

// UserSK is the fixed sort key for a user profile record.
const UserSK = "PROFILE"

// EmailGuardSK is the fixed sort key for an email uniqueness guard row.
const EmailGuardSK = "GUARD"

// EmailGuardPK returns the partition key for the email uniqueness guard row
// written transactionally beside a new user profile.
func EmailGuardPK(email string) string {
	return fmt.Sprintf("EMAIL#%s", strings.ToLower(email))
}

// UserPK returns the partition key for any record owned by a user.
func UserPK(userID string) string { return fmt.Sprintf("USER#%s", userID) }

// EmailGSI1PK returns the GSI1 partition key for the email -> user lookup.
// Emails are lowercased so the uniqueness guard is case-insensitive.
func EmailGSI1PK(email string) string {
	return fmt.Sprintf("EMAIL#%s", strings.ToLower(email))
}

// SessionSK returns the sort key for a study session record.
func SessionSK(sessionID string) string { return SessionSKPrefix + sessionID }

// GoalSK returns the sort key for a study goal record.
func GoalSK(goalID string) string { return GoalSKPrefix + goalID }

// ExamGSI1PK returns the GSI1 partition key grouping sessions and goals by
// certification provider and exam.
func ExamGSI1PK(provider, exam string) string { return fmt.Sprintf("%s#%s", provider, exam) }

// ExamGSI1SK formats a timestamp as the GSI1 sort key for provider/exam
// listings. Second precision keeps the rendered keys fixed-width so
// lexicographic index order matches time order.
func ExamGSI1SK(t time.Time) string { return t.UTC().Format(time.RFC3339) }
