package entity

import (
	"testing"
	"time"
)

func TestKeyBuilders(t *testing.T) {
	if got := UserPK("u1"); got != "USER#u1" {
		t.Fatalf("UserPK: %q", got)
	}
	if got := SessionSK("s1"); got != "SESSION#s1" {
		t.Fatalf("SessionSK: %q", got)
	}
	if got := GoalSK("g1"); got != "GOAL#g1" {
		t.Fatalf("GoalSK: %q", got)
	}
	if got := ExamGSI1PK("aws", "saa-c03"); got != "aws#saa-c03" {
		t.Fatalf("ExamGSI1PK: %q", got)
	}
}

func TestEmailKeysAreCaseInsensitive(t *testing.T) {
	if EmailGuardPK("Alice@Example.COM") != EmailGuardPK("alice@example.com") {
		t.Fatal("guard keys must not vary with email case")
	}
	if got := EmailGSI1PK("Alice@Example.COM"); got != "EMAIL#alice@example.com" {
		t.Fatalf("EmailGSI1PK: %q", got)
	}
}

func TestExamGSI1SKOrdersLexically(t *testing.T) {
	earlier := time.Date(2026, 3, 9, 23, 59, 59, 0, time.UTC)
	later := time.Date(2026, 3, 10, 0, 0, 0, 0, time.FixedZone("JST", 9*3600))
	a, b := ExamGSI1SK(earlier), ExamGSI1SK(later)
	// later is 2026-03-09T15:00:00Z once normalized, so it sorts first
	if !(b < a) {
		t.Fatalf("expected %q < %q after UTC normalization", b, a)
	}
	if len(a) != len(b) {
		t.Fatalf("sort keys must be fixed width: %q vs %q", a, b)
	}
}
