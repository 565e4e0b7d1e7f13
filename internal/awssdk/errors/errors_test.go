package errors

import (
	sterrors "errors"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

// smithy APIError minimal fake that satisfies smithy.APIError
type apiErr struct{ code string }

func (e apiErr) Error() string                 { return e.code }
func (e apiErr) ErrorCode() string             { return e.code }
func (e apiErr) ErrorMessage() string          { return e.code }
func (e apiErr) ErrorFault() smithy.ErrorFault { return smithy.FaultClient }

// Ensure apiErr satisfies smithy.APIError at compile time.
var _ smithy.APIError = (*apiErr)(nil)

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		in   error
		want string
	}{
		{apiErr{"ConditionalCheckFailedException"}, "conflict"},
		{apiErr{"TransactionCanceledException"}, "conflict"},
		{apiErr{"ProvisionedThroughputExceededException"}, "retryable"},
		{apiErr{"ThrottlingException"}, "retryable"},
		{apiErr{"RequestLimitExceeded"}, "retryable"},
		{apiErr{"InternalServerError"}, "retryable"},
		{sterrors.New("boom"), "op error"},
	}
	for _, tt := range tests {
		got := Classify(tt.in)
		if got == nil {
			t.Fatalf("classify(%v) => nil", tt.in)
		}
		if !strings.Contains(got.Error(), tt.want) {
			t.Fatalf("classify(%v) => %v; want contains %q", tt.in, got, tt.want)
		}
	}
}

func TestClassifyNil(t *testing.T) {
	if Classify(nil) != nil {
		t.Fatalf("classify(nil) should be nil")
	}
}

func TestPredicates(t *testing.T) {
	if !IsConflict(Classify(apiErr{"ConditionalCheckFailedException"})) {
		t.Fatalf("IsConflict")
	}
	if !IsRetryable(Classify(apiErr{"ThrottlingException"})) {
		t.Fatalf("IsRetryable")
	}
	if IsRetryable(Classify(sterrors.New("boom"))) {
		t.Fatalf("op error must not be retryable")
	}
}
