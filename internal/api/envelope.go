package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/prepstack/certstudy/internal/auth"
	"github.com/prepstack/certstudy/internal/entity"
	"github.com/prepstack/certstudy/internal/goal"
	"github.com/prepstack/certstudy/internal/session"
	"github.com/prepstack/certstudy/internal/store"
)

// ErrorBody is the caller-visible error payload.
type ErrorBody struct {
	Message string `json:"message"`
}

// Caller-visible messages for error kinds that must not leak detail.
const (
	msgNotFound     = "Not found"
	msgUnauthorized = "Unauthorized"
	msgInternal     = "Internal server error"
)

// MapError translates an internal error into a status code and payload.
// Validation-class failures (conflicts, invalid state, bad input) keep their
// actionable message; everything else collapses to a generic one so entity
// existence and internal detail never leak.
func MapError(err error) (int, ErrorBody) {
	var (
		validation *ValidationError
		state      *session.InvalidStateError
		unauth     *auth.UnauthorizedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, ErrorBody{Message: validation.Message}
	case errors.Is(err, goal.ErrTargetDatePast):
		return http.StatusBadRequest, ErrorBody{Message: "Target date must be in the future"}
	case errors.As(err, &state):
		return http.StatusConflict, ErrorBody{Message: state.Reason}
	case store.IsConflict(err):
		return http.StatusConflict, ErrorBody{Message: "A record with these details already exists"}
	case errors.As(err, &unauth):
		return http.StatusUnauthorized, ErrorBody{Message: msgUnauthorized}
	case store.IsNotFound(err):
		return http.StatusNotFound, ErrorBody{Message: msgNotFound}
	case entity.IsCorruptRecord(err), store.IsUnavailable(err):
		return http.StatusInternalServerError, ErrorBody{Message: msgInternal}
	default:
		return http.StatusInternalServerError, ErrorBody{Message: msgInternal}
	}
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
