// Package apperr holds the error kinds shared by the moderation core and the
// mapping of those kinds onto API responses.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation is returned for malformed input: empty term, out of range strength, unknown enum value.
	ErrValidation = errors.New("validation error")
	// ErrInvalidTransition is returned when the moderation state does not allow the requested action.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrEntityNotEligible is returned when an endpoint of an edge is deleted or rejected.
	ErrEntityNotEligible = errors.New("entity not eligible")
	// ErrSelfLoop is returned when a word is linked to itself.
	ErrSelfLoop = errors.New("self loop")
	// ErrDuplicateEdge is returned when a synonym or category edge already exists.
	ErrDuplicateEdge = errors.New("duplicate edge")
	// ErrConcurrentModification is returned when the stored version no longer matches the expected one.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

type kind struct {
	err     error
	code    string
	status  int
	message string
}

var kinds = []kind{
	{ErrValidation, "validation_error", http.StatusBadRequest, "the request is invalid"},
	{ErrInvalidTransition, "invalid_transition", http.StatusConflict, "this action is not allowed in the current state"},
	{ErrEntityNotEligible, "entity_not_eligible", http.StatusUnprocessableEntity, "the word is deleted or rejected and cannot be linked"},
	{ErrSelfLoop, "self_loop", http.StatusUnprocessableEntity, "a word cannot be its own synonym"},
	{ErrDuplicateEdge, "duplicate_edge", http.StatusConflict, "this relation already exists"},
	{ErrConcurrentModification, "concurrent_modification", http.StatusConflict, "someone else changed this, please refresh"},
	{ErrNotFound, "not_found", http.StatusNotFound, "not found"},
}

func lookup(err error) (kind, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}

	return kind{}, false
}

// IsDomain reports whether err is one of the known kinds, i.e. a rejection
// caused by the request rather than a system fault.
func IsDomain(err error) bool {
	_, ok := lookup(err)
	return ok
}

// Status returns the HTTP status code for err.
func Status(err error) int {
	if k, ok := lookup(err); ok {
		return k.status
	}

	return http.StatusInternalServerError
}

// Code returns a stable machine readable code for err.
func Code(err error) string {
	if k, ok := lookup(err); ok {
		return k.code
	}

	return "internal"
}

// Message returns the user facing message for err. Validation errors carry
// their own detail, everything else gets the generic message of its kind.
func Message(err error) string {
	k, ok := lookup(err)
	if !ok {
		return "internal error"
	}
	if k.err == ErrValidation || k.err == ErrNotFound {
		return err.Error()
	}

	return k.message
}
