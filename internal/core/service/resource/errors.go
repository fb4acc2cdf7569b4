package resource

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// record errors
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidRecord  = errors.New("record is invalid")
	ErrNoDataProvided = errors.New("no data provided")
	ErrEmptyRecordID  = errors.New("record ID cannot be empty")

	// transport errors
	ErrUnauthorized = errors.New("session is no longer valid")
	ErrUnavailable  = errors.New("backend is unavailable")

	// ErrNotModified signals a 304 response: the gateway resolved with its
	// previously cached payload and the caller should keep what it has.
	ErrNotModified = errors.New("resource not modified")
)

// StatusError is a normalized non-2xx HTTP failure. The optional Message is
// whatever the backend put in its error body.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d %s", e.Status, http.StatusText(e.Status))
}

// Is maps common statuses onto the package sentinels so callers can use
// errors.Is without caring whether the failure came from HTTP or local code.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrRecordNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotModified:
		return e.Status == http.StatusNotModified
	}
	return false
}
