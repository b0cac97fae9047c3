package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors forming the failure taxonomy every adapter maps into.
// The aggregator and callers branch on these with errors.Is; concrete types
// below carry the per-failure details.
var (
	// ErrNotFound indicates an identifier lookup found nothing. This is a
	// normal outcome, not a failure recorded in SearchResult.Errors.
	ErrNotFound = errors.New("not found")

	// ErrRateLimited indicates the upstream source rejected the request as
	// over quota, despite local pacing.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates a missing or invalid credential for a
	// source that requires one.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates a network-level failure: connection refused,
	// DNS failure, or timeout.
	ErrTransport = errors.New("transport failure")

	// ErrMalformedResponse indicates the source returned data the adapter
	// could not parse into papers.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrPaginationWindow indicates a request beyond the source's offset
	// ceiling. Offset-paginated sources reject such requests rather than
	// silently wrapping.
	ErrPaginationWindow = errors.New("pagination window exhausted")

	// ErrCursorExpired indicates a pagination cursor was used after its
	// validity window lapsed. Distinct from end-of-results.
	ErrCursorExpired = errors.New("cursor expired")

	// ErrInvalidInput indicates the caller supplied invalid input. This is
	// the only kind that escapes an aggregator search as a hard failure.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError provides details about a missing paper.
type NotFoundError struct {
	Source string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: paper not found: %s", e.Source, e.ID)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// RateLimitError provides details about an upstream quota rejection.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
	}
	return fmt.Sprintf("rate limited by %s", e.Source)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExternalAPIError wraps an HTTP-level failure from a source API and maps
// the status code onto the taxonomy sentinels.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap maps the status code to the matching sentinel so that callers can
// use errors.Is against the taxonomy without inspecting status codes.
func (e *ExternalAPIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	switch e.StatusCode {
	case 401, 403:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	case 429:
		return ErrRateLimited
	}
	return ErrTransport
}

// PaginationWindowError reports a request beyond an offset-kind source's
// reachable window.
type PaginationWindowError struct {
	Source    string
	Offset    int
	MaxOffset int
}

func (e *PaginationWindowError) Error() string {
	return fmt.Sprintf("%s: offset %d beyond pagination window (max %d)", e.Source, e.Offset, e.MaxOffset)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *PaginationWindowError) Unwrap() error {
	return ErrPaginationWindow
}

// CursorExpiredError reports a stale pagination cursor.
type CursorExpiredError struct {
	Source string
	Cursor string
}

func (e *CursorExpiredError) Error() string {
	return fmt.Sprintf("%s: pagination cursor expired", e.Source)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *CursorExpiredError) Unwrap() error {
	return ErrCursorExpired
}

// TransportError reports a network-level failure talking to a source.
type TransportError struct {
	Source string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport failure: %v", e.Source, e.Cause)
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause, so
// errors.Is works against either.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Cause}
}

// MalformedResponseError reports an unparseable source payload.
type MalformedResponseError struct {
	Source string
	Cause  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(source, id string) *NotFoundError {
	return &NotFoundError{Source: source, ID: id}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}
