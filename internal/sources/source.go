// Package sources contains the bibliographic lookup clients the ISBN
// resolver aggregates: WorldCat, Citoid, Google Books, and Ketab.ir.
package sources

import (
	"context"
	"errors"
	"fmt"

	"github.com/CrispStrobe/citer/internal/record"
)

// Source is one bibliographic backend queried by ISBN. Lookup returns
// a partial record; missing fields are filled from other sources
// during aggregation.
type Source interface {
	Name() string
	Lookup(ctx context.Context, isbn string) (*record.Record, error)
}

// Common errors returned by the lookup clients.
var (
	// ErrNotFound indicates the backend has no entry for the ISBN.
	ErrNotFound = errors.New("not found")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates an unexpected backend response.
	ErrInvalidResponse = errors.New("invalid response")
)

// APIError represents an error response from a lookup backend.
type APIError struct {
	Source     string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing entry.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}
