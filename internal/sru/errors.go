package sru

import (
	"errors"
	"fmt"
)

// Common errors returned by the SRU client.
var (
	// ErrUnknownEndpoint indicates a request for an endpoint not in
	// the catalog.
	ErrUnknownEndpoint = errors.New("unknown SRU endpoint")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with SRU endpoint")

	// ErrInvalidResponse indicates a response that is not a valid
	// searchRetrieve envelope.
	ErrInvalidResponse = errors.New("invalid SRU response")
)

// Diagnostic URIs defined by the SRU standard that the client reacts
// to specifically.
const (
	DiagUnsupportedSchema = "info:srw/diagnostic/1/66"
	DiagUnknownSchema     = "info:srw/diagnostic/1/67"
)

// DiagnosticError is a server-side diagnostic carried in an otherwise
// well-formed response.
type DiagnosticError struct {
	Endpoint string
	URI      string
	Message  string
	Details  string
}

func (e *DiagnosticError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("SRU diagnostic from %s (%s): %s: %s", e.Endpoint, e.URI, e.Message, e.Details)
	}
	return fmt.Sprintf("SRU diagnostic from %s (%s): %s", e.Endpoint, e.URI, e.Message)
}

// IsSchemaUnsupported returns true if the error is a diagnostic that
// rejects the requested record schema.
func IsSchemaUnsupported(err error) bool {
	var diag *DiagnosticError
	if errors.As(err, &diag) {
		return diag.URI == DiagUnsupportedSchema || diag.URI == DiagUnknownSchema
	}
	return false
}
