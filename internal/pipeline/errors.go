// Package pipeline orchestrates a site analysis: staleness check, tracker
// detection, summary, score and persistence.
package pipeline

import "fmt"

// RequestError represents an invalid analysis request
type RequestError struct {
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid request: %s", e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// DetectionError represents a failed tracker detection. The analysis is
// aborted and nothing is stored.
type DetectionError struct {
	URL   string
	Cause error
}

func (e *DetectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("detection failed for %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("detection failed for %s", e.URL)
}

func (e *DetectionError) Unwrap() error {
	return e.Cause
}

// StorageError represents a persistence failure. It never fails an analysis;
// it is reported as a warning on the outcome.
type StorageError struct {
	Op    string
	Cause error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage %s failed: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage %s failed", e.Op)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}
