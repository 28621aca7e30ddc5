package quizsystem

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedProvider is returned when the configured AI provider is unknown
	ErrUnsupportedProvider = errors.New("unsupported AI provider")
	// ErrResponseFormat is returned when an AI response lacks the expected content
	ErrResponseFormat = errors.New("malformed AI response")
	// ErrCancelled is reported for generations stopped by the user
	ErrCancelled = errors.New("generation cancelled by user")
	// ErrNoQuestions is reported when generation finished without any usable question
	ErrNoQuestions = errors.New("AI did not generate any questions; check the documents or retry")
	// ErrNotFound is returned by the store for unknown IDs
	ErrNotFound = errors.New("not found")
)

// NetworkError wraps a transport failure or a non-2xx response from an AI provider
type NetworkError struct {
	Provider   Provider
	StatusCode int
	Status     string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("AI request to %s failed: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("AI request to %s failed: %s", e.Provider, e.Status)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
