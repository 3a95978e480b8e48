package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrUpstreamUnavailable matches every error caused by the provider being
// overloaded or unreachable. Callers use it to decide whether to degrade.
var ErrUpstreamUnavailable = errors.New("ai provider unavailable")

// ErrNoContent indicates the provider answered successfully but returned no text.
var ErrNoContent = errors.New("no content in ai response")

// Request describes a single text generation call.
type Request struct {
	Prompt          string
	Temperature     float32
	TopK            int
	TopP            float32
	MaxOutputTokens int
}

// Generator produces free-form text for a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// TransientError is a retryable failure: HTTP 503 or a transport error.
type TransientError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s api overloaded (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s api unreachable: %v", e.Provider, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// Is reports the error as an availability failure.
func (e *TransientError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// UpstreamError is a permanent provider failure that must not be retried.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s api error: %d - %s", e.Provider, e.StatusCode, e.Body)
}

// ExhaustedError is returned once every retry attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ai provider unavailable after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Is reports the error as an availability failure even when Last is nil.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
