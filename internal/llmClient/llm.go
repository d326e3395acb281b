package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// LLMClient sends a single prompt to a model and returns its text reply.
// Rate limiting, retries, logging and metrics are layered on top by
// middleware in internal/llm.
type LLMClient interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
	Close() error
}

var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// RateLimitedError is returned when the provider rejected a request for
// exceeding its quota. Wait is how long the provider asked us to back off.
type RateLimitedError struct {
	Wait time.Duration
	Err  error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%v (retry in %s)", e.Err, e.Wait)
}

func (e *RateLimitedError) Unwrap() error { return e.Err }
