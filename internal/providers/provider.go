// Package providers implements the ordered fallback cascade across
// interchangeable content-generation backends.
package providers

import (
	"context"
	"errors"
)

// GenerateRequest is one content-generation call. Purpose labels the
// call for logs and metrics; it never affects routing.
type GenerateRequest struct {
	Purpose     string
	Prompt      string
	Temperature float64
}

// Provider is one content-generation backend. Generate returns the
// full response text or an error; output is accepted atomically or not
// at all.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ErrExhausted is returned when every provider in the cascade failed.
var ErrExhausted = errors.New("all providers exhausted")

// ErrRateLimited marks a local or remote rate-limit rejection; the
// cascade advances past it like any other failure.
var ErrRateLimited = errors.New("rate limited")
