package common

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Provider and parse failures are
// recovered locally with fixed fallbacks at their call sites; NotFound and
// InvalidInput propagate to the caller.
var (
	// ErrProviderUnavailable marks a failed or timed-out call to an
	// external embedding/generation provider.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrEmbeddingUnavailable is the embedding specialization of
	// ErrProviderUnavailable; errors.Is matches both.
	ErrEmbeddingUnavailable = fmt.Errorf("embedding: %w", ErrProviderUnavailable)

	// ErrParseFailure marks a structured response that could not be
	// extracted from provider output.
	ErrParseFailure = errors.New("parse failure")

	// ErrNotFound marks an absent document, graph, or analysis id.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks empty text or an unsupported category.
	ErrInvalidInput = errors.New("invalid input")
)
