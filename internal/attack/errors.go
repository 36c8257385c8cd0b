package attack

import (
	"errors"

	"crackhash/internal/hasher"
)

// Run-level error taxonomy. Every error surfaced by a search wraps exactly one of
// these; use errors.Is to classify.
var (
	ErrInvalidSpec          = errors.New("invalid attack spec")
	ErrUnsupportedAlgorithm = hasher.ErrUnsupportedAlgorithm
	ErrSourceUnavailable    = errors.New("word source unavailable")
	ErrSearchSpaceTooLarge  = errors.New("search space too large")
	ErrWorkerFault          = errors.New("worker fault")
	ErrInterrupted          = errors.New("search interrupted")
)

// Kind names the taxonomy entry err belongs to, or "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSpec), errors.Is(err, hasher.ErrInvalidDigest):
		return "invalid_spec"
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "unsupported_algorithm"
	case errors.Is(err, ErrSourceUnavailable):
		return "source_unavailable"
	case errors.Is(err, ErrSearchSpaceTooLarge):
		return "search_space_too_large"
	case errors.Is(err, ErrWorkerFault):
		return "worker_fault"
	case errors.Is(err, ErrInterrupted):
		return "interrupted"
	default:
		return "internal"
	}
}
