package hasher

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned by Parse for unknown algorithm names.
	ErrUnsupportedAlgorithm = errors.New("hasher: unsupported algorithm")

	// ErrInvalidDigest is returned when a target is not hex or has the wrong length.
	ErrInvalidDigest = errors.New("hasher: invalid target digest")
)
