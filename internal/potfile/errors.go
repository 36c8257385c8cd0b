package potfile

import "errors"

var (
	// ErrNotFound is returned by Lookup when the digest has not been recovered yet.
	ErrNotFound = errors.New("potfile: digest not recovered")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("potfile: closed")
)
