package combinations

import "errors"

var (
	ErrOverflow   = errors.New("combinations: size overflows uint64")
	ErrOutOfRange = errors.New("combinations: index out of range")
)
