package mask

import "errors"

var ErrEmpty = errors.New("mask: pattern is empty")
