// Package mask parses positional masks such as "?u?l?l?d" or "Pass?d?d?d?d".
//
// A mask is read left to right. The two-character placeholders ?l, ?u, ?d and ?s
// stand for one position drawn from Lower, Upper, Digits or Symbols. Every other
// character is a literal position. A '?' that does not start a known placeholder
// is itself a literal, and parsing resumes at the character after it, so "?x"
// yields the literals '?' and 'x'.
package mask

import (
	"fmt"

	"crackhash/internal/combinations"
)

const (
	Lower   = "abcdefghijklmnopqrstuvwxyz"
	Upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits  = "0123456789"
	Symbols = "!@#$%^&*()-_=+"
)

var placeholders = map[rune]combinations.Charset{
	'l': combinations.NewCharset(Lower),
	'u': combinations.NewCharset(Upper),
	'd': combinations.NewCharset(Digits),
	's': combinations.NewCharset(Symbols),
}

// Parse returns the per-position charsets of pattern.
func Parse(pattern string) ([]combinations.Charset, error) {
	if pattern == "" {
		return nil, ErrEmpty
	}
	runes := []rune(pattern)
	sets := make([]combinations.Charset, 0, len(runes))
	for i := 0; i < len(runes); {
		if runes[i] == '?' && i+1 < len(runes) {
			if cs, ok := placeholders[runes[i+1]]; ok {
				sets = append(sets, cs)
				i += 2
				continue
			}
		}
		sets = append(sets, combinations.Literal(runes[i]))
		i++
	}
	return sets, nil
}

// Size is the number of candidates pattern describes.
func Size(pattern string) (uint64, error) {
	sets, err := Parse(pattern)
	if err != nil {
		return 0, err
	}
	n, err := combinations.Product(sets)
	if err != nil {
		return 0, fmt.Errorf("mask %q: %w", pattern, err)
	}
	return n, nil
}
