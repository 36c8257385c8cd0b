// Package attack holds the immutable description of one cracking run and the
// error taxonomy shared by every stage of it.
package attack

import (
	"fmt"
	"unicode/utf8"

	"crackhash/internal/hasher"
)

// Mode identifies the candidate source of a run.
type Mode int

const (
	ModeBruteForce Mode = iota + 1
	ModeDictionary
	ModeRuledDictionary
	ModeMask
)

func (m Mode) String() string {
	switch m {
	case ModeBruteForce:
		return "brute_force"
	case ModeDictionary:
		return "dictionary"
	case ModeRuledDictionary:
		return "ruled_dictionary"
	case ModeMask:
		return "mask"
	default:
		return "unknown"
	}
}

type BruteForce struct {
	Charset   string
	MaxLength int
}

type Dictionary struct {
	Path       string
	ApplyRules bool
}

type Mask struct {
	Pattern string
}

// Spec is built once by one of the New* constructors and never mutated. Exactly one
// of BruteForce, Dictionary and Mask is set.
type Spec struct {
	Algorithm hasher.Algorithm
	Target    string

	BruteForce *BruteForce
	Dictionary *Dictionary
	Mask       *Mask
}

func newSpec(algorithm, target string) (Spec, error) {
	alg, err := hasher.Parse(algorithm)
	if err != nil {
		return Spec{}, err
	}
	t, err := hasher.NormalizeTarget(alg, target)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	return Spec{Algorithm: alg, Target: t}, nil
}

// NewBruteForce describes an exhaustive search over all strings of length
// 1..maxLength drawn from charset. An empty charset or non-positive length is a
// valid spec with an empty domain.
func NewBruteForce(algorithm, target, charset string, maxLength int) (Spec, error) {
	if !utf8.ValidString(charset) {
		return Spec{}, fmt.Errorf("%w: charset is not valid UTF-8", ErrInvalidSpec)
	}
	s, err := newSpec(algorithm, target)
	if err != nil {
		return Spec{}, err
	}
	s.BruteForce = &BruteForce{Charset: charset, MaxLength: maxLength}
	return s, nil
}

// NewDictionary describes a wordlist search, optionally expanding every word with
// the rule set.
func NewDictionary(algorithm, target, path string, applyRules bool) (Spec, error) {
	if path == "" {
		return Spec{}, fmt.Errorf("%w: dictionary path is empty", ErrInvalidSpec)
	}
	s, err := newSpec(algorithm, target)
	if err != nil {
		return Spec{}, err
	}
	s.Dictionary = &Dictionary{Path: path, ApplyRules: applyRules}
	return s, nil
}

// NewMask describes a positional mask search.
func NewMask(algorithm, target, pattern string) (Spec, error) {
	if pattern == "" {
		return Spec{}, fmt.Errorf("%w: mask is empty", ErrInvalidSpec)
	}
	if !utf8.ValidString(pattern) {
		return Spec{}, fmt.Errorf("%w: mask is not valid UTF-8", ErrInvalidSpec)
	}
	s, err := newSpec(algorithm, target)
	if err != nil {
		return Spec{}, err
	}
	s.Mask = &Mask{Pattern: pattern}
	return s, nil
}

// Mode reports the populated mode, or 0 if the spec is malformed.
func (s Spec) Mode() Mode {
	switch {
	case s.BruteForce != nil:
		return ModeBruteForce
	case s.Dictionary != nil && s.Dictionary.ApplyRules:
		return ModeRuledDictionary
	case s.Dictionary != nil:
		return ModeDictionary
	case s.Mask != nil:
		return ModeMask
	default:
		return 0
	}
}

// Validate checks the invariants the constructors establish, for specs assembled
// by hand.
func (s Spec) Validate() error {
	if !s.Algorithm.Valid() {
		return fmt.Errorf("%w: algorithm not set", ErrInvalidSpec)
	}
	if _, err := hasher.NormalizeTarget(s.Algorithm, s.Target); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	modes := 0
	if s.BruteForce != nil {
		modes++
		if !utf8.ValidString(s.BruteForce.Charset) {
			return fmt.Errorf("%w: charset is not valid UTF-8", ErrInvalidSpec)
		}
	}
	if s.Dictionary != nil {
		modes++
		if s.Dictionary.Path == "" {
			return fmt.Errorf("%w: dictionary path is empty", ErrInvalidSpec)
		}
	}
	if s.Mask != nil {
		modes++
		if s.Mask.Pattern == "" {
			return fmt.Errorf("%w: mask is empty", ErrInvalidSpec)
		}
		if !utf8.ValidString(s.Mask.Pattern) {
			return fmt.Errorf("%w: mask is not valid UTF-8", ErrInvalidSpec)
		}
	}
	if modes != 1 {
		return fmt.Errorf("%w: exactly one attack mode must be set, got %d", ErrInvalidSpec, modes)
	}
	return nil
}
