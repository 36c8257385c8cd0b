// Package source enumerates the candidates of an attack, one chunk at a time.
package source

import (
	"context"
	"errors"
	"fmt"

	"crackhash/internal/attack"
	"crackhash/internal/partition"
)

// MaxCandidateLength bounds brute-force lengths.
const MaxCandidateLength = 256

// ErrChunkOutOfRange is returned by Enumerate for a chunk the source did not plan.
var ErrChunkOutOfRange = errors.New("source: chunk outside the domain")

// Source is the candidate domain of one attack mode.
//
// Enumerate calls visit with each candidate of the chunk in domain order and
// stops as soon as visit returns false. The slice passed to visit is only valid
// during the call. Enumerate holds no state between calls, so running it twice on
// the same chunk yields the same sequence, and distinct chunks may be enumerated
// concurrently.
type Source interface {
	Mode() attack.Mode
	Size() uint64
	Plan(p partition.Policy) []partition.Chunk
	Enumerate(c partition.Chunk, visit func(candidate []byte) bool) error
}

// New builds the source for spec. Dictionary sources index their file here, so a
// missing word list fails before any work is planned.
func New(ctx context.Context, spec attack.Spec) (Source, error) {
	switch {
	case spec.BruteForce != nil:
		return newBruteForce(spec.BruteForce.Charset, spec.BruteForce.MaxLength)
	case spec.Dictionary != nil:
		return openDictionary(ctx, spec.Dictionary.Path, spec.Dictionary.ApplyRules)
	case spec.Mask != nil:
		return newMask(spec.Mask.Pattern)
	default:
		return nil, fmt.Errorf("%w: no attack mode set", attack.ErrInvalidSpec)
	}
}
