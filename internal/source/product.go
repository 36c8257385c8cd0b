package source

import (
	"errors"
	"fmt"

	"crackhash/internal/attack"
	"crackhash/internal/combinations"
	"crackhash/internal/mask"
	"crackhash/internal/partition"
)

type bruteForce struct {
	charset combinations.Charset
	counts  []uint64
	size    uint64
}

func newBruteForce(charset string, maxLength int) (*bruteForce, error) {
	if maxLength > MaxCandidateLength {
		return nil, fmt.Errorf("%w: max length %d exceeds %d", attack.ErrInvalidSpec, maxLength, MaxCandidateLength)
	}
	bf := &bruteForce{charset: combinations.NewCharset(charset)}
	if len(bf.charset) == 0 || maxLength <= 0 {
		return bf, nil
	}
	total, err := combinations.TotalCombinations(len(bf.charset), maxLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attack.ErrSearchSpaceTooLarge, err)
	}
	bf.size = total
	bf.counts = make([]uint64, maxLength)
	for l := 1; l <= maxLength; l++ {
		// Cannot overflow: every power is bounded by the total above.
		bf.counts[l-1], _ = combinations.Power(uint64(len(bf.charset)), l)
	}
	return bf, nil
}

func (b *bruteForce) Mode() attack.Mode { return attack.ModeBruteForce }
func (b *bruteForce) Size() uint64      { return b.size }

func (b *bruteForce) Plan(p partition.Policy) []partition.Chunk {
	return p.ByLength(b.counts)
}

func (b *bruteForce) Enumerate(c partition.Chunk, visit func([]byte) bool) error {
	if c.Length < 1 || c.Length > len(b.counts) || c.End > b.counts[c.Length-1] {
		return fmt.Errorf("%w: %s", ErrChunkOutOfRange, c)
	}
	enumerateProduct(combinations.Repeat(b.charset, c.Length), c.Start, c.End, visit)
	return nil
}

type maskSource struct {
	sets []combinations.Charset
	size uint64
}

func newMask(pattern string) (*maskSource, error) {
	sets, err := mask.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attack.ErrInvalidSpec, err)
	}
	size, err := combinations.Product(sets)
	if errors.Is(err, combinations.ErrOverflow) {
		return nil, fmt.Errorf("%w: mask %q: %w", attack.ErrSearchSpaceTooLarge, pattern, err)
	}
	if err != nil {
		return nil, err
	}
	return &maskSource{sets: sets, size: size}, nil
}

func (m *maskSource) Mode() attack.Mode { return attack.ModeMask }
func (m *maskSource) Size() uint64      { return m.size }

func (m *maskSource) Plan(p partition.Policy) []partition.Chunk {
	return p.Contiguous(m.size, 1)
}

func (m *maskSource) Enumerate(c partition.Chunk, visit func([]byte) bool) error {
	if c.End > m.size {
		return fmt.Errorf("%w: %s", ErrChunkOutOfRange, c)
	}
	enumerateProduct(m.sets, c.Start, c.End, visit)
	return nil
}

func enumerateProduct(sets []combinations.Charset, start, end uint64, visit func([]byte) bool) {
	if start >= end {
		return
	}
	o := combinations.NewOdometer(sets, start)
	for idx := start; idx < end; idx++ {
		if !visit(o.Word()) {
			return
		}
		o.Next()
	}
}
