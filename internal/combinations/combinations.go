package combinations

import (
	"fmt"
	"math/bits"
)

// Charset is an ordered set of characters, each stored UTF-8 encoded.
type Charset []string

// NewCharset splits s into characters, dropping repeats while keeping the
// position of the first occurrence.
func NewCharset(s string) Charset {
	seen := make(map[rune]struct{}, len(s))
	cs := make(Charset, 0, len(s))
	for _, r := range s {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		cs = append(cs, string(r))
	}
	return cs
}

// Literal is a single-character charset.
func Literal(r rune) Charset {
	return Charset{string(r)}
}

func (c Charset) String() string {
	n := 0
	for _, ch := range c {
		n += len(ch)
	}
	b := make([]byte, 0, n)
	for _, ch := range c {
		b = append(b, ch...)
	}
	return string(b)
}

// Power returns base^exp, failing with ErrOverflow past uint64.
func Power(base uint64, exp int) (uint64, error) {
	var power uint64 = 1
	for i := 0; i < exp; i++ {
		hi, lo := bits.Mul64(power, base)
		if hi != 0 {
			return 0, fmt.Errorf("%w: %d^%d", ErrOverflow, base, exp)
		}
		power = lo
	}
	return power, nil
}

// TotalCombinations is the number of strings of length 1..maxLength over an
// alphabet of the given size.
func TotalCombinations(alphabetSize, maxLength int) (uint64, error) {
	if alphabetSize <= 0 || maxLength <= 0 {
		return 0, nil
	}
	var total uint64
	for l := 1; l <= maxLength; l++ {
		power, err := Power(uint64(alphabetSize), l)
		if err != nil {
			return 0, err
		}
		sum, carry := bits.Add64(total, power, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: sum of lengths 1..%d", ErrOverflow, maxLength)
		}
		total = sum
	}
	return total, nil
}

// Product is the size of the Cartesian product of sets.
func Product(sets []Charset) (uint64, error) {
	if len(sets) == 0 {
		return 0, nil
	}
	var total uint64 = 1
	for i, set := range sets {
		hi, lo := bits.Mul64(total, uint64(len(set)))
		if hi != 0 {
			return 0, fmt.Errorf("%w: product of %d positions", ErrOverflow, i+1)
		}
		total = lo
	}
	return total, nil
}

// Repeat returns n references to the same charset.
func Repeat(cs Charset, n int) []Charset {
	sets := make([]Charset, n)
	for i := range sets {
		sets[i] = cs
	}
	return sets
}

// WordByIndex returns the index-th string in the lexicographic order of the product
// of sets, the last position varying fastest.
func WordByIndex(index uint64, sets []Charset) (string, error) {
	total, err := Product(sets)
	if err != nil {
		return "", err
	}
	if index >= total {
		return "", fmt.Errorf("%w: index %d, size %d", ErrOutOfRange, index, total)
	}
	o := NewOdometer(sets, index)
	return string(o.Word()), nil
}

// Odometer walks a contiguous index range of a Cartesian product in lexicographic
// order. The slice returned by Word is reused between calls to Next.
type Odometer struct {
	sets   []Charset
	digits []int
	buf    []byte
}

// NewOdometer positions an odometer at index start. The caller guarantees start
// lies within the product.
func NewOdometer(sets []Charset, start uint64) *Odometer {
	o := &Odometer{
		sets:   sets,
		digits: make([]int, len(sets)),
		buf:    make([]byte, 0, 4*len(sets)),
	}
	for i := len(sets) - 1; i >= 0; i-- {
		base := uint64(len(sets[i]))
		o.digits[i] = int(start % base)
		start /= base
	}
	return o
}

// Word renders the current position.
func (o *Odometer) Word() []byte {
	o.buf = o.buf[:0]
	for i, d := range o.digits {
		o.buf = append(o.buf, o.sets[i][d]...)
	}
	return o.buf
}

// Next advances one position and reports false when it wraps past the end.
func (o *Odometer) Next() bool {
	for i := len(o.digits) - 1; i >= 0; i-- {
		o.digits[i]++
		if o.digits[i] < len(o.sets[i]) {
			return true
		}
		o.digits[i] = 0
	}
	return false
}
