// Package partition splits a candidate domain into chunks that workers expand
// independently. Sizing is a heuristic; the chunks of a plan always cover the
// domain exactly once.
package partition

import (
	"fmt"
	"math/bits"
	"runtime"
)

// Chunk is a half-open index range [Start, End). For brute force the range is
// within the strings of exactly Length characters; otherwise Length is 0 and the
// range is over the flattened domain (product index or line number).
type Chunk struct {
	ID     int
	Length int
	Start  uint64
	End    uint64
}

func (c Chunk) Size() uint64 { return c.End - c.Start }

func (c Chunk) String() string {
	if c.Length > 0 {
		return fmt.Sprintf("chunk %d len=%d [%d,%d)", c.ID, c.Length, c.Start, c.End)
	}
	return fmt.Sprintf("chunk %d [%d,%d)", c.ID, c.Start, c.End)
}

// Policy sizes chunks so that a plan has roughly Workers*Multiplier chunks, none
// cheaper than MinChunk hash comparisons.
type Policy struct {
	Workers    int
	Multiplier int
	MinChunk   uint64
}

func DefaultPolicy() Policy {
	return Policy{
		Workers:    runtime.NumCPU(),
		Multiplier: 4,
		MinChunk:   1000,
	}
}

func (p Policy) normalized() Policy {
	if p.Workers <= 0 {
		p.Workers = 1
	}
	if p.Multiplier <= 0 {
		p.Multiplier = 1
	}
	if p.MinChunk == 0 {
		p.MinChunk = 1
	}
	return p
}

// ChunkCost is the target number of hash comparisons per chunk for a domain of
// totalCost comparisons.
func (p Policy) ChunkCost(totalCost uint64) uint64 {
	p = p.normalized()
	slots := uint64(p.Workers) * uint64(p.Multiplier)
	cost := totalCost / slots
	if totalCost%slots != 0 {
		cost++
	}
	if cost < p.MinChunk {
		cost = p.MinChunk
	}
	return cost
}

// Contiguous covers units [0, total) with equal ranges. unitCost is the number of
// comparisons one unit expands to (1 for plain candidates, the rule expansion
// factor for ruled dictionary lines).
func (p Policy) Contiguous(total, unitCost uint64) []Chunk {
	if total == 0 {
		return nil
	}
	if unitCost == 0 {
		unitCost = 1
	}
	size := p.ChunkCost(saturatingMul(total, unitCost)) / unitCost
	if size == 0 {
		size = 1
	}
	chunks := make([]Chunk, 0, total/size+1)
	for start := uint64(0); start < total; {
		end := total
		if total-start > size {
			end = start + size
		}
		chunks = append(chunks, Chunk{ID: len(chunks), Start: start, End: end})
		start = end
	}
	return chunks
}

// ByLength plans a brute-force domain where counts[i] is the number of strings of
// length i+1. Every length gets at least one chunk; lengths costlier than the
// target chunk cost are split into several in-length ranges.
func (p Policy) ByLength(counts []uint64) []Chunk {
	var total uint64
	for _, c := range counts {
		total = saturatingAdd(total, c)
	}
	cost := p.ChunkCost(total)

	var chunks []Chunk
	for i, c := range counts {
		if c == 0 {
			continue
		}
		parts := c / cost
		if c%cost != 0 {
			parts++
		}
		for _, r := range Split(c, int(parts)) {
			r.ID = len(chunks)
			r.Length = i + 1
			chunks = append(chunks, r)
		}
	}
	return chunks
}

// Split divides [0, total) into parts ranges whose sizes differ by at most one,
// the larger ranges first.
func Split(total uint64, parts int) []Chunk {
	if total == 0 || parts <= 0 {
		return nil
	}
	if uint64(parts) > total {
		parts = int(total)
	}
	partSize := total / uint64(parts)
	remainder := total % uint64(parts)

	chunks := make([]Chunk, 0, parts)
	var start uint64
	for i := 0; i < parts; i++ {
		end := start + partSize
		if uint64(i) < remainder {
			end++
		}
		chunks = append(chunks, Chunk{ID: i, Start: start, End: end})
		start = end
	}
	return chunks
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return sum
}
