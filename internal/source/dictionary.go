package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"crackhash/internal/attack"
	"crackhash/internal/partition"
	"crackhash/internal/rules"
)

// Byte offsets are recorded every indexStride lines so workers can seek close to
// the first line of their chunk.
const indexStride = 1024

const readBufferSize = 64 * 1024

// ErrSourceChanged is returned when a word list is shorter than when it was indexed.
var ErrSourceChanged = errors.New("source: word list changed after indexing")

type dictionary struct {
	path       string
	applyRules bool
	lines      uint64
	candidates uint64
	offsets    []int64
}

func openDictionary(ctx context.Context, path string, applyRules bool) (*dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", attack.ErrSourceUnavailable, err)
	}
	defer f.Close()

	d := &dictionary{path: path, applyRules: applyRules}
	lr := newLineReader(f)
	var offset int64
	for {
		if d.lines%indexStride == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			d.offsets = append(d.offsets, offset)
		}
		line, n, err := lr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", attack.ErrSourceUnavailable, path, err)
		}
		offset += int64(n)
		d.lines++
		if applyRules {
			d.candidates += uint64(rules.Count(string(line)))
		}
	}
	if !applyRules {
		d.candidates = d.lines
	}
	return d, nil
}

func (d *dictionary) Mode() attack.Mode {
	if d.applyRules {
		return attack.ModeRuledDictionary
	}
	return attack.ModeDictionary
}

// Size is the number of candidates, counting every rule variant.
func (d *dictionary) Size() uint64 { return d.candidates }

// Lines is the number of base words.
func (d *dictionary) Lines() uint64 { return d.lines }

func (d *dictionary) Plan(p partition.Policy) []partition.Chunk {
	var unitCost uint64 = 1
	if d.applyRules {
		unitCost = uint64(rules.MaxVariants)
	}
	return p.Contiguous(d.lines, unitCost)
}

func (d *dictionary) Enumerate(c partition.Chunk, visit func([]byte) bool) error {
	if c.End > d.lines {
		return fmt.Errorf("%w: %s", ErrChunkOutOfRange, c)
	}
	if c.Start >= c.End {
		return nil
	}
	f, err := os.Open(d.path)
	if err != nil {
		return fmt.Errorf("%w: %w", attack.ErrSourceUnavailable, err)
	}
	defer f.Close()

	block := c.Start / indexStride
	if _, err := f.Seek(d.offsets[block], io.SeekStart); err != nil {
		return err
	}
	lr := newLineReader(f)
	var buf []byte
	for line := block * indexStride; line < c.End; line++ {
		raw, _, err := lr.next()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s ends at line %d", ErrSourceChanged, d.path, line)
		}
		if err != nil {
			return err
		}
		if line < c.Start {
			continue
		}
		word := decodeLine(raw)
		if !d.applyRules {
			if !visit(word) {
				return nil
			}
			continue
		}
		stopped := !rules.Each(string(word), func(v string) bool {
			buf = append(buf[:0], v...)
			return visit(buf)
		})
		if stopped {
			return nil
		}
	}
	return nil
}

// decodeLine replaces invalid UTF-8 sequences with U+FFFD.
func decodeLine(line []byte) []byte {
	if utf8.Valid(line) {
		return line
	}
	out, _, err := transform.Bytes(runes.ReplaceIllFormed(), line)
	if err != nil {
		return line
	}
	return out
}

type lineReader struct {
	r   *bufio.Reader
	buf []byte
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, readBufferSize)}
}

// next returns the next line without its terminator and the number of bytes it
// occupied in the stream. The line is only valid until the following call. A
// final line without a terminator is returned normally; io.EOF is returned only
// once the stream is exhausted.
func (lr *lineReader) next() ([]byte, int, error) {
	lr.buf = lr.buf[:0]
	for {
		frag, err := lr.r.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			lr.buf = append(lr.buf, frag...)
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, 0, err
		}
		line := frag
		if len(lr.buf) > 0 {
			lr.buf = append(lr.buf, frag...)
			line = lr.buf
		}
		if len(line) == 0 {
			return nil, 0, io.EOF
		}
		return trimEOL(line), len(line), nil
	}
}

func trimEOL(line []byte) []byte {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
		if n > 0 && line[n-1] == '\r' {
			n--
		}
	}
	return line[:n]
}
