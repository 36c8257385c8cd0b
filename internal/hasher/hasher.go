// Package hasher resolves digest algorithm names once and computes hex digests.
package hasher

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"sort"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// Algorithm is one of the supported digest functions. The zero value is invalid.
type Algorithm int

const (
	MD4 Algorithm = iota + 1
	MD5
	SHA1
	SHA224
	SHA256
	SHA384
	SHA512
	SHA512_224
	SHA512_256
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
	BLAKE2b256
	BLAKE2b512
	BLAKE2s256
	BLAKE3
	RIPEMD160
)

type algorithmInfo struct {
	name string
	size int
	new  func() hash.Hash
}

var algorithms = map[Algorithm]algorithmInfo{
	MD4:        {"md4", md4.Size, md4.New},
	MD5:        {"md5", md5.Size, md5.New},
	SHA1:       {"sha1", sha1.Size, sha1.New},
	SHA224:     {"sha224", sha256.Size224, sha256.New224},
	SHA256:     {"sha256", sha256.Size, sha256.New},
	SHA384:     {"sha384", sha512.Size384, sha512.New384},
	SHA512:     {"sha512", sha512.Size, sha512.New},
	SHA512_224: {"sha512_224", sha512.Size224, sha512.New512_224},
	SHA512_256: {"sha512_256", sha512.Size256, sha512.New512_256},
	SHA3_224:   {"sha3_224", 28, sha3.New224},
	SHA3_256:   {"sha3_256", 32, sha3.New256},
	SHA3_384:   {"sha3_384", 48, sha3.New384},
	SHA3_512:   {"sha3_512", 64, sha3.New512},
	BLAKE2b256: {"blake2b_256", blake2b.Size256, func() hash.Hash { h, _ := blake2b.New256(nil); return h }},
	BLAKE2b512: {"blake2b_512", blake2b.Size, func() hash.Hash { h, _ := blake2b.New512(nil); return h }},
	BLAKE2s256: {"blake2s_256", blake2s.Size, func() hash.Hash { h, _ := blake2s.New256(nil); return h }},
	BLAKE3:     {"blake3", 32, func() hash.Hash { return blake3.New() }},
	RIPEMD160:  {"ripemd160", ripemd160.Size, ripemd160.New},
}

var byName = func() map[string]Algorithm {
	m := make(map[string]Algorithm, len(algorithms))
	for alg, info := range algorithms {
		m[info.name] = alg
	}
	return m
}()

// Parse resolves an algorithm name. Matching ignores case and treats '-' as '_'.
func Parse(name string) (Algorithm, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if alg, ok := byName[key]; ok {
		return alg, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
}

// Names lists every supported algorithm name in sorted order.
func Names() []string {
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (a Algorithm) String() string {
	if info, ok := algorithms[a]; ok {
		return info.name
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

// Valid reports whether a is a supported algorithm.
func (a Algorithm) Valid() bool {
	_, ok := algorithms[a]
	return ok
}

// Size is the digest length in bytes.
func (a Algorithm) Size() int {
	return algorithms[a].size
}

// New returns a fresh hash.Hash for a. It panics on an invalid algorithm.
func (a Algorithm) New() hash.Hash {
	info, ok := algorithms[a]
	if !ok {
		panic(fmt.Sprintf("hasher: invalid algorithm %d", int(a)))
	}
	return info.new()
}

// Digest returns the lowercase hex digest of data.
func Digest(alg Algorithm, data []byte) string {
	h := alg.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// NormalizeTarget trims and lowercases a hex digest and checks that it decodes to
// exactly alg.Size() bytes.
func NormalizeTarget(alg Algorithm, target string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(target))
	raw, err := hex.DecodeString(t)
	if err != nil {
		return "", fmt.Errorf("%w: target is not hex: %v", ErrInvalidDigest, err)
	}
	if len(raw) != alg.Size() {
		return "", fmt.Errorf("%w: %s digest has %d bytes, target has %d", ErrInvalidDigest, alg, alg.Size(), len(raw))
	}
	return t, nil
}

// Matcher compares candidates against one target. A Matcher is not safe for
// concurrent use; each worker owns its own.
type Matcher struct {
	h      hash.Hash
	target []byte
	sum    []byte
}

// NewMatcher builds a Matcher for a normalized target digest.
func NewMatcher(alg Algorithm, target string) (*Matcher, error) {
	raw, err := hex.DecodeString(target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	if len(raw) != alg.Size() {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidDigest, alg.Size(), len(raw))
	}
	return &Matcher{
		h:      alg.New(),
		target: raw,
		sum:    make([]byte, 0, len(raw)),
	}, nil
}

// Match hashes candidate and reports whether it equals the target.
func (m *Matcher) Match(candidate []byte) bool {
	m.h.Reset()
	m.h.Write(candidate)
	m.sum = m.h.Sum(m.sum[:0])
	return bytes.Equal(m.sum, m.target)
}
