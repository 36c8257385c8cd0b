package search

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crackhash/internal/attack"
	"crackhash/internal/hasher"
	"crackhash/internal/partition"
	"crackhash/internal/progress"
	"crackhash/internal/source"
)

type recordingSink struct {
	mu    sync.Mutex
	calls [][2]uint64
}

func (s *recordingSink) OnProgress(done, total uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, [2]uint64{done, total})
}

func (s *recordingSink) snapshot() [][2]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][2]uint64(nil), s.calls...)
}

func testConfig() Config {
	return Config{Workers: 4, ChunkMultiplier: 4, MinChunk: 100, MaxSearchSpace: 1 << 40}
}

func digest(alg hasher.Algorithm, s string) string {
	return hasher.Digest(alg, []byte(s))
}

func TestRun_BruteForceFindsABC123(t *testing.T) {
	spec, err := attack.NewBruteForce("md5", digest(hasher.MD5, "abc123"), "abcdefghijklmnopqrstuvwxyz0123456789", 6)
	require.NoError(t, err)

	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "abc123", res.Plaintext)
	assert.Equal(t, uint64(2238976116), res.Total)
}

func TestRun_RuledDictionaryFindsSuffixVariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("letmein\nqwerty\npassword\ndragon\n"), 0o600))
	spec, err := attack.NewDictionary("sha256", digest(hasher.SHA256, "password1"), path, true)
	require.NoError(t, err)

	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "password1", res.Plaintext)
	assert.Equal(t, attack.ModeRuledDictionary, res.Mode)
}

func TestRun_PlainDictionaryMissesVariant(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("password\n"), 0o600))
	spec, err := attack.NewDictionary("sha256", digest(hasher.SHA256, "password1"), path, false)
	require.NoError(t, err)

	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, uint64(1), res.Scanned)
}

func TestRun_MaskFindsPass0007(t *testing.T) {
	spec, err := attack.NewMask("sha1", digest(hasher.SHA1, "Pass0007"), "Pass?d?d?d?d")
	require.NoError(t, err)

	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "Pass0007", res.Plaintext)
	assert.Equal(t, uint64(10000), res.Total)
}

func TestRun_UppercaseTargetMatches(t *testing.T) {
	target := digest(hasher.MD5, "Zz9")
	spec, err := attack.NewMask("md5", toUpper(target), "?u?l?d")
	require.NoError(t, err)

	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "Zz9", res.Plaintext)
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

func TestRun_NotFoundIsDeterministic(t *testing.T) {
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "zzz"), "?d?d?d")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		sink := &recordingSink{}
		res, err := New(testConfig(), sink, nil).Run(context.Background(), spec)
		require.NoError(t, err)
		assert.Equal(t, OutcomeNotFound, res.Outcome)
		assert.Equal(t, uint64(1000), res.Scanned)
		assert.Equal(t, uint64(1000), res.Total)

		calls := sink.snapshot()
		require.NotEmpty(t, calls)
		assert.Equal(t, [2]uint64{1000, 1000}, calls[len(calls)-1])
		for j := 1; j < len(calls); j++ {
			assert.GreaterOrEqual(t, calls[j][0], calls[j-1][0], "progress is monotonic")
		}
	}
}

func TestRun_EmptyBruteForceDomain(t *testing.T) {
	spec, err := attack.NewBruteForce("md5", digest(hasher.MD5, "a"), "", 4)
	require.NoError(t, err)
	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Zero(t, res.Scanned)
}

func TestRun_SearchSpaceCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSearchSpace = 999
	sink := &recordingSink{}
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "123"), "?d?d?d")
	require.NoError(t, err)

	res, err := New(cfg, sink, nil).Run(context.Background(), spec)
	assert.ErrorIs(t, err, attack.ErrSearchSpaceTooLarge)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Zero(t, res.Scanned)
	assert.Empty(t, sink.snapshot())
}

func TestRun_OverflowingMaskIsTooLarge(t *testing.T) {
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "x"), "?s?s?s?s?s?s?s?s?s?s?s?s?s?s?s?s?s?s")
	require.NoError(t, err)
	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	assert.ErrorIs(t, err, attack.ErrSearchSpaceTooLarge)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestRun_SourceUnavailable(t *testing.T) {
	spec, err := attack.NewDictionary("md5", digest(hasher.MD5, "x"), filepath.Join(t.TempDir(), "nope.txt"), false)
	require.NoError(t, err)
	res, err := New(testConfig(), nil, nil).Run(context.Background(), spec)
	assert.ErrorIs(t, err, attack.ErrSourceUnavailable)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestRun_InvalidSpec(t *testing.T) {
	res, err := New(testConfig(), nil, nil).Run(context.Background(), attack.Spec{})
	assert.ErrorIs(t, err, attack.ErrInvalidSpec)
	assert.Equal(t, OutcomeFailed, res.Outcome)
}

func TestRun_RejectsInvalidUTF8Domain(t *testing.T) {
	// Built by hand: the constructors already refuse these.
	brute := attack.Spec{
		Algorithm:  hasher.MD5,
		Target:     digest(hasher.MD5, "\xfe"),
		BruteForce: &attack.BruteForce{Charset: "\xff\xfe", MaxLength: 1},
	}
	res, err := New(testConfig(), nil, nil).Run(context.Background(), brute)
	assert.ErrorIs(t, err, attack.ErrInvalidSpec)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Zero(t, res.Scanned)

	mask := attack.Spec{
		Algorithm: hasher.MD5,
		Target:    digest(hasher.MD5, "\xfe1"),
		Mask:      &attack.Mask{Pattern: "\xfe?d"},
	}
	_, err = New(testConfig(), nil, nil).Run(context.Background(), mask)
	assert.ErrorIs(t, err, attack.ErrInvalidSpec)
}

func TestRun_InterruptedBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "x"), "?d")
	require.NoError(t, err)
	res, err := New(testConfig(), nil, nil).Run(ctx, spec)
	assert.ErrorIs(t, err, attack.ErrInterrupted)
	assert.Equal(t, OutcomeInterrupted, res.Outcome)
}

func TestRun_InterruptedMidSearchDrains(t *testing.T) {
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "not in the mask"), "?l?l?l?l?l?l?l")
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	started := time.Now()
	res, err := New(testConfig(), nil, nil).Run(ctx, spec)
	assert.ErrorIs(t, err, attack.ErrInterrupted)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeInterrupted, res.Outcome)
	assert.Less(t, res.Scanned, res.Total)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestRun_StopsPromptlyAfterMatch(t *testing.T) {
	cfg := Config{Workers: 1, ChunkMultiplier: 100, MinChunk: 1}
	sink := &recordingSink{}
	spec, err := attack.NewMask("md5", digest(hasher.MD5, "0042"), "?d?d?d?d")
	require.NoError(t, err)

	res, err := New(cfg, sink, nil).Run(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, "0042", res.Plaintext)
	assert.Equal(t, 100, res.Chunks)
	assert.Equal(t, uint64(43), res.Scanned, "only the matching chunk was expanded")
	assert.Equal(t, [][2]uint64{{43, 10000}}, sink.snapshot())
}

// sameWordSource yields the same candidate in every chunk, so every chunk
// matches and the coordinator has to pick one.
type sameWordSource struct {
	chunks int
	hits   atomic.Int64
}

func (s *sameWordSource) Mode() attack.Mode { return attack.ModeDictionary }
func (s *sameWordSource) Size() uint64      { return uint64(s.chunks) }
func (s *sameWordSource) Plan(partition.Policy) []partition.Chunk {
	return partition.Split(uint64(s.chunks), s.chunks)
}
func (s *sameWordSource) Enumerate(c partition.Chunk, visit func([]byte) bool) error {
	s.hits.Add(1)
	visit([]byte("dup"))
	return nil
}

func TestSearch_ConcurrentMatchesFirstObservedWins(t *testing.T) {
	src := &sameWordSource{chunks: 64}
	res, err := New(testConfig(), nil, nil).Search(context.Background(), src, hasher.MD5, digest(hasher.MD5, "dup"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "dup", res.Plaintext)
	assert.Less(t, src.hits.Load(), int64(64), "dispatch stops after the first match")
}

// flakySource panics the first failures times it is asked for chunk faultyID.
type flakySource struct {
	source.Source
	faultyID int
	failures int32
	calls    atomic.Int32
}

func (f *flakySource) Enumerate(c partition.Chunk, visit func([]byte) bool) error {
	if c.ID == f.faultyID && f.calls.Add(1) <= f.failures {
		visit([]byte("half-hashed"))
		panic("simulated crash")
	}
	return f.Source.Enumerate(c, visit)
}

func newFlaky(t *testing.T, failures int32) (*flakySource, string) {
	t.Helper()
	target := digest(hasher.MD5, "0555")
	spec, err := attack.NewMask("md5", target, "?d?d?d?d")
	require.NoError(t, err)
	src, err := source.New(context.Background(), spec)
	require.NoError(t, err)
	// With a 100-candidate chunk size, "0555" lives in chunk 5.
	return &flakySource{Source: src, faultyID: 5, failures: failures}, target
}

func TestSearch_WorkerFaultRetriedOnce(t *testing.T) {
	src, target := newFlaky(t, 1)
	cfg := Config{Workers: 2, ChunkMultiplier: 50, MinChunk: 1}
	res, err := New(cfg, nil, nil).Search(context.Background(), src, hasher.MD5, target)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "0555", res.Plaintext)
	assert.Equal(t, 1, res.Retries)
}

func TestSearch_SecondFaultIsFatal(t *testing.T) {
	src, target := newFlaky(t, 2)
	cfg := Config{Workers: 2, ChunkMultiplier: 50, MinChunk: 1}
	res, err := New(cfg, nil, nil).Search(context.Background(), src, hasher.MD5, target)
	assert.ErrorIs(t, err, attack.ErrWorkerFault)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, res.Plaintext)
}

func TestRun_FoundCorrectness(t *testing.T) {
	tests := []struct {
		name   string
		alg    hasher.Algorithm
		secret string
		spec   func(target string) (attack.Spec, error)
	}{
		{"brute", hasher.SHA512, "ba", func(tg string) (attack.Spec, error) { return attack.NewBruteForce("sha512", tg, "abc", 3) }},
		{"brute first", hasher.SHA512, "a", func(tg string) (attack.Spec, error) { return attack.NewBruteForce("sha512", tg, "abc", 3) }},
		{"brute last", hasher.SHA512, "ccc", func(tg string) (attack.Spec, error) { return attack.NewBruteForce("sha512", tg, "abc", 3) }},
		{"mask", hasher.SHA3_256, "x9!", func(tg string) (attack.Spec, error) { return attack.NewMask("sha3_256", tg, "?l?d?s") }},
		{"mask literal", hasher.BLAKE3, "?q", func(tg string) (attack.Spec, error) { return attack.NewMask("blake3", tg, "?q") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := tt.spec(digest(tt.alg, tt.secret))
			require.NoError(t, err)

			res, err := New(Config{Workers: 3, ChunkMultiplier: 3, MinChunk: 1}, progress.Nop{}, nil).Run(context.Background(), spec)
			require.NoError(t, err)
			assert.Equal(t, OutcomeFound, res.Outcome)
			assert.Equal(t, tt.secret, res.Plaintext)
		})
	}
}

func TestProgressPump_DeliversLatestOnClose(t *testing.T) {
	sink := &recordingSink{}
	p := newProgressPump(sink)
	for i := uint64(1); i <= 100; i++ {
		p.publish(i, 100)
	}
	p.close()

	calls := sink.snapshot()
	require.NotEmpty(t, calls)
	assert.Equal(t, [2]uint64{100, 100}, calls[len(calls)-1])
	assert.LessOrEqual(t, len(calls), 100)
}
