// Package potfile remembers digests that have already been recovered, so a repeated
// request is answered without searching again.
//
// Entries are keyed by "algorithm:digest" with the digest in normalized lowercase
// hex. The store only ever holds plaintexts that were verified by a search.
package potfile

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"crackhash/internal/hasher"
)

// Pot is safe for concurrent use.
type Pot struct {
	db  *badger.DB
	log *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// badgerLogger routes badger's internal messages to slog.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(format string, args ...any) {
	l.log.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

// Open opens or creates the potfile directory at dir.
func Open(dir string, log *slog.Logger) (*Pot, error) {
	if dir == "" {
		return nil, errors.New("potfile: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create potfile directory %s: %w", dir, err)
	}
	return open(badger.DefaultOptions(dir).WithSyncWrites(true), log)
}

// OpenInMemory opens a potfile that is lost on Close.
func OpenInMemory(log *slog.Logger) (*Pot, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), log)
}

func open(opts badger.Options, log *slog.Logger) (*Pot, error) {
	if log == nil {
		log = slog.Default()
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{log: log.With(slog.String("component", "badger"))})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open potfile: %w", err)
	}
	return &Pot{db: db, log: log}, nil
}

func key(alg hasher.Algorithm, digest string) []byte {
	return []byte(alg.String() + ":" + digest)
}

// Lookup returns the recovered plaintext for digest, or ErrNotFound.
func (p *Pot) Lookup(alg hasher.Algorithm, digest string) (string, error) {
	digest, err := hasher.NormalizeTarget(alg, digest)
	if err != nil {
		return "", err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return "", ErrClosed
	}

	var plaintext []byte
	err = p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(alg, digest))
		if err != nil {
			return err
		}
		plaintext, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("potfile lookup %s: %w", alg, err)
	}
	return string(plaintext), nil
}

// Save records plaintext as the preimage of digest. The pair is checked before it
// is written, so a wrong plaintext is never stored.
func (p *Pot) Save(alg hasher.Algorithm, digest, plaintext string) error {
	digest, err := hasher.NormalizeTarget(alg, digest)
	if err != nil {
		return err
	}
	if hasher.Digest(alg, []byte(plaintext)) != digest {
		return fmt.Errorf("potfile: plaintext does not hash to %s:%s", alg, digest)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	err = p.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(alg, digest), []byte(plaintext))
	})
	if err != nil {
		return fmt.Errorf("potfile save %s: %w", alg, err)
	}
	p.log.Debug("potfile entry saved", slog.String("algorithm", alg.String()), slog.String("digest", digest))
	return nil
}

// Entry is one recovered digest.
type Entry struct {
	Algorithm string
	Digest    string
	Plaintext string
}

// Entries lists every stored pair in key order.
func (p *Pot) Entries() ([]Entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}

	var entries []Entry
	err := p.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			alg, digest, ok := splitKey(string(item.Key()))
			if !ok {
				continue
			}
			value, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			entries = append(entries, Entry{Algorithm: alg, Digest: digest, Plaintext: string(value)})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("potfile entries: %w", err)
	}
	return entries, nil
}

func splitKey(k string) (alg, digest string, ok bool) {
	i := strings.LastIndexByte(k, ':')
	if i < 0 {
		return "", "", false
	}
	return k[:i], k[i+1:], true
}

// Close flushes and closes the store. It is safe to call more than once.
func (p *Pot) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.db.Close()
}
