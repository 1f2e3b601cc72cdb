// Package library persists tracks, DJ sets and cached analyses in a
// key-value store. Records are msgpack encoded under hierarchical keys such as
// track:<id>, set:<id> and analysis:<settings fingerprint>:<sha256>.
package library

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned when a key, track or set does not exist
var ErrNotFound = errors.New("not found")

// keySeparator joins key segments; segments must not contain it
const keySeparator = ":"

// Key is a hierarchical path such as Key{"track", id}
type Key []string

func (k Key) String() string {
	return strings.Join(k, keySeparator)
}

func (k Key) encode() []byte {
	return []byte(k.String())
}

// prefix is the encoded form that matches everything strictly below k.
// The trailing separator keeps "track" from matching "tracklist".
func (k Key) prefix() []byte {
	if len(k) == 0 {
		return nil
	}
	return []byte(k.String() + keySeparator)
}

func decodeKey(b []byte) Key {
	return Key(strings.Split(string(b), keySeparator))
}

// Entry is one key-value pair
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store over hierarchical keys.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound when key is absent
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	// Delete is a no-op for a missing key
	Delete(ctx context.Context, key Key) error
	// List yields every entry below prefix in lexicographic key order
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]
	// BatchSet writes all entries atomically
	BatchSet(ctx context.Context, entries []Entry) error
	Close() error
}
