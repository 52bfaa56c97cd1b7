// Package dedupe tracks player names that already have an output row so a
// resumed run does not fetch or write them twice.
package dedupe

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
)

// Deduper records seen player names.
type Deduper interface {
	// SeenAndRecord atomically checks if name was seen and records it if not.
	// Returns true if name was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, name string) bool

	// Unrecord removes a name so a failed player can be retried.
	Unrecord(ctx context.Context, name string)

	Size() int64
}

// inMemoryDeduper implements Deduper with a guarded map.
type inMemoryDeduper struct {
	mu        sync.Mutex
	seen      map[string]struct{}
	normalize func(string) string
	size      atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen:      make(map[string]struct{}),
		normalize: strings.TrimSpace,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeenAndRecord reports whether name was already recorded and records it.
// Empty names are never recorded and always report false.
func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, name string) bool {
	key := d.normalize(name)
	if key == "" {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes a name from the seen set.
func (d *inMemoryDeduper) Unrecord(_ context.Context, name string) {
	key := d.normalize(name)

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
