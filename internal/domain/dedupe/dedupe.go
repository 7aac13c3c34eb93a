// Package dedupe remembers host event ids so a redelivered event is counted
// once.
package dedupe

import (
	"context"
	"strings"
	"sync"
)

// DefaultMaxSize is the bound used when no option is given.
const DefaultMaxSize = 100000

// Deduper records seen event ids.
type Deduper interface {
	// SeenAndRecord reports whether id was seen before and records it if not.
	// Empty ids are never recorded and always report false.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a delivery that failed can be retried.
	Unrecord(ctx context.Context, id string)

	Size() int
}

// memoryDeduper keeps ids in a map and, when bounded, a ring of insertion
// order used for eviction.
type memoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // id -> ring slot, -1 when unbounded
	ring    []string
	next    int
	maxSize int
}

// New returns an in-memory Deduper.
func New(opts ...Option) Deduper {
	d := &memoryDeduper{maxSize: DefaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *memoryDeduper) SeenAndRecord(_ context.Context, id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[id] = -1
		return false
	}

	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.seen[id] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *memoryDeduper) Unrecord(_ context.Context, id string) {
	id = strings.TrimSpace(id)
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[id]
	if !ok {
		return
	}
	delete(d.seen, id)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *memoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
