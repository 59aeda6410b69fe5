// Package dedupe remembers which round reports have already been folded in.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 1024

// Deduper records seen report keys so a report delivered twice counts once.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen.
	SeenAndRecord(ctx context.Context, key string) bool

	// Reset forgets every key.
	Reset()

	Size() int64
}

type node struct {
	key  string
	next *node
}

// inMemoryDeduper keeps keys in arrival order and forgets the oldest once
// maxSize is reached. maxSize <= 0 never forgets.
type inMemoryDeduper struct {
	mu       sync.Mutex
	seen     map[string]struct{}
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryDeduper creates an empty deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	d.nodePool.New = func() any { return &node{} }
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node) //nolint:forcetypeassert // pool only holds nodes
	n.key = key
	if d.tail == nil {
		d.head = n
	} else {
		d.tail.next = n
	}
	d.tail = n
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

// evictOldest drops the head. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	n := d.head
	if n == nil {
		return
	}
	d.head = n.next
	if d.head == nil {
		d.tail = nil
	}
	delete(d.seen, n.key)
	n.key, n.next = "", nil
	d.nodePool.Put(n)
	d.size.Add(-1)
}

func (d *inMemoryDeduper) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.head != nil {
		d.evictOldest()
	}
	clear(d.seen)
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
