// Package input buffers key notifications from a front-end and answers the
// round loop's key-state queries.
package input

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/domain/model"
)

const defaultCapacity = 256

// Option configures a Buffer.
type Option func(*Buffer)

// WithHold makes a press count as held for d after its last key-down, for
// sources that never report key-up. Zero waits for an explicit release.
func WithHold(d time.Duration) Option {
	return func(b *Buffer) {
		if d >= 0 {
			b.hold = d
		}
	}
}

// WithClock sets the clock used to expire held keys and stamp events.
func WithClock(c clockwork.Clock) Option {
	return func(b *Buffer) {
		if c != nil {
			b.clock = c
		}
	}
}

// WithCapacity bounds the pending notification buffer. The oldest
// notification is dropped when full.
func WithCapacity(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// Buffer is written by the front-end's event goroutine and read by the
// round loop.
type Buffer struct {
	mu       sync.Mutex
	events   []model.KeyEvent
	held     map[model.Key]time.Time // key-down time
	hold     time.Duration
	capacity int
	dropped  atomic.Int64
	cancel   atomic.Bool
	clock    clockwork.Clock
}

// NewBuffer creates an empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		held:     make(map[model.Key]time.Time),
		capacity: defaultCapacity,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.events = make([]model.KeyEvent, 0, b.capacity)
	return b
}

// Push records a key notification. A zero timestamp is stamped now.
func (b *Buffer) Push(ev model.KeyEvent) {
	if ev.At.IsZero() {
		ev.At = b.clock.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.Pressed {
		b.held[ev.Key] = ev.At
	} else {
		delete(b.held, ev.Key)
	}
	if len(b.events) == b.capacity {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
		b.dropped.Add(1)
	}
	b.events = append(b.events, ev)
}

// Press is Push for a key-down.
func (b *Buffer) Press(k model.Key, at time.Time) {
	b.Push(model.KeyEvent{Key: k, Pressed: true, At: at})
}

// Release is Push for a key-up.
func (b *Buffer) Release(k model.Key, at time.Time) {
	b.Push(model.KeyEvent{Key: k, Pressed: false, At: at})
}

// Drain appends and removes all pending notifications.
func (b *Buffer) Drain(dst []model.KeyEvent) []model.KeyEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	dst = append(dst, b.events...)
	b.events = b.events[:0]
	return dst
}

// Pressed reports whether k is currently held.
func (b *Buffer) Pressed(k model.Key) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	at, ok := b.held[k]
	if !ok {
		return false
	}
	if b.hold > 0 && b.clock.Since(at) > b.hold {
		delete(b.held, k)
		return false
	}
	return true
}

// RequestCancel asks the running round to return to the menu.
func (b *Buffer) RequestCancel() { b.cancel.Store(true) }

// CancelRequested reports a pending menu request.
func (b *Buffer) CancelRequested() bool { return b.cancel.Load() }

// Clear drops pending notifications and any menu request. Held keys stay:
// a key still down when the next round starts is a false start.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = b.events[:0]
	b.cancel.Store(false)
}

// Dropped counts notifications lost to a full buffer.
func (b *Buffer) Dropped() int64 { return b.dropped.Load() }
