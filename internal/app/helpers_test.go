package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/domain/model"
)

// seqRand replays fixed values and repeats the last one.
type seqRand struct{ floats []float64 }

func (r *seqRand) Float64() float64 {
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *seqRand) Intn(int) int { return 0 }

// reflexes presses keys a fixed time after each cue it is shown. It is
// both the round input and the presenter.
type reflexes struct {
	clock   clockwork.Clock
	after   map[model.Key]time.Duration
	early   map[model.Key]bool // held from the start of the round
	cancel  bool
	cueAt   time.Time
	sent    map[model.Key]bool
	cues    []model.CueKind
	waiting []int
}

func newReflexes(c clockwork.Clock) *reflexes {
	return &reflexes{
		clock: c,
		after: map[model.Key]time.Duration{},
		early: map[model.Key]bool{},
		sent:  map[model.Key]bool{},
	}
}

func (r *reflexes) ShowWaiting(round int) {
	r.waiting = append(r.waiting, round)
	r.cueAt = time.Time{}
	r.sent = map[model.Key]bool{}
}

func (r *reflexes) ShowCue(kind model.CueKind, _ string) {
	r.cues = append(r.cues, kind)
	r.cueAt = r.clock.Now()
}

func (r *reflexes) due(k model.Key) (time.Time, bool) {
	if r.early[k] {
		return time.Time{}, true
	}
	d, ok := r.after[k]
	if !ok || r.cueAt.IsZero() {
		return time.Time{}, false
	}
	at := r.cueAt.Add(d)
	return at, !r.clock.Now().Before(at)
}

func (r *reflexes) Drain(dst []model.KeyEvent) []model.KeyEvent {
	for k := range r.after {
		if at, ok := r.due(k); ok && !r.sent[k] && !r.early[k] {
			r.sent[k] = true
			dst = append(dst, model.KeyEvent{Key: k, Pressed: true, At: at})
		}
	}
	return dst
}

func (r *reflexes) Pressed(k model.Key) bool {
	_, ok := r.due(k)
	return ok
}

func (r *reflexes) CancelRequested() bool { return r.cancel }

// collector is a live subscriber stand-in.
type collector struct {
	mu      sync.Mutex
	reports []model.RoundReport
	n       int
}

func (c *collector) Publish(_ context.Context, r model.RoundReport) { //nolint:gocritic // hugeParam
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, r)
}

func (c *collector) Count() int { return c.n }

func (c *collector) got() []model.RoundReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.RoundReport(nil), c.reports...)
}
