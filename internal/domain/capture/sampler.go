package capture

import (
	"context"
	"time"

	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Input is what the sampler reads on every cycle.
type Input interface {
	// Drain appends pending key notifications to dst without blocking.
	Drain(dst []model.KeyEvent) []model.KeyEvent
	// Pressed reports the instantaneous state of k.
	Pressed(k model.Key) bool
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithTiming sets the poll cadence.
func WithTiming(t model.Timing) Option {
	return func(s *Sampler) {
		s.timing = t
	}
}

// WithLogger attaches a logger for per-capture debug lines.
func WithLogger(l logger.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.log = l
		}
	}
}

// Sampler fuses discrete key notifications (path A) and key-state polling
// (path B) into one arena. Path A is processed before path B inside a
// cycle; the arena keeps whichever detection comes first per player.
type Sampler struct {
	keys    []model.Key
	timing  model.Timing
	slots   Slots
	start   time.Time
	started bool
	cycles  int
	events  []model.KeyEvent
	log     logger.Logger
}

// NewSampler builds a sampler for the players and bindings of cfg.
func NewSampler(cfg model.RoundConfig, opts ...Option) *Sampler {
	s := &Sampler{
		timing: model.DefaultTiming(),
		log:    logger.Nop(),
		events: make([]model.KeyEvent, 0, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Configure(cfg)
	return s
}

// Configure rebinds keys and clears the round.
func (s *Sampler) Configure(cfg model.RoundConfig) {
	n := cfg.Players
	if n > len(cfg.Keys) {
		n = len(cfg.Keys)
	}
	s.keys = append(s.keys[:0], cfg.Keys[:n]...)
	s.Reset()
}

// Reset discards all captures and the capture start.
func (s *Sampler) Reset() {
	s.slots.Reset(len(s.keys))
	s.start = time.Time{}
	s.started = false
	s.cycles = 0
	s.events = s.events[:0]
}

// Begin fixes the capture start. Only the first call of a round has effect.
func (s *Sampler) Begin(start time.Time) {
	if s.started {
		return
	}
	s.start = start
	s.started = true
}

// Start returns the capture start and whether it has been fixed.
func (s *Sampler) Start() (time.Time, bool) { return s.start, s.started }

// Slots exposes the arena. Callers must not record into it.
func (s *Sampler) Slots() *Slots { return &s.slots }

// Cycles is the number of Sample calls since Reset.
func (s *Sampler) Cycles() int { return s.cycles }

// Sample runs one cycle at now. Before Begin every bound press is an
// offence; after it, so is a notification stamped before the capture
// start. The first offender is returned and the cycle stops there.
func (s *Sampler) Sample(ctx context.Context, now time.Time, in Input) (offender int, early bool) {
	s.cycles++

	s.events = in.Drain(s.events[:0])
	for _, ev := range s.events {
		if !ev.Pressed {
			continue
		}
		p, ok := s.playerFor(ev.Key)
		if !ok || s.slots.Has(p) {
			continue
		}
		at := ev.At
		if at.IsZero() {
			at = now
		}
		if !s.started || at.Before(s.start) {
			return p, true
		}
		s.record(ctx, p, at.Sub(s.start), model.SourceEvent)
	}

	for p, k := range s.keys {
		if s.slots.Has(p) || !in.Pressed(k) {
			continue
		}
		if !s.started {
			return p, true
		}
		s.record(ctx, p, now.Sub(s.start), model.SourcePoll)
	}
	return 0, false
}

// Interval is the sleep before the next cycle given the elapsed time since
// capture start: a short busy sleep inside the aggressive window, the
// relaxed tick afterwards.
func (s *Sampler) Interval(elapsed time.Duration) time.Duration {
	if elapsed < s.timing.AggressiveWindow {
		return s.timing.BusyPollSleep
	}
	return s.timing.RelaxedTick()
}

func (s *Sampler) record(ctx context.Context, p int, elapsed time.Duration, src model.Source) {
	if !s.slots.Record(p, elapsed, src) {
		return
	}
	metrics.RecordCapture(src.String())
	s.log.Debug(ctx, "capture",
		logger.Int("player", p),
		logger.Duration("elapsed", elapsed),
		logger.String("path", src.String()))
}

func (s *Sampler) playerFor(k model.Key) (int, bool) {
	for i, bound := range s.keys {
		if bound == k {
			return i, true
		}
	}
	return 0, false
}
