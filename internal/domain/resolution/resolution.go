// Package resolution decides the outcome of a round from its captures.
package resolution

import (
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Default resolution constants.
const (
	DefaultEpsilon = 600 * time.Microsecond
	DefaultTimeout = 2 * time.Second
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithEpsilon sets the simultaneity tolerance.
func WithEpsilon(eps time.Duration) Option {
	return func(e *Engine) {
		if eps > 0 {
			e.epsilon = eps
		}
	}
}

// WithTimeout sets how long a cue waits for any press.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// Engine is stateless apart from its tuning; Resolve is a pure function of
// its arguments.
type Engine struct {
	epsilon time.Duration
	timeout time.Duration
}

// NewEngine creates an engine with the stock tolerance and timeout.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		epsilon: DefaultEpsilon,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Epsilon returns the configured tolerance.
func (e *Engine) Epsilon() time.Duration { return e.epsilon }

// Timeout returns the configured response timeout.
func (e *Engine) Timeout() time.Duration { return e.timeout }

// Resolve evaluates the captures made so far. It returns false while the
// round is still open: no captures and elapsed not past the timeout.
//
// On a safe cue the fastest presser wins; on a trap cue a lone presser
// faults and among several the slowest does. More than one player within
// epsilon of the deciding extreme is a tie.
func (e *Engine) Resolve(kind model.CueKind, pressed []model.CapturedPress, elapsed time.Duration) (model.RoundOutcome, bool) {
	if len(pressed) == 0 {
		if elapsed > e.timeout {
			return model.NoResponse(), true
		}
		return model.RoundOutcome{}, false
	}

	if kind == model.CueTrap {
		if len(pressed) == 1 {
			return model.Fault([]int{pressed[0].Player}, pressed[0].Elapsed), true
		}
		slowest := pressed[0].Elapsed
		for _, p := range pressed[1:] {
			if p.Elapsed > slowest {
				slowest = p.Elapsed
			}
		}
		near := e.within(pressed, slowest)
		if len(near) > 1 {
			return model.Tie(), true
		}
		return model.Fault(near, slowest), true
	}

	fastest := pressed[0].Elapsed
	for _, p := range pressed[1:] {
		if p.Elapsed < fastest {
			fastest = p.Elapsed
		}
	}
	near := e.within(pressed, fastest)
	if len(near) > 1 {
		return model.Tie(), true
	}
	return model.Winner(near, fastest), true
}

// within lists the players whose capture lies strictly inside epsilon of t.
func (e *Engine) within(pressed []model.CapturedPress, t time.Duration) []int {
	var out []int
	for _, p := range pressed {
		d := p.Elapsed - t
		if d < 0 {
			d = -d
		}
		if d < e.epsilon {
			out = append(out, p.Player)
		}
	}
	return out
}
