// Package round sequences a single round: wait, cue, capture, resolve.
package round

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/domain/capture"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/resolution"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// State of the machine.
type State int

const (
	StateIdle State = iota
	StateWaiting
	StateCueShown
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaiting:
		return "waiting"
	case StateCueShown:
		return "cue_shown"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SafeVariant is the color of a safe cue.
const SafeVariant = "green"

// Rand is the random source for wait delays and cue selection.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Input is the sampler's view of the keyboard plus the menu request.
type Input interface {
	capture.Input
	CancelRequested() bool
}

// Presenter renders the phases the player must see.
type Presenter interface {
	ShowWaiting(round int)
	ShowCue(kind model.CueKind, variant string)
}

type nopPresenter struct{}

func (nopPresenter) ShowWaiting(int)               {}
func (nopPresenter) ShowCue(model.CueKind, string) {}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithRand sets the random source.
func WithRand(r Rand) Option {
	return func(m *Machine) {
		if r != nil {
			m.rng = r
		}
	}
}

// WithScheduler sets how the loop yields between cycles.
func WithScheduler(s Scheduler) Option {
	return func(m *Machine) {
		if s != nil {
			m.sched = s
		}
	}
}

// WithPresenter sets the rendering collaborator.
func WithPresenter(p Presenter) Option {
	return func(m *Machine) {
		if p != nil {
			m.presenter = p
		}
	}
}

// WithTiming sets the round timing.
func WithTiming(t model.Timing) Option {
	return func(m *Machine) {
		m.timing = t
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.log = l
		}
	}
}

// Machine runs one round at a time. It is not safe for concurrent use.
type Machine struct {
	clock     clockwork.Clock
	rng       Rand
	sched     Scheduler
	presenter Presenter
	timing    model.Timing
	log       logger.Logger

	engine  *resolution.Engine
	sampler *capture.Sampler

	state    State
	round    int
	deadline time.Time
	cue      model.CueKind
	variant  string
	shownAt  time.Time
	outcome  model.RoundOutcome
	pressed  []model.CapturedPress
}

// NewMachine builds a machine for cfg. Without options it runs on the real
// clock with a time-seeded random source.
func NewMachine(cfg model.RoundConfig, opts ...Option) *Machine {
	m := &Machine{
		timing:    model.DefaultTiming(),
		presenter: nopPresenter{},
		log:       logger.Nop(),
		pressed:   make([]model.CapturedPress, 0, model.MaxPlayers),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(m.clock.Now().UnixNano())) //nolint:gosec // gameplay randomness
	}
	if m.sched == nil {
		m.sched = SleepScheduler{Clock: m.clock}
	}
	m.engine = resolution.NewEngine(
		resolution.WithEpsilon(m.timing.TieEpsilon),
		resolution.WithTimeout(m.timing.ResponseTimeout),
	)
	m.sampler = capture.NewSampler(cfg, capture.WithTiming(m.timing), capture.WithLogger(m.log))
	return m
}

// Configure rebinds players between rounds and returns to Idle.
func (m *Machine) Configure(cfg model.RoundConfig) {
	m.sampler.Configure(cfg)
	m.state = StateIdle
}

// SetPresenter replaces the presenter for the following rounds. Nil draws
// nothing.
func (m *Machine) SetPresenter(p Presenter) {
	if p == nil {
		p = nopPresenter{}
	}
	m.presenter = p
}

// Start moves Idle to Waiting and draws the delay before the cue.
func (m *Machine) Start(ctx context.Context, round int) {
	m.sampler.Reset()
	m.round = round
	m.outcome = model.RoundOutcome{}
	m.shownAt = time.Time{}
	span := m.timing.MaxWait - m.timing.MinWait
	delay := m.timing.MinWait + time.Duration(m.rng.Float64()*float64(span))
	m.deadline = m.clock.Now().Add(delay)
	m.state = StateWaiting
	m.presenter.ShowWaiting(round)
	m.log.Debug(ctx, "round waiting", logger.Int("round", round), logger.Duration("delay", delay))
}

// Step runs one cycle at the current clock time. It returns how long to
// yield before the next cycle, or done once the round is resolved.
func (m *Machine) Step(ctx context.Context, in Input) (next time.Duration, done bool) {
	switch m.state {
	case StateIdle:
		return 0, false
	case StateResolved:
		return 0, true
	}

	if in.CancelRequested() {
		m.resolve(ctx, model.MenuRequested())
		return 0, true
	}

	now := m.clock.Now()
	if m.state == StateWaiting {
		if p, early := m.sampler.Sample(ctx, now, in); early {
			m.resolve(ctx, model.FalseStart(p))
			return 0, true
		}
		if now.Before(m.deadline) {
			return min(m.timing.PollInterval, m.deadline.Sub(now)), false
		}
		m.showCue(ctx)
		now = m.clock.Now()
	}

	if p, early := m.sampler.Sample(ctx, now, in); early {
		m.resolve(ctx, model.FalseStart(p))
		return 0, true
	}
	elapsed := now.Sub(m.shownAt)
	if elapsed >= m.timing.Settle {
		m.pressed = m.sampler.Slots().Pressed(m.pressed[:0])
		if out, ok := m.engine.Resolve(m.cue, m.pressed, elapsed); ok {
			m.resolve(ctx, out)
			return 0, true
		}
	}
	return m.sampler.Interval(elapsed), false
}

// Run plays a round to completion, starting it if the machine is idle.
// A cancelled context ends the round as MenuRequested and returns the
// context error.
func (m *Machine) Run(ctx context.Context, round int, in Input) (model.RoundOutcome, error) {
	if m.state != StateWaiting && m.state != StateCueShown {
		m.Start(ctx, round)
	}
	for {
		d, done := m.Step(ctx, in)
		if done {
			return m.outcome, nil
		}
		if err := m.sched.Yield(ctx, d); err != nil {
			m.resolve(ctx, model.MenuRequested())
			return m.outcome, fmt.Errorf("round %d interrupted: %w", m.round, err)
		}
	}
}

func (m *Machine) showCue(ctx context.Context) {
	m.cue = model.CueSafe
	m.variant = SafeVariant
	if m.rng.Float64() < m.timing.TrapProbability {
		m.cue = model.CueTrap
		m.variant = model.TrapVariants[m.rng.Intn(len(model.TrapVariants))]
	}
	m.presenter.ShowCue(m.cue, m.variant)
	m.shownAt = m.clock.Now()
	m.sampler.Begin(m.shownAt)
	m.state = StateCueShown
	metrics.RecordCue(m.cue.String())
	m.log.Debug(ctx, "cue shown", logger.String("kind", m.cue.String()), logger.String("variant", m.variant))
}

func (m *Machine) resolve(ctx context.Context, out model.RoundOutcome) {
	m.outcome = out
	m.state = StateResolved
	metrics.RecordRound(out.Kind.String())
	metrics.RecordSamplerCycles(m.sampler.Cycles())
	if out.Kind == model.OutcomeMenuRequested {
		m.sampler.Reset()
	}
	switch out.Kind {
	case model.OutcomeWinner:
		metrics.RecordReactionTime(float64(out.Time) / float64(time.Millisecond))
	case model.OutcomeFalseStart:
		metrics.RecordFalseStart()
	}
	m.log.Info(ctx, "round resolved", logger.Int("round", m.round), logger.String("outcome", out.String()))
}

// State is the current machine state.
func (m *Machine) State() State { return m.state }

// Cue returns the cue of the round and its color. Only meaningful once the
// cue has been shown.
func (m *Machine) Cue() (model.CueKind, string) { return m.cue, m.variant }

// CueShown reports whether this round got as far as presenting a cue.
func (m *Machine) CueShown() bool { return !m.shownAt.IsZero() }

// Outcome is the result of the last resolved round.
func (m *Machine) Outcome() model.RoundOutcome { return m.outcome }

// Captures returns a copy of the presses captured this round.
func (m *Machine) Captures() []model.CapturedPress {
	return m.sampler.Slots().Pressed(nil)
}

// Deadline is when the cue is due in the current round.
func (m *Machine) Deadline() time.Time { return m.deadline }
