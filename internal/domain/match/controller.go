// Package match keeps scores across the rounds of a match.
package match

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Summary is what a caller needs to render after applying a round.
type Summary struct {
	MatchID   string
	Round     int // the round just applied
	Outcome   model.RoundOutcome
	Scores    []int
	Concluded bool
	Winners   []int // set once Concluded
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// Controller owns MatchState. It is not safe for concurrent use.
type Controller struct {
	cfg   model.RoundConfig
	state model.MatchState
	id    string
	log   logger.Logger
}

// NewController validates cfg and starts the first match.
func NewController(cfg model.RoundConfig, opts ...Option) (*Controller, error) {
	c := &Controller{log: logger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.Reset(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Reset replaces the configuration and starts a fresh match.
func (c *Controller) Reset(cfg model.RoundConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("reset match: %w", err)
	}
	keys := make([]model.Key, cfg.Players)
	copy(keys, cfg.Keys)
	cfg.Keys = keys
	c.cfg = cfg
	c.Rematch()
	return nil
}

// Rematch zeroes every score and restarts at round 1 with the same
// configuration.
func (c *Controller) Rematch() {
	c.state = model.MatchState{
		Scores: make([]int, c.cfg.Players),
		Round:  1,
	}
	c.id = uuid.NewString()
	metrics.RecordMatchStarted()
}

// Apply folds a round outcome into the scores. MenuRequested changes
// nothing, not even the round number.
func (c *Controller) Apply(ctx context.Context, out model.RoundOutcome) (Summary, error) {
	if c.state.Concluded {
		return Summary{}, ErrMatchConcluded
	}
	for _, p := range out.Players {
		if p < 0 || p >= len(c.state.Scores) {
			return Summary{}, fmt.Errorf("%w: %d", ErrUnknownPlayer, p)
		}
	}

	round := c.state.Round
	if out.Kind == model.OutcomeMenuRequested {
		return c.summary(round, out), nil
	}

	switch out.Kind {
	case model.OutcomeWinner:
		for _, p := range out.Players {
			c.state.Scores[p]++
		}
	case model.OutcomeFault, model.OutcomeFalseStart:
		for _, p := range out.Players {
			c.state.Scores[p] = max(0, c.state.Scores[p]-1)
		}
	}
	c.state.Round++

	for _, s := range c.state.Scores {
		if s >= c.cfg.TargetScore {
			c.state.Concluded = true
			break
		}
	}
	sum := c.summary(round, out)
	if c.state.Concluded {
		metrics.RecordMatchConcluded()
		c.log.Info(ctx, "match concluded",
			logger.String("match_id", c.id),
			logger.Any("scores", sum.Scores),
			logger.Any("winners", sum.Winners))
	}
	return sum, nil
}

func (c *Controller) summary(round int, out model.RoundOutcome) Summary {
	s := Summary{
		MatchID:   c.id,
		Round:     round,
		Outcome:   out,
		Scores:    append([]int(nil), c.state.Scores...),
		Concluded: c.state.Concluded,
	}
	if s.Concluded {
		s.Winners = c.Winners()
	}
	return s
}

// Winners lists the players holding the maximum score. More than one is a
// draw.
func (c *Controller) Winners() []int {
	best := -1
	var out []int
	for i, s := range c.state.Scores {
		switch {
		case s > best:
			best = s
			out = append(out[:0], i)
		case s == best:
			out = append(out, i)
		}
	}
	return out
}

// State returns a copy of the match state.
func (c *Controller) State() model.MatchState { return c.state.Clone() }

// Config returns the active configuration.
func (c *Controller) Config() model.RoundConfig { return c.cfg }

// ID identifies the current match.
func (c *Controller) ID() string { return c.id }

// Round is the number of the next round to play.
func (c *Controller) Round() int { return c.state.Round }

// Concluded reports whether a score has reached the target.
func (c *Controller) Concluded() bool { return c.state.Concluded }
