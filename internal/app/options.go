package service

import (
	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	"github.com/okian/duel/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRoundConfig sets the players, target and bindings of the first match.
func WithRoundConfig(cfg model.RoundConfig) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithTiming sets the round tuning.
func WithTiming(t model.Timing) Option {
	return func(s *Service) {
		s.timing = t
	}
}

// WithClock sets the clock rounds are timed on.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRand sets the source of cue delays and trap draws.
func WithRand(r round.Rand) Option {
	return func(s *Service) {
		if r != nil {
			s.rng = r
		}
	}
}

// WithScheduler sets how the round loop waits between cycles.
func WithScheduler(sch round.Scheduler) Option {
	return func(s *Service) {
		if sch != nil {
			s.sched = sch
		}
	}
}

// WithQueueSize sets the capacity of the report queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithRecorderWorkers sets the number of workers draining the report queue.
func WithRecorderWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithStore replaces the standings store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithHistorySize sets how many rounds the default store remembers.
func WithHistorySize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.historySize = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
