// Package service runs a reaction duel session: it plays rounds, keeps the
// match score and hands finished rounds to the recorder and live feed.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/adapters/mq/queue"
	"github.com/okian/duel/internal/adapters/mq/worker"
	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/match"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

const (
	defaultQueueSize   = 256
	defaultHistorySize = 500
	reportQueueName    = "reports"
)

// Service owns one session. Rounds are played one at a time; reads may
// come from any goroutine.
type Service struct {
	play sync.Mutex   // held for the length of a round
	mu   sync.RWMutex // guards controller and lifecycle

	cfg        model.RoundConfig
	timing     model.Timing
	clock      clockwork.Clock
	rng        round.Rand
	sched      round.Scheduler
	machine    *round.Machine
	controller *match.Controller

	queue       *queue.InMemoryQueue
	pool        *worker.Pool
	store       repository.Store
	subscribers fanout

	queueSize   int
	workerCount int
	historySize int

	started   bool
	startedAt time.Time
	rounds    atomic.Int64

	logger logger.Logger
}

// New validates the configuration and builds an idle session.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		cfg:         model.DefaultRoundConfig(),
		timing:      model.DefaultTiming(),
		queueSize:   defaultQueueSize,
		workerCount: 1,
		historySize: defaultHistorySize,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.timing.Validate(); err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(s.clock.Now().UnixNano())) //nolint:gosec // gameplay randomness
	}
	if s.sched == nil {
		s.sched = round.SleepScheduler{Clock: s.clock}
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithHistorySize(s.historySize))
	}

	ctrl, err := match.NewController(s.cfg, match.WithLogger(s.logger.Named("match")))
	if err != nil {
		return nil, fmt.Errorf("new service: %w", err)
	}
	s.controller = ctrl
	s.cfg = ctrl.Config()
	s.machine = round.NewMachine(s.cfg,
		round.WithClock(s.clock),
		round.WithRand(s.rng),
		round.WithScheduler(s.sched),
		round.WithTiming(s.timing),
		round.WithLogger(s.logger.Named("round")),
	)
	return s, nil
}

// Subscribe adds an observer of finished rounds. It must be called before
// Start.
func (s *Service) Subscribe(p worker.Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, p)
}

// Start begins recording finished rounds.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyStarted
	}

	s.logger.Info(ctx, "starting duel service...")
	s.queue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithName(reportQueueName),
	)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, s.subscribers,
		worker.WithLogger(s.logger))
	s.pool.Start(ctx)
	s.started = true
	s.startedAt = s.clock.Now()

	s.logger.Info(ctx, "duel service started",
		logger.String("match_id", s.controller.ID()),
		logger.Int("players", s.cfg.Players),
		logger.Int("target_score", s.cfg.TargetScore),
		logger.Int("recorders", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop drains the report queue and shuts the recorders down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping duel service...")
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "recorder shutdown", logger.Error(err))
	}
	s.started = false
	s.queue, s.pool = nil, nil
	s.logger.Info(ctx, "duel service stopped", logger.Int64("rounds", s.rounds.Load()))
}

// PlayRound runs the next round of the current match against in, applies
// the outcome and queues the report. An abandoned round leaves the score
// and round number as they were and is not recorded.
func (s *Service) PlayRound(ctx context.Context, in round.Input, p round.Presenter) (model.RoundReport, error) {
	s.play.Lock()
	defer s.play.Unlock()

	s.mu.RLock()
	concluded, number := s.controller.Concluded(), s.controller.Round()
	s.mu.RUnlock()
	if concluded {
		return model.RoundReport{}, match.ErrMatchConcluded
	}

	s.machine.SetPresenter(p)
	out, runErr := s.machine.Run(ctx, number, in)

	s.mu.Lock()
	sum, err := s.controller.Apply(ctx, out)
	s.mu.Unlock()
	if err != nil {
		return model.RoundReport{}, fmt.Errorf("apply round %d: %w", number, err)
	}

	kind, color := s.machine.Cue()
	rep := model.RoundReport{
		MatchID:   sum.MatchID,
		Round:     sum.Round,
		CueShown:  s.machine.CueShown(),
		Outcome:   out,
		Captures:  s.machine.Captures(),
		Scores:    sum.Scores,
		Concluded: sum.Concluded,
		Winners:   sum.Winners,
		At:        s.clock.Now(),
	}
	if rep.CueShown {
		rep.Cue, rep.CueColor = kind, color
	}
	if runErr != nil {
		return rep, runErr
	}
	if out.Kind != model.OutcomeMenuRequested {
		s.rounds.Add(1)
		s.record(ctx, rep)
	}
	return rep, nil
}

func (s *Service) record(ctx context.Context, rep model.RoundReport) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	q := s.queue
	s.mu.RUnlock()
	if q == nil {
		return
	}
	if !q.Enqueue(ctx, rep) {
		metrics.RecordErrorByComponent("service", "report_dropped")
		s.logger.Warn(ctx, "report queue full, round not recorded",
			logger.String("match_id", rep.MatchID), logger.Int("round", rep.Round))
	}
}

// Rematch restarts the match with the same players.
func (s *Service) Rematch(ctx context.Context) {
	s.play.Lock()
	defer s.play.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controller.Rematch()
	s.logger.Info(ctx, "rematch", logger.String("match_id", s.controller.ID()))
}

// Reconfigure validates cfg and starts a new match with it.
func (s *Service) Reconfigure(ctx context.Context, cfg model.RoundConfig) error {
	s.play.Lock()
	defer s.play.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.controller.Reset(cfg); err != nil {
		return err
	}
	s.cfg = s.controller.Config()
	s.machine.Configure(s.cfg)
	s.logger.Info(ctx, "match reconfigured",
		logger.String("match_id", s.controller.ID()),
		logger.Int("players", s.cfg.Players),
		logger.Int("target_score", s.cfg.TargetScore))
	return nil
}

// RoundConfig returns a copy of the active configuration.
func (s *Service) RoundConfig() model.RoundConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := s.cfg
	cfg.Keys = append([]model.Key(nil), s.cfg.Keys...)
	return cfg
}

// Match returns the current match state.
func (s *Service) Match() model.MatchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.State()
}

// MatchID identifies the current match.
func (s *Service) MatchID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.controller.ID()
}

// Standings returns every player seen this session, best first.
func (s *Service) Standings(ctx context.Context) []repository.Entry {
	return s.store.Standings(ctx)
}

// Standing returns one player's row.
func (s *Service) Standing(ctx context.Context, player int) (repository.Entry, error) {
	return s.store.Standing(ctx, player)
}

// History returns up to n recorded rounds, newest first.
func (s *Service) History(ctx context.Context, n int) ([]model.RoundReport, error) {
	return s.store.History(ctx, n)
}

// GetStats returns a snapshot for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.controller.State()
	stats := types.Stats{
		MatchID:      s.controller.ID(),
		Round:        st.Round,
		Players:      s.cfg.Players,
		TargetScore:  s.cfg.TargetScore,
		Scores:       st.Scores,
		Concluded:    st.Concluded,
		RoundsPlayed: s.rounds.Load(),
		Subscribers:  s.subscribers.count(),
	}
	if s.started {
		stats.ReportsQueued = s.queue.Len(context.Background())
		stats.StartedAt = s.startedAt
		stats.Uptime = s.clock.Since(s.startedAt).Round(time.Second).String()
	}
	return stats
}

// fanout publishes to every subscriber in order.
type fanout []worker.Publisher

func (f fanout) Publish(ctx context.Context, r model.RoundReport) { //nolint:gocritic // hugeParam
	for _, p := range f {
		p.Publish(ctx, r)
	}
}

func (f fanout) count() int {
	n := 0
	for _, p := range f {
		if c, ok := p.(interface{ Count() int }); ok {
			n += c.Count()
		}
	}
	return n
}
