// Package simulate plays whole matches between scripted bots on a fake
// clock, driving the same service the terminal game uses.
package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"

	"github.com/jonboulle/clockwork"
	service "github.com/okian/duel/internal/app"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	"github.com/okian/duel/pkg/logger"
)

// ErrInvalidConfig is returned for a run that cannot be set up.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Run plays cfg.Matches matches and writes progress and the final table to
// out.
func Run(ctx context.Context, cfg Config, out io.Writer) (Result, error) {
	if cfg.Matches < 1 || cfg.MaxRounds < 1 {
		return Result{}, fmt.Errorf("%w: matches %d, max rounds %d", ErrInvalidConfig, cfg.Matches, cfg.MaxRounds)
	}
	if cfg.Players > len(model.DefaultKeys) {
		return Result{}, fmt.Errorf("%w: %d players", ErrInvalidConfig, cfg.Players)
	}
	profiles := append([]Profile(nil), cfg.Profiles...)
	if len(profiles) < cfg.Players {
		profiles = append(profiles, DefaultProfiles(cfg.Players)[len(profiles):]...)
	}

	log := logger.Named("simulate")
	clock := clockwork.NewFakeClockAt(cfg.Start)
	keys := append([]model.Key(nil), model.DefaultKeys[:max(cfg.Players, 0)]...)
	svc, err := service.New(
		service.WithRoundConfig(model.RoundConfig{Players: cfg.Players, TargetScore: cfg.TargetScore, Keys: keys}),
		service.WithTiming(cfg.Timing),
		service.WithClock(clock),
		service.WithRand(rand.New(rand.NewSource(cfg.Seed))), //nolint:gosec // reproducible runs
		service.WithScheduler(round.StepScheduler{Clock: clock}),
		service.WithHistorySize(cfg.Matches*cfg.MaxRounds),
		service.WithQueueSize(cfg.Matches*cfg.MaxRounds),
		service.WithLogger(log),
	)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := svc.Start(ctx); err != nil {
		return Result{}, err
	}
	stopped := false
	defer func() {
		if !stopped {
			svc.Stop()
		}
	}()

	table := NewTable(clock, rand.New(rand.NewSource(cfg.Seed+1)), keys, profiles, cfg.Timing.MinWait) //nolint:gosec // reproducible runs
	log.Info(ctx, "starting simulation",
		logger.Int("players", cfg.Players),
		logger.Int("target_score", cfg.TargetScore),
		logger.Int("matches", cfg.Matches),
		logger.Int64("seed", cfg.Seed))

	var res Result
	for m := 1; m <= cfg.Matches; m++ {
		if m > 1 {
			svc.Rematch(ctx)
		}
		mr := MatchResult{ID: svc.MatchID()}
		for !svc.Match().Concluded {
			if mr.Rounds == cfg.MaxRounds {
				mr.Abandoned = true
				log.Warn(ctx, "match abandoned", logger.String("match_id", mr.ID), logger.Int("rounds", mr.Rounds))
				break
			}
			rep, err := svc.PlayRound(ctx, table, table)
			if err != nil {
				return res, fmt.Errorf("match %d: %w", m, err)
			}
			mr.Rounds++
			res.Rounds++
			writeRound(out, m, rep, cfg.Verbose)
			mr.Winners = rep.Winners
		}
		mr.Scores = svc.Match().Scores
		res.Matches = append(res.Matches, mr)
		writeMatch(out, m, mr)
	}

	// drain the recorder before reading the standings
	svc.Stop()
	stopped = true
	res.Simulated = clock.Since(cfg.Start)

	reports, err := svc.History(ctx, res.Rounds)
	if err != nil {
		return res, err
	}
	res.Reports = reports
	standings := svc.Standings(ctx)
	if err := verify(res, standings); err != nil {
		return res, err
	}
	writeStandings(out, standings)

	if cfg.Output != "" {
		if err := saveReports(ctx, cfg.Output, reports); err != nil {
			log.Warn(ctx, "failed to save round history", logger.Error(err))
		}
	}
	log.Info(ctx, "simulation completed",
		logger.Int("rounds", res.Rounds),
		logger.Duration("simulated", res.Simulated))
	return res, nil
}
