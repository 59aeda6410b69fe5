package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/adapters/http/api"
	"github.com/okian/duel/internal/adapters/terminal"
	service "github.com/okian/duel/internal/app"
	"github.com/okian/duel/internal/domain/match"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	"github.com/okian/duel/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	_ api.Dependencies = (*service.Service)(nil)
	_ terminal.Session = (*service.Service)(nil)
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newService(clock *clockwork.FakeClock, rng round.Rand, cfg model.RoundConfig, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithRoundConfig(cfg),
		service.WithClock(clock),
		service.WithRand(rng),
		service.WithScheduler(round.StepScheduler{Clock: clock}),
		service.WithLogger(logger.Get()),
	}
	svc, err := service.New(append(base, opts...)...)
	So(err, ShouldBeNil)
	return svc
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc, err := service.New()

		Convey("Then it uses the two player first-to-ten setup", func() {
			So(err, ShouldBeNil)
			cfg := svc.RoundConfig()
			So(cfg.Players, ShouldEqual, 2)
			So(cfg.TargetScore, ShouldEqual, 10)
			So(svc.Match().Scores, ShouldResemble, []int{0, 0})
			So(svc.Match().Round, ShouldEqual, 1)
			So(svc.MatchID(), ShouldNotBeEmpty)
		})
	})

	Convey("Given an invalid player count", t, func() {
		_, err := service.New(service.WithRoundConfig(model.RoundConfig{Players: 1, TargetScore: 3, Keys: []model.Key{"a"}}))

		Convey("Then creation fails", func() {
			So(errors.Is(err, model.ErrPlayerCount), ShouldBeTrue)
		})
	})

	Convey("Given inverted wait bounds", t, func() {
		timing := model.DefaultTiming()
		timing.MaxWait = timing.MinWait
		_, err := service.New(service.WithTiming(timing))

		Convey("Then creation fails", func() {
			So(errors.Is(err, model.ErrTimingBounds), ShouldBeTrue)
		})
	})
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a started service", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		svc := newService(clock, &seqRand{floats: []float64{0, 0.5}}, model.DefaultRoundConfig())
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When starting it again", func() {
			err := svc.Start(ctx)

			Convey("Then it is rejected", func() {
				So(err, ShouldEqual, service.ErrAlreadyStarted)
			})
		})

		Convey("When stats are read", func() {
			clock.Advance(90 * time.Second)
			stats := svc.GetStats()

			Convey("Then they describe the idle match", func() {
				So(stats.MatchID, ShouldEqual, svc.MatchID())
				So(stats.Players, ShouldEqual, 2)
				So(stats.Round, ShouldEqual, 1)
				So(stats.RoundsPlayed, ShouldEqual, 0)
				So(stats.ReportsQueued, ShouldEqual, 0)
				So(stats.Uptime, ShouldEqual, "1m30s")
			})
		})
	})
}

func TestService_PlayRound(t *testing.T) {
	Convey("Given a started two player service with a subscriber", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		sub := &collector{n: 2}
		rng := &seqRand{floats: []float64{0, 0.5}}
		svc := newService(clock, rng, model.RoundConfig{Players: 2, TargetScore: 2, Keys: []model.Key{"a", "l"}})
		svc.Subscribe(sub)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		in := newReflexes(clock)

		Convey("When player 0 reacts first to a safe cue", func() {
			in.after["a"] = 210 * time.Millisecond
			in.after["l"] = 450 * time.Millisecond
			rep, err := svc.PlayRound(ctx, in, in)
			svc.Stop()

			Convey("Then the report credits player 0", func() {
				So(err, ShouldBeNil)
				So(rep.Round, ShouldEqual, 1)
				So(rep.CueShown, ShouldBeTrue)
				So(rep.Cue, ShouldEqual, model.CueSafe)
				So(rep.CueColor, ShouldEqual, round.SafeVariant)
				So(rep.Outcome.Equal(model.Winner([]int{0}, 210*time.Millisecond)), ShouldBeTrue)
				So(rep.Scores, ShouldResemble, []int{1, 0})
				So(rep.Concluded, ShouldBeFalse)
				So(in.waiting, ShouldResemble, []int{1})
			})

			Convey("And the match advances", func() {
				st := svc.Match()
				So(st.Round, ShouldEqual, 2)
				So(st.Scores, ShouldResemble, []int{1, 0})
			})

			Convey("And the round is recorded and published", func() {
				hist, err := svc.History(ctx, 10)
				So(err, ShouldBeNil)
				So(len(hist), ShouldEqual, 1)
				So(hist[0].MatchID, ShouldEqual, svc.MatchID())

				e, err := svc.Standing(ctx, 0)
				So(err, ShouldBeNil)
				So(e.RoundsWon, ShouldEqual, 1)
				So(e.BestReaction, ShouldEqual, 210*time.Millisecond)
				So(svc.Standings(ctx)[0].Player, ShouldEqual, 0)

				So(len(sub.got()), ShouldEqual, 1)
				stats := svc.GetStats()
				So(stats.RoundsPlayed, ShouldEqual, 1)
				So(stats.Subscribers, ShouldEqual, 2)
			})
		})

		Convey("When player 1 holds the key before the cue", func() {
			in.early["l"] = true
			rep, err := svc.PlayRound(ctx, in, in)
			svc.Stop()

			Convey("Then it is a false start with no cue", func() {
				So(err, ShouldBeNil)
				So(rep.Outcome.Equal(model.FalseStart(1)), ShouldBeTrue)
				So(rep.CueShown, ShouldBeFalse)
				So(rep.Cue, ShouldEqual, model.CueKind(0))
				So(in.cues, ShouldBeEmpty)
				So(rep.Scores, ShouldResemble, []int{0, 0})
				So(svc.Match().Round, ShouldEqual, 2)
			})
		})

		Convey("When the menu is requested mid-round", func() {
			in.cancel = true
			rep, err := svc.PlayRound(ctx, in, in)
			svc.Stop()

			Convey("Then nothing is scored or recorded", func() {
				So(err, ShouldBeNil)
				So(rep.Outcome.Kind, ShouldEqual, model.OutcomeMenuRequested)
				So(svc.Match().Round, ShouldEqual, 1)
				hist, _ := svc.History(ctx, 10)
				So(hist, ShouldBeEmpty)
				So(sub.got(), ShouldBeEmpty)
				So(svc.GetStats().RoundsPlayed, ShouldEqual, 0)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			rep, err := svc.PlayRound(cctx, in, in)
			svc.Stop()

			Convey("Then the round is abandoned", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(rep.Outcome.Kind, ShouldEqual, model.OutcomeMenuRequested)
				So(svc.Match().Round, ShouldEqual, 1)
			})
		})

		Convey("When player 0 wins twice", func() {
			in.after["a"] = 200 * time.Millisecond
			_, err := svc.PlayRound(ctx, in, in)
			So(err, ShouldBeNil)
			rep, err := svc.PlayRound(ctx, in, in)
			So(err, ShouldBeNil)

			Convey("Then the match concludes with player 0 alone on top", func() {
				So(rep.Concluded, ShouldBeTrue)
				So(rep.Winners, ShouldResemble, []int{0})
				So(svc.Match().Concluded, ShouldBeTrue)
			})

			Convey("And no further round can be played", func() {
				_, err := svc.PlayRound(ctx, in, in)
				So(err, ShouldEqual, match.ErrMatchConcluded)
			})

			Convey("And a rematch starts a fresh match", func() {
				old := svc.MatchID()
				svc.Rematch(ctx)
				st := svc.Match()
				So(svc.MatchID(), ShouldNotEqual, old)
				So(st.Concluded, ShouldBeFalse)
				So(st.Scores, ShouldResemble, []int{0, 0})
				So(st.Round, ShouldEqual, 1)
			})

			Convey("And the standings count the match win", func() {
				svc.Stop()
				e, err := svc.Standing(ctx, 0)
				So(err, ShouldBeNil)
				So(e.MatchesWon, ShouldEqual, 1)
			})
		})
	})
}

func TestService_Trap(t *testing.T) {
	Convey("Given a service whose next cue is a trap", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		svc := newService(clock, &seqRand{floats: []float64{0, 0.1}}, model.RoundConfig{Players: 3, TargetScore: 5, Keys: []model.Key{"a", "l", "q"}})
		in := newReflexes(clock)

		Convey("When one player presses on it", func() {
			in.after["q"] = 300 * time.Millisecond
			rep, err := svc.PlayRound(ctx, in, in)

			Convey("Then that player faults", func() {
				So(err, ShouldBeNil)
				So(rep.Cue, ShouldEqual, model.CueTrap)
				So(rep.Outcome.Kind, ShouldEqual, model.OutcomeFault)
				So(rep.Outcome.Players, ShouldResemble, []int{2})
				So(rep.Scores, ShouldResemble, []int{0, 0, 0})
			})
		})

		Convey("When nobody presses", func() {
			rep, err := svc.PlayRound(ctx, in, in)

			Convey("Then the round times out with no response", func() {
				So(err, ShouldBeNil)
				So(rep.Outcome.Kind, ShouldEqual, model.OutcomeNoResponse)
			})
		})
	})
}

func TestService_Reconfigure(t *testing.T) {
	Convey("Given a service mid-match", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClock()
		svc := newService(clock, &seqRand{floats: []float64{0, 0.5}}, model.DefaultRoundConfig())
		in := newReflexes(clock)
		in.after["a"] = 250 * time.Millisecond
		_, err := svc.PlayRound(ctx, in, in)
		So(err, ShouldBeNil)
		old := svc.MatchID()

		Convey("When reconfigured for three players", func() {
			cfg := model.RoundConfig{Players: 3, TargetScore: 4, Keys: []model.Key{"a", "l", "z"}}
			err := svc.Reconfigure(ctx, cfg)

			Convey("Then a new match starts with the new bindings", func() {
				So(err, ShouldBeNil)
				So(svc.MatchID(), ShouldNotEqual, old)
				So(svc.RoundConfig().Keys, ShouldResemble, cfg.Keys)
				So(svc.Match().Scores, ShouldResemble, []int{0, 0, 0})
			})

			Convey("And the third player's key scores", func() {
				in := newReflexes(clock)
				in.after["z"] = 190 * time.Millisecond
				rep, err := svc.PlayRound(ctx, in, in)
				So(err, ShouldBeNil)
				So(rep.Outcome.Players, ShouldResemble, []int{2})
			})
		})

		Convey("When reconfigured with duplicate keys", func() {
			err := svc.Reconfigure(ctx, model.RoundConfig{Players: 2, TargetScore: 3, Keys: []model.Key{"a", "a"}})

			Convey("Then it is rejected and the match continues", func() {
				So(errors.Is(err, model.ErrKeyBindings), ShouldBeTrue)
				So(svc.MatchID(), ShouldEqual, old)
				So(svc.Match().Scores, ShouldResemble, []int{1, 0})
			})
		})

		Convey("When the returned config is modified", func() {
			cfg := svc.RoundConfig()
			cfg.Keys[0] = "x"

			Convey("Then the service is unaffected", func() {
				So(svc.RoundConfig().Keys[0], ShouldEqual, model.Key("a"))
			})
		})
	})
}
