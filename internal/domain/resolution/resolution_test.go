package resolution_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/resolution"
	. "github.com/smartystreets/goconvey/convey"
)

func press(player int, ms float64) model.CapturedPress {
	return model.CapturedPress{Player: player, Elapsed: time.Duration(ms * float64(time.Millisecond))}
}

func TestEngineResolve(t *testing.T) {
	Convey("Given a default engine", t, func() {
		e := resolution.NewEngine()

		Convey("Then it uses the stock tuning", func() {
			So(e.Epsilon(), ShouldEqual, 600*time.Microsecond)
			So(e.Timeout(), ShouldEqual, 2*time.Second)
		})

		Convey("When nobody has pressed", func() {
			Convey("And the timeout has not passed", func() {
				_, done := e.Resolve(model.CueSafe, nil, 2*time.Second)
				So(done, ShouldBeFalse)
			})

			Convey("And the timeout has passed", func() {
				out, done := e.Resolve(model.CueSafe, nil, 2*time.Second+time.Millisecond)
				So(done, ShouldBeTrue)
				So(out.Kind, ShouldEqual, model.OutcomeNoResponse)
			})

			Convey("And the cue was a trap", func() {
				out, done := e.Resolve(model.CueTrap, nil, 3*time.Second)
				So(done, ShouldBeTrue)
				So(out.Kind, ShouldEqual, model.OutcomeNoResponse)
			})
		})

		Convey("When a safe cue has distinct presses", func() {
			out, done := e.Resolve(model.CueSafe, []model.CapturedPress{press(0, 210), press(1, 450)}, 460*time.Millisecond)

			Convey("Then the fastest player wins with their time", func() {
				So(done, ShouldBeTrue)
				So(out.Equal(model.Winner([]int{0}, 210*time.Millisecond)), ShouldBeTrue)
			})
		})

		Convey("When a safe cue has two presses inside epsilon of the minimum", func() {
			out, _ := e.Resolve(model.CueSafe, []model.CapturedPress{press(0, 200), press(1, 200.5), press(2, 300)}, time.Second)
			So(out.Kind, ShouldEqual, model.OutcomeTie)
		})

		Convey("When two presses are exactly epsilon apart", func() {
			out, _ := e.Resolve(model.CueSafe, []model.CapturedPress{
				{Player: 0, Elapsed: 200 * time.Millisecond},
				{Player: 1, Elapsed: 200*time.Millisecond + 600*time.Microsecond},
			}, time.Second)

			Convey("Then they are not simultaneous", func() {
				So(out.Kind, ShouldEqual, model.OutcomeWinner)
				So(out.Players, ShouldResemble, []int{0})
			})
		})

		Convey("When a trap cue has one presser at 0.300s", func() {
			out, done := e.Resolve(model.CueTrap, []model.CapturedPress{press(2, 300)}, 310*time.Millisecond)

			Convey("Then that player faults", func() {
				So(done, ShouldBeTrue)
				So(out.Equal(model.Fault([]int{2}, 300*time.Millisecond)), ShouldBeTrue)
			})
		})

		Convey("When a trap cue has several pressers", func() {
			Convey("And one is clearly slowest", func() {
				out, _ := e.Resolve(model.CueTrap, []model.CapturedPress{press(0, 150), press(1, 400), press(3, 250)}, time.Second)
				So(out.Kind, ShouldEqual, model.OutcomeFault)
				So(out.Players, ShouldResemble, []int{1})
				So(out.Time, ShouldEqual, 400*time.Millisecond)
			})

			Convey("And two tie for slowest", func() {
				out, _ := e.Resolve(model.CueTrap, []model.CapturedPress{press(0, 150), press(1, 400), press(3, 399.8)}, time.Second)
				So(out.Kind, ShouldEqual, model.OutcomeTie)
			})

			Convey("And the fastest two tie but the slowest is alone", func() {
				out, _ := e.Resolve(model.CueTrap, []model.CapturedPress{press(0, 150), press(1, 150.1), press(2, 500)}, time.Second)
				So(out.Kind, ShouldEqual, model.OutcomeFault)
				So(out.Players, ShouldResemble, []int{2})
			})
		})

		Convey("When the same frozen captures are resolved twice", func() {
			captures := []model.CapturedPress{press(1, 333), press(0, 120), press(2, 120.2)}
			a, _ := e.Resolve(model.CueSafe, captures, time.Second)
			b, _ := e.Resolve(model.CueSafe, captures, time.Second)

			Convey("Then both outcomes are identical and the input is untouched", func() {
				So(a.Equal(b), ShouldBeTrue)
				So(captures[0].Player, ShouldEqual, 1)
			})
		})
	})
}

func TestEngineProperties(t *testing.T) {
	Convey("Given random safe rounds with well separated presses", t, func() {
		e := resolution.NewEngine()
		rng := rand.New(rand.NewSource(7)) //nolint:gosec // deterministic seed for reproducible testing

		Convey("Then the single minimal player always wins", func() {
			for i := 0; i < 500; i++ {
				n := 1 + rng.Intn(model.MaxPlayers)
				perm := rng.Perm(2000)
				captures := make([]model.CapturedPress, 0, n)
				best, bestAt := -1, time.Duration(1<<62)
				for p := 0; p < n; p++ {
					// one millisecond grid keeps every pair further apart than epsilon
					at := time.Duration(perm[p]) * time.Millisecond
					captures = append(captures, model.CapturedPress{Player: p, Elapsed: at})
					if at < bestAt {
						best, bestAt = p, at
					}
				}
				out, done := e.Resolve(model.CueSafe, captures, 2*time.Second)
				So(done, ShouldBeTrue)
				So(out.Kind, ShouldEqual, model.OutcomeWinner)
				So(out.Players, ShouldResemble, []int{best})
				So(out.Time, ShouldEqual, bestAt)
			}
		})

		Convey("Then a second player inside epsilon of the extreme always ties", func() {
			for i := 0; i < 200; i++ {
				base := time.Duration(100+rng.Intn(1500)) * time.Millisecond
				jitter := time.Duration(rng.Int63n(int64(600 * time.Microsecond)))
				captures := []model.CapturedPress{
					{Player: 0, Elapsed: base},
					{Player: 1, Elapsed: base + jitter},
				}
				safe, _ := e.Resolve(model.CueSafe, captures, 2*time.Second)
				trap, _ := e.Resolve(model.CueTrap, captures, 2*time.Second)
				So(safe.Kind, ShouldEqual, model.OutcomeTie)
				So(trap.Kind, ShouldEqual, model.OutcomeTie)
			}
		})
	})
}
