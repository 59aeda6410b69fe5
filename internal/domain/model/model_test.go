package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/duel/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRoundConfigValidate(t *testing.T) {
	Convey("Given round configurations", t, func() {
		Convey("The default setup is valid", func() {
			cfg := model.DefaultRoundConfig()
			So(cfg.Validate(), ShouldBeNil)
			So(cfg.Keys, ShouldResemble, []model.Key{"a", "l"})
		})

		Convey("Player counts outside 2..8 are rejected", func() {
			for _, n := range []int{0, 1, 9} {
				err := model.RoundConfig{Players: n, TargetScore: 1, Keys: model.DefaultKeys}.Validate()
				So(errors.Is(err, model.ErrPlayerCount), ShouldBeTrue)
			}
		})

		Convey("A zero target is rejected", func() {
			err := model.RoundConfig{Players: 2, TargetScore: 0, Keys: model.DefaultKeys}.Validate()
			So(errors.Is(err, model.ErrTargetScore), ShouldBeTrue)
		})

		Convey("Duplicate, empty or missing keys are rejected", func() {
			dup := model.RoundConfig{Players: 3, TargetScore: 1, Keys: []model.Key{"a", "l", "a"}}
			empty := model.RoundConfig{Players: 2, TargetScore: 1, Keys: []model.Key{"a", ""}}
			short := model.RoundConfig{Players: 3, TargetScore: 1, Keys: []model.Key{"a", "l"}}
			So(errors.Is(dup.Validate(), model.ErrKeyBindings), ShouldBeTrue)
			So(errors.Is(empty.Validate(), model.ErrKeyBindings), ShouldBeTrue)
			So(errors.Is(short.Validate(), model.ErrKeyBindings), ShouldBeTrue)
		})

		Convey("Extra keys beyond the player count are ignored", func() {
			cfg := model.RoundConfig{Players: 2, TargetScore: 1, Keys: []model.Key{"a", "l", "a"}}
			So(cfg.Validate(), ShouldBeNil)
			_, ok := cfg.PlayerFor("a")
			So(ok, ShouldBeTrue)
			p, ok := cfg.PlayerFor("l")
			So(ok, ShouldBeTrue)
			So(p, ShouldEqual, 1)
			_, ok = cfg.PlayerFor("q")
			So(ok, ShouldBeFalse)
		})

		Convey("Key names are normalized", func() {
			So(model.NormalizeKey("  Q "), ShouldEqual, model.Key("q"))
		})
	})
}

func TestTiming(t *testing.T) {
	Convey("Given the default timing", t, func() {
		tm := model.DefaultTiming()

		Convey("It validates and relaxes to 480Hz", func() {
			So(tm.Validate(), ShouldBeNil)
			So(tm.RelaxedTick(), ShouldEqual, time.Second/480)
		})

		Convey("An inverted wait range is rejected", func() {
			tm.MaxWait = tm.MinWait
			So(errors.Is(tm.Validate(), model.ErrTimingBounds), ShouldBeTrue)
		})

		Convey("A probability above one is rejected", func() {
			tm.TrapProbability = 1.5
			So(errors.Is(tm.Validate(), model.ErrTimingBounds), ShouldBeTrue)
		})
	})
}

func TestOutcomes(t *testing.T) {
	Convey("Given round outcomes", t, func() {
		So(model.Winner([]int{0}, time.Second).HasTime(), ShouldBeTrue)
		So(model.Tie().HasTime(), ShouldBeFalse)
		So(model.FalseStart(2).Players, ShouldResemble, []int{2})
		So(model.Fault([]int{1}, 100*time.Millisecond).String(), ShouldEqual, "fault([1], 0.100s)")
		So(model.NoResponse().String(), ShouldEqual, "no_response")
		So(model.Winner([]int{0}, time.Second).Equal(model.Winner([]int{1}, time.Second)), ShouldBeFalse)

		st := model.MatchState{Scores: []int{1, 2}}
		cp := st.Clone()
		cp.Scores[0] = 9
		So(st.Scores[0], ShouldEqual, 1)
	})
}
