package terminal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/okian/duel/internal/adapters/input"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	. "github.com/smartystreets/goconvey/convey"
)

// mockScreen keeps a character grid and blocks PollEvent until closed.
type mockScreen struct {
	mu     sync.Mutex
	w, h   int
	cells  [][]rune
	shows  int
	closed chan struct{}
}

func newMockScreen() *mockScreen {
	s := &mockScreen{w: 100, h: 30, closed: make(chan struct{})}
	s.Fill(' ', tcell.StyleDefault)
	return s
}

func (s *mockScreen) SetContent(x, y int, r rune, _ []rune, _ tcell.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if x >= 0 && x < s.w && y >= 0 && y < s.h {
		s.cells[y][x] = r
	}
}

func (s *mockScreen) Size() (int, int) { return s.w, s.h }

func (s *mockScreen) Fill(r rune, _ tcell.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = make([][]rune, s.h)
	for y := range s.cells {
		s.cells[y] = []rune(strings.Repeat(string(r), s.w))
	}
}

func (s *mockScreen) Show() {
	s.mu.Lock()
	s.shows++
	s.mu.Unlock()
}

func (s *mockScreen) Sync() {}

func (s *mockScreen) PollEvent() tcell.Event {
	<-s.closed
	return nil
}

func (s *mockScreen) text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b strings.Builder
	for _, row := range s.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// fakeSession replays scripted outcomes.
type fakeSession struct {
	mu        sync.Mutex
	cfg       model.RoundConfig
	reports   []model.RoundReport
	played    int
	rematches int
	reconfigs []model.RoundConfig
	failWith  error
}

func (f *fakeSession) PlayRound(_ context.Context, _ round.Input, p round.Presenter) (model.RoundReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return model.RoundReport{}, f.failWith
	}
	rep := f.reports[f.played%len(f.reports)]
	f.played++
	p.ShowWaiting(rep.Round)
	if rep.CueShown {
		p.ShowCue(rep.Cue, rep.CueColor)
	}
	return rep, nil
}

func (f *fakeSession) Rematch(context.Context) {
	f.mu.Lock()
	f.rematches++
	f.mu.Unlock()
}

func (f *fakeSession) Reconfigure(_ context.Context, cfg model.RoundConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	f.reconfigs = append(f.reconfigs, cfg)
	return nil
}

func (f *fakeSession) RoundConfig() model.RoundConfig { return f.cfg }

type countingSounds struct{ cues, outcomes int }

func (c *countingSounds) PlayCue(model.CueKind)         { c.cues++ }
func (c *countingSounds) PlayOutcome(model.RoundOutcome) { c.outcomes++ }

func press(r rune) keyPress      { return keyPress{key: tcell.KeyRune, r: r} }
func special(k tcell.Key) keyPress { return keyPress{key: k} }

func TestMenu(t *testing.T) {
	Convey("Given a game at the menu", t, func() {
		ctx := context.Background()
		scr := newMockScreen()
		sess := &fakeSession{cfg: model.DefaultRoundConfig()}
		g := New(scr, sess, input.NewBuffer())

		Convey("When the menu is drawn", func() {
			g.draw()
			So(scr.text(), ShouldContainSubstring, "REACTION DUEL")
			So(scr.text(), ShouldContainSubstring, "P1=A  P2=L")
		})

		Convey("When players and points are adjusted within bounds", func() {
			g.handle(ctx, special(tcell.KeyDown))
			for i := 0; i < 3; i++ {
				g.handle(ctx, special(tcell.KeyLeft))
			}
			So(g.draft.TargetScore, ShouldEqual, 7)
			g.handle(ctx, special(tcell.KeyDown))
			for i := 0; i < 10; i++ {
				g.handle(ctx, special(tcell.KeyRight))
			}
			So(g.draft.Players, ShouldEqual, model.MaxPlayers)
			for i := 0; i < 10; i++ {
				g.handle(ctx, press('-'))
			}
			So(g.draft.Players, ShouldEqual, 2)
		})

		Convey("When the game is started", func() {
			g.draft.TargetScore = 3
			g.handle(ctx, press(' '))

			Convey("Then the session is reconfigured and a round begins", func() {
				So(len(sess.reconfigs), ShouldEqual, 1)
				So(sess.reconfigs[0].TargetScore, ShouldEqual, 3)
				So(g.view, ShouldEqual, viewRound)
			})
		})

		Convey("When the rules are opened and closed", func() {
			g.cursor = itemRules
			g.handle(ctx, special(tcell.KeyEnter))
			So(g.view, ShouldEqual, viewRules)
			g.draw()
			So(scr.text(), ShouldContainSubstring, "Game Rules")
			g.handle(ctx, special(tcell.KeyEnter))
			So(g.view, ShouldEqual, viewMenu)
		})

		Convey("When a key is rebound", func() {
			g.cursor = itemKeys
			g.handle(ctx, special(tcell.KeyEnter))
			g.handle(ctx, special(tcell.KeyDown))
			g.handle(ctx, special(tcell.KeyEnter))
			So(g.view, ShouldEqual, viewCaptureKey)

			Convey("Then a key already in use is refused", func() {
				g.handle(ctx, press('A'))
				So(g.view, ShouldEqual, viewCaptureKey)
				So(g.notice, ShouldContainSubstring, "already assigned to Player 1")
			})

			Convey("Then a free key is stored without touching the session", func() {
				g.handle(ctx, press('X'))
				So(g.view, ShouldEqual, viewKeys)
				So(g.draft.Keys[1], ShouldEqual, model.Key("x"))
				So(sess.cfg.Keys[1], ShouldEqual, model.Key("l"))
			})
		})

		Convey("When ESC is pressed", func() {
			So(g.handle(ctx, special(tcell.KeyEscape)), ShouldBeTrue)
		})
	})
}

func TestRoundKeys(t *testing.T) {
	Convey("Given a game with a round in progress", t, func() {
		buf := input.NewBuffer()
		g := New(newMockScreen(), &fakeSession{cfg: model.DefaultRoundConfig()}, buf)
		g.inRound.Store(true)

		Convey("Then letters go to the input buffer", func() {
			g.route(keyPress{key: tcell.KeyRune, r: 'L', at: time.Unix(5, 0)})
			evs := buf.Drain(nil)
			So(len(evs), ShouldEqual, 1)
			So(evs[0].Key, ShouldEqual, model.Key("l"))
			So(evs[0].At, ShouldEqual, time.Unix(5, 0))
			So(len(g.events), ShouldEqual, 0)
		})

		Convey("Then ESC asks the round to stop", func() {
			g.route(special(tcell.KeyEscape))
			So(buf.CancelRequested(), ShouldBeTrue)
		})

		Convey("Then keys after the round go to the menu loop", func() {
			g.inRound.Store(false)
			g.route(press('a'))
			So(len(g.events), ShouldEqual, 1)
			So(buf.Drain(nil), ShouldBeEmpty)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a two round match to one point", t, func() {
		scr := newMockScreen()
		defer close(scr.closed)
		cfg := model.DefaultRoundConfig()
		sess := &fakeSession{
			cfg: cfg,
			reports: []model.RoundReport{
				{Round: 1, Outcome: model.FalseStart(1), Scores: []int{0, 0}},
				{Round: 2, CueShown: true, Cue: model.CueSafe, CueColor: "green",
					Outcome: model.Winner([]int{0}, 231*time.Millisecond), Scores: []int{1, 0},
					Concluded: true, Winners: []int{0}},
			},
		}
		sounds := &countingSounds{}
		g := New(scr, sess, input.NewBuffer(), WithSounds(sounds))

		// start, next round, to match over, back to menu, quit
		for _, k := range []keyPress{press(' '), press(' '), press(' '), special(tcell.KeyEnter), special(tcell.KeyEscape)} {
			g.route(k)
		}

		done := make(chan error, 1)
		go func() { done <- g.Run(context.Background()) }()

		Convey("Then it plays both rounds and returns on quit", func() {
			var err error
			select {
			case err = <-done:
			case <-time.After(2 * time.Second):
				So("timeout", ShouldBeEmpty)
			}
			So(err, ShouldBeNil)
			So(sess.played, ShouldEqual, 2)
			So(sounds.outcomes, ShouldEqual, 2)
			So(sounds.cues, ShouldEqual, 1)
			So(g.scores, ShouldResemble, []int{1, 0})
			So(g.view, ShouldEqual, viewMenu)
		})
	})

	Convey("Given a session that fails to play", t, func() {
		scr := newMockScreen()
		defer close(scr.closed)
		sess := &fakeSession{cfg: model.DefaultRoundConfig(), failWith: errors.New("match is over")}
		g := New(scr, sess, input.NewBuffer())
		g.route(press(' '))
		g.route(special(tcell.KeyEscape))

		Convey("Then the error is shown on the menu", func() {
			So(g.Run(context.Background()), ShouldBeNil)
			So(scr.text(), ShouldContainSubstring, "match is over")
		})
	})
}

func TestScreens(t *testing.T) {
	Convey("Given a game", t, func() {
		ctx := context.Background()
		scr := newMockScreen()
		sess := &fakeSession{cfg: model.DefaultRoundConfig()}
		g := New(scr, sess, input.NewBuffer())

		Convey("When waiting for the cue", func() {
			g.scores = []int{3, 1}
			g.ShowWaiting(4)
			So(scr.text(), ShouldContainSubstring, "Round 4")
			So(scr.text(), ShouldContainSubstring, "Wait for it...")
			So(scr.text(), ShouldContainSubstring, "P1: 3 | P2: 1")
		})

		Convey("When the cue is shown", func() {
			g.ShowCue(model.CueTrap, "blue")
			So(scr.text(), ShouldContainSubstring, "████")
		})

		Convey("When a round was abandoned", func() {
			g.view, g.resume = viewPaused, viewRound
			g.draw()
			So(scr.text(), ShouldContainSubstring, "PAUSED")

			Convey("Then ESC resumes play and M goes to the menu", func() {
				g.handle(ctx, special(tcell.KeyEscape))
				So(g.view, ShouldEqual, viewRound)
				g.view = viewPaused
				g.handle(ctx, press('m'))
				So(g.view, ShouldEqual, viewMenu)
			})
		})

		Convey("When results are shown", func() {
			cases := []struct {
				out  model.RoundOutcome
				want string
			}{
				{model.Winner([]int{1}, 250*time.Millisecond), "Player 2 Wins!"},
				{model.Fault([]int{0, 1}, 100*time.Millisecond), "P1, P2 pressed on a trap!"},
				{model.FalseStart(0), "Player 1 False Start!"},
				{model.Tie(), "Tie! No points awarded."},
				{model.NoResponse(), "No Response!"},
			}
			for _, tc := range cases {
				g.view = viewResult
				g.last = model.RoundReport{Outcome: tc.out, Scores: []int{0, 0}}
				g.draw()
				So(scr.text(), ShouldContainSubstring, tc.want)
			}
		})

		Convey("When the match is drawn", func() {
			g.view = viewMatchOver
			g.scores = []int{2, 2}
			g.last = model.RoundReport{Concluded: true, Winners: []int{0, 1}}
			g.draw()
			So(scr.text(), ShouldContainSubstring, "It's a Draw! P1, P2")

			Convey("Then SPACE starts a rematch", func() {
				g.handle(ctx, press(' '))
				So(sess.rematches, ShouldEqual, 1)
				So(g.scores, ShouldResemble, []int{0, 0})
				So(g.view, ShouldEqual, viewRound)
			})
		})
	})
}
