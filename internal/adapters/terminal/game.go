package terminal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/okian/duel/internal/adapters/input"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/round"
	"github.com/okian/duel/pkg/logger"
)

// Session is the game state the front-end drives.
type Session interface {
	PlayRound(ctx context.Context, in round.Input, p round.Presenter) (model.RoundReport, error)
	Rematch(ctx context.Context)
	Reconfigure(ctx context.Context, cfg model.RoundConfig) error
	RoundConfig() model.RoundConfig
}

// Sounds plays cue and result tones.
type Sounds interface {
	PlayCue(kind model.CueKind)
	PlayOutcome(out model.RoundOutcome)
}

type nopSounds struct{}

func (nopSounds) PlayCue(model.CueKind)         {}
func (nopSounds) PlayOutcome(model.RoundOutcome) {}

type view int

const (
	viewMenu view = iota
	viewKeys
	viewCaptureKey
	viewRules
	viewControls
	viewRound
	viewResult
	viewPaused
	viewMatchOver
)

const (
	itemStart = iota
	itemPoints
	itemPlayers
	itemKeys
	itemRules
	itemControls
	itemQuit
	itemCount
)

const maxTargetScore = 99

// keyPress is a key notification detached from tcell's event type.
type keyPress struct {
	key    tcell.Key
	r      rune
	at     time.Time
	resize bool
}

// Option configures a Game.
type Option func(*Game)

// WithSounds plays tones on cue and result.
func WithSounds(s Sounds) Option {
	return func(g *Game) {
		if s != nil {
			g.sounds = s
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Game) {
		if l != nil {
			g.log = l
		}
	}
}

// Game owns the screen and walks the player through menus, rounds and
// results.
type Game struct {
	screen  Screen
	session Session
	input   *input.Buffer
	sounds  Sounds
	log     logger.Logger
	c       canvas

	events  chan keyPress
	inRound atomic.Bool
	cancel  context.CancelFunc

	view   view
	resume view // view to return to from pause
	cursor int  // menu item or key slot
	draft  model.RoundConfig
	last   model.RoundReport
	scores []int
	notice string
}

// New creates a game on screen. Key presses during a round are pushed to
// in.
func New(screen Screen, session Session, in *input.Buffer, opts ...Option) *Game {
	g := &Game{
		screen:  screen,
		session: session,
		input:   in,
		sounds:  nopSounds{},
		log:     logger.Nop(),
		c:       canvas{s: screen},
		events:  make(chan keyPress, 32),
		draft:   cloneConfig(session.RoundConfig()),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.resetScores()
	return g
}

// Run shows the menu and blocks until the player quits or ctx ends.
func (g *Game) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g.cancel = cancel
	go g.pump()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if g.view == viewRound {
			if err := g.playRound(ctx); err != nil {
				return err
			}
			continue
		}
		g.draw()
		select {
		case <-ctx.Done():
			return nil
		case k, ok := <-g.events:
			if !ok {
				return nil
			}
			if g.handle(ctx, k) {
				return nil
			}
		}
	}
}

// pump forwards screen events until the screen is finalized.
func (g *Game) pump() {
	for {
		ev := g.screen.PollEvent()
		if ev == nil {
			return
		}
		switch e := ev.(type) {
		case *tcell.EventKey:
			g.route(keyPress{key: e.Key(), r: e.Rune(), at: e.When()})
		case *tcell.EventResize:
			g.route(keyPress{resize: true})
		}
	}
}

// route sends a key to the running round or to the menu loop.
func (g *Game) route(k keyPress) {
	if k.key == tcell.KeyCtrlC {
		if g.cancel != nil {
			g.cancel()
		}
		return
	}
	if g.inRound.Load() && !k.resize {
		switch k.key {
		case tcell.KeyEscape:
			g.input.RequestCancel()
		case tcell.KeyRune:
			g.input.Press(model.NormalizeKey(string(k.r)), k.at)
		}
		return
	}
	select {
	case g.events <- k:
	default:
	}
}

func (g *Game) playRound(ctx context.Context) error {
	g.input.Clear()
	g.inRound.Store(true)
	rep, err := g.session.PlayRound(ctx, g.input, g)
	g.inRound.Store(false)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		g.log.Error(ctx, "round failed", logger.Error(err))
		g.notice = err.Error()
		g.view = viewMenu
		return nil
	}

	g.last = rep
	if rep.Outcome.Kind == model.OutcomeMenuRequested {
		g.view, g.resume = viewPaused, viewRound
		return nil
	}
	g.scores = append(g.scores[:0], rep.Scores...)
	g.sounds.PlayOutcome(rep.Outcome)
	g.view = viewResult
	return nil
}

// ShowWaiting draws the pre-cue screen.
func (g *Game) ShowWaiting(round int) {
	g.c.clear(styleBase)
	g.c.line(-6, fmt.Sprintf("Round %d", round), styleAccent)
	g.c.line(-3, "Wait for it...", styleWarn)
	g.c.line(1, g.scoreLine(), styleBase)
	g.c.line(4, g.keyLine(), styleMuted)
	g.screen.Show()
}

// ShowCue draws the cue.
func (g *Game) ShowCue(kind model.CueKind, variant string) {
	st := cueStyle(kind, variant)
	g.c.clear(st)
	g.c.banner(-2, "GO!", st)
	g.screen.Show()
	g.sounds.PlayCue(kind)
}

// handle applies a key outside of a round. It reports whether to quit.
func (g *Game) handle(ctx context.Context, k keyPress) bool {
	if k.resize {
		g.screen.Sync()
		return false
	}
	switch g.view {
	case viewMenu:
		return g.handleMenu(ctx, k)
	case viewKeys:
		g.handleKeys(k)
	case viewCaptureKey:
		g.handleCapture(k)
	case viewRules, viewControls:
		if k.key == tcell.KeyEnter || k.key == tcell.KeyEscape {
			g.view = viewMenu
		}
	case viewResult:
		switch {
		case k.key == tcell.KeyRune && k.r == ' ':
			if g.last.Concluded {
				g.view = viewMatchOver
			} else {
				g.view = viewRound
			}
		case k.key == tcell.KeyEscape:
			g.view, g.resume = viewPaused, viewResult
		}
	case viewPaused:
		switch {
		case k.key == tcell.KeyEscape:
			g.view = g.resume
		case k.key == tcell.KeyRune && (k.r == 'm' || k.r == 'M'):
			g.view = viewMenu
		}
	case viewMatchOver:
		switch {
		case k.key == tcell.KeyRune && k.r == ' ':
			g.session.Rematch(ctx)
			g.resetScores()
			g.view = viewRound
		case k.key == tcell.KeyEnter:
			g.view = viewMenu
		}
	}
	return false
}

func (g *Game) handleMenu(ctx context.Context, k keyPress) bool {
	g.notice = ""
	switch {
	case k.key == tcell.KeyUp:
		g.cursor = (g.cursor + itemCount - 1) % itemCount
	case k.key == tcell.KeyDown || k.key == tcell.KeyTab:
		g.cursor = (g.cursor + 1) % itemCount
	case k.key == tcell.KeyLeft || (k.key == tcell.KeyRune && k.r == '-'):
		g.adjust(-1)
	case k.key == tcell.KeyRight || (k.key == tcell.KeyRune && k.r == '+'):
		g.adjust(1)
	case k.key == tcell.KeyRune && k.r == ' ':
		g.start(ctx)
	case k.key == tcell.KeyEscape:
		return true
	case k.key == tcell.KeyEnter:
		switch g.cursor {
		case itemStart:
			g.start(ctx)
		case itemKeys:
			g.view, g.cursor = viewKeys, 0
		case itemRules:
			g.view = viewRules
		case itemControls:
			g.view = viewControls
		case itemQuit:
			return true
		}
	}
	return false
}

func (g *Game) adjust(delta int) {
	switch g.cursor {
	case itemPoints:
		g.draft.TargetScore = clamp(g.draft.TargetScore+delta, 1, maxTargetScore)
	case itemPlayers:
		g.draft.Players = clamp(g.draft.Players+delta, 2, model.MaxPlayers)
	}
}

func (g *Game) start(ctx context.Context) {
	if err := g.session.Reconfigure(ctx, g.draft); err != nil {
		g.notice = err.Error()
		return
	}
	g.draft = cloneConfig(g.session.RoundConfig())
	g.resetScores()
	g.view = viewRound
}

func (g *Game) handleKeys(k keyPress) {
	switch k.key {
	case tcell.KeyUp:
		g.cursor = (g.cursor + g.draft.Players - 1) % g.draft.Players
	case tcell.KeyDown:
		g.cursor = (g.cursor + 1) % g.draft.Players
	case tcell.KeyEnter:
		g.notice = ""
		g.view = viewCaptureKey
	case tcell.KeyEscape:
		g.view, g.cursor = viewMenu, itemKeys
	}
}

func (g *Game) handleCapture(k keyPress) {
	switch k.key {
	case tcell.KeyEscape:
		g.view = viewKeys
	case tcell.KeyRune:
		key := model.NormalizeKey(string(k.r))
		if p, ok := g.draft.PlayerFor(key); ok && p != g.cursor {
			g.notice = fmt.Sprintf("Key %s already assigned to Player %d", key, p+1)
			return
		}
		g.draft.Keys[g.cursor] = key
		g.notice = ""
		g.view = viewKeys
	}
}

func (g *Game) resetScores() {
	g.scores = make([]int, g.draft.Players)
	g.last = model.RoundReport{}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func cloneConfig(rc model.RoundConfig) model.RoundConfig {
	rc.Keys = append([]model.Key(nil), rc.Keys...)
	for len(rc.Keys) < model.MaxPlayers {
		rc.Keys = append(rc.Keys, model.DefaultKeys[len(rc.Keys)])
	}
	return rc
}
