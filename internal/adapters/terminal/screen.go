// Package terminal is the tcell front-end: menus, the round screens and
// the key pump that feeds the round loop.
package terminal

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/okian/duel/internal/domain/model"
)

// Screen is the part of tcell.Screen the game draws with.
type Screen interface {
	SetContent(x, y int, primary rune, combining []rune, style tcell.Style)
	Size() (width, height int)
	Fill(r rune, style tcell.Style)
	Show()
	Sync()
	PollEvent() tcell.Event
}

var (
	styleBase   = tcell.StyleDefault.Background(tcell.NewRGBColor(20, 24, 35)).Foreground(tcell.ColorWhite)
	styleTitle  = styleBase.Foreground(tcell.ColorAqua).Bold(true)
	styleMuted  = styleBase.Foreground(tcell.ColorGray)
	styleAccent = styleBase.Foreground(tcell.ColorPurple)
	styleGood   = styleBase.Foreground(tcell.ColorGreen).Bold(true)
	styleBad    = styleBase.Foreground(tcell.ColorRed).Bold(true)
	styleWarn   = styleBase.Foreground(tcell.ColorYellow).Bold(true)
	styleSelect = styleBase.Background(tcell.ColorDarkSlateGray).Bold(true)
)

var cueColors = map[string]tcell.Color{
	"green":  tcell.ColorGreen,
	"red":    tcell.ColorRed,
	"orange": tcell.ColorOrange,
	"blue":   tcell.ColorBlue,
	"purple": tcell.ColorPurple,
}

var playerColors = []tcell.Color{
	tcell.ColorBlue, tcell.ColorGreen, tcell.ColorPurple, tcell.ColorOrange, tcell.ColorAqua,
}

func playerStyle(p int) tcell.Style {
	return styleBase.Foreground(playerColors[p%len(playerColors)]).Bold(true)
}

func cueStyle(kind model.CueKind, variant string) tcell.Style {
	c, ok := cueColors[variant]
	if !ok {
		c = tcell.ColorGreen
		if kind == model.CueTrap {
			c = tcell.ColorRed
		}
	}
	return tcell.StyleDefault.Background(c).Foreground(tcell.ColorWhite).Bold(true)
}

// canvas draws centered lines on a Screen.
type canvas struct {
	s Screen
}

func (c canvas) clear(st tcell.Style) {
	c.s.Fill(' ', st)
}

// line draws text centered horizontally, dy rows from the middle.
func (c canvas) line(dy int, text string, st tcell.Style) {
	w, h := c.s.Size()
	x := max(0, (w-runewidth.StringWidth(text))/2)
	y := h/2 + dy
	if y < 0 || y >= h {
		return
	}
	for _, r := range text {
		rw := runewidth.RuneWidth(r)
		if x+rw > w {
			break
		}
		c.s.SetContent(x, y, r, nil, st)
		x += max(rw, 1)
	}
}

// banner draws text in block letters centered at dy.
func (c canvas) banner(dy int, text string, st tcell.Style) {
	rows := make([]string, glyphHeight)
	for _, r := range text {
		g, ok := glyphs[r]
		if !ok {
			continue
		}
		for i := range rows {
			rows[i] += g[i] + " "
		}
	}
	for i, row := range rows {
		c.line(dy+i-glyphHeight/2, row, st)
	}
}

const glyphHeight = 5

var glyphs = map[rune][glyphHeight]string{
	'G': {" ████ ", "██    ", "██ ███", "██  ██", " ████ "},
	'O': {" ████ ", "██  ██", "██  ██", "██  ██", " ████ "},
	'!': {"██", "██", "██", "  ", "██"},
}
