package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/okian/duel/internal/domain/model"
)

var rules = []string{
	"1. Press your key only when GO! is GREEN.",
	"2. A GO! in any other color is a trap: pressing it costs 1 point.",
	"3. Pressing during 'Wait for it...' is a false start (-1 point).",
	"4. On a green GO!, the fastest player scores 1 point.",
	"5. Exact ties or no response: no points awarded.",
	"6. First to reach the target wins. Press ESC to pause.",
}

func (g *Game) draw() {
	g.c.clear(styleBase)
	switch g.view {
	case viewMenu:
		g.drawMenu()
	case viewKeys, viewCaptureKey:
		g.drawKeys()
	case viewRules:
		g.c.line(-8, "Game Rules", styleTitle)
		for i, r := range rules {
			g.c.line(-5+2*i, r, styleMuted)
		}
		g.c.line(9, "Press ENTER to return", styleAccent)
	case viewControls:
		g.drawControls()
	case viewResult:
		g.drawResult()
	case viewPaused:
		g.c.line(-3, "PAUSED", styleTitle)
		g.c.line(0, "Press ESC to resume", styleGood)
		g.c.line(2, "Press M for menu", styleMuted)
	case viewMatchOver:
		g.drawMatchOver()
	}
	if g.notice != "" {
		_, h := g.screen.Size()
		g.c.line(h/2-2, g.notice, styleBad)
	}
	g.screen.Show()
}

func (g *Game) drawMenu() {
	g.c.line(-10, "REACTION DUEL", styleTitle)
	g.c.line(-8, g.keyLine(), styleMuted)
	items := [itemCount]string{
		itemStart:    "Start Game",
		itemPoints:   fmt.Sprintf("Points to Win: < %d >", g.draft.TargetScore),
		itemPlayers:  fmt.Sprintf("Players: < %d >", g.draft.Players),
		itemKeys:     "Set Player Keys",
		itemRules:    "View Rules",
		itemControls: "View Controls",
		itemQuit:     "Quit Game",
	}
	for i, text := range items {
		st := styleBase
		if i == g.cursor {
			st = styleSelect
			text = "> " + text + " <"
		}
		g.c.line(-5+2*i, text, st)
	}
	g.c.line(10, "UP/DOWN select  LEFT/RIGHT adjust  ENTER choose  SPACE start  ESC quit", styleMuted)
}

func (g *Game) drawKeys() {
	g.c.line(-10, "Player Keys", styleTitle)
	for i := 0; i < g.draft.Players; i++ {
		st := playerStyle(i)
		text := fmt.Sprintf("Player %d: %s", i+1, strings.ToUpper(string(g.draft.Keys[i])))
		if i == g.cursor {
			st = styleSelect
			if g.view == viewCaptureKey {
				text = fmt.Sprintf("Press new key for Player %d", i+1)
			}
		}
		g.c.line(-7+2*i, text, st)
	}
	hint := "UP/DOWN select  ENTER change  ESC done"
	if g.view == viewCaptureKey {
		hint = "Press ESC to cancel"
	}
	g.c.line(10, hint, styleMuted)
}

func (g *Game) drawControls() {
	g.c.line(-8, "Game Controls", styleTitle)
	g.c.line(-5, "Player Keys: "+g.keyLine(), styleMuted)
	g.c.line(-3, "ESC - Pause during a round", styleMuted)
	g.c.line(-1, "SPACE - Next round", styleMuted)
	g.c.line(1, "During Menu:", styleMuted)
	g.c.line(3, "UP/DOWN - Select  LEFT/RIGHT - Adjust Values", styleMuted)
	g.c.line(9, "Press ENTER to return", styleAccent)
}

func (g *Game) drawResult() {
	out := g.last.Outcome
	text, st := resultText(out)
	g.c.line(-6, text, st)
	if out.Kind == model.OutcomeWinner && len(out.Players) == 1 {
		g.c.line(-3, fmt.Sprintf("%.3fs", out.Time.Seconds()), styleTitle)
	}
	if g.last.CueShown && g.last.Cue == model.CueTrap {
		g.c.line(-1, fmt.Sprintf("That was a %s trap", g.last.CueColor), styleMuted)
	}
	g.c.line(2, g.scoreLine(), styleBase)
	g.c.line(7, "Press SPACE for next round", styleMuted)
	g.c.line(8, "Press ESC to pause", styleMuted)
}

func resultText(out model.RoundOutcome) (string, tcell.Style) { //nolint:gocritic // hugeParam
	switch out.Kind {
	case model.OutcomeWinner:
		if len(out.Players) == 1 {
			return fmt.Sprintf("Player %d Wins!", out.Players[0]+1), playerStyle(out.Players[0])
		}
		return playerList(out.Players) + " Win!", styleWarn
	case model.OutcomeFault:
		return playerList(out.Players) + " pressed on a trap!", styleBad
	case model.OutcomeFalseStart:
		return fmt.Sprintf("Player %d False Start!", out.Players[0]+1), styleBad
	case model.OutcomeTie:
		return "Tie! No points awarded.", styleWarn
	case model.OutcomeNoResponse:
		return "No Response!", styleWarn
	default:
		return "", styleBase
	}
}

func (g *Game) drawMatchOver() {
	winners := g.last.Winners
	if len(winners) == 1 {
		g.c.line(-5, fmt.Sprintf("*** Player %d Wins! ***", winners[0]+1), playerStyle(winners[0]))
	} else {
		g.c.line(-5, "It's a Draw! "+playerList(winners), styleWarn)
	}
	g.c.line(-1, "Final Scores: "+g.scoreLine(), styleBase)
	g.c.line(4, "Press SPACE to Play Again", styleGood)
	g.c.line(6, "Press ENTER to Return to Menu", styleMuted)
}

func (g *Game) scoreLine() string {
	parts := make([]string, len(g.scores))
	for i, s := range g.scores {
		parts[i] = fmt.Sprintf("P%d: %d", i+1, s)
	}
	return strings.Join(parts, " | ")
}

func (g *Game) keyLine() string {
	parts := make([]string, g.draft.Players)
	for i := range parts {
		parts[i] = fmt.Sprintf("P%d=%s", i+1, strings.ToUpper(string(g.draft.Keys[i])))
	}
	return strings.Join(parts, "  ")
}

func playerList(ps []int) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("P%d", p+1)
	}
	return strings.Join(parts, ", ")
}
