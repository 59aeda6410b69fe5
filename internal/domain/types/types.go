// Package types holds the JSON shapes served over HTTP and the live feed.
package types

import (
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Capture is one player's first press in a round.
type Capture struct {
	Player     int     `json:"player"`
	ElapsedMS  float64 `json:"elapsed_ms"`
	DetectedBy string  `json:"detected_by"`
}

// Round is the public view of a finished round.
type Round struct {
	MatchID    string    `json:"match_id"`
	Round      int       `json:"round"`
	Cue        string    `json:"cue,omitempty"`
	CueColor   string    `json:"cue_color,omitempty"`
	Outcome    string    `json:"outcome"`
	Players    []int     `json:"players,omitempty"`
	ReactionMS *float64  `json:"reaction_ms,omitempty"`
	Captures   []Capture `json:"captures,omitempty"`
	Scores     []int     `json:"scores"`
	Concluded  bool      `json:"concluded"`
	Winners    []int     `json:"winners,omitempty"`
	At         time.Time `json:"at"`
}

// Standing is one row of the standings table.
type Standing struct {
	Rank           int      `json:"rank"`
	Player         int      `json:"player"`
	Score          int      `json:"score"`
	RoundsWon      int      `json:"rounds_won"`
	Faults         int      `json:"faults"`
	FalseStarts    int      `json:"false_starts"`
	MatchesWon     int      `json:"matches_won"`
	MatchesDrawn   int      `json:"matches_drawn"`
	BestReactionMS *float64 `json:"best_reaction_ms,omitempty"`
}

// Stats summarizes the running process.
type Stats struct {
	MatchID       string    `json:"match_id"`
	Round         int       `json:"round"`
	Players       int       `json:"players"`
	TargetScore   int       `json:"target_score"`
	Scores        []int     `json:"scores"`
	Concluded     bool      `json:"concluded"`
	RoundsPlayed  int64     `json:"rounds_played"`
	ReportsQueued int       `json:"reports_queued"`
	Subscribers   int       `json:"subscribers"`
	Uptime        string    `json:"uptime"`
	StartedAt     time.Time `json:"started_at"`
}

// Error is the body of every non-2xx API response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// FromReport builds the public view of a report. Cue fields are left out
// when the round ended before a cue was shown.
func FromReport(r model.RoundReport) Round { //nolint:gocritic // hugeParam
	out := Round{
		MatchID:   r.MatchID,
		Round:     r.Round,
		Outcome:   r.Outcome.Kind.String(),
		Players:   r.Outcome.Players,
		Scores:    r.Scores,
		Concluded: r.Concluded,
		Winners:   r.Winners,
		At:        r.At,
	}
	if r.CueShown {
		out.Cue = r.Cue.String()
		out.CueColor = r.CueColor
	}
	if r.Outcome.HasTime() {
		ms := Millis(r.Outcome.Time)
		out.ReactionMS = &ms
	}
	for _, c := range r.Captures {
		out.Captures = append(out.Captures, Capture{
			Player:     c.Player,
			ElapsedMS:  Millis(c.Elapsed),
			DetectedBy: c.Source.String(),
		})
	}
	return out
}
