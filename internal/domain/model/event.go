package model

import "time"

// KeyEvent is a discrete key notification stamped by the input source.
type KeyEvent struct {
	Key     Key
	Pressed bool
	At      time.Time
}

// MatchState is the running score of a match.
type MatchState struct {
	Scores    []int
	Round     int
	Concluded bool
}

// Clone returns a deep copy.
func (s MatchState) Clone() MatchState {
	out := s
	out.Scores = append([]int(nil), s.Scores...)
	return out
}

// TrapVariants are the colors a trap cue may use.
var TrapVariants = []string{"red", "orange", "blue", "purple"}

// RoundReport is what a finished round leaves behind for recorders and
// live subscribers.
type RoundReport struct {
	MatchID   string
	Round     int
	CueShown  bool
	Cue       CueKind
	CueColor  string
	Outcome   RoundOutcome
	Captures  []CapturedPress
	Scores    []int
	Concluded bool
	Winners   []int
	At        time.Time
}
