// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"time"
)

// CueKind is the variant of the "GO" cue shown in a round.
type CueKind int

const (
	// CueSafe is the only cue on which pressing is rewarded.
	CueSafe CueKind = iota
	// CueTrap penalizes every press.
	CueTrap
)

func (k CueKind) String() string {
	switch k {
	case CueSafe:
		return "safe"
	case CueTrap:
		return "trap"
	default:
		return fmt.Sprintf("cue(%d)", int(k))
	}
}

// Source names the detection path that produced a capture.
type Source int

const (
	// SourceEvent is a discrete key-down notification.
	SourceEvent Source = iota
	// SourcePoll is an instantaneous key-state read.
	SourcePoll
)

func (s Source) String() string {
	switch s {
	case SourceEvent:
		return "event"
	case SourcePoll:
		return "poll"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// CapturedPress is the first detection of a player's bound key in a round.
type CapturedPress struct {
	Player  int
	Elapsed time.Duration // since the cue was shown
	Source  Source
}

// OutcomeKind tags a RoundOutcome.
type OutcomeKind int

const (
	OutcomeWinner OutcomeKind = iota
	OutcomeFault
	OutcomeTie
	OutcomeNoResponse
	OutcomeFalseStart
	OutcomeMenuRequested
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeWinner:
		return "winner"
	case OutcomeFault:
		return "fault"
	case OutcomeTie:
		return "tie"
	case OutcomeNoResponse:
		return "no_response"
	case OutcomeFalseStart:
		return "false_start"
	case OutcomeMenuRequested:
		return "menu_requested"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// RoundOutcome is the single result of a round. Players and Time are only
// meaningful for the kinds that define them: Winner and Fault carry both,
// FalseStart carries exactly one player and no time.
type RoundOutcome struct {
	Kind    OutcomeKind
	Players []int
	Time    time.Duration
}

// Winner builds a Winner outcome.
func Winner(players []int, t time.Duration) RoundOutcome {
	return RoundOutcome{Kind: OutcomeWinner, Players: players, Time: t}
}

// Fault builds a Fault outcome.
func Fault(players []int, t time.Duration) RoundOutcome {
	return RoundOutcome{Kind: OutcomeFault, Players: players, Time: t}
}

// FalseStart builds a FalseStart outcome for one offender.
func FalseStart(player int) RoundOutcome {
	return RoundOutcome{Kind: OutcomeFalseStart, Players: []int{player}}
}

// Tie builds a Tie outcome.
func Tie() RoundOutcome { return RoundOutcome{Kind: OutcomeTie} }

// NoResponse builds a NoResponse outcome.
func NoResponse() RoundOutcome { return RoundOutcome{Kind: OutcomeNoResponse} }

// MenuRequested builds a MenuRequested outcome.
func MenuRequested() RoundOutcome { return RoundOutcome{Kind: OutcomeMenuRequested} }

// HasTime reports whether the outcome carries a reaction time.
func (o RoundOutcome) HasTime() bool {
	return o.Kind == OutcomeWinner || o.Kind == OutcomeFault
}

// Equal compares two outcomes by kind, players and time.
func (o RoundOutcome) Equal(other RoundOutcome) bool {
	if o.Kind != other.Kind || o.Time != other.Time || len(o.Players) != len(other.Players) {
		return false
	}
	for i := range o.Players {
		if o.Players[i] != other.Players[i] {
			return false
		}
	}
	return true
}

func (o RoundOutcome) String() string {
	if o.HasTime() {
		return fmt.Sprintf("%s(%v, %.3fs)", o.Kind, o.Players, o.Time.Seconds())
	}
	if len(o.Players) > 0 {
		return fmt.Sprintf("%s(%v)", o.Kind, o.Players)
	}
	return o.Kind.String()
}
