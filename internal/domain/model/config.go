package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxPlayers is the number of slots in a capture arena.
const MaxPlayers = 8

// Key identifies a bindable key by its lowercase name, e.g. "a".
type Key string

// DefaultKeys are the bindings of players 0..7.
var DefaultKeys = []Key{"a", "l", "q", "p", "z", "m", "c", "k"}

// NormalizeKey lowercases and trims a key name.
func NormalizeKey(s string) Key {
	return Key(strings.ToLower(strings.TrimSpace(s)))
}

// Configuration errors.
var (
	ErrPlayerCount  = errors.New("player count must be between 2 and 8")
	ErrTargetScore  = errors.New("target score must be at least 1")
	ErrKeyBindings  = errors.New("each player needs a distinct, non-empty key")
	ErrTimingBounds = errors.New("invalid round timing")
)

// RoundConfig fixes the players of a match and their bindings.
type RoundConfig struct {
	Players     int
	TargetScore int
	Keys        []Key
}

// DefaultRoundConfig returns the two player, first-to-ten setup.
func DefaultRoundConfig() RoundConfig {
	keys := make([]Key, 2)
	copy(keys, DefaultKeys)
	return RoundConfig{Players: 2, TargetScore: 10, Keys: keys}
}

// Validate checks player count, target and key uniqueness.
func (c RoundConfig) Validate() error {
	if c.Players < 2 || c.Players > MaxPlayers {
		return fmt.Errorf("%w: got %d", ErrPlayerCount, c.Players)
	}
	if c.TargetScore < 1 {
		return fmt.Errorf("%w: got %d", ErrTargetScore, c.TargetScore)
	}
	if len(c.Keys) < c.Players {
		return fmt.Errorf("%w: %d keys for %d players", ErrKeyBindings, len(c.Keys), c.Players)
	}
	seen := make(map[Key]struct{}, c.Players)
	for _, k := range c.Keys[:c.Players] {
		if k == "" {
			return ErrKeyBindings
		}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: %q bound twice", ErrKeyBindings, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// PlayerFor returns the player bound to k among the first Players keys.
func (c RoundConfig) PlayerFor(k Key) (int, bool) {
	for i := 0; i < c.Players && i < len(c.Keys); i++ {
		if c.Keys[i] == k {
			return i, true
		}
	}
	return 0, false
}

// Timing holds the tunable durations of a round.
type Timing struct {
	MinWait          time.Duration
	MaxWait          time.Duration
	TrapProbability  float64
	Settle           time.Duration
	ResponseTimeout  time.Duration
	TieEpsilon       time.Duration
	AggressiveWindow time.Duration
	BusyPollSleep    time.Duration
	PollInterval     time.Duration
	RelaxedTickHz    int
}

// DefaultTiming returns the stock tuning.
func DefaultTiming() Timing {
	return Timing{
		MinWait:          1000 * time.Millisecond,
		MaxWait:          2200 * time.Millisecond,
		TrapProbability:  0.2,
		Settle:           80 * time.Millisecond,
		ResponseTimeout:  2 * time.Second,
		TieEpsilon:       600 * time.Microsecond,
		AggressiveWindow: 800 * time.Millisecond,
		BusyPollSleep:    time.Millisecond,
		PollInterval:     2 * time.Millisecond,
		RelaxedTickHz:    480,
	}
}

// Validate rejects orderings the state machine cannot honor.
func (t Timing) Validate() error {
	switch {
	case t.MinWait <= 0 || t.MaxWait <= t.MinWait:
		return fmt.Errorf("%w: wait range [%v, %v)", ErrTimingBounds, t.MinWait, t.MaxWait)
	case t.TrapProbability < 0 || t.TrapProbability > 1:
		return fmt.Errorf("%w: trap probability %v", ErrTimingBounds, t.TrapProbability)
	case t.Settle < 0 || t.ResponseTimeout <= 0:
		return fmt.Errorf("%w: settle %v, timeout %v", ErrTimingBounds, t.Settle, t.ResponseTimeout)
	case t.TieEpsilon <= 0:
		return fmt.Errorf("%w: tie epsilon %v", ErrTimingBounds, t.TieEpsilon)
	case t.BusyPollSleep <= 0 || t.PollInterval <= 0 || t.RelaxedTickHz <= 0:
		return fmt.Errorf("%w: poll cadence", ErrTimingBounds)
	}
	return nil
}

// RelaxedTick is the loop period once the aggressive window has passed.
func (t Timing) RelaxedTick() time.Duration {
	return time.Second / time.Duration(t.RelaxedTickHz)
}
