// Package capture records the first press of every player in a round.
package capture

import (
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Slots is a fixed arena of optional first-capture slots indexed by player
// ordinal. A slot, once set, is immutable until Reset.
type Slots struct {
	players int
	count   int
	set     [model.MaxPlayers]bool
	press   [model.MaxPlayers]model.CapturedPress
}

// NewSlots returns an empty arena sized for players. Counts outside
// [0, MaxPlayers] are clamped.
func NewSlots(players int) *Slots {
	s := &Slots{}
	s.Reset(players)
	return s
}

// Reset clears every slot and resizes the arena.
func (s *Slots) Reset(players int) {
	if players < 0 {
		players = 0
	}
	if players > model.MaxPlayers {
		players = model.MaxPlayers
	}
	s.players = players
	s.count = 0
	s.set = [model.MaxPlayers]bool{}
	s.press = [model.MaxPlayers]model.CapturedPress{}
}

// Record stores a capture for player unless one already exists.
// Returns true if the capture was newly recorded, false if the slot was
// already taken or the player is out of range.
func (s *Slots) Record(player int, elapsed time.Duration, src model.Source) bool {
	if player < 0 || player >= s.players || s.set[player] {
		return false
	}
	s.set[player] = true
	s.press[player] = model.CapturedPress{Player: player, Elapsed: elapsed, Source: src}
	s.count++
	return true
}

// Get returns the capture of player, if any.
func (s *Slots) Get(player int) (model.CapturedPress, bool) {
	if player < 0 || player >= s.players || !s.set[player] {
		return model.CapturedPress{}, false
	}
	return s.press[player], true
}

// Has reports whether player already holds a capture.
func (s *Slots) Has(player int) bool {
	return player >= 0 && player < s.players && s.set[player]
}

// Pressed appends the captures in player order to dst and returns it.
func (s *Slots) Pressed(dst []model.CapturedPress) []model.CapturedPress {
	for i := 0; i < s.players; i++ {
		if s.set[i] {
			dst = append(dst, s.press[i])
		}
	}
	return dst
}

// Len is the number of captured players.
func (s *Slots) Len() int { return s.count }

// Players is the arena size.
func (s *Slots) Players() int { return s.players }

// Full reports whether every player has been captured.
func (s *Slots) Full() bool { return s.count == s.players }
