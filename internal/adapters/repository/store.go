// Package repository keeps per-player standings and recent round history
// for the lifetime of the process.
package repository

import (
	"context"
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Entry is one row of the standings table.
type Entry struct {
	Rank         int
	Player       int
	Score        int // in the current match
	RoundsWon    int
	Faults       int
	FalseStarts  int
	MatchesWon   int
	MatchesDrawn int
	BestReaction time.Duration // zero until the player wins a round
	LastMatchID  string
}

// Store provides read/write access to standings and history.
type Store interface {
	// Record folds a finished round into the standings. A report for a
	// (match, round) pair already recorded is ignored.
	Record(ctx context.Context, r model.RoundReport) error

	// Standings returns every tracked player, best first.
	Standings(ctx context.Context) []Entry

	// Standing returns one player's row.
	// Returns ErrNotFound if the player is unknown.
	Standing(ctx context.Context, player int) (Entry, error)

	// History returns up to n most recent reports, newest first.
	History(ctx context.Context, n int) ([]model.RoundReport, error)

	// Count returns the number of players tracked.
	Count(ctx context.Context) int

	// Reset forgets everything.
	Reset(ctx context.Context)
}
