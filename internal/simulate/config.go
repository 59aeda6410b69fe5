package simulate

import (
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Config holds configuration for a simulation run.
type Config struct {
	Players     int          // bots at the table
	TargetScore int          // points to win a match
	Matches     int          // matches to play back to back
	MaxRounds   int          // rounds after which an undecided match is abandoned
	Seed        int64        // drives cue timing and every bot
	Profiles    []Profile    // one per player; DefaultProfiles when short
	Timing      model.Timing // round tuning
	Output      string       // optional JSON file for the round history
	Verbose     bool         // print each bot's capture
	Start       time.Time    // simulated wall clock origin
}

// DefaultConfig is a single two-bot match to ten.
func DefaultConfig() Config {
	return Config{
		Players:     2,
		TargetScore: 10,
		Matches:     1,
		MaxRounds:   defaultMaxRounds,
		Seed:        1,
		Timing:      model.DefaultTiming(),
		Start:       time.Unix(1_700_000_000, 0).UTC(),
	}
}

const defaultMaxRounds = 200

// Result holds what a run produced.
type Result struct {
	Matches   []MatchResult
	Rounds    int
	Simulated time.Duration // fake clock time consumed
	Reports   []model.RoundReport
}

// MatchResult summarizes one match.
type MatchResult struct {
	ID        string
	Rounds    int
	Scores    []int
	Winners   []int
	Abandoned bool // hit MaxRounds first
}
