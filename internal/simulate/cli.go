package simulate

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/duel/pkg/logger"
)

// File permission constants.
const logFilePermission = 0o600

// SetupLogging sends structured logs to logFile, or discards them when it
// is empty so the table output stays readable.
func SetupLogging(logFile string, verbose bool) (io.Closer, error) {
	if logFile == "" {
		if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nopCloser{}, nil
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(file), logger.WithJSON(true)); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	return file, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ShowHelp prints usage information for the simulator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Duel Simulator
==============

Plays reaction duel matches between bots on a simulated clock and prints
every round and the final standings.

Usage:
  duel-sim [options]

Options:
  -players int
        Number of bots, 2 to 8 (default 2)
  -target int
        Points needed to win a match (default 10)
  -matches int
        Matches to play back to back (default 1)
  -max-rounds int
        Rounds before an undecided match is abandoned (default 200)
  -seed int
        Random seed; the same seed replays the same run (default: current time)
  -output string
        Write the round history to this JSON file
  -log string
        Write structured logs to this file
  -verbose
        Print each bot's capture and log at debug level
  -help
        Show this help message

Examples:
  # Four bots, three matches to five
  duel-sim -players 4 -target 5 -matches 3

  # Reproduce a run and keep its history
  duel-sim -seed 42 -output rounds.json
`)
}
