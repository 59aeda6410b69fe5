package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/duel/internal/simulate"
)

// Default configuration constants.
const (
	defaultPlayers   = 2
	defaultTarget    = 10
	defaultMatches   = 1
	defaultMaxRounds = 200
	defaultTimeout   = 10 * time.Minute
)

func main() {
	var (
		players   = flag.Int("players", defaultPlayers, "Number of bots")
		target    = flag.Int("target", defaultTarget, "Points needed to win a match")
		matches   = flag.Int("matches", defaultMatches, "Matches to play back to back")
		maxRounds = flag.Int("max-rounds", defaultMaxRounds, "Rounds before an undecided match is abandoned")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed")
		output    = flag.String("output", "", "Write the round history to this JSON file")
		logFile   = flag.String("log", "", "Write structured logs to this file")
		verbose   = flag.Bool("verbose", false, "Print each bot's capture")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simulate.ShowHelp(os.Stdout)
		return
	}

	closer, err := simulate.SetupLogging(*logFile, *verbose)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cfg := simulate.DefaultConfig()
	cfg.Players = *players
	cfg.TargetScore = *target
	cfg.Matches = *matches
	cfg.MaxRounds = *maxRounds
	cfg.Seed = *seed
	cfg.Output = *output
	cfg.Verbose = *verbose

	if _, err := simulate.Run(ctx, cfg, os.Stdout); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		closer.Close()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: closed above
	}
}
