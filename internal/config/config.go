// Package config defines process configuration and its loading.
//
// Values are layered: defaults from New, then an optional YAML file named by
// DUEL_CONFIG, then DUEL_* environment variables. A .env file in the working
// directory is read into the environment first.
package config

import (
	"fmt"
	"time"

	"github.com/okian/duel/internal/domain/model"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile receives log output while the terminal owns stdout. Empty
	// discards logs in game mode.
	LogFile string `koanf:"log_file"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// HTTPEnabled turns the API and live feed on.
	HTTPEnabled bool `koanf:"http_enabled"`

	Players     int      `koanf:"players"`
	TargetScore int      `koanf:"target_score"`
	Keys        []string `koanf:"keys"` // empty means the default bindings

	MinWait          time.Duration `koanf:"min_wait"`
	MaxWait          time.Duration `koanf:"max_wait"`
	TrapProbability  float64       `koanf:"trap_probability"`
	Settle           time.Duration `koanf:"settle"`
	ResponseTimeout  time.Duration `koanf:"response_timeout"`
	TieEpsilon       time.Duration `koanf:"tie_epsilon"`
	AggressiveWindow time.Duration `koanf:"aggressive_window"`
	BusyPollSleep    time.Duration `koanf:"busy_poll_sleep"`
	PollInterval     time.Duration `koanf:"poll_interval"`
	RelaxedTickHz    int           `koanf:"relaxed_tick_hz"`

	// Seed fixes the cue randomness. Zero seeds from the clock.
	Seed int64 `koanf:"seed"`

	// Audio plays cue tones.
	Audio bool `koanf:"audio"`

	// KeyHold is how long a key-down counts as held on terminals that
	// never report key-up.
	KeyHold time.Duration `koanf:"key_hold"`

	// ReportQueueSize bounds the finished-round queue.
	ReportQueueSize int `koanf:"report_queue_size"`

	// RecorderWorkers drain the report queue. One keeps history ordered.
	RecorderWorkers int `koanf:"recorder_workers"`

	// HistorySize is how many rounds the session remembers.
	HistorySize int `koanf:"history_size"`

	// MaxRoundsLimit caps GET /rounds?limit.
	MaxRoundsLimit int `koanf:"max_rounds_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	rc := model.DefaultRoundConfig()
	t := model.DefaultTiming()
	return &Config{
		LogLevel:         "info",
		Addr:             ":9080",
		Players:          rc.Players,
		TargetScore:      rc.TargetScore,
		MinWait:          t.MinWait,
		MaxWait:          t.MaxWait,
		TrapProbability:  t.TrapProbability,
		Settle:           t.Settle,
		ResponseTimeout:  t.ResponseTimeout,
		TieEpsilon:       t.TieEpsilon,
		AggressiveWindow: t.AggressiveWindow,
		BusyPollSleep:    t.BusyPollSleep,
		PollInterval:     t.PollInterval,
		RelaxedTickHz:    t.RelaxedTickHz,
		Audio:            true,
		KeyHold:          150 * time.Millisecond,
		ReportQueueSize:  256,
		RecorderWorkers:  1,
		HistorySize:      500,
		MaxRoundsLimit:   100,
	}
}

// RoundConfig projects the match setup. Missing bindings fall back to the
// default key of each slot.
func (c *Config) RoundConfig() model.RoundConfig {
	rc := model.RoundConfig{
		Players:     c.Players,
		TargetScore: c.TargetScore,
		Keys:        make([]model.Key, 0, model.MaxPlayers),
	}
	for _, k := range c.Keys {
		rc.Keys = append(rc.Keys, model.NormalizeKey(k))
	}
	for i := len(rc.Keys); i < model.MaxPlayers; i++ {
		rc.Keys = append(rc.Keys, model.DefaultKeys[i])
	}
	return rc
}

// Timing projects the round tuning.
func (c *Config) Timing() model.Timing {
	return model.Timing{
		MinWait:          c.MinWait,
		MaxWait:          c.MaxWait,
		TrapProbability:  c.TrapProbability,
		Settle:           c.Settle,
		ResponseTimeout:  c.ResponseTimeout,
		TieEpsilon:       c.TieEpsilon,
		AggressiveWindow: c.AggressiveWindow,
		BusyPollSleep:    c.BusyPollSleep,
		PollInterval:     c.PollInterval,
		RelaxedTickHz:    c.RelaxedTickHz,
	}
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if len(c.Keys) > model.MaxPlayers {
		return fmt.Errorf("%w: %d key bindings, at most %d", ErrInvalidConfig, len(c.Keys), model.MaxPlayers)
	}
	if err := c.RoundConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.Timing().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch {
	case c.HTTPEnabled && c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.KeyHold < 0:
		return fmt.Errorf("%w: key_hold must not be negative", ErrInvalidConfig)
	case c.ReportQueueSize < 1:
		return fmt.Errorf("%w: report_queue_size must be positive", ErrInvalidConfig)
	case c.RecorderWorkers < 1:
		return fmt.Errorf("%w: recorder_workers must be positive", ErrInvalidConfig)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be positive", ErrInvalidConfig)
	case c.MaxRoundsLimit < 1:
		return fmt.Errorf("%w: max_rounds_limit must be positive", ErrInvalidConfig)
	}
	return nil
}
