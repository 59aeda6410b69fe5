// Package audio plays short cue tones through the system speaker.
package audio

import (
	"context"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/logger"
)

const sampleRate = beep.SampleRate(44100)

// Sound names a tone.
type Sound int

const (
	SoundSafe Sound = iota
	SoundTrap
	SoundFalseStart
	SoundWin
)

type tone struct {
	freq float64
	dur  time.Duration
}

// Each sound is a short sequence of sine tones.
var sounds = map[Sound][]tone{
	SoundSafe:       {{880, 120 * time.Millisecond}},
	SoundTrap:       {{220, 180 * time.Millisecond}},
	SoundFalseStart: {{330, 80 * time.Millisecond}, {165, 160 * time.Millisecond}},
	SoundWin:        {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 160 * time.Millisecond}},
}

// Tones plays cue sounds. A Tones whose speaker failed to start stays silent.
type Tones struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	ready  bool
	volume float64
	log    logger.Logger
}

// NewTones creates a silent player; call Init to open the speaker.
func NewTones(log logger.Logger) *Tones {
	if log == nil {
		log = logger.Nop()
	}
	return &Tones{mixer: &beep.Mixer{}, volume: -0.6, log: log}
}

// Init opens the speaker. Failure is returned but leaves Tones usable.
func (t *Tones) Init(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ready {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		t.log.Warn(ctx, "audio unavailable", logger.Error(err))
		return err
	}
	speaker.Play(t.mixer)
	t.ready = true
	return nil
}

// Enabled reports whether sounds reach the speaker.
func (t *Tones) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

// Play queues s on the mixer.
func (t *Tones) Play(s Sound) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	st, err := streamer(s, t.volume)
	if err != nil {
		t.log.Debug(context.Background(), "build tone", logger.Error(err))
		return
	}
	speaker.Lock()
	t.mixer.Add(st)
	speaker.Unlock()
}

// PlayCue plays the tone for a cue kind.
func (t *Tones) PlayCue(kind model.CueKind) {
	if kind == model.CueTrap {
		t.Play(SoundTrap)
		return
	}
	t.Play(SoundSafe)
}

// PlayOutcome plays the tone matching a round result, if any.
func (t *Tones) PlayOutcome(out model.RoundOutcome) { //nolint:gocritic // hugeParam
	switch out.Kind {
	case model.OutcomeWinner:
		t.Play(SoundWin)
	case model.OutcomeFalseStart, model.OutcomeFault:
		t.Play(SoundFalseStart)
	}
}

// Close silences the mixer.
func (t *Tones) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}
	speaker.Clear()
	t.ready = false
}

// streamer renders s as a finite, attenuated beep stream.
func streamer(s Sound, gain float64) (beep.Streamer, error) {
	parts := sounds[s]
	seq := make([]beep.Streamer, 0, len(parts))
	for _, p := range parts {
		sine, err := generators.SineTone(sampleRate, p.freq)
		if err != nil {
			return nil, err
		}
		seq = append(seq, beep.Take(sampleRate.N(p.dur), sine))
	}
	return &effects.Gain{Streamer: beep.Seq(seq...), Gain: gain}, nil
}

// Length returns the duration of s.
func Length(s Sound) time.Duration {
	var d time.Duration
	for _, p := range sounds[s] {
		d += p.dur
	}
	return d
}
