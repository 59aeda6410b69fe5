package simulate

import (
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/okian/duel/internal/domain/model"
)

// floor on any sampled reaction time.
const minReaction = 100 * time.Millisecond

// Profile describes how a bot plays.
type Profile struct {
	Reaction       time.Duration // mean reaction to a cue
	Jitter         time.Duration // standard deviation of Reaction
	FalseStartRate float64       // chance per round of pressing before the cue
	TrapDiscipline float64       // chance of holding back on a trap
}

// DefaultProfiles returns n bots of decreasing skill.
func DefaultProfiles(n int) []Profile {
	out := make([]Profile, n)
	for i := range out {
		out[i] = Profile{
			Reaction:       220*time.Millisecond + time.Duration(i)*25*time.Millisecond,
			Jitter:         40 * time.Millisecond,
			FalseStartRate: 0.03 + 0.01*float64(i),
			TrapDiscipline: 0.85 - 0.05*float64(i),
		}
	}
	return out
}

// Table seats the bots. It is the round loop's input and presenter at
// once: bots decide when to press as each phase is shown to them.
type Table struct {
	clock   clockwork.Clock
	rng     *rand.Rand
	keys    []model.Key
	bots    []Profile
	minWait time.Duration
	presses map[model.Key]time.Time // planned key-down
	sent    map[model.Key]bool
}

// NewTable seats one bot per key.
func NewTable(clock clockwork.Clock, rng *rand.Rand, keys []model.Key, bots []Profile, minWait time.Duration) *Table {
	return &Table{
		clock:   clock,
		rng:     rng,
		keys:    keys,
		bots:    bots,
		minWait: minWait,
		presses: make(map[model.Key]time.Time, len(keys)),
		sent:    make(map[model.Key]bool, len(keys)),
	}
}

// ShowWaiting clears the last round and lets jumpy bots plan an early
// press. The cue never comes before minWait, so these always land early.
func (t *Table) ShowWaiting(int) {
	clear(t.presses)
	clear(t.sent)
	now := t.clock.Now()
	for i, k := range t.keys {
		if t.rng.Float64() < t.bots[i].FalseStartRate {
			t.presses[k] = now.Add(time.Duration(t.rng.Float64() * float64(t.minWait)))
		}
	}
}

// ShowCue plans each remaining bot's reaction.
func (t *Table) ShowCue(kind model.CueKind, _ string) {
	now := t.clock.Now()
	for i, k := range t.keys {
		if _, planned := t.presses[k]; planned {
			continue
		}
		b := t.bots[i]
		if kind == model.CueTrap && t.rng.Float64() < b.TrapDiscipline {
			continue
		}
		d := b.Reaction + time.Duration(t.rng.NormFloat64()*float64(b.Jitter))
		t.presses[k] = now.Add(max(d, minReaction))
	}
}

// Drain delivers each planned press once its time has come.
func (t *Table) Drain(dst []model.KeyEvent) []model.KeyEvent {
	now := t.clock.Now()
	for _, k := range t.keys {
		at, ok := t.presses[k]
		if !ok || t.sent[k] || now.Before(at) {
			continue
		}
		t.sent[k] = true
		dst = append(dst, model.KeyEvent{Key: k, Pressed: true, At: at})
	}
	return dst
}

// Pressed holds a key from its planned press until the next round.
func (t *Table) Pressed(k model.Key) bool {
	at, ok := t.presses[k]
	return ok && !t.clock.Now().Before(at)
}

// CancelRequested is always false; bots never leave.
func (t *Table) CancelRequested() bool { return false }
