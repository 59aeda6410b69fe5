package simulate

import (
	"errors"
	"fmt"

	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
)

// ErrInconsistent is returned when the recorded standings disagree with
// the rounds that were played.
var ErrInconsistent = errors.New("standings do not match the played rounds")

// verify recounts the history and checks it against the standings table.
func verify(res Result, standings []repository.Entry) error { //nolint:gocritic // hugeParam
	if len(res.Reports) != res.Rounds {
		return fmt.Errorf("%w: %d rounds played, %d recorded", ErrInconsistent, res.Rounds, len(res.Reports))
	}

	type tally struct{ won, faults, falseStarts, matches, drawn int }
	want := map[int]*tally{}
	at := func(p int) *tally {
		if want[p] == nil {
			want[p] = &tally{}
		}
		return want[p]
	}
	for _, r := range res.Reports {
		for _, p := range r.Outcome.Players {
			switch r.Outcome.Kind {
			case model.OutcomeWinner:
				at(p).won++
			case model.OutcomeFault:
				at(p).faults++
			case model.OutcomeFalseStart:
				at(p).falseStarts++
			}
		}
		if r.Concluded {
			for _, p := range r.Winners {
				if len(r.Winners) == 1 {
					at(p).matches++
				} else {
					at(p).drawn++
				}
			}
		}
	}

	for i, e := range standings {
		if e.Rank != i+1 {
			return fmt.Errorf("%w: row %d ranked %d", ErrInconsistent, i, e.Rank)
		}
		t := at(e.Player)
		got := tally{e.RoundsWon, e.Faults, e.FalseStarts, e.MatchesWon, e.MatchesDrawn}
		if got != *t {
			return fmt.Errorf("%w: P%d has %+v, history says %+v", ErrInconsistent, e.Player+1, got, *t)
		}
	}
	return nil
}
