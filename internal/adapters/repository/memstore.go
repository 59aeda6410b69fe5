package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/okian/duel/internal/domain/dedupe"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/metrics"
)

const defaultHistorySize = 200

// MemoryStore is the in-memory Store. With at most MaxPlayers rows a sorted
// slice is all the ranking structure needed.
//
// Ordering: matches won DESC, current score DESC, rounds won DESC, then
// player ASC (deterministic).
type MemoryStore struct {
	mu          sync.RWMutex
	players     map[int]*Entry
	history     []model.RoundReport // ring, oldest at head
	head        int
	historySize int
	seen        dedupe.Deduper
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{historySize: defaultHistorySize}
	for _, opt := range opts {
		opt(s)
	}
	s.seen = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.historySize))
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.players = make(map[int]*Entry, model.MaxPlayers)
	s.history = make([]model.RoundReport, 0, s.historySize)
	s.head = 0
	s.seen.Reset()
	metrics.UpdateStandingsPlayers(0)
	metrics.UpdateHistorySize(0)
}

func reportKey(r *model.RoundReport) string {
	return r.MatchID + "/" + strconv.Itoa(r.Round)
}

// Record folds one report into the standings.
func (s *MemoryStore) Record(ctx context.Context, r model.RoundReport) error { //nolint:gocritic // hugeParam: mirrors the queue payload
	if r.MatchID == "" {
		return fmt.Errorf("record round %d: empty match id", r.Round)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// one report per (match, round), remembered as long as the history
	if s.seen.SeenAndRecord(ctx, reportKey(&r)) {
		return nil
	}

	for i, score := range r.Scores {
		e := s.entry(i)
		e.Score = score
		e.LastMatchID = r.MatchID
	}
	switch r.Outcome.Kind {
	case model.OutcomeWinner:
		for _, p := range r.Outcome.Players {
			e := s.entry(p)
			e.RoundsWon++
			if e.BestReaction == 0 || r.Outcome.Time < e.BestReaction {
				e.BestReaction = r.Outcome.Time
			}
		}
	case model.OutcomeFault:
		for _, p := range r.Outcome.Players {
			s.entry(p).Faults++
		}
	case model.OutcomeFalseStart:
		for _, p := range r.Outcome.Players {
			s.entry(p).FalseStarts++
		}
	}
	if r.Concluded {
		for _, p := range r.Winners {
			if len(r.Winners) == 1 {
				s.entry(p).MatchesWon++
			} else {
				s.entry(p).MatchesDrawn++
			}
		}
	}

	s.appendHistory(r)
	metrics.UpdateStandingsPlayers(len(s.players))
	metrics.UpdateHistorySize(len(s.history))
	return nil
}

func (s *MemoryStore) appendHistory(r model.RoundReport) { //nolint:gocritic // hugeParam
	if len(s.history) < s.historySize {
		s.history = append(s.history, r)
		return
	}
	s.history[s.head] = r
	s.head = (s.head + 1) % s.historySize
}

func (s *MemoryStore) entry(player int) *Entry {
	e, ok := s.players[player]
	if !ok {
		e = &Entry{Player: player}
		s.players[player] = e
	}
	return e
}

// Standings returns all rows ranked from 1.
func (s *MemoryStore) Standings(ctx context.Context) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranked()
}

func (s *MemoryStore) ranked() []Entry {
	out := make([]Entry, 0, len(s.players))
	for _, e := range s.players {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MatchesWon != b.MatchesWon {
			return a.MatchesWon > b.MatchesWon
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.RoundsWon != b.RoundsWon {
			return a.RoundsWon > b.RoundsWon
		}
		return a.Player < b.Player
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Standing returns the ranked row of one player.
func (s *MemoryStore) Standing(ctx context.Context, player int) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.players[player]; !ok {
		return Entry{}, fmt.Errorf("%w: %d", ErrNotFound, player)
	}
	for _, e := range s.ranked() {
		if e.Player == player {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// History returns up to n reports, newest first.
func (s *MemoryStore) History(ctx context.Context, n int) ([]model.RoundReport, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := len(s.history)
	if n > size {
		n = size
	}
	out := make([]model.RoundReport, 0, n)
	for i := 0; i < n; i++ {
		// newest sits just before head once the ring has wrapped
		idx := (s.head - 1 - i + 2*size) % size
		if size < s.historySize {
			idx = size - 1 - i
		}
		out = append(out, s.history[idx])
	}
	return out, nil
}

// Count returns the number of players tracked.
func (s *MemoryStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Reset forgets all standings and history.
func (s *MemoryStore) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}
