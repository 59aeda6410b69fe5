// Package api serves read-only views of the session over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/types"
	"github.com/rs/cors"
)

// DefaultMaxLimit caps /rounds?limit=N.
const DefaultMaxLimit = 100

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider
	StandingsProvider
	HistoryProvider
}

// Option configures a Server.
type Option func(*Server)

// WithMaxLimit caps the number of rounds a single request may ask for.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithLive mounts h at /live.
func WithLive(h http.Handler) Option {
	return func(s *Server) {
		s.live = h
	}
}

// WithCORS replaces the permissive default CORS policy.
func WithCORS(o cors.Options) Option {
	return func(s *Server) {
		s.cors = cors.New(o)
	}
}

// Server wires HTTP routes for the session API.
type Server struct {
	health    *HealthHandler
	stats     *StatsHandler
	standings *StandingsHandler
	rounds    *RoundsHandler
	live      http.Handler
	cors      *cors.Cors
	maxLimit  int
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxLimit: DefaultMaxLimit,
		cors: cors.New(cors.Options{
			AllowedMethods: []string{http.MethodGet},
		}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.health = NewHealthHandler()
	s.stats = NewStatsHandler(deps)
	s.standings = NewStandingsHandler(deps)
	s.rounds = NewRoundsHandler(deps, s.maxLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("/healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.stats.HandleStats, "stats"))
	mux.HandleFunc("/standings", MetricsMiddleware(s.standings.HandleList, "standings"))
	mux.HandleFunc("/standings/", MetricsMiddleware(s.standings.HandleGet, "standing"))
	mux.HandleFunc("/rounds", MetricsMiddleware(s.rounds.HandleList, "rounds"))
	if s.live != nil {
		mux.Handle("/live", s.live)
	}
}

// Handler returns mux behind the server's CORS policy.
func (s *Server) Handler(mux http.Handler) http.Handler {
	return s.cors.Handler(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.Error{Code: code, Message: msg})
}

func toStanding(e repository.Entry) types.Standing { //nolint:gocritic // hugeParam
	out := types.Standing{
		Rank:         e.Rank,
		Player:       e.Player,
		Score:        e.Score,
		RoundsWon:    e.RoundsWon,
		Faults:       e.Faults,
		FalseStarts:  e.FalseStarts,
		MatchesWon:   e.MatchesWon,
		MatchesDrawn: e.MatchesDrawn,
	}
	if e.BestReaction > 0 {
		ms := types.Millis(e.BestReaction)
		out.BestReactionMS = &ms
	}
	return out
}

func toRounds(rs []model.RoundReport) []types.Round {
	out := make([]types.Round, 0, len(rs))
	for i := range rs {
		out = append(out, types.FromReport(rs[i]))
	}
	return out
}
