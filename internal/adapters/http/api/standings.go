package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/types"
)

// StandingsProvider reads the standings table.
type StandingsProvider interface {
	Standings(ctx context.Context) []repository.Entry
	Standing(ctx context.Context, player int) (repository.Entry, error)
}

// StandingsHandler handles standings requests.
type StandingsHandler struct {
	deps StandingsProvider
}

// NewStandingsHandler creates a new standings handler.
func NewStandingsHandler(deps StandingsProvider) *StandingsHandler {
	return &StandingsHandler{deps: deps}
}

// HandleList handles GET /standings.
func (h *StandingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	entries := h.deps.Standings(r.Context())
	out := make([]types.Standing, 0, len(entries))
	for i := range entries {
		out = append(out, toStanding(entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /standings/{player}. Players are zero-based.
func (h *StandingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/standings/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	player, err := strconv.Atoi(path)
	if err != nil || player < 0 {
		writeError(w, http.StatusBadRequest, "bad_player", fmt.Errorf("%w: %q", ErrBadPlayer, path))
		return
	}
	entry, err := h.deps.Standing(r.Context(), player)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toStanding(entry))
}
