package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/duel/internal/domain/model"
)

const defaultRoundsLimit = 20

// HistoryProvider reads recent rounds.
type HistoryProvider interface {
	History(ctx context.Context, n int) ([]model.RoundReport, error)
}

// RoundsHandler handles round history requests.
type RoundsHandler struct {
	deps     HistoryProvider
	maxLimit int
}

// NewRoundsHandler creates a new rounds handler.
func NewRoundsHandler(deps HistoryProvider, maxLimit int) *RoundsHandler {
	return &RoundsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleList handles GET /rounds?limit=N, newest first. limit defaults to 20
// or the maximum, whichever is smaller.
func (h *RoundsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rounds"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	n := min(defaultRoundsLimit, h.maxLimit)
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w", op, ErrBadLimit))
			return
		}
		n = v
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", fmt.Errorf("%s: %w: %d", op, ErrLimit, h.maxLimit))
		return
	}
	reports, err := h.deps.History(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", fmt.Errorf("%s: %w", op, err))
		return
	}
	writeJSON(w, http.StatusOK, toRounds(reports))
}
