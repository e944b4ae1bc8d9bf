// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/matchup"
	"github.com/plateduel/plateduel/internal/domain/model"
)

// MatchupDependencies defines the interface for matchup generation.
type MatchupDependencies interface {
	GenerateMatchup(ctx context.Context, cat category.Dimension) (model.Matchup, error)
}

// MatchupHandler handles matchup requests.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleGetMatchup handles GET /matchup?category=NAME requests.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matchup"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	cat, err := category.ParseVotable(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_category", NewKind(op, err))
		return
	}

	m, err := h.deps.GenerateMatchup(r.Context(), cat)
	if err != nil {
		if errors.Is(err, matchup.ErrInsufficientCandidates) {
			writeError(w, http.StatusNotFound, "insufficient_candidates", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	writeJSON(w, http.StatusOK, matchupResponse{
		MatchupID: m.ID,
		Category:  m.Category.String(),
		EntityA:   m.EntityA,
		EntityB:   m.EntityB,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	})
}
