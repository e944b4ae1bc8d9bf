// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/plateduel/plateduel/internal/adapters/rankview"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
)

// Default paging constants for ranking queries.
const (
	defaultRankingLimit = 50
)

// RankingDependencies defines the interface for ranking reads.
type RankingDependencies interface {
	Leaderboard(ctx context.Context, dim category.Dimension, limit int) ([]model.RankedEntity, error)
	PersonalRankings(ctx context.Context, userID string, dim category.Dimension) ([]model.RankedEntity, error)
}

// RankingsHandler handles shared and personal ranking requests.
type RankingsHandler struct {
	deps RankingDependencies
}

// NewRankingsHandler creates a new rankings handler.
func NewRankingsHandler(deps RankingDependencies) *RankingsHandler {
	return &RankingsHandler{deps: deps}
}

// HandleGetRankings handles GET /rankings?category=NAME&limit=N requests.
// The category defaults to global; the limit defaults to 50.
func (h *RankingsHandler) HandleGetRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	dim, err := parseDimension(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_category", NewKind(op, err))
		return
	}

	limit := defaultRankingLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}

	entries, err := h.deps.Leaderboard(r.Context(), dim, limit)
	if err != nil {
		if errors.Is(err, rankview.ErrInvalidLimit) {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toRankingRows(entries))
}

// HandleGetPersonalRankings handles GET /rankings/personal?user_id=U&category=NAME
// requests. The table is replayed from the user's vote history on every call.
func (h *RankingsHandler) HandleGetPersonalRankings(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_personal_rankings"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	dim, err := parseDimension(r.URL.Query().Get("category"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_category", NewKind(op, err))
		return
	}

	entries, err := h.deps.PersonalRankings(r.Context(), userID, dim)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, toRankingRows(entries))
}

// parseDimension resolves an optional category parameter, defaulting to the
// global dimension when absent.
func parseDimension(raw string) (category.Dimension, error) {
	if strings.TrimSpace(raw) == "" {
		return category.Global, nil
	}
	return category.Parse(raw)
}
