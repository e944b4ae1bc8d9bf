// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/plateduel/plateduel/internal/adapters/repository"
	service "github.com/plateduel/plateduel/internal/app"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/vote"
)

// VoteDependencies defines the interface for vote processing.
type VoteDependencies interface {
	SubmitVote(ctx context.Context, matchupID, winnerID, loserID string, cat category.Dimension, userID string) (vote.Result, error)
	UndoVote(ctx context.Context, voteID string) (vote.UndoResult, error)
}

// VotesHandler handles vote and undo requests.
type VotesHandler struct {
	deps VoteDependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// HandlePostVote handles POST /votes requests.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	cat, err := category.ParseVotable(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_category", NewKind(op, err))
		return
	}

	res, err := h.deps.SubmitVote(r.Context(), req.MatchupID, req.WinnerID, req.LoserID, cat, req.UserID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, voteResponse{
			VoteID: res.VoteID,
			Winner: toEntityPayload(res.Winner),
			Loser:  toEntityPayload(res.Loser),
		})
	case errors.Is(err, service.ErrBallotConsumed):
		writeError(w, http.StatusConflict, "ballot_consumed", err)
	case errors.Is(err, vote.ErrInvalidVote), errors.Is(err, category.ErrNotVotable):
		writeError(w, http.StatusBadRequest, "invalid_vote", err)
	case errors.Is(err, repository.ErrEntityNotFound):
		writeError(w, http.StatusNotFound, "entity_not_found", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// HandleUndoVote handles POST /votes/{vote_id}/undo requests.
func (h *VotesHandler) HandleUndoVote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	// Extract the vote id from /votes/{vote_id}/undo.
	path := strings.TrimPrefix(r.URL.Path, "/votes/")
	voteID, ok := strings.CutSuffix(path, "/undo")
	if !ok || voteID == "" || strings.Contains(voteID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	res, err := h.deps.UndoVote(r.Context(), voteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}

	if !res.Success {
		switch res.Reason {
		case vote.ReasonAlreadyUndone:
			writeError(w, http.StatusConflict, "already_undone", errors.New(res.Reason))
		default:
			writeError(w, http.StatusNotFound, "not_found", errors.New(res.Reason))
		}
		return
	}

	writeJSON(w, http.StatusOK, undoResponse{
		Status: "undone",
		Winner: toEntityPayload(*res.Winner),
		Loser:  toEntityPayload(*res.Loser),
	})
}
