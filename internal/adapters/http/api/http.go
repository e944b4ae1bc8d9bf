// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	service "github.com/plateduel/plateduel/internal/app"
	"github.com/plateduel/plateduel/internal/domain/category"
	"github.com/plateduel/plateduel/internal/domain/model"
	"github.com/plateduel/plateduel/internal/domain/vote"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// GenerateMatchup proposes two distinct entities to compare.
	GenerateMatchup(ctx context.Context, cat category.Dimension) (model.Matchup, error)

	// SubmitVote commits a vote. A non-empty matchupID is single-use.
	SubmitVote(ctx context.Context, matchupID, winnerID, loserID string, cat category.Dimension, userID string) (vote.Result, error)

	// UndoVote reverses a committed vote by id.
	UndoVote(ctx context.Context, voteID string) (vote.UndoResult, error)

	// Read operations expose ranking data.
	Leaderboard(ctx context.Context, dim category.Dimension, limit int) ([]model.RankedEntity, error)
	PersonalRankings(ctx context.Context, userID string, dim category.Dimension) ([]model.RankedEntity, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	matchupHandler  *MatchupHandler
	votesHandler    *VotesHandler
	rankingsHandler *RankingsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		matchupHandler:  NewMatchupHandler(deps),
		votesHandler:    NewVotesHandler(deps),
		rankingsHandler: NewRankingsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
	mux.HandleFunc("/votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))
	mux.HandleFunc("/votes/", MetricsMiddleware(s.votesHandler.HandleUndoVote, "votes_undo"))
	mux.HandleFunc("/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("/rankings/personal", MetricsMiddleware(s.rankingsHandler.HandleGetPersonalRankings, "rankings_personal"))
}

// voteRequest mirrors the wire schema for POST /votes. The user id is
// optional: anonymous votes count toward the shared ratings but never appear
// in a personal table.
type voteRequest struct {
	MatchupID string `json:"matchup_id,omitempty"`
	WinnerID  string `json:"winner_id"`
	LoserID   string `json:"loser_id"`
	Category  string `json:"category"`
	UserID    string `json:"user_id,omitempty"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.WinnerID) == "":
		return NewKind("missing winner_id", ErrBadRequest)
	case strings.TrimSpace(v.LoserID) == "":
		return NewKind("missing loser_id", ErrBadRequest)
	case strings.TrimSpace(v.Category) == "":
		return NewKind("missing category", ErrBadRequest)
	}
	return nil
}

// ratingsPayload is the wire shape of a rating quadruple.
type ratingsPayload struct {
	Global     float64 `json:"global"`
	Value      float64 `json:"value"`
	Aesthetics float64 `json:"aesthetics"`
	Speed      float64 `json:"speed"`
}

// entityPayload is the wire shape of an entity's post-vote state.
type entityPayload struct {
	EntityID string         `json:"entity_id"`
	Ratings  ratingsPayload `json:"ratings"`
}

func toEntityPayload(e model.Entity) entityPayload {
	return entityPayload{
		EntityID: e.ID,
		Ratings: ratingsPayload{
			Global:     e.Ratings.Global,
			Value:      e.Ratings.Value,
			Aesthetics: e.Ratings.Aesthetics,
			Speed:      e.Ratings.Speed,
		},
	}
}

// voteResponse is the wire shape for a committed vote.
type voteResponse struct {
	VoteID string        `json:"vote_id"`
	Winner entityPayload `json:"winner"`
	Loser  entityPayload `json:"loser"`
}

// undoResponse is the wire shape for a successful undo.
type undoResponse struct {
	Status string        `json:"status"`
	Winner entityPayload `json:"winner"`
	Loser  entityPayload `json:"loser"`
}

// matchupResponse is the wire shape for GET /matchup.
type matchupResponse struct {
	MatchupID string `json:"matchup_id"`
	Category  string `json:"category"`
	EntityA   string `json:"entity_a"`
	EntityB   string `json:"entity_b"`
	CreatedAt string `json:"created_at"`
}

// rankingRow is one row of a shared or personal ranking table.
type rankingRow struct {
	Rank     int     `json:"rank"`
	EntityID string  `json:"entity_id"`
	Rating   float64 `json:"rating"`
}

func toRankingRows(entries []model.RankedEntity) []rankingRow {
	rows := make([]rankingRow, len(entries))
	for i, e := range entries {
		rows[i] = rankingRow{Rank: e.Rank, EntityID: e.EntityID, Rating: e.Rating}
	}
	return rows
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// Stats mirrors the service statistics snapshot.
type Stats = service.Stats
