package handlers

import (
	"net/http"
	"strconv"
	"time"

	"confide/internal/models"
)

type submitRequest struct {
	Content  string `json:"content"`
	Category string `json:"category"`
}

type rateLimitInfo struct {
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}

type submitResponse struct {
	Status    models.ModerationStatus `json:"status"`
	Post      *models.Post            `json:"post"`
	RateLimit rateLimitInfo           `json:"rateLimit"`
}

// Submit a new confession
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "validation"})
		return
	}

	token := h.sessionToken(w, r)
	category := models.NormalizeCategory(req.Category)

	res, err := h.service.Submit(r.Context(), token, req.Content, category)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		Status: res.Status,
		Post:   res.Post,
		RateLimit: rateLimitInfo{
			Remaining: res.RateLimit.Remaining,
			ResetAt:   res.RateLimit.ResetAt.UTC().Format(time.RFC3339Nano),
		},
	})
}

type voteRequest struct {
	PostID string `json:"postId"`
	Value  int    `json:"value"`
}

// Vote on a confession
func (h *Handler) HandleVote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: "validation"})
		return
	}

	token := h.sessionToken(w, r)

	vote, err := h.service.Vote(r.Context(), token, req.PostID, req.Value)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"vote": vote})
}

// List visible confessions, newest first
func (h *Handler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := queryInt(r, "limit", 50)

	posts, err := h.service.Feed(r.Context(), category, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"count": len(posts),
	})
}

type trendingItem struct {
	Post  *models.Post `json:"post"`
	Score float64      `json:"score"`
}

// List trending confessions
func (h *Handler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	limit := queryInt(r, "limit", 10)

	ranked, err := h.service.Trending(r.Context(), category, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]trendingItem, len(ranked))
	for i, rk := range ranked {
		items[i] = trendingItem{Post: rk.Post, Score: rk.Score}
	}

	writeJSON(w, http.StatusOK, map[string]any{"posts": items})
}

// queryInt parses a positive integer query parameter, falling back to
// def for missing or malformed values.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
