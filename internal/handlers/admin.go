package handlers

import (
	"crypto/subtle"
	"net/http"
	"time"

	"confide/internal/models"
)

// requireAdmin validates the X-Admin-Key header against the configured
// shared secret. An empty configured key disables the admin surface.
// Returns false after writing the error response.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.config.AdminKey == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin access is not configured", Kind: "unauthorized"})
		return false
	}

	key := r.Header.Get("X-Admin-Key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.config.AdminKey)) != 1 {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid admin key", Kind: "unauthorized"})
		return false
	}
	return true
}

// Verify an admin key without performing any action
func (h *Handler) HandleAdminVerifyKey(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true})
}

type adminPostRequest struct {
	PostID string `json:"postId"`
}

// Approve a pending confession
func (h *Handler) HandleAdminApprove(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req adminPostRequest
	if err := decodeJSON(r, &req); err != nil || req.PostID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "postId is required", Kind: "validation"})
		return
	}

	post, err := h.service.Approve(r.Context(), req.PostID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"post": post})
}

// Soft-delete a confession
func (h *Handler) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req adminPostRequest
	if err := decodeJSON(r, &req); err != nil || req.PostID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "postId is required", Kind: "validation"})
		return
	}

	if err := h.service.Delete(r.Context(), req.PostID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"deleted": true, "postId": req.PostID})
}

// pendingItem flattens a post with its moderation reason for the review
// queue UI.
type pendingItem struct {
	Post      *models.Post `json:"post"`
	Reason    string       `json:"reason"`
	FlaggedAt string       `json:"flaggedAt"`
}

// List the moderation queue
func (h *Handler) HandleAdminPending(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	pending, err := h.service.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	items := make([]pendingItem, len(pending))
	for i, p := range pending {
		items[i] = pendingItem{
			Post:      p.Post,
			Reason:    p.Record.Reason,
			FlaggedAt: p.Record.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"pending": items, "count": len(items)})
}

// List all confessions, paged, including pending and deleted flags
func (h *Handler) HandleAdminConfessions(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)

	posts, total, err := h.service.ListAll(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"posts": posts,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// List recent admin actions
func (h *Handler) HandleAdminAudit(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	limit := queryInt(r, "limit", 50)

	entries, err := h.service.AuditLog(limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
