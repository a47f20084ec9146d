package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ptdewey/shutter"
	"github.com/stretchr/testify/require"
)

// TestSubmit_Response_Snapshot pins the submission response format.
func TestSubmit_Response_Snapshot(t *testing.T) {
	tc := NewTestContext(t)

	req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{
		"content":  "I label my leftovers with fake names so nobody eats them",
		"category": "SECRETS_LIES",
	})
	rec := httptest.NewRecorder()

	tc.Handler.HandleSubmit(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	shutter.SnapJSON(t, "submit_response", rec.Body.String(),
		shutter.ScrubTimestamp(),
		shutter.IgnoreKey("id"),
		shutter.IgnoreKey("anonId"),
		shutter.IgnoreKey("createdAt"),
		shutter.IgnoreKey("resetAt"),
	)
}

// TestError_Response_Snapshot pins the error envelope format.
func TestError_Response_Snapshot(t *testing.T) {
	tc := NewTestContext(t)

	req := newJSONRequest(t, "POST", "/api/votes", map[string]any{"postId": "missing", "value": 1})
	rec := httptest.NewRecorder()

	tc.Handler.HandleVote(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	shutter.SnapJSON(t, "vote_not_found", rec.Body.String())
}
