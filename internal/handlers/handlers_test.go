package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleSubmit_Success(t *testing.T) {
	tc := NewTestContext(t)

	req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{
		"content":  "I have never actually read the terms of service",
		"category": "SECRETS_LIES",
	})
	rec := httptest.NewRecorder()

	tc.Handler.HandleSubmit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "approved", body["status"])

	post := body["post"].(map[string]any)
	assert.NotEmpty(t, post["id"])
	assert.Equal(t, "SECRETS_LIES", post["category"])
	assert.Contains(t, post["anonId"], "anon_")

	rl := body["rateLimit"].(map[string]any)
	assert.Equal(t, float64(4), rl["remaining"])

	// First contact mints the session cookie.
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandleSubmit_UnknownCategoryNormalizes(t *testing.T) {
	tc := NewTestContext(t)

	req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{
		"content":  "this category does not exist",
		"category": "NOT_A_CATEGORY",
	})
	rec := httptest.NewRecorder()

	tc.Handler.HandleSubmit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	post := decodeBody(t, rec)["post"].(map[string]any)
	assert.Equal(t, "OTHER", post["category"])
}

func TestHandleSubmit_Validation(t *testing.T) {
	tc := NewTestContext(t)

	t.Run("empty body", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/confessions", nil)
		rec := httptest.NewRecorder()

		tc.Handler.HandleSubmit(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeBody(t, rec)["kind"])
	})

	t.Run("too short", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "hi"})
		rec := httptest.NewRecorder()

		tc.Handler.HandleSubmit(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "validation", decodeBody(t, rec)["kind"])
	})
}

func TestHandleSubmit_RateLimited(t *testing.T) {
	tc := NewTestContext(t)

	// First submit mints the cookie; carry it for the rest.
	first := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "confession number one"})
	firstRec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(firstRec, first)
	require.Equal(t, http.StatusCreated, firstRec.Code)

	for i := 0; i < 4; i++ {
		req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "another confession here"})
		carryCookies(firstRec, req)
		rec := httptest.NewRecorder()
		tc.Handler.HandleSubmit(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "one confession too many"})
	carryCookies(firstRec, req)
	rec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "rate_limited", body["kind"])
	assert.NotEmpty(t, body["resetAt"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestHandleVote(t *testing.T) {
	tc := NewTestContext(t)

	submit := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "a confession worth voting on"})
	submitRec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(submitRec, submit)
	require.Equal(t, http.StatusCreated, submitRec.Code)
	postID := decodeBody(t, submitRec)["post"].(map[string]any)["id"].(string)

	t.Run("upvote", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/votes", map[string]any{"postId": postID, "value": 1})
		rec := httptest.NewRecorder()

		tc.Handler.HandleVote(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		vote := decodeBody(t, rec)["vote"].(map[string]any)
		assert.Equal(t, postID, vote["postId"])
		assert.Equal(t, float64(1), vote["value"])
	})

	t.Run("invalid value", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/votes", map[string]any{"postId": postID, "value": 5})
		rec := httptest.NewRecorder()

		tc.Handler.HandleVote(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing post", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/votes", map[string]any{"postId": "no-such-post", "value": 1})
		rec := httptest.NewRecorder()

		tc.Handler.HandleVote(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "not_found", decodeBody(t, rec)["kind"])
	})
}

func TestHandleFeed(t *testing.T) {
	tc := NewTestContext(t)

	submit := newJSONRequest(t, "POST", "/api/confessions", map[string]any{
		"content":  "I talk to my plants every morning",
		"category": "OTHER",
	})
	submitRec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(submitRec, submit)
	require.Equal(t, http.StatusCreated, submitRec.Code)

	req := httptest.NewRequest("GET", "/api/confessions", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleFeed(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])

	t.Run("category filter excludes others", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/confessions?category=WORK_SCHOOL", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleFeed(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(0), decodeBody(t, rec)["count"])
	})
}

func TestHandleTrending(t *testing.T) {
	tc := NewTestContext(t)

	submit := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": "a trending confession maybe"})
	submitRec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(submitRec, submit)
	require.Equal(t, http.StatusCreated, submitRec.Code)

	req := httptest.NewRequest("GET", "/api/trending", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleTrending(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	posts := decodeBody(t, rec)["posts"].([]any)
	require.Len(t, posts, 1)
	item := posts[0].(map[string]any)
	assert.Contains(t, item, "post")
	assert.Contains(t, item, "score")
}

func TestAdmin_Unauthorized(t *testing.T) {
	tc := NewTestContext(t)

	t.Run("missing key", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/admin/verify-key", nil)
		rec := httptest.NewRecorder()
		tc.Handler.HandleAdminVerifyKey(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		req := newJSONRequest(t, "POST", "/api/admin/verify-key", nil)
		req.Header.Set("X-Admin-Key", "wrong")
		rec := httptest.NewRecorder()
		tc.Handler.HandleAdminVerifyKey(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "unauthorized", decodeBody(t, rec)["kind"])
	})

	t.Run("unconfigured key denies everything", func(t *testing.T) {
		h := NewHandler(tc.Service, tc.Broadcaster, Config{})
		req := newAdminRequest(t, "POST", "/api/admin/verify-key", nil)
		rec := httptest.NewRecorder()
		h.HandleAdminVerifyKey(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAdmin_VerifyKey(t *testing.T) {
	tc := NewTestContext(t)

	req := newAdminRequest(t, "POST", "/api/admin/verify-key", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleAdminVerifyKey(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["valid"])
}

func TestAdmin_ModerationFlow(t *testing.T) {
	tc := NewTestContext(t)

	// Profane submission lands in the review queue.
	submit := newJSONRequest(t, "POST", "/api/confessions", map[string]any{
		"content":  "my neighbor is an absolute bastard about parking",
		"category": "ANGER_FRUSTRATION",
	})
	submitRec := httptest.NewRecorder()
	tc.Handler.HandleSubmit(submitRec, submit)
	require.Equal(t, http.StatusCreated, submitRec.Code)
	body := decodeBody(t, submitRec)
	require.Equal(t, "pending", body["status"])
	postID := body["post"].(map[string]any)["id"].(string)

	// Queue lists it with the reason.
	pendingReq := newAdminRequest(t, "GET", "/api/admin/pending", nil)
	pendingRec := httptest.NewRecorder()
	tc.Handler.HandleAdminPending(pendingRec, pendingReq)
	require.Equal(t, http.StatusOK, pendingRec.Code)
	pending := decodeBody(t, pendingRec)
	require.Equal(t, float64(1), pending["count"])
	item := pending["pending"].([]any)[0].(map[string]any)
	assert.Equal(t, "profanity detected", item["reason"])

	// Approve makes it public.
	approveReq := newAdminRequest(t, "POST", "/api/admin/approve", map[string]any{"postId": postID})
	approveRec := httptest.NewRecorder()
	tc.Handler.HandleAdminApprove(approveRec, approveReq)
	require.Equal(t, http.StatusOK, approveRec.Code)

	feedReq := httptest.NewRequest("GET", "/api/confessions", nil)
	feedRec := httptest.NewRecorder()
	tc.Handler.HandleFeed(feedRec, feedReq)
	assert.Equal(t, float64(1), decodeBody(t, feedRec)["count"])

	// Delete hides it again, idempotently.
	for i := 0; i < 2; i++ {
		delReq := newAdminRequest(t, "DELETE", "/api/admin/confessions", map[string]any{"postId": postID})
		delRec := httptest.NewRecorder()
		tc.Handler.HandleAdminDelete(delRec, delReq)
		require.Equal(t, http.StatusOK, delRec.Code)
	}

	feedRec = httptest.NewRecorder()
	tc.Handler.HandleFeed(feedRec, httptest.NewRequest("GET", "/api/confessions", nil))
	assert.Equal(t, float64(0), decodeBody(t, feedRec)["count"])

	// Both actions are in the audit trail, newest first.
	auditReq := newAdminRequest(t, "GET", "/api/admin/audit", nil)
	auditRec := httptest.NewRecorder()
	tc.Handler.HandleAdminAudit(auditRec, auditReq)
	require.Equal(t, http.StatusOK, auditRec.Code)
	entries := decodeBody(t, auditRec)["entries"].([]any)
	require.Len(t, entries, 3)
	assert.Equal(t, "delete_post", entries[0].(map[string]any)["action"])
}

func TestAdmin_ConfessionsPaged(t *testing.T) {
	tc := NewTestContext(t)

	for _, content := range []string{
		"the first of three confessions",
		"the second of three confessions",
		"the third of three confessions",
	} {
		req := newJSONRequest(t, "POST", "/api/confessions", map[string]any{"content": content})
		rec := httptest.NewRecorder()
		tc.Handler.HandleSubmit(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := newAdminRequest(t, "GET", "/api/admin/confessions?page=1&limit=2", nil)
	rec := httptest.NewRecorder()
	tc.Handler.HandleAdminConfessions(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["total"])
	assert.Len(t, body["posts"].([]any), 2)
	assert.Equal(t, float64(1), body["page"])
}
