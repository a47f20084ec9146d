package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confide/internal/broadcast"
	"confide/internal/models"
)

// readSSEEvent scans frames until it finds the named event and returns
// its data line.
func readSSEEvent(t *testing.T, scanner *bufio.Scanner, name string) string {
	t.Helper()

	want := "event: " + name
	for scanner.Scan() {
		if scanner.Text() != want {
			continue
		}
		require.True(t, scanner.Scan(), "event %q missing data line", name)
		data := scanner.Text()
		require.True(t, strings.HasPrefix(data, "data: "), "unexpected line %q", data)
		return strings.TrimPrefix(data, "data: ")
	}
	t.Fatalf("stream ended before event %q", name)
	return ""
}

func TestHandleEvents_ConnectedThenBroadcast(t *testing.T) {
	tc := NewTestContext(t)

	server := httptest.NewServer(http.HandlerFunc(tc.Handler.HandleEvents))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"?category=all", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	scanner := bufio.NewScanner(resp.Body)

	// The connected frame arrives before any posts.
	var connected connectedPayload
	require.NoError(t, json.Unmarshal([]byte(readSSEEvent(t, scanner, "connected")), &connected))
	assert.NotEmpty(t, connected.ClientID)
	assert.Equal(t, "all", connected.Category)

	res, err := tc.Service.Submit(context.Background(), "streamer", "a confession for the live stream", models.CategoryOther)
	require.NoError(t, err)

	var payload models.EventPost
	require.NoError(t, json.Unmarshal([]byte(readSSEEvent(t, scanner, "post:new")), &payload))
	assert.Equal(t, res.Post.ID, payload.ID)
}

func TestHandleEvents_CategoryFilter(t *testing.T) {
	tc := NewTestContext(t)

	server := httptest.NewServer(http.HandlerFunc(tc.Handler.HandleEvents))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", server.URL+"?category=WORK_SCHOOL", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	readSSEEvent(t, scanner, "connected")

	// Publish a non-matching then a matching post. The subscriber only
	// sees the second.
	_, err = tc.Service.Submit(context.Background(), "c1", "a love confession, filtered out", models.CategoryLoveRelationships)
	require.NoError(t, err)
	res, err := tc.Service.Submit(context.Background(), "c2", "a work confession, delivered", models.CategoryWorkSchool)
	require.NoError(t, err)

	var payload models.EventPost
	require.NoError(t, json.Unmarshal([]byte(readSSEEvent(t, scanner, "post:new")), &payload))
	assert.Equal(t, res.Post.ID, payload.ID)
}

func TestHandleWS_ConnectedThenBroadcast(t *testing.T) {
	tc := NewTestContext(t)

	server := httptest.NewServer(http.HandlerFunc(tc.Handler.HandleWS))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "?category=all"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var connectedFrame broadcast.Event
	require.NoError(t, conn.ReadJSON(&connectedFrame))
	assert.Equal(t, "connected", connectedFrame.Name)

	var connected connectedPayload
	require.NoError(t, json.Unmarshal(connectedFrame.Data, &connected))
	assert.Equal(t, "all", connected.Category)

	res, err := tc.Service.Submit(context.Background(), "ws-client", "a confession over the socket", models.CategoryOther)
	require.NoError(t, err)

	var frame broadcast.Event
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "post:new", frame.Name)

	var payload models.EventPost
	require.NoError(t, json.Unmarshal(frame.Data, &payload))
	assert.Equal(t, res.Post.ID, payload.ID)
}
