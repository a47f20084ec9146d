package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"confide/internal/metrics"
	"confide/internal/models"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// connectedPayload is the first frame on every stream, so clients can
// confirm their subscription before any posts arrive.
type connectedPayload struct {
	ClientID string `json:"clientId"`
	Category string `json:"category"`
}

// Live event stream (SSE)
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	category := r.URL.Query().Get("category")
	topic := subscriptionTopic(category)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	clientID := uuid.NewString()
	sub := h.broadcaster.Register(clientID, topic)
	defer h.broadcaster.Unregister(clientID)

	metrics.SubscribersConnected.Inc()
	defer metrics.SubscribersConnected.Dec()

	// Confirm the subscription before any events flow.
	connected, _ := json.Marshal(connectedPayload{
		ClientID: clientID,
		Category: categoryLabel(topic),
	})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	log.Debug().Str("client_id", clientID).Str("category", categoryLabel(topic)).Msg("sse: client connected")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("client_id", clientID).Msg("sse: client disconnected")
			return
		case ev, ok := <-sub.C():
			if !ok {
				// Dropped by the broadcaster (slow consumer or replaced).
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()
		}
	}
}

// subscriptionTopic maps the query parameter to a broadcast filter.
// Empty, "all", or unknown values subscribe to everything.
func subscriptionTopic(category string) models.Category {
	if category == "" || category == "all" {
		return ""
	}
	c := models.Category(category)
	if !c.Valid() {
		return ""
	}
	return c
}

func categoryLabel(topic models.Category) string {
	if topic == "" {
		return "all"
	}
	return string(topic)
}
