package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"confide/internal/broadcast"
	"confide/internal/metrics"
)

const (
	// writeWait is the deadline for a single frame write.
	writeWait = 10 * time.Second

	// pongWait is how long a connection may go silent before it is
	// considered dead. Pings go out at pingPeriod < pongWait.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Live event stream (WebSocket)
func (h *Handler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Warn().Err(err).Msg("ws: upgrade failed")
		return
	}

	topic := subscriptionTopic(r.URL.Query().Get("category"))
	clientID := uuid.NewString()

	sub := h.broadcaster.Register(clientID, topic)
	defer h.broadcaster.Unregister(clientID)
	defer conn.Close()

	metrics.SubscribersConnected.Inc()
	defer metrics.SubscribersConnected.Dec()

	log.Debug().Str("client_id", clientID).Str("category", categoryLabel(topic)).Msg("ws: client connected")

	// Read pump: we never expect client frames, but reading is required
	// to process pong and close frames.
	done := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	connected, _ := json.Marshal(connectedPayload{
		ClientID: clientID,
		Category: categoryLabel(topic),
	})
	if err := writeFrame(conn, broadcast.Event{Name: "connected", Data: connected}); err != nil {
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			log.Debug().Str("client_id", clientID).Msg("ws: client disconnected")
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := writeFrame(conn, ev); err != nil {
				log.Debug().Err(err).Str("client_id", clientID).Msg("ws: write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// writeFrame sends one {event, data} JSON frame with a write deadline.
func writeFrame(conn *websocket.Conn, ev broadcast.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
