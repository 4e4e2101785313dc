package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

const wsWriteTimeout = 10 * time.Second

// EventsSocketHandler pushes events to websocket clients. Clients only
// receive; anything they send is discarded.
type EventsSocketHandler struct {
	source         EventSource
	allowedOrigins []string
	log            zerolog.Logger
}

// NewEventsSocketHandler creates a new websocket events handler
func NewEventsSocketHandler(source EventSource, allowedOrigins []string, log zerolog.Logger) *EventsSocketHandler {
	return &EventsSocketHandler{
		source:         source,
		allowedOrigins: allowedOrigins,
		log:            log.With().Str("component", "events_ws").Logger(),
	}
}

// ServeHTTP handles GET /api/ws?types=a,b
func (h *EventsSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.allowedOrigins,
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected close")

	filter := newStreamFilter(r)
	eventChan, cancel := h.source.Subscribe()
	defer cancel()

	// CloseRead discards client frames and cancels ctx once the peer goes away
	ctx := conn.CloseRead(r.Context())
	h.log.Info().Int("subscribers", h.source.SubscriberCount()).Msg("Websocket client connected")

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Websocket client disconnected")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event, ok := <-eventChan:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if !filter.allows(event) {
				continue
			}
			if err := writeEvent(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Failed to write to websocket client")
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, data)
}
