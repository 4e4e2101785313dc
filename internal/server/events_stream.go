package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/folioworks/folio/internal/auth"
	"github.com/folioworks/folio/internal/events"
	"github.com/folioworks/folio/internal/utils"
	"github.com/rs/zerolog"
)

const heartbeatInterval = 30 * time.Second

// EventSource is the part of the event manager the streams need
type EventSource interface {
	Subscribe() (<-chan events.Event, func())
	SubscriberCount() int
}

// EventsStreamHandler streams events to clients as Server-Sent Events
type EventsStreamHandler struct {
	source    EventSource
	heartbeat time.Duration
	log       zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(source EventSource, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		source:    source,
		heartbeat: heartbeatInterval,
		log:       log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream?types=a,b
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	filter := newStreamFilter(r)
	eventChan, cancel := h.source.Subscribe()
	defer cancel()

	h.log.Info().Int("subscribers", h.source.SubscriberCount()).Msg("Client connected to event stream")

	h.send(w, map[string]interface{}{
		"type":    "connected",
		"message": "Connected to event stream",
	})
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.log.Info().Msg("Client disconnected from event stream")
			return

		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if !filter.allows(event) {
				continue
			}
			h.send(w, event)
			flusher.Flush()

		case <-heartbeat.C:
			h.send(w, map[string]interface{}{
				"type":      "heartbeat",
				"timestamp": time.Now().Format(time.RFC3339),
			})
			flusher.Flush()
		}
	}
}

func (h *EventsStreamHandler) send(w http.ResponseWriter, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to marshal event")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// streamFilter decides which events a connected client receives: the
// requested types, and for authenticated clients only their own events
type streamFilter struct {
	types  map[events.EventType]bool
	userID string
}

func newStreamFilter(r *http.Request) streamFilter {
	userID, _ := auth.UserFromContext(r.Context())
	return streamFilter{types: parseTypeFilter(r.URL.Query().Get("types")), userID: userID}
}

func (f streamFilter) allows(event events.Event) bool {
	if f.types != nil && !f.types[event.Type] {
		return false
	}
	return events.VisibleTo(event, f.userID)
}

// parseTypeFilter turns "a, b" into a set; empty means no filter
func parseTypeFilter(raw string) map[events.EventType]bool {
	types := utils.ParseCSVUpper(raw)
	if len(types) == 0 {
		return nil
	}
	allowed := make(map[events.EventType]bool, len(types))
	for _, t := range types {
		allowed[events.EventType(t)] = true
	}
	return allowed
}
