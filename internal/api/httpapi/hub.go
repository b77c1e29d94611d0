package httpapi

import (
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"meeting-insight-service/internal/models"
)

// wsEnvelope is the JSON frame sent to every websocket subscriber.
type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub fans pipeline UI events out to every connected websocket. It is the
// single consumer of the event sink.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{conns: map[*websocket.Conn]struct{}{}, log: log}
}

// Run consumes events until the channel is closed, broadcasting each one.
// Call it in its own goroutine.
func (h *Hub) Run(events <-chan models.UIEvent) {
	for ev := range events {
		h.broadcast(envelope(ev))
	}
}

func envelope(ev models.UIEvent) wsEnvelope {
	switch e := ev.(type) {
	case models.TranscriptEvent:
		return wsEnvelope{Type: "transcript", Data: e}
	case models.PartialSummaryEvent:
		return wsEnvelope{Type: "partial_summary", Data: e}
	case models.FinalSummaryEvent:
		return wsEnvelope{Type: "final_summary", Data: e}
	default:
		return wsEnvelope{Type: "unknown", Data: e}
	}
}

func (h *Hub) broadcast(env wsEnvelope) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteJSON(env); err != nil {
			h.log.Debug().Err(err).Msg("Websocket write failed, dropping subscriber")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// Handle registers one websocket connection and blocks until the peer
// disconnects. Incoming messages are discarded.
func (h *Hub) Handle(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	subscribers := len(h.conns)
	h.mu.Unlock()
	h.log.Info().Int("subscribers", subscribers).Msg("Websocket subscriber connected")

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
		h.log.Info().Msg("Websocket subscriber disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
