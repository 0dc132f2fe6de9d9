package http

import (
	"log"
	"net/http"

	"event-games-service/internal/app"
	"event-games-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler streams overall leaderboard snapshots to connected clients.
// One message is sent on connect and one after every accepted score write.
type WSHandler struct {
	scoreboard *app.ScoreboardService
	upgrader   websocket.Upgrader
}

func NewWSHandler(scoreboard *app.ScoreboardService) *WSHandler {
	return &WSHandler{
		scoreboard: scoreboard,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel, err := h.scoreboard.Subscribe(r.Context())
	if err != nil {
		log.Printf("ws subscribe failed: %v", err)
		return
	}
	defer cancel()

	// Reader pump: clients send nothing meaningful, but reads must drain so
	// close frames are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage{Type: "leaderboard", Payload: lb}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-done:
			return
		}
	}
}
