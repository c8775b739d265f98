// internal/httpserver/events.go
//
// GET /match/{id}/events upgrades to a WebSocket and streams match events as
// JSON: one "snapshot" on connect, then "round_started", "outcome" and
// "round_aborted" events.
// The stream is server-to-client only; client messages are read and discarded.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/match"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == s.cfg.ClientOrigin
		},
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	m := matchFrom(r)
	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Debug().Err(err).Str("matchId", m.ID()).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := m.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go readPump(conn, done)

	if !writeEvent(conn, match.Event{Type: match.EventSnapshot, Round: m.Snapshot()}) {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "match closed"),
					time.Now().Add(writeWait))
				return
			}
			if !writeEvent(conn, ev) {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, ev match.Event) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		log.Debug().Err(err).Msg("websocket write")
		return false
	}
	return true
}

// readPump keeps the read side alive for pongs and close frames; it closes
// done when the client goes away.
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
