package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	eventsWriteWait = 10 * time.Second
	eventsPongWait  = 60 * time.Second
	eventsPingEvery = (eventsPongWait * 9) / 10
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Events streams session snapshots over a websocket: the current one right
// away, then one after every change. Slow clients skip to the newest.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	first, err := s.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// Reader: only control frames are expected. A read error means the
	// client went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		_ = conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeEvent(conn, first); err != nil {
		return
	}

	ticker := time.NewTicker(eventsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(eventsWriteWait))
				return
			}
			if err := writeEvent(conn, snap); err != nil {
				h.logger.Debugf("events write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, v any) error {
	if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
