package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/sirius/internal/repository"
	"github.com/gorilla/websocket"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamPingInterval = 30 * time.Second
	streamPongWait     = 2 * streamPingInterval
)

const frameSnapshot = "SNAPSHOT"

// streamFrame is one websocket message. The first frame is a SNAPSHOT with
// the room history; later frames carry a single INSERT, UPDATE or DELETE.
type streamFrame struct {
	Type     string                   `json:"type"`
	Messages []repository.ChatMessage `json:"messages,omitempty"`
	Message  *repository.ChatMessage  `json:"message,omitempty"`
}

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomId")
	viewer := r.URL.Query().Get("cedula")

	feed, sub, err := s.svc.OpenChatFeed(r.Context(), roomID, viewer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer func() {
		_ = sub.Close()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("chat stream upgrade failed", "error", err, "room_id", roomID)
		return
	}
	defer func() {
		_ = conn.Close()
	}()
	slog.Debug("chat stream opened", "room_id", roomID, "viewer_cedula", viewer)

	if err := writeFrame(conn, streamFrame{Type: frameSnapshot, Messages: nonNil(feed.Messages())}); err != nil {
		return
	}

	// Clients only send control frames; reading is needed to process them
	// and to notice a closed connection.
	closed := make(chan struct{})
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			slog.Debug("chat stream closed by client", "room_id", roomID)
			return
		case ev, ok := <-sub.Events():
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "subscription ended"),
					time.Now().Add(streamWriteTimeout))
				return
			}
			if !feed.Apply(ev) {
				continue
			}
			msg := ev.Message
			if err := writeFrame(conn, streamFrame{Type: string(ev.Type), Message: &msg}); err != nil {
				slog.Debug("chat stream write failed", "error", err, "room_id", roomID)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteTimeout)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, frame streamFrame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(frame)
}
