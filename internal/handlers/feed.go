package handlers

import (
	"net/http"
	"time"

	"NoteKeeper/internal/feed"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// FeedHandler отдаёт ленту изменений пользователя по WebSocket.
type FeedHandler struct {
	Broker   feed.Broker
	Logger   *zap.SugaredLogger
	upgrader websocket.Upgrader
}

func NewFeedHandler(broker feed.Broker, logger *zap.SugaredLogger) *FeedHandler {
	return &FeedHandler{
		Broker: broker,
		Logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream пересылает клиенту события его заметок, тегов и изображений.
func (h *FeedHandler) Stream(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	// подписка до апгрейда: события после рукопожатия не теряются
	events, unsubscribe := h.Broker.Subscribe(r.Context())
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warnw("Stream: upgrade failed", "user_id", uid, "error", err)
		return
	}
	defer conn.Close()

	// читаем только ради pong и закрытия соединения
	closed := make(chan struct{})
	go func() {
		defer close(closed)
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
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	h.Logger.Infow("feed subscriber connected", "user_id", uid)
	for {
		select {
		case <-closed:
			h.Logger.Infow("feed subscriber disconnected", "user_id", uid)
			return
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(writeWait))
				return
			}
			if ev.OwnerID != uid {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				h.Logger.Warnw("Stream: write failed", "user_id", uid, "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
