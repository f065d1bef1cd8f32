package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// 書き込みの上限時間
	writeWait = 10 * time.Second
	// 疎通確認の間隔
	pingPeriod = 30 * time.Second
)

// handleEvents はWebSocketで収束イベントを配信するエンドポイント
func (s *Server) handleEvents(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("WebSocketへのアップグレードに失敗しました", "camera", session.ID(), "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	// クライアントからの切断を検知するための読み取りループ
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case <-c.Request.Context().Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug("イベントの送信に失敗しました", "camera", session.ID(), "error", err)
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
