package websocket

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait 单次写入超时
	writeWait = 10 * time.Second
	// pongWait 超过该时间未收到任何消息则断开
	pongWait = 60 * time.Second
	// pingPeriod 心跳间隔，必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize 客户端消息上限（客户端只发送心跳）
	maxMessageSize = 4 * 1024
	// sendBufferSize 每个连接的发送缓冲
	sendBufferSize = 64
)

// NewUpgrader 创建 Upgrader，allowedOrigins 为空或包含 "*" 时允许所有来源
func NewUpgrader(readBuffer, writeBuffer int, allowedOrigins []string) websocket.Upgrader {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return websocket.Upgrader{
		ReadBufferSize:  readBuffer,
		WriteBufferSize: writeBuffer,
		CheckOrigin: func(r *http.Request) bool {
			if allowAll {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}
}

// Serve 升级连接并注册到 Hub，sessionID 为空表示订阅全部会话
func (h *Hub) Serve(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &Connection{
		SessionID: sessionID,
		Send:      make(chan []byte, sendBufferSize),
	}
	h.Register(c)

	h.logger.Debug("Client connected", "session_id", sessionID)

	go h.writePump(conn, c)
	go h.readPump(conn, c)
	return nil
}

// readPump 读取客户端消息（仅用于感知断开与续期）
func (h *Hub) readPump(conn *websocket.Conn, c *Connection) {
	defer func() {
		h.Unregister(c)
		_ = conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		// 收到 Pong 说明对方存活，续期读取超时
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("Connection read error",
					"session_id", c.SessionID,
					"error", err,
				)
			}
			return
		}
		// 收到任何消息都续期读取超时
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// writePump 写入消息与心跳，发送通道关闭时结束
func (h *Hub) writePump(conn *websocket.Conn, c *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logWriteError(h.logger, c, err)
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

func logWriteError(logger *slog.Logger, c *Connection, err error) {
	logger.Warn("Failed to write message",
		"session_id", c.SessionID,
		"error", err,
	)
}
