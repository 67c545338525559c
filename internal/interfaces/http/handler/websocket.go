package handler

import (
	"log/slog"

	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/infrastructure/websocket"
	"github.com/gin-gonic/gin"
	gws "github.com/gorilla/websocket"
)

// WebSocketHandler 会话事件推送
type WebSocketHandler struct {
	hub      *websocket.Hub
	upgrader *gws.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler 创建 WebSocket 处理器
func NewWebSocketHandler(hub *websocket.Hub, upgrader *gws.Upgrader) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		upgrader: upgrader,
		logger:   log.NewModuleLogger("http", "websocket_handler"),
	}
}

// Serve 升级为 WebSocket，session_id 为空时接收所有会话的事件
// @Summary 订阅会话事件
// @Tags 系统
// @Param session_id query string false "会话 ID"
// @Router /ws [get]
func (h *WebSocketHandler) Serve(c *gin.Context) {
	sessionID := c.Query("session_id")
	if err := h.hub.Serve(h.upgrader, c.Writer, c.Request, sessionID); err != nil {
		// Upgrader 已写入错误响应
		h.logger.Warn("WebSocket upgrade failed", "session_id", sessionID, "error", err)
	}
}
