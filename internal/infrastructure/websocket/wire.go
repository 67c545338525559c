package websocket

import (
	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/google/wire"
	"github.com/gorilla/websocket"
)

// ProvideHub 创建 Hub 并订阅会话事件
func ProvideHub(bus events.EventBus) *Hub {
	hub := NewHub()
	bus.SubscribeMultiple([]events.EventType{
		events.ConversationUpdated,
		events.ConversationReset,
		events.ConversationDeleted,
	}, hub)
	return hub
}

// ProvideUpgrader 按配置创建 Upgrader
func ProvideUpgrader(ws *config.WebSocketConfig, server *config.ServerConfig) *websocket.Upgrader {
	u := NewUpgrader(ws.ReadBufferSize, ws.WriteBufferSize, server.CORSOrigins)
	return &u
}

// ProviderSet WebSocket ProviderSet
var ProviderSet = wire.NewSet(
	ProvideHub,
	ProvideUpgrader,
)
