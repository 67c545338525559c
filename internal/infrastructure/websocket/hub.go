// Package websocket 把会话事件推送给前端
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/log"
)

// AllSessions 订阅全部会话的主题
const AllSessions = ""

// Hub WebSocket 连接管理中心
type Hub struct {
	// 按会话 ID 分组的连接，AllSessions 组接收所有消息
	topics map[string]map[*Connection]bool
	// 注册连接
	register chan *Connection
	// 注销连接
	unregister chan *Connection
	// 广播消息
	broadcast chan *Message
	// 停止信号
	done     chan struct{}
	stopOnce sync.Once
	mu       sync.RWMutex
	logger   *slog.Logger
}

// Connection WebSocket 连接
type Connection struct {
	SessionID string
	Send      chan []byte
}

// Message 消息
type Message struct {
	SessionID string
	Data      []byte
}

// Notification 推送给客户端的会话通知
type Notification struct {
	Type         events.EventType `json:"type"`
	SessionID    string           `json:"session_id"`
	Title        string           `json:"title,omitempty"`
	MessageCount int              `json:"message_count"`
	Timestamp    time.Time        `json:"timestamp"`
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{
		topics:     make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *Message, 64),
		done:       make(chan struct{}),
		logger:     log.NewModuleLogger("websocket", "hub"),
	}
}

// Run 运行 Hub（需要在 goroutine 中运行）
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.topics[conn.SessionID] == nil {
				h.topics[conn.SessionID] = make(map[*Connection]bool)
			}
			h.topics[conn.SessionID][conn] = true
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			h.remove(conn)
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.Lock()
			h.deliver(msg.SessionID, msg.Data)
			if msg.SessionID != AllSessions {
				h.deliver(AllSessions, msg.Data)
			}
			h.mu.Unlock()
		}
	}
}

// deliver 发送到主题下的所有连接，缓冲区满的连接被断开
func (h *Hub) deliver(topic string, data []byte) {
	for conn := range h.topics[topic] {
		select {
		case conn.Send <- data:
		default:
			h.remove(conn)
		}
	}
}

// remove 移除连接并关闭发送通道（调用方持有写锁）
func (h *Hub) remove(conn *Connection) {
	topic, ok := h.topics[conn.SessionID]
	if !ok {
		return
	}
	if _, ok := topic[conn]; !ok {
		return
	}
	delete(topic, conn)
	close(conn.Send)
	if len(topic) == 0 {
		delete(h.topics, conn.SessionID)
	}
}

// closeAll 关闭所有连接
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range h.topics {
		for conn := range topic {
			close(conn.Send)
		}
	}
	h.topics = make(map[string]map[*Connection]bool)
}

// Start 启动 Hub（启动后台 goroutine）
func (h *Hub) Start() {
	go h.Run()
}

// Stop 停止 Hub，关闭所有连接
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register 注册连接
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister 注销连接
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Count 当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, topic := range h.topics {
		n += len(topic)
	}
	return n
}

// Broadcast 向订阅了该会话的连接以及全部订阅者广播
func (h *Hub) Broadcast(sessionID string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- &Message{SessionID: sessionID, Data: jsonData}:
	case <-h.done:
	}
	return nil
}

// HandleEvent 实现 events.Handler，把会话事件转为通知推送
func (h *Hub) HandleEvent(event events.Event) error {
	e, ok := event.(*events.ConversationEvent)
	if !ok {
		return nil
	}
	return h.Broadcast(e.SessionID, &Notification{
		Type:         e.EventType,
		SessionID:    e.SessionID,
		Title:        e.Title,
		MessageCount: e.MessageCount,
		Timestamp:    e.EventTime,
	})
}
