package events

import "time"

// ConversationEvent 会话变更事件
// 在一轮问答持久化、会话重置或删除后触发
type ConversationEvent struct {
	// EventType 事件类型（updated/reset/deleted）
	EventType EventType
	// SessionID 会话 ID
	SessionID string
	// Title 当前标题（删除时为空）
	Title string
	// MessageCount 当前消息数
	MessageCount int
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *ConversationEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *ConversationEvent) Timestamp() time.Time {
	return e.EventTime
}
