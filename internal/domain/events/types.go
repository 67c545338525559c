// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 会话相关事件类型
const (
	// ConversationUpdated 会话完成一轮问答
	ConversationUpdated EventType = "conversation.updated"
	// ConversationReset 会话记忆被重置
	ConversationReset EventType = "conversation.reset"
	// ConversationDeleted 会话被删除
	ConversationDeleted EventType = "conversation.deleted"
)

// 提示模板相关事件类型
const (
	// TemplateReloaded 提示模板文件重新加载
	TemplateReloaded EventType = "template.reloaded"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
