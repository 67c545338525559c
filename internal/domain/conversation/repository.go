package conversation

import "context"

// Repository 对话持久化仓储接口
// 所有多步写入都在单个事务内完成，任一步失败整体回滚
type Repository interface {
	// CreateOrTouch 对话不存在时创建（占位标题），存在时更新 updated_at
	CreateOrTouch(ctx context.Context, conversationID string) (*Conversation, error)

	// AppendMessage 向已存在的对话追加一条消息，对话不存在返回 ErrConversationNotFound
	AppendMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error)

	// RecordMessage 在一个事务内完成：创建或更新对话、追加消息、必要时设置标题
	RecordMessage(ctx context.Context, conversationID string, role Role, content string) (*Message, error)

	// GetConversation 获取对话，不存在返回 ErrConversationNotFound
	GetConversation(ctx context.Context, conversationID string) (*Conversation, error)

	// ListConversations 按 updated_at 倒序分页列出对话（含消息数）
	ListConversations(ctx context.Context, offset, limit int) ([]*Conversation, error)

	// ListMessages 按 created_at 正序分页列出消息，limit <= 0 表示不限制
	ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]*Message, error)

	// DeleteConversation 删除对话及其全部消息
	DeleteConversation(ctx context.Context, conversationID string) error

	// Stats 统计信息
	Stats(ctx context.Context) (*Stats, error)
}

// MessageReader 会话缓存重建所需的只读接口
type MessageReader interface {
	ListMessages(ctx context.Context, conversationID string, offset, limit int) ([]*Message, error)
}
