package conversation

import "time"

// Role 消息角色
type Role string

const (
	// RoleUser 用户消息
	RoleUser Role = "user"
	// RoleAssistant 助手回复
	RoleAssistant Role = "assistant"
)

// Valid 检查角色是否合法
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Conversation 对话实体，ID 同时作为会话 ID 使用
type Conversation struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int // 仅列表查询时计算
}

// Message 消息实体，持久化后不可变
// 对话内的顺序只由 CreatedAt 决定
type Message struct {
	ID             string
	ConversationID string
	Role           Role
	Content        string
	CreatedAt      time.Time
}

// Exchange 一次完整的问答（用户消息 + 助手回复）
type Exchange struct {
	UserText      string
	AssistantText string
}

// Stats 对话统计
type Stats struct {
	TotalConversations  int
	TotalMessages       int
	RecentConversations int // 最近 7 天有更新的对话数
	UserMessages        int
	AssistantMessages   int
}

// RecentWindow 统计"最近对话"的时间窗口
const RecentWindow = 7 * 24 * time.Hour
