package conversation

import "errors"

var (
	// ErrConversationNotFound 对话不存在
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrStoreFailure 存储事务失败（已回滚）
	ErrStoreFailure = errors.New("conversation store failure")
	// ErrInvalidRole 非法消息角色
	ErrInvalidRole = errors.New("invalid message role")
)
