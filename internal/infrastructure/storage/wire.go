package storage

import (
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/google/wire"
)

// ProviderSet Storage 基础设施层 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideDB,                 // 提供数据库连接
	NewConversationRepository, // 对话仓储
	wire.Bind(new(conversation.Repository), new(*ConversationRepository)),
	wire.Bind(new(conversation.MessageReader), new(*ConversationRepository)),
)
