package chat

import (
	"github.com/formabot/backend/internal/application/prompt"
	"github.com/formabot/backend/internal/application/retrieval"
	"github.com/formabot/backend/internal/application/session"
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/infrastructure/metrics"
	"github.com/formabot/backend/internal/infrastructure/tokenizer"
	"github.com/google/wire"
)

// ProvideCache 创建会话缓存并注册缓存规模指标
func ProvideCache(reader conversation.MessageReader, m *metrics.Metrics) *session.Cache {
	cache := session.NewCache(reader)
	m.RegisterCachedSessions(cache.Len)
	return cache
}

// ProviderSet 对话编排 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideCache,
	session.NewLocker,
	retrieval.NewPipeline,
	NewOrchestrator,
	NewConversationService,
	wire.Bind(new(Retriever), new(*retrieval.Pipeline)),
	wire.Bind(new(PromptBuilder), new(*prompt.Store)),
	wire.Bind(new(TokenCounter), new(*tokenizer.Counter)),
)
