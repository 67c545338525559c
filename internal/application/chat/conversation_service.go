package chat

import (
	"context"
	"log/slog"

	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
)

// 健康状态
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// Transcript 对话全文
type Transcript struct {
	Conversation *conversation.Conversation
	Messages     []*conversation.Message
}

// Health 服务健康状况，文档数量作为索引存活信号
type Health struct {
	Status        string
	DocumentCount uint64
	Model         string
	Error         string
}

// ConversationService 对话查询服务
type ConversationService struct {
	store     conversation.Repository
	index     rag.IndexProvider
	generator rag.Generator
	timeouts  *config.TimeoutConfig
	logger    *slog.Logger
}

// NewConversationService 创建对话查询服务
func NewConversationService(
	store conversation.Repository,
	index rag.IndexProvider,
	generator rag.Generator,
	timeouts *config.TimeoutConfig,
) *ConversationService {
	return &ConversationService{
		store:     store,
		index:     index,
		generator: generator,
		timeouts:  timeouts,
		logger:    log.NewModuleLogger("chat", "conversation_service"),
	}
}

// ListConversations 分页列出对话（最近更新的在前）
func (s *ConversationService) ListConversations(ctx context.Context, offset, limit int) ([]*conversation.Conversation, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.ListConversations(ctx, offset, limit)
}

// GetMessages 分页列出对话消息，对话不存在时返回 ErrConversationNotFound
func (s *ConversationService) GetMessages(ctx context.Context, conversationID string, offset, limit int) ([]*conversation.Message, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()

	if _, err := s.store.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	return s.store.ListMessages(ctx, conversationID, offset, limit)
}

// GetTranscript 获取对话及全部消息
func (s *ConversationService) GetTranscript(ctx context.Context, conversationID string) (*Transcript, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()

	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	messages, err := s.store.ListMessages(ctx, conversationID, 0, 0)
	if err != nil {
		return nil, err
	}
	return &Transcript{Conversation: conv, Messages: messages}, nil
}

// Stats 对话统计
func (s *ConversationService) Stats(ctx context.Context) (*conversation.Stats, error) {
	ctx, cancel := withTimeout(ctx, s.timeouts.Store)
	defer cancel()
	return s.store.Stats(ctx)
}

// Health 检查索引是否可用
func (s *ConversationService) Health(ctx context.Context) *Health {
	ctx, cancel := withTimeout(ctx, s.timeouts.Index)
	defer cancel()

	count, err := s.index.Count(ctx)
	if err != nil {
		s.logger.Warn("Health check failed", "error", err)
		return &Health{Status: HealthStatusUnhealthy, Error: err.Error()}
	}
	return &Health{
		Status:        HealthStatusHealthy,
		DocumentCount: count,
		Model:         s.generator.Model(),
	}
}
