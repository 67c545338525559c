// Package chat 编排一轮问答：会话解析、检索、生成、持久化
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/formabot/backend/internal/application/prompt"
	"github.com/formabot/backend/internal/application/session"
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/infrastructure/metrics"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultSessionID 未指定会话时重置使用的会话 ID
const DefaultSessionID = "default"

// Retriever 检索管线
type Retriever interface {
	Run(ctx context.Context, query string) (*rag.Result, error)
}

// PromptBuilder 用当前模板组装提示词
type PromptBuilder interface {
	Assemble(history, context, question string) (string, error)
}

// TokenCounter 统计 token 数
type TokenCounter interface {
	Count(text string) int
}

// Result 一轮问答的结果
type Result struct {
	Response  string
	SessionID string
	Sources   []rag.Source
}

// Orchestrator 对话编排器
// 同一会话的操作串行执行，不同会话互不阻塞
type Orchestrator struct {
	store     conversation.Repository
	cache     *session.Cache
	locker    *session.Locker
	retriever Retriever
	prompts   PromptBuilder
	generator rag.Generator
	eventBus  events.EventBus
	metrics   *metrics.Metrics
	tokens    TokenCounter
	timeouts  *config.TimeoutConfig
	tracer    trace.Tracer
	now       func() time.Time
	logger    *slog.Logger
}

// NewOrchestrator 创建对话编排器
func NewOrchestrator(
	store conversation.Repository,
	cache *session.Cache,
	locker *session.Locker,
	retriever Retriever,
	prompts PromptBuilder,
	generator rag.Generator,
	eventBus events.EventBus,
	m *metrics.Metrics,
	tokens TokenCounter,
	timeouts *config.TimeoutConfig,
) *Orchestrator {
	return &Orchestrator{
		store:     store,
		cache:     cache,
		locker:    locker,
		retriever: retriever,
		prompts:   prompts,
		generator: generator,
		eventBus:  eventBus,
		metrics:   m,
		tokens:    tokens,
		timeouts:  timeouts,
		tracer:    otel.Tracer("formabot/chat"),
		now:       time.Now,
		logger:    log.NewModuleLogger("chat", "orchestrator"),
	}
}

// turn 单轮处理状态
type turn struct {
	stage     Stage
	startedAt time.Time
}

// Chat 处理一轮问答
// 用户消息在调用生成服务之前持久化，生成失败时保留这条不完整的问答
func (o *Orchestrator) Chat(ctx context.Context, message, sessionID string) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	ctx = log.WithSessionID(ctx, sessionID)
	ctx, span := o.tracer.Start(ctx, "chat.turn", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	logger := log.FromContext(ctx, o.logger)
	t := &turn{}

	// ResolvingSession：只读取历史，对话行在写入第一条消息时随 RecordMessage 创建，
	// 检索或组装失败的轮次不会留下空对话
	o.enter(t, StageResolvingSession)
	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return nil, o.fail(ctx, span, t, err)
	}
	defer unlock()

	history, err := o.resolveHistory(ctx, sessionID)
	if err != nil {
		return nil, o.fail(ctx, span, t, err)
	}

	// Retrieving
	o.enter(t, StageRetrieving)
	retrieved, err := o.retriever.Run(ctx, message)
	if err != nil {
		return nil, o.fail(ctx, span, t, err)
	}

	// Generating
	o.enter(t, StageGenerating)
	input, err := o.prompts.Assemble(session.FormatHistory(history), retrieved.Context, message)
	if err != nil {
		return nil, o.fail(ctx, span, t, err)
	}
	if o.tokens != nil {
		n := o.tokens.Count(input)
		o.observeTokens(n)
		span.SetAttributes(attribute.Int("prompt_tokens", n))
	}

	if _, err := o.record(ctx, sessionID, conversation.RoleUser, message); err != nil {
		return nil, o.fail(ctx, span, t, err)
	}

	answer, err := o.generate(ctx, input)
	if err != nil {
		return nil, o.fail(ctx, span, t, err)
	}

	// Persisting
	o.enter(t, StagePersisting)
	if _, err := o.record(ctx, sessionID, conversation.RoleAssistant, answer); err != nil {
		return nil, o.fail(ctx, span, t, err)
	}
	o.cache.AppendExchange(sessionID, message, answer)
	o.publishUpdated(ctx, sessionID)

	// Responding
	o.enter(t, StageResponding)
	if o.metrics != nil {
		o.metrics.IncTurn(metrics.OutcomeSuccess)
		o.metrics.ObserveSources(len(retrieved.Sources))
	}
	span.SetAttributes(attribute.Int("sources", len(retrieved.Sources)))

	logger.Info("Chat turn completed",
		"history_exchanges", len(history),
		"sources", len(retrieved.Sources),
		"response_length", len(answer),
	)

	return &Result{
		Response:  answer,
		SessionID: sessionID,
		Sources:   retrieved.Sources,
	}, nil
}

// Reset 清除会话记忆，不访问存储；sessionID 为空时重置默认会话
func (o *Orchestrator) Reset(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	unlock, err := o.locker.Lock(ctx, sessionID)
	if err != nil {
		return "", err
	}
	defer unlock()

	o.cache.Reset(sessionID)
	o.publish(events.ConversationReset, sessionID, "", 0)

	o.logger.Info("Session memory reset", "session_id", sessionID)
	return sessionID, nil
}

// Delete 删除对话及其消息，并清除会话记忆
func (o *Orchestrator) Delete(ctx context.Context, conversationID string) error {
	unlock, err := o.locker.Lock(ctx, conversationID)
	if err != nil {
		return err
	}
	defer unlock()

	storeCtx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()

	if err := o.store.DeleteConversation(storeCtx, conversationID); err != nil {
		return err
	}
	o.cache.Reset(conversationID)
	o.publish(events.ConversationDeleted, conversationID, "", 0)

	o.logger.Info("Conversation deleted", "conversation_id", conversationID)
	return nil
}

// resolveHistory 获取会话历史，未缓存时从存储重建
func (o *Orchestrator) resolveHistory(ctx context.Context, sessionID string) ([]conversation.Exchange, error) {
	storeCtx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()
	return o.cache.Get(storeCtx, sessionID)
}

// record 在单个事务中写入消息（含创建对话与标题规则）
func (o *Orchestrator) record(ctx context.Context, sessionID string, role conversation.Role, content string) (*conversation.Message, error) {
	storeCtx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()
	return o.store.RecordMessage(storeCtx, sessionID, role, content)
}

// generate 调用生成服务，错误与超时统一归为 ErrGenerationFailure
func (o *Orchestrator) generate(ctx context.Context, input string) (string, error) {
	ctx, span := o.tracer.Start(ctx, "chat.generate", trace.WithAttributes(
		attribute.String("model", o.generator.Model()),
	))
	defer span.End()

	genCtx, cancel := withTimeout(ctx, o.timeouts.Generation)
	defer cancel()

	answer, err := o.generator.Complete(genCtx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%w: %w", ErrGenerationFailure, err)
	}
	return answer, nil
}

// publishUpdated 发布会话更新事件
func (o *Orchestrator) publishUpdated(ctx context.Context, sessionID string) {
	if o.eventBus == nil {
		return
	}
	storeCtx, cancel := withTimeout(ctx, o.timeouts.Store)
	defer cancel()

	conv, err := o.store.GetConversation(storeCtx, sessionID)
	if err != nil {
		o.logger.Warn("Failed to load conversation for event",
			"session_id", sessionID,
			"error", err,
		)
		return
	}
	o.publish(events.ConversationUpdated, sessionID, conv.Title, conv.MessageCount)
}

func (o *Orchestrator) publish(eventType events.EventType, sessionID, title string, count int) {
	if o.eventBus == nil {
		return
	}
	o.eventBus.Publish(&events.ConversationEvent{
		EventType:    eventType,
		SessionID:    sessionID,
		Title:        title,
		MessageCount: count,
		EventTime:    o.now(),
	})
}

// enter 进入新阶段，记录上一阶段耗时
func (o *Orchestrator) enter(t *turn, next Stage) {
	now := o.now()
	if t.stage != "" && o.metrics != nil {
		o.metrics.ObserveStage(string(t.stage), now.Sub(t.startedAt))
	}
	t.stage = next
	t.startedAt = now
}

// fail 进入 StageFailed 并返回带阶段信息的错误
func (o *Orchestrator) fail(ctx context.Context, span trace.Span, t *turn, err error) error {
	failedAt := t.stage
	o.enter(t, StageFailed)

	outcome := outcomeOf(ctx, err)
	if o.metrics != nil {
		o.metrics.IncTurn(outcome)
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.SetAttributes(attribute.String("failed_stage", string(failedAt)))

	log.FromContext(ctx, o.logger).Error("Chat turn failed",
		"stage", failedAt,
		"outcome", outcome,
		"error", err,
	)
	return &TurnError{Stage: failedAt, Err: err}
}

func (o *Orchestrator) observeTokens(n int) {
	if o.metrics != nil {
		o.metrics.ObservePromptTokens(n)
	}
}

// outcomeOf 把错误映射为指标标签
func outcomeOf(ctx context.Context, err error) string {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return metrics.OutcomeCancelled
	case errors.Is(err, rag.ErrRetrievalUnavailable):
		return metrics.OutcomeRetrievalFailure
	case errors.Is(err, ErrGenerationFailure):
		return metrics.OutcomeGenerationFailure
	case errors.Is(err, prompt.ErrTemplate):
		return metrics.OutcomeTemplateFailure
	default:
		return metrics.OutcomeStoreFailure
	}
}

// withTimeout d <= 0 时不设超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
