// Package llm 封装 OpenAI 兼容的对话补全接口（Groq 等）
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// 确保 Client 实现了 rag.Generator 接口
var _ rag.Generator = (*Client)(nil)

// ErrEmptyCompletion 接口未返回任何候选
var ErrEmptyCompletion = errors.New("llm returned no choices")

// Client LLM Chat 客户端
type Client struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewClient 创建 LLM 客户端
// requestsPerSec <= 0 表示不限速
func NewClient(baseURL, apiKey, model string, requestsPerSec float64) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}

	return &Client{
		client:  openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: limiter,
		logger:  log.NewModuleLogger("llm", "client"),
	}
}

// ProvideClient 提供回答生成用的客户端
func ProvideClient(cfg *config.LLMConfig) *Client {
	return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.RequestsPerSec)
}

// Model 返回模型名称
func (c *Client) Model() string {
	return c.model
}

// Complete 发送单条用户消息并返回回复文本
// 不重试，超时由调用方通过 ctx 控制
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		// 温度 0 会被 omitempty 省略，用最小正数代替
		Temperature: math.SmallestNonzeroFloat32,
	}

	c.logger.Debug("Sending chat completion request",
		"model", c.model,
		"prompt_chars", len(prompt),
	)

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug("Chat completion received",
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return resp.Choices[0].Message.Content, nil
}

// TestConnection 测试 LLM API 连接
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Complete(ctx, "Réponds uniquement par OK.")
	return err
}
