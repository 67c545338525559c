// Package embedding 封装 OpenAI 兼容的向量化接口（Ollama、OpenAI 等）
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI embeddings API 批量限制：每次最多 2048 个文本
const maxBatchSize = 2048

// ErrEmptyInput 输入为空
var ErrEmptyInput = errors.New("texts cannot be empty")

// Client Embedding API 客户端
type Client struct {
	client   *openai.Client
	baseURL  string
	apiKey   string
	model    string
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithRetries 设置每批最多尝试次数（含首次），默认 1 即不重试
func WithRetries(attempts int) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
	}
}

// WithBackoff 设置重试的基础间隔，第 n 次重试等待 n 倍
func WithBackoff(d time.Duration) Option {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient 创建 Embedding 客户端
func NewClient(baseURL, apiKey, model string, opts ...Option) *Client {
	normalizedURL := buildBaseURL(baseURL)

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = normalizedURL

	c := &Client{
		client:   openai.NewClientWithConfig(cfg),
		baseURL:  normalizedURL,
		apiKey:   apiKey,
		model:    model,
		attempts: 1,
		backoff:  time.Second,
		logger:   log.NewModuleLogger("embedding", "client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProvideClient 提供服务路径使用的客户端（不重试）
func ProvideClient(cfg *config.EmbeddingConfig) *Client {
	return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
}

// buildBaseURL 规范化为以 /v1 结尾的地址
// 支持传入完整的 /v1/embeddings 路径
func buildBaseURL(baseURL string) string {
	u := strings.TrimSuffix(baseURL, "/")

	// 1. 已包含完整路径 /v1/embeddings，去掉 /embeddings
	if strings.HasSuffix(u, "/v1/embeddings") {
		return strings.TrimSuffix(u, "/embeddings")
	}

	// 2. 以 /v1 结尾，直接使用
	if strings.HasSuffix(u, "/v1") {
		return u
	}

	// 3. 其他情况，追加 /v1
	return u + "/v1"
}

// Model 返回模型名称
func (c *Client) Model() string {
	return c.model
}

// EmbedQuery 向量化单条查询
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("invalid embedding response")
	}
	return vectors[0], nil
}

// EmbedTexts 批量向量化文本，结果与输入顺序一致
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	if len(texts) > maxBatchSize {
		c.logger.Info("Splitting texts into batches",
			"total_texts", len(texts),
			"batch_limit", maxBatchSize,
		)
	}

	allVectors := make([][]float32, 0, len(texts))
	totalBatches := (len(texts) + maxBatchSize - 1) / maxBatchSize

	for i := 0; i < len(texts); i += maxBatchSize {
		end := min(i+maxBatchSize, len(texts))
		batch := texts[i:end]
		batchNum := (i / maxBatchSize) + 1

		c.logger.Debug("Processing batch",
			"batch", batchNum,
			"total_batches", totalBatches,
			"batch_size", len(batch),
		)

		vectors, err := c.embedWithRetry(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch %d: %w", batchNum, err)
		}
		allVectors = append(allVectors, vectors...)
	}

	return allVectors, nil
}

// embedWithRetry 带重试的单批次向量化
func (c *Client) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		vectors, err := c.embedBatch(ctx, texts)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == c.attempts {
			break
		}

		c.logger.Warn("Embedding request failed, retrying",
			"attempt", attempt,
			"max_attempts", c.attempts,
			"error", err,
		)

		// 递增延迟
		select {
		case <-time.After(time.Duration(attempt) * c.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// embedBatch 发送单次请求
func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.logger.Debug("Sending embedding request",
		"base_url", c.baseURL,
		"batch_size", len(texts),
		"model", c.model,
		"api_key", maskKey(c.apiKey),
	)

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response size mismatch: got %d, want %d", len(resp.Data), len(texts))
	}

	// 按 index 还原顺序
	vectors := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(vectors) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		vectors[data.Index] = data.Embedding
	}
	return vectors, nil
}

// GetVectorDimension 获取向量维度（通过测试请求）
func (c *Client) GetVectorDimension(ctx context.Context) (int, error) {
	vector, err := c.EmbedQuery(ctx, "test")
	if err != nil {
		return 0, err
	}
	return len(vector), nil
}

// TestConnection 测试连接并返回向量维度
func (c *Client) TestConnection(ctx context.Context) (int, error) {
	c.logger.Info("Testing embedding API connection",
		"base_url", c.baseURL,
		"model", c.model,
	)

	dimension, err := c.GetVectorDimension(ctx)
	if err != nil {
		c.logger.Error("Embedding API connection test failed", "error", err)
		return 0, err
	}

	c.logger.Info("Embedding API connection test successful", "vector_dimension", dimension)
	return dimension, nil
}

// maskKey API Key 脱敏
func maskKey(key string) string {
	if len(key) > 8 {
		return key[:4] + "..." + key[len(key)-4:]
	}
	return "***"
}
