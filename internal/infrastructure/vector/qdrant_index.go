// Package vector 基于 Qdrant 的文档索引
package vector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// 确保 QdrantIndex 实现了 rag.IndexProvider 接口
var _ rag.IndexProvider = (*QdrantIndex)(nil)

// 文档块 payload 字段
const (
	PayloadContent = "content"
	PayloadSource  = "source"
	PayloadPage    = "page"
	PayloadType    = "type"
)

// Embedder 查询与文档的向量化
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Document 待写入索引的文档块
type Document struct {
	Content  string
	Metadata rag.Metadata
}

// QdrantIndex 文档索引
type QdrantIndex struct {
	client     *qdrant.Client
	collection string
	embedder   Embedder
	logger     *slog.Logger
}

// NewQdrantIndex 创建文档索引
func NewQdrantIndex(client *qdrant.Client, collection string, embedder Embedder) *QdrantIndex {
	return &QdrantIndex{
		client:     client,
		collection: collection,
		embedder:   embedder,
		logger:     log.NewModuleLogger("vector", "qdrant"),
	}
}

// NewClient 创建 Qdrant gRPC 客户端（不等待服务就绪）
func NewClient(cfg *config.QdrantConfig) (*qdrant.Client, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: cfg.Host,
		Port: cfg.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}
	return client, nil
}

// ProvideQdrantIndex 提供文档索引，返回关闭函数
// 服务不可用时照常启动，由健康检查报告状态
func ProvideQdrantIndex(cfg *config.QdrantConfig, embedder Embedder) (*QdrantIndex, func(), error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}

	index := NewQdrantIndex(client, cfg.Collection, embedder)
	cleanup := func() {
		if err := client.Close(); err != nil {
			index.logger.Warn("Failed to close qdrant client", "error", err)
		}
	}
	return index, cleanup, nil
}

// WaitForReady 轮询直到 Qdrant 可以响应
func (q *QdrantIndex) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := q.client.ListCollections(ctx); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for qdrant to be ready")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// EnsureCollection 集合不存在时创建
func (q *QdrantIndex) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	exists, err := q.client.CollectionExists(ctx, q.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", q.collection, err)
	}
	if exists {
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", q.collection, err)
	}

	q.logger.Info("Collection created", "collection", q.collection, "vector_size", vectorSize)
	return nil
}

// Search 按相似度返回前 k 个候选
func (q *QdrantIndex) Search(ctx context.Context, query string, k int) ([]rag.Candidate, error) {
	vector, err := q.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	limit := uint64(k)
	hits, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query qdrant: %w", err)
	}

	candidates := make([]rag.Candidate, 0, len(hits))
	for _, hit := range hits {
		c, ok := candidateFromPayload(hit.GetPayload())
		if !ok {
			continue
		}
		c.Score = hit.GetScore()
		candidates = append(candidates, c)
	}

	q.logger.Debug("Qdrant search completed",
		"k", k,
		"hits", len(hits),
		"candidates", len(candidates),
	)
	return candidates, nil
}

// Count 集合中的文档块数量
func (q *QdrantIndex) Count(ctx context.Context) (uint64, error) {
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}

// Upsert 向量化并写入文档块，返回写入数量
func (q *QdrantIndex) Upsert(ctx context.Context, docs []Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := q.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed documents: %w", err)
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, d := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(uuid.NewString()),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(payloadFromDocument(d)),
		}
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert points: %w", err)
	}
	return len(points), nil
}

// payloadFromDocument 构建 payload，字符串必须是有效 UTF-8
func payloadFromDocument(d Document) map[string]any {
	payload := map[string]any{
		PayloadContent: sanitizeUTF8(d.Content),
		PayloadSource:  sanitizeUTF8(d.Metadata.Source),
	}
	if d.Metadata.Page != nil {
		payload[PayloadPage] = int64(*d.Metadata.Page)
	}
	if d.Metadata.Type != "" {
		payload[PayloadType] = sanitizeUTF8(d.Metadata.Type)
	}
	return payload
}

// candidateFromPayload 解析 payload，没有内容的点被忽略
func candidateFromPayload(payload map[string]*qdrant.Value) (rag.Candidate, bool) {
	content := extractStringValue(payload[PayloadContent])
	if content == "" {
		return rag.Candidate{}, false
	}

	c := rag.Candidate{
		Content: content,
		Metadata: rag.Metadata{
			Source: extractStringValue(payload[PayloadSource]),
			Type:   extractStringValue(payload[PayloadType]),
		},
	}
	if page, ok := extractIntValue(payload[PayloadPage]); ok {
		p := int(page)
		c.Metadata.Page = &p
	}
	return c, true
}

// extractStringValue 从 qdrant.Value 提取字符串值
func extractStringValue(val *qdrant.Value) string {
	if val == nil {
		return ""
	}
	return val.GetStringValue()
}

// extractIntValue 从 qdrant.Value 提取整数值，字段缺失时 ok 为 false
func extractIntValue(val *qdrant.Value) (int64, bool) {
	if val == nil {
		return 0, false
	}
	switch v := val.GetKind().(type) {
	case *qdrant.Value_IntegerValue:
		return v.IntegerValue, true
	case *qdrant.Value_DoubleValue:
		return int64(v.DoubleValue), true
	default:
		return 0, false
	}
}

// sanitizeUTF8 清理字符串中的无效 UTF-8 字符
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
