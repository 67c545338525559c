package rag

import "context"

// IndexProvider 文档索引（不透明的近邻文本检索服务）
type IndexProvider interface {
	// Search 按相似度返回前 k 个候选
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
	// Count 索引中的文档块数量，用于健康检查
	Count(ctx context.Context) (uint64, error)
}

// Compressor 上下文压缩服务：只保留与查询相关的片段，无关时返回空字符串
type Compressor interface {
	Extract(ctx context.Context, content, query string) (string, error)
}

// Generator 文本生成服务
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	// Model 当前使用的模型名称
	Model() string
}
