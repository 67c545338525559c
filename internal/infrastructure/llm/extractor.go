package llm

import (
	"context"
	"strings"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
)

// 确保 Extractor 实现了 rag.Compressor 接口
var _ rag.Compressor = (*Extractor)(nil)

// NoOutput 模型判定上下文无关时返回的标记
const NoOutput = "NO_OUTPUT"

// extractPrompt 逐字摘取相关片段的提示词
const extractPrompt = `Given the following question and context, extract any part of the context *AS IS* that is relevant to answer the question. If none of the context is relevant return ` + NoOutput + `.

Remember, *DO NOT* edit the extracted parts of the context.

> Question: {question}
> Context:
>>>
{context}
>>>
Extracted relevant parts:`

// completer 补全接口
type completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Extractor 用 LLM 从候选文档中摘取与问题相关的片段
type Extractor struct {
	llm completer
}

// NewExtractor 创建摘取器
func NewExtractor(llm completer) *Extractor {
	return &Extractor{llm: llm}
}

// ProvideExtractor 使用压缩模型创建摘取器
func ProvideExtractor(cfg *config.LLMConfig) *Extractor {
	model := cfg.CompressionModel
	if model == "" {
		model = cfg.Model
	}
	return NewExtractor(NewClient(cfg.BaseURL, cfg.APIKey, model, cfg.RequestsPerSec))
}

// Extract 返回相关片段，无关时返回空字符串
func (e *Extractor) Extract(ctx context.Context, content, query string) (string, error) {
	prompt := strings.NewReplacer("{question}", query, "{context}", content).Replace(extractPrompt)

	out, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}

	out = strings.TrimSpace(out)
	if out == NoOutput {
		return "", nil
	}
	return out, nil
}
