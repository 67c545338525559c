// Package retrieval 把问题转换为压缩后的上下文与可追溯来源
package retrieval

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Pipeline 检索管线：检索 → 压缩 → 构建上下文
type Pipeline struct {
	index       rag.IndexProvider
	compressor  rag.Compressor
	k           int
	concurrency int
	timeouts    *config.TimeoutConfig
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewPipeline 创建检索管线
func NewPipeline(
	index rag.IndexProvider,
	compressor rag.Compressor,
	cfg *config.RetrievalConfig,
	timeouts *config.TimeoutConfig,
) *Pipeline {
	concurrency := cfg.CompressionConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		index:       index,
		compressor:  compressor,
		k:           cfg.K,
		concurrency: concurrency,
		timeouts:    timeouts,
		tracer:      otel.Tracer("formabot/retrieval"),
		logger:      log.NewModuleLogger("retrieval", "pipeline"),
	}
}

// K 每次检索的候选数量
func (p *Pipeline) K() int {
	return p.k
}

// Retrieve 从索引取前 k 个候选
func (p *Pipeline) Retrieve(ctx context.Context, query string) ([]rag.Candidate, error) {
	ctx, span := p.tracer.Start(ctx, "retrieval.search", trace.WithAttributes(attribute.Int("k", p.k)))
	defer span.End()

	ctx, cancel := withTimeout(ctx, p.timeouts.Index)
	defer cancel()

	candidates, err := p.index.Search(ctx, query, p.k)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, &rag.RetrievalError{Stage: rag.StageSearch, Err: err}
	}

	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	return candidates, nil
}

// Compress 并发压缩每个候选，只保留与问题相关的片段
// 压缩结果为空的候选被丢弃，其余保持检索顺序
func (p *Pipeline) Compress(ctx context.Context, candidates []rag.Candidate, query string) ([]rag.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	ctx, span := p.tracer.Start(ctx, "retrieval.compress", trace.WithAttributes(attribute.Int("candidates", len(candidates))))
	defer span.End()

	excerpts := make([]string, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, c := range candidates {
		g.Go(func() error {
			cctx, cancel := withTimeout(gctx, p.timeouts.Compression)
			defer cancel()

			excerpt, err := p.compressor.Extract(cctx, c.Content, query)
			if err != nil {
				return err
			}
			excerpts[i] = excerpt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compress failed")
		return nil, &rag.RetrievalError{Stage: rag.StageCompress, Err: err}
	}

	kept := make([]rag.Candidate, 0, len(candidates))
	for i, c := range candidates {
		excerpt := strings.TrimSpace(excerpts[i])
		if excerpt == "" {
			continue
		}
		c.Content = excerpt
		kept = append(kept, c)
	}

	span.SetAttributes(attribute.Int("kept", len(kept)))
	p.logger.Debug("Candidates compressed",
		"candidates", len(candidates),
		"kept", len(kept),
	)
	return kept, nil
}

// BuildContext 拼接上下文并生成来源列表
func BuildContext(candidates []rag.Candidate) *rag.Result {
	parts := make([]string, 0, len(candidates))
	sources := make([]rag.Source, 0, len(candidates))
	for i, c := range candidates {
		parts = append(parts, "- "+c.Content)
		sources = append(sources, rag.NewSource(c, i))
	}

	return &rag.Result{
		Context:    strings.Join(parts, "\n\n"),
		Sources:    sources,
		Candidates: candidates,
	}
}

// Run 执行完整管线，任一外部服务失败即整体失败
func (p *Pipeline) Run(ctx context.Context, query string) (*rag.Result, error) {
	candidates, err := p.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	compressed, err := p.Compress(ctx, candidates, query)
	if err != nil {
		return nil, err
	}

	return BuildContext(compressed), nil
}

// withTimeout d <= 0 时不设超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
