// ingest 把训练资料切块、向量化后写入文档索引
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/embedding"
	applog "github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/infrastructure/vector"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
	defaultBatchSize    = 64
	readyTimeout        = 30 * time.Second
)

type options struct {
	chunkSize    int
	chunkOverlap int
	batchSize    int
	docType      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "ingest [paths...]",
		Short: "Split documents into chunks and upsert them into the document index",
		Long: `Walks the given files and directories, splits every .txt and .md file into
overlapping chunks, embeds them and upserts them into the Qdrant collection.
A form feed character marks a page break and sets the chunk page number.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args, opts)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&opts.chunkSize, "chunk-size", defaultChunkSize, "maximum characters per chunk")
	cmd.Flags().IntVar(&opts.chunkOverlap, "chunk-overlap", defaultChunkOverlap, "characters shared by consecutive chunks")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", defaultBatchSize, "chunks embedded per request")
	cmd.Flags().StringVar(&opts.docType, "type", "", "document type stored with every chunk (e.g. PDF)")

	return cmd
}

func run(ctx context.Context, paths []string, opts *options) error {
	if opts.chunkOverlap >= opts.chunkSize {
		return fmt.Errorf("chunk overlap %d must be smaller than chunk size %d", opts.chunkOverlap, opts.chunkSize)
	}
	if opts.batchSize <= 0 {
		opts.batchSize = defaultBatchSize
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applog.Init(&cfg.Log)
	logger := applog.NewModuleLogger("ingest", "main")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	files, err := collectFiles(paths)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn("No ingestible files found", "paths", paths)
		return nil
	}

	embedder := embedding.NewClient(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model,
		embedding.WithRetries(3),
	)
	index, cleanup, err := vector.ProvideQdrantIndex(&cfg.Qdrant, embedder)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := index.WaitForReady(ctx, readyTimeout); err != nil {
		return err
	}
	// 写入前确认向量化服务可用，并得到集合所需的维度
	dim, err := embedder.TestConnection(ctx)
	if err != nil {
		return fmt.Errorf("embedding endpoint unavailable: %w", err)
	}
	if err := index.EnsureCollection(ctx, uint64(dim)); err != nil {
		return err
	}

	splitter := newSplitter(opts.chunkSize, opts.chunkOverlap)
	total := 0
	for _, file := range files {
		docs, err := chunkFile(ctx, splitter, file, opts.docType)
		if err != nil {
			logger.Warn("Skipping file", "file", file, "error", err)
			continue
		}

		written := 0
		for start := 0; start < len(docs); start += opts.batchSize {
			end := min(start+opts.batchSize, len(docs))
			n, err := index.Upsert(ctx, docs[start:end])
			if err != nil {
				return fmt.Errorf("upsert %s: %w", file, err)
			}
			written += n
		}
		total += written
		logger.Info("File ingested", "file", file, "chunks", written)
	}

	logger.Info("Ingestion finished",
		"files", len(files),
		"chunks", total,
		"collection", cfg.Qdrant.Collection,
	)
	return nil
}
