package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/vector"
)

// pageBreak pdftotext 等工具输出的分页符
const pageBreak = "\f"

// pdfPageKey PDF 加载器写入的页码（从 1 开始）
const pdfPageKey = "page"

var ingestibleExts = map[string]bool{
	".pdf": true,
	".txt": true,
	".md":  true,
}

// page 待切块的一页文本，number 为 nil 表示不记录页码
type page struct {
	number *int
	text   string
}

func newSplitter(size, overlap int) textsplitter.TextSplitter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
	)
}

// collectFiles 展开目录，只保留可导入的文件，结果保持输入顺序
func collectFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if ingestibleExts[strings.ToLower(filepath.Ext(p))] {
				files = append(files, p)
			}
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && ingestibleExts[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// chunkFile 读取文件并切块，PDF 按页加载，其余按纯文本处理
func chunkFile(ctx context.Context, splitter textsplitter.TextSplitter, path, docType string) ([]vector.Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		pages, err := loadPDF(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		return chunkPages(splitter, pages, path, docType)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return chunkText(splitter, string(data), path, docType)
}

// loadPDF 每页一个 page，页码转换为从 0 开始
func loadPDF(ctx context.Context, path string) ([]page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	docs, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, err
	}

	pages := make([]page, 0, len(docs))
	for i, doc := range docs {
		n, ok := doc.Metadata[pdfPageKey].(int)
		if !ok {
			n = i + 1
		}
		num := n - 1
		pages = append(pages, page{number: &num, text: doc.PageContent})
	}
	return pages, nil
}

// chunkText 按分页符拆页后切块；只有一页时不记录页码
func chunkText(splitter textsplitter.TextSplitter, text, source, docType string) ([]vector.Document, error) {
	parts := strings.Split(text, pageBreak)
	paged := len(parts) > 1

	pages := make([]page, 0, len(parts))
	for i, part := range parts {
		p := page{text: part}
		if paged {
			num := i
			p.number = &num
		}
		pages = append(pages, p)
	}
	return chunkPages(splitter, pages, source, docType)
}

// chunkPages 逐页切块，空白页与空白块被跳过
func chunkPages(splitter textsplitter.TextSplitter, pages []page, source, docType string) ([]vector.Document, error) {
	var docs []vector.Document
	for _, p := range pages {
		if strings.TrimSpace(p.text) == "" {
			continue
		}
		chunks, err := splitter.SplitText(p.text)
		if err != nil {
			return nil, fmt.Errorf("split %s: %w", source, err)
		}
		for _, chunk := range chunks {
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			docs = append(docs, vector.Document{
				Content:  chunk,
				Metadata: rag.Metadata{Source: source, Page: p.number, Type: docType},
			})
		}
	}
	return docs, nil
}
