package mcp

import (
	"context"
	"fmt"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchDocumentsInput 文档检索工具输入
type SearchDocumentsInput struct {
	Query string `json:"query" jsonschema:"Question to search for in the training documentation (required)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of passages to return, defaults to 3, max 10"`
}

// SearchDocumentsOutput 文档检索工具输出
type SearchDocumentsOutput struct {
	Passages   []*Passage `json:"passages" jsonschema:"Matching documentation passages"`
	TotalCount int        `json:"total_count" jsonschema:"Number of passages returned"`
}

// Passage 检索到的文档片段
type Passage struct {
	Title    string  `json:"title" jsonschema:"Document file name"`
	Location string  `json:"location" jsonschema:"Page or section marker"`
	Type     string  `json:"type" jsonschema:"Document type"`
	Preview  string  `json:"preview" jsonschema:"First characters of the passage"`
	Content  string  `json:"content" jsonschema:"Full passage text"`
	Score    float32 `json:"score" jsonschema:"Similarity score"`
}

// searchDocumentsTool 文档检索工具实现
func (s *MCPServer) searchDocumentsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchDocumentsInput,
) (*mcp.CallToolResult, SearchDocumentsOutput, error) {
	output := SearchDocumentsOutput{
		Passages: []*Passage{},
	}

	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	// 默认 3 个，最多 10 个，避免上下文过载
	limit := input.Limit
	if limit <= 0 {
		limit = 3
	}
	if limit > 10 {
		limit = 10
	}

	candidates, err := s.searcher.Retrieve(ctx, input.Query)
	if err != nil {
		return nil, output, fmt.Errorf("search failed: %w", err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for i, c := range candidates {
		output.Passages = append(output.Passages, &Passage{
			Title:    rag.Title(c.Metadata, i),
			Location: rag.Location(c.Metadata),
			Type:     rag.DocumentType(c.Metadata),
			Preview:  rag.Preview(c.Content),
			Content:  c.Content,
			Score:    c.Score,
		})
	}
	output.TotalCount = len(output.Passages)

	s.logger.Debug("search_documents completed",
		"query_length", len(input.Query),
		"results", output.TotalCount,
	)
	return nil, output, nil
}
