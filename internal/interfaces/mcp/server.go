package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// DocumentSearcher 文档检索（不做压缩）
type DocumentSearcher interface {
	Retrieve(ctx context.Context, query string) ([]rag.Candidate, error)
}

// ConversationLister 对话查询
type ConversationLister interface {
	ListConversations(ctx context.Context, offset, limit int) ([]*conversation.Conversation, error)
	GetMessages(ctx context.Context, conversationID string, offset, limit int) ([]*conversation.Message, error)
}

// MCPServer MCP 服务器
type MCPServer struct {
	server        *mcp.Server
	handler       http.Handler
	searcher      DocumentSearcher
	conversations ConversationLister
	logger        *slog.Logger
}

// NewServer 创建 MCP 服务器
func NewServer(searcher DocumentSearcher, conversations ConversationLister) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "formabot",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:        server,
		searcher:      searcher,
		conversations: conversations,
		logger:        log.NewModuleLogger("mcp", "server"),
	}

	// 注册工具：search_documents
	mcp.AddTool(server, &mcp.Tool{
		Name: "search_documents",
		Description: `Search the training documentation index for passages relevant to a question.

Parameters:
- query (string, required): Natural language question, e.g. "Comment créer une formation?"
- limit (int, optional): Maximum number of passages to return (1-10, default: 3)

Returns: Matching passages with title, location, type, preview and similarity score.`,
	}, mcpServer.searchDocumentsTool)

	// 注册工具：list_conversations
	mcp.AddTool(server, &mcp.Tool{
		Name: "list_conversations",
		Description: `List chatbot conversations, most recently updated first.

Parameters:
- skip (int, optional): Number of conversations to skip, defaults to 0
- limit (int, optional): Maximum number of conversations (1-100, default: 20)

Returns: Conversations with id, title, timestamps and message count.`,
	}, mcpServer.listConversationsTool)

	// 注册工具：get_conversation_messages
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_conversation_messages",
		Description: "Read the messages of one conversation in chronological order. Parameters: conversation_id (string, required). Returns: messages with role, content and time.",
	}, mcpServer.getConversationMessagesTool)

	// 创建 SSE Handler
	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil, // SSEOptions，使用默认值
	)

	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}
