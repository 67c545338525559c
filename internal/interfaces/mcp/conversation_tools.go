package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListConversationsInput 对话列表工具输入
type ListConversationsInput struct {
	Skip  int `json:"skip,omitempty" jsonschema:"Number of conversations to skip, defaults to 0"`
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of conversations, defaults to 20, max 100"`
}

// ListConversationsOutput 对话列表工具输出
type ListConversationsOutput struct {
	Conversations []*ConversationSummary `json:"conversations" jsonschema:"Conversations, most recently updated first"`
	TotalCount    int                    `json:"total_count" jsonschema:"Number of conversations returned"`
}

// ConversationSummary 对话摘要
type ConversationSummary struct {
	ID           string `json:"id" jsonschema:"Conversation (session) ID"`
	Title        string `json:"title" jsonschema:"Conversation title"`
	CreatedAt    string `json:"created_at" jsonschema:"Creation time, RFC 3339"`
	UpdatedAt    string `json:"updated_at" jsonschema:"Last update time, RFC 3339"`
	MessageCount int    `json:"message_count" jsonschema:"Number of stored messages"`
}

// GetConversationMessagesInput 对话消息工具输入
type GetConversationMessagesInput struct {
	ConversationID string `json:"conversation_id" jsonschema:"Conversation ID (required)"`
}

// GetConversationMessagesOutput 对话消息工具输出
type GetConversationMessagesOutput struct {
	ConversationID string         `json:"conversation_id" jsonschema:"Conversation ID"`
	Messages       []*MessageItem `json:"messages" jsonschema:"Messages in chronological order"`
}

// MessageItem 对话消息
type MessageItem struct {
	Role      string `json:"role" jsonschema:"user or assistant"`
	Content   string `json:"content" jsonschema:"Message text"`
	CreatedAt string `json:"created_at" jsonschema:"Creation time, RFC 3339"`
}

// listConversationsTool 对话列表工具实现
func (s *MCPServer) listConversationsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListConversationsInput,
) (*mcp.CallToolResult, ListConversationsOutput, error) {
	output := ListConversationsOutput{
		Conversations: []*ConversationSummary{},
	}

	skip := input.Skip
	if skip < 0 {
		skip = 0
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	conversations, err := s.conversations.ListConversations(ctx, skip, limit)
	if err != nil {
		return nil, output, fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conv := range conversations {
		output.Conversations = append(output.Conversations, &ConversationSummary{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt.Format(time.RFC3339),
			UpdatedAt:    conv.UpdatedAt.Format(time.RFC3339),
			MessageCount: conv.MessageCount,
		})
	}
	output.TotalCount = len(output.Conversations)
	return nil, output, nil
}

// getConversationMessagesTool 对话消息工具实现
func (s *MCPServer) getConversationMessagesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetConversationMessagesInput,
) (*mcp.CallToolResult, GetConversationMessagesOutput, error) {
	output := GetConversationMessagesOutput{
		ConversationID: input.ConversationID,
		Messages:       []*MessageItem{},
	}

	if input.ConversationID == "" {
		return nil, output, fmt.Errorf("conversation_id is required")
	}

	messages, err := s.conversations.GetMessages(ctx, input.ConversationID, 0, 0)
	if err != nil {
		return nil, output, fmt.Errorf("failed to read conversation %s: %w", input.ConversationID, err)
	}

	for _, m := range messages {
		output.Messages = append(output.Messages, &MessageItem{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, output, nil
}
