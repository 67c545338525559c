package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// ConversationQuery 对话查询
type ConversationQuery interface {
	ListConversations(ctx context.Context, offset, limit int) ([]*conversation.Conversation, error)
	GetMessages(ctx context.Context, conversationID string, offset, limit int) ([]*conversation.Message, error)
	GetTranscript(ctx context.Context, conversationID string) (*chat.Transcript, error)
	Stats(ctx context.Context) (*conversation.Stats, error)
}

// ConversationHandler 对话历史处理器
type ConversationHandler struct {
	query  ConversationQuery
	chat   ChatService
	logger *slog.Logger
}

// NewConversationHandler 创建对话历史处理器
func NewConversationHandler(query ConversationQuery, chat ChatService) *ConversationHandler {
	return &ConversationHandler{
		query:  query,
		chat:   chat,
		logger: log.NewModuleLogger("http", "conversation_handler"),
	}
}

// PageQuery 分页参数
type PageQuery struct {
	Skip  int `form:"skip,default=0" binding:"min=0"`
	Limit int `form:"limit,default=100" binding:"min=0,max=1000"`
}

// ConversationDTO 对话摘要
type ConversationDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// MessageDTO 对话消息
type MessageDTO struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageDistribution 按角色统计的消息数
type MessageDistribution struct {
	User      int `json:"user"`
	Assistant int `json:"assistant"`
}

// StatsDTO 对话统计
type StatsDTO struct {
	TotalConversations  int                 `json:"total_conversations"`
	TotalMessages       int                 `json:"total_messages"`
	RecentConversations int                 `json:"recent_conversations"`
	MessageDistribution MessageDistribution `json:"message_distribution"`
}

// List 列出对话
// @Summary 列出对话（最近更新的在前）
// @Tags 对话历史
// @Produce json
// @Param skip query int false "跳过条数"
// @Param limit query int false "返回条数，默认 100"
// @Success 200 {array} ConversationDTO
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	var page PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	conversations, err := h.query.ListConversations(c.Request.Context(), page.Skip, page.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	result := make([]ConversationDTO, 0, len(conversations))
	for _, conv := range conversations {
		result = append(result, ConversationDTO{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: conv.MessageCount,
		})
	}
	c.JSON(http.StatusOK, result)
}

// Messages 列出对话消息
// @Summary 获取对话消息（按时间正序）
// @Tags 对话历史
// @Produce json
// @Param id path string true "对话 ID"
// @Param skip query int false "跳过条数"
// @Param limit query int false "返回条数，默认 100"
// @Success 200 {array} MessageDTO
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{id} [get]
func (h *ConversationHandler) Messages(c *gin.Context) {
	var page PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		badRequest(c, err)
		return
	}

	messages, err := h.query.GetMessages(c.Request.Context(), c.Param("id"), page.Skip, page.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMessageDTOs(messages))
}

// Delete 删除对话
// @Summary 删除对话及其全部消息
// @Tags 对话历史
// @Produce json
// @Param id path string true "对话 ID"
// @Success 200 {object} response.StatusResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *gin.Context) {
	if err := h.chat.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.StatusResponse{
		Status:  "success",
		Message: "Conversation deleted",
	})
}

// Stats 对话统计
// @Summary 对话统计
// @Tags 对话历史
// @Produce json
// @Success 200 {object} StatsDTO
// @Failure 500 {object} response.ErrorResponse
// @Router /conversations/stats [get]
func (h *ConversationHandler) Stats(c *gin.Context) {
	stats, err := h.query.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsDTO{
		TotalConversations:  stats.TotalConversations,
		TotalMessages:       stats.TotalMessages,
		RecentConversations: stats.RecentConversations,
		MessageDistribution: MessageDistribution{
			User:      stats.UserMessages,
			Assistant: stats.AssistantMessages,
		},
	})
}

// TranscriptTemplateName 对话全文模板名
const TranscriptTemplateName = "transcript.html"

// TranscriptTemplate 对话全文页面模板
func TranscriptTemplate() *template.Template {
	return template.Must(template.New(TranscriptTemplateName).Parse(transcriptHTML))
}

// HTML 以网页形式展示对话全文
// @Summary 对话全文网页
// @Tags 对话历史
// @Produce html
// @Param id path string true "对话 ID"
// @Success 200 {string} string "HTML"
// @Failure 404 {object} response.ErrorResponse
// @Router /conversations/{id}/html [get]
func (h *ConversationHandler) HTML(c *gin.Context) {
	transcript, err := h.query.GetTranscript(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.HTML(http.StatusOK, TranscriptTemplateName, gin.H{
		"Conversation": transcript.Conversation,
		"Messages":     toMessageDTOs(transcript.Messages),
	})
}

func toMessageDTOs(messages []*conversation.Message) []MessageDTO {
	result := make([]MessageDTO, 0, len(messages))
	for _, m := range messages {
		result = append(result, MessageDTO{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		})
	}
	return result
}

const transcriptHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>{{.Conversation.Title}}</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 2em auto; }
.message { padding: 0.6em 1em; margin: 0.6em 0; border-radius: 8px; white-space: pre-wrap; }
.user { background: #e3f2fd; }
.assistant { background: #f1f8e9; }
.meta { color: #777; font-size: 0.8em; }
</style>
</head>
<body>
<h1>{{.Conversation.Title}}</h1>
<p class="meta">Créée le {{.Conversation.CreatedAt.Format "02/01/2006 15:04"}}, {{len .Messages}} messages</p>
{{range .Messages}}
<div class="message {{.Role}}">
<div class="meta">{{if eq .Role "user"}}Vous{{else}}Assistant{{end}} · {{.CreatedAt.Format "15:04"}}</div>
{{.Content}}
</div>
{{end}}
</body>
</html>
`
