package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/gin-gonic/gin"
)

// ChatService 对话编排
type ChatService interface {
	Chat(ctx context.Context, message, sessionID string) (*chat.Result, error)
	Reset(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, conversationID string) error
}

// ChatHandler 问答处理器
type ChatHandler struct {
	chat   ChatService
	logger *slog.Logger
}

// NewChatHandler 创建问答处理器
func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: log.NewModuleLogger("http", "chat_handler"),
	}
}

// ChatRequest 问答请求
// session_id 不能是 "stats"：GET /conversations/stats 是统计接口，这样的对话无法按 ID 读取
type ChatRequest struct {
	Message   string `json:"message" binding:"required,notblank"`
	SessionID string `json:"session_id,omitempty" binding:"omitempty,ne=stats"`
}

// ChatResponse 问答响应，没有来源时省略 sources
type ChatResponse struct {
	Response  string       `json:"response"`
	SessionID string       `json:"session_id"`
	Sources   []rag.Source `json:"sources,omitempty"`
}

// ResetRequest 重置请求
type ResetRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

// ResetResponse 重置响应
type ResetResponse struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
}

// Chat 处理一轮问答
// @Summary 发送问题并获取回答
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body ChatRequest true "问题与可选的会话 ID"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	result, err := h.chat.Chat(c.Request.Context(), req.Message, req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		Sources:   result.Sources,
	})
}

// Reset 清除会话记忆（不删除历史记录）
// @Summary 重置会话记忆
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body ResetRequest false "会话 ID，留空重置默认会话"
// @Success 200 {object} ResetResponse
// @Router /reset [post]
func (h *ChatHandler) Reset(c *gin.Context) {
	var req ResetRequest
	// 请求体可以为空；分块传输时 ContentLength 为 -1，不能据此判断
	if body := c.Request.Body; body != nil && body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err)
			return
		}
	}

	sessionID, err := h.chat.Reset(c.Request.Context(), req.SessionID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ResetResponse{
		Status:    "memory reset",
		SessionID: sessionID,
	})
}
