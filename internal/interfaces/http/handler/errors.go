package handler

import (
	"errors"
	"net/http"

	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/application/prompt"
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/interfaces/http/response"
	"github.com/gin-gonic/gin"
)

// writeError 按错误类型映射 HTTP 状态码
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, conversation.ErrConversationNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "Conversation not found")
	case errors.Is(err, rag.ErrRetrievalUnavailable):
		response.ErrorWithDetail(c, http.StatusServiceUnavailable, response.CodeRetrievalUnavailable,
			"Document retrieval unavailable", err.Error())
	case errors.Is(err, chat.ErrGenerationFailure):
		response.ErrorWithDetail(c, http.StatusBadGateway, response.CodeGenerationFailure,
			"Response generation failed", err.Error())
	case errors.Is(err, prompt.ErrTemplate):
		response.ErrorWithDetail(c, http.StatusInternalServerError, response.CodeTemplate,
			"Prompt template invalid", err.Error())
	default:
		response.ErrorWithDetail(c, http.StatusInternalServerError, response.CodeInternal,
			"Internal server error", err.Error())
	}
}

// badRequest 请求参数错误
func badRequest(c *gin.Context, err error) {
	response.ErrorWithDetail(c, http.StatusBadRequest, response.CodeInvalidRequest, "Invalid request", err.Error())
}
