package response

import (
	"github.com/gin-gonic/gin"
)

// 业务错误码
const (
	CodeInvalidRequest       = 40001
	CodeNotFound             = 40401
	CodeInternal             = 50001
	CodeTemplate             = 50002
	CodeGenerationFailure    = 50201
	CodeRetrievalUnavailable = 50301
)

// StatusResponse 简单状态响应
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, errCode int, message string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    errCode,
		Message: message,
	})
}

// ErrorWithDetail 带详情的错误响应
func ErrorWithDetail(c *gin.Context, httpCode int, errCode int, message, detail string) {
	c.JSON(httpCode, ErrorResponse{
		Code:    errCode,
		Message: message,
		Detail:  detail,
	})
}
