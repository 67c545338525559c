package handler

import (
	"context"
	"net/http"

	"github.com/formabot/backend/internal/application/chat"
	"github.com/gin-gonic/gin"
)

// HealthChecker 健康检查
type HealthChecker interface {
	Health(ctx context.Context) *chat.Health
}

// SystemHandler 根路径与健康检查
type SystemHandler struct {
	health HealthChecker
}

// NewSystemHandler 创建系统处理器
func NewSystemHandler(health HealthChecker) *SystemHandler {
	return &SystemHandler{health: health}
}

// RootResponse 根路径响应
type RootResponse struct {
	Message   string   `json:"message"`
	Status    string   `json:"status"`
	Endpoints []string `json:"endpoints"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status        string  `json:"status"`
	DocumentCount *uint64 `json:"document_count,omitempty"`
	Model         string  `json:"model,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// Root 服务信息
// @Summary 服务信息
// @Tags 系统
// @Produce json
// @Success 200 {object} RootResponse
// @Router / [get]
func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, RootResponse{
		Message: "AI Training Chatbot API is running.",
		Status:  "online",
		Endpoints: []string{
			"POST /chat",
			"POST /reset",
			"GET /conversations",
			"GET /conversations/stats",
			"GET /conversations/{id}",
			"GET /conversations/{id}/html",
			"DELETE /conversations/{id}",
			"GET /health",
		},
	})
}

// Health 健康检查，报告索引中的文档数量
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	health := h.health.Health(c.Request.Context())

	status := http.StatusOK
	if health.Status != chat.HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}

	resp := HealthResponse{
		Status: health.Status,
		Model:  health.Model,
		Error:  health.Error,
	}
	if health.Status == chat.HealthStatusHealthy {
		count := health.DocumentCount
		resp.DocumentCount = &count
	}
	c.JSON(status, resp)
}
