package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/interfaces/http/handler"
	"github.com/formabot/backend/internal/interfaces/http/middleware"
	"github.com/formabot/backend/internal/interfaces/mcp"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/formabot/backend/docs" // Swagger docs
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	cfg *config.ServerConfig,
	chatHandler *handler.ChatHandler,
	conversationHandler *handler.ConversationHandler,
	systemHandler *handler.SystemHandler,
	wsHandler *handler.WebSocketHandler,
	mcpServer *mcp.MCPServer,
) (*HTTPServer, error) {
	logger := log.NewModuleLogger("http", "server")

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Tracing(),
		middleware.Logger(),
		middleware.CORS(cfg.CORSOrigins),
		middleware.EnsureUTF8Body(),
	)
	router.SetHTMLTemplate(handler.TranscriptTemplate())

	// 问答
	router.POST("/chat", chatHandler.Chat)
	router.POST("/reset", chatHandler.Reset)

	// 对话历史
	conversations := router.Group("/conversations")
	{
		conversations.GET("", conversationHandler.List)
		conversations.GET("/stats", conversationHandler.Stats)
		conversations.GET("/:id", conversationHandler.Messages)
		conversations.GET("/:id/html", conversationHandler.HTML)
		conversations.DELETE("/:id", conversationHandler.Delete)
	}

	// 系统
	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", wsHandler.Serve)

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: cfg.HTTPPort,
		logger:   logger,
	}, nil
}

// Handler 返回路由（测试使用）
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:              s.httpPort,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
