package wire

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/llm"
	applog "github.com/formabot/backend/internal/infrastructure/log"
	"github.com/formabot/backend/internal/infrastructure/tracing"
	"github.com/formabot/backend/internal/infrastructure/vector"
	"github.com/formabot/backend/internal/infrastructure/watcher"
	"github.com/formabot/backend/internal/infrastructure/websocket"
	httpiface "github.com/formabot/backend/internal/interfaces/http"
)

const (
	// indexReadyTimeout 启动时等待索引就绪的时间
	indexReadyTimeout = 10 * time.Second

	// generatorCheckTimeout 启动时检查生成服务的时间
	generatorCheckTimeout = 15 * time.Second
)

// connectionTester 启动时可探测连通性的外部服务
type connectionTester interface {
	TestConnection(ctx context.Context) error
}

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *httpiface.HTTPServer
	wsHub      *websocket.Hub
	index      *vector.QdrantIndex
	generator  connectionTester
	tracing    *tracing.Provider
	logger     *slog.Logger

	// 事件与模板监听
	eventBus        events.EventBus
	templateWatcher *watcher.TemplateWatcher
}

// NewApp 创建应用实例
func NewApp(
	httpServer *httpiface.HTTPServer,
	wsHub *websocket.Hub,
	templateWatcher *watcher.TemplateWatcher,
	eventBus events.EventBus,
	tracingProvider *tracing.Provider,
	index *vector.QdrantIndex,
	generator *llm.Client,
) *App {
	return &App{
		HTTPServer:      httpServer,
		wsHub:           wsHub,
		index:           index,
		generator:       generator,
		tracing:         tracingProvider,
		logger:          applog.NewModuleLogger("app", "main"),
		eventBus:        eventBus,
		templateWatcher: templateWatcher,
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting formabot backend application",
		"tracing", a.tracing.Enabled(),
	)

	// 索引不可用时照常启动，/health 会报告状态
	ctx, cancel := context.WithTimeout(context.Background(), indexReadyTimeout)
	defer cancel()
	if err := a.index.WaitForReady(ctx, indexReadyTimeout); err != nil {
		a.logger.Warn("Document index not ready, starting anyway",
			"error", err,
		)
	}

	a.checkGenerator()

	// 监听提示模板文件
	if a.templateWatcher != nil {
		if err := a.templateWatcher.Start(); err != nil {
			a.logger.Error("Failed to start template watcher",
				"error", err,
			)
		} else {
			a.logger.Info("Template watcher started")
		}
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("formabot backend application started successfully")
	return nil
}

// checkGenerator 探测生成服务，失败只记录警告，问答请求会返回 502
func (a *App) checkGenerator() {
	if a.generator == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), generatorCheckTimeout)
	defer cancel()
	if err := a.generator.TestConnection(ctx); err != nil {
		a.logger.Warn("Generation service unreachable, starting anyway",
			"error", err,
		)
	}
}

// Stop 停止所有服务（数据库与索引连接由 InitializeAll 返回的 cleanup 关闭）
func (a *App) Stop() error {
	a.logger.Info("Stopping formabot backend application")

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	if a.templateWatcher != nil {
		a.templateWatcher.Stop()
		a.logger.Info("Template watcher stopped")
	}

	a.wsHub.Stop()

	// 关闭事件总线（等待已发布事件处理完成）
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	a.logger.Info("formabot backend application stopped successfully")
	return nil
}
