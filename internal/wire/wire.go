//go:build wireinject
// +build wireinject

package wire

import (
	"github.com/formabot/backend/internal/application"
	"github.com/formabot/backend/internal/application/prompt"
	"github.com/formabot/backend/internal/infrastructure"
	"github.com/formabot/backend/internal/infrastructure/watcher"
	"github.com/formabot/backend/internal/interfaces"
	"github.com/google/wire"
)

// InitializeAll 初始化所有服务（HTTP + WebSocket + MCP）
func InitializeAll() (*App, func(), error) {
	wire.Build(
		// 按层组合 ProviderSet
		infrastructure.ProviderSet, // 基础设施层
		application.ProviderSet,    // 应用层
		interfaces.ProviderSet,     // 接口层
		// 接口绑定：watcher.TemplateLoader -> prompt.Store
		wire.Bind(
			new(watcher.TemplateLoader),
			new(*prompt.Store),
		),
		NewApp, // 组合所有服务的应用结构
	)
	return nil, nil, nil
}
