package watcher

import (
	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/google/wire"
)

// ProvideEventBus 提供事件总线实例
func ProvideEventBus() events.EventBus {
	return NewEventBus()
}

// ProvideTemplateWatcher 提供模板监听器实例
// 未配置模板文件或关闭了监听时返回 nil
func ProvideTemplateWatcher(cfg *config.PromptConfig, loader TemplateLoader, eventBus events.EventBus) (*TemplateWatcher, error) {
	if cfg.TemplatePath == "" || !cfg.Watch {
		return nil, nil
	}
	return NewTemplateWatcher(cfg.TemplatePath, loader, eventBus)
}

// ProviderSet 事件总线与模板监听 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideEventBus,
	ProvideTemplateWatcher,
)
