package watcher

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/log"
	"github.com/fsnotify/fsnotify"
)

// TemplateLoader 可从文件重新加载模板的目标
type TemplateLoader interface {
	LoadFile(path string) error
}

// DefaultDebounceDelay 默认防抖延迟
const DefaultDebounceDelay = 300 * time.Millisecond

// TemplateWatcher 监听提示模板文件，变更后重新加载并发布事件
// 监听的是文件所在目录，编辑器以重命名方式保存时仍能收到事件
type TemplateWatcher struct {
	path     string
	loader   TemplateLoader
	eventBus events.EventBus
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	delay    time.Duration

	// 防抖相关
	timer   *time.Timer
	timerMu sync.Mutex

	// 控制
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewTemplateWatcher 创建模板监听器
func NewTemplateWatcher(path string, loader TemplateLoader, eventBus events.EventBus) (*TemplateWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}

	return &TemplateWatcher{
		path:     abs,
		loader:   loader,
		eventBus: eventBus,
		watcher:  watcher,
		logger:   log.NewModuleLogger("watcher", "template"),
		delay:    DefaultDebounceDelay,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动监听
func (tw *TemplateWatcher) Start() error {
	dir := filepath.Dir(tw.path)
	if err := tw.watcher.Add(dir); err != nil {
		return err
	}

	tw.logger.Info("Watching prompt template", "path", tw.path)

	// 启动事件处理循环
	tw.wg.Add(1)
	go tw.watchLoop()
	return nil
}

// Stop 停止监听
func (tw *TemplateWatcher) Stop() {
	tw.stopOnce.Do(func() {
		close(tw.stopCh)
		tw.watcher.Close()
		tw.wg.Wait()

		tw.timerMu.Lock()
		if tw.timer != nil {
			tw.timer.Stop()
		}
		tw.timerMu.Unlock()

		tw.logger.Info("Template watcher stopped")
	})
}

// watchLoop 事件处理循环
func (tw *TemplateWatcher) watchLoop() {
	defer tw.wg.Done()

	for {
		select {
		case <-tw.stopCh:
			return
		case event, ok := <-tw.watcher.Events:
			if !ok {
				return
			}
			tw.handleFsEvent(event)
		case err, ok := <-tw.watcher.Errors:
			if !ok {
				return
			}
			tw.logger.Error("Watcher error", "error", err)
		}
	}
}

// handleFsEvent 只关心模板文件的写入与创建
func (tw *TemplateWatcher) handleFsEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != tw.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	tw.timerMu.Lock()
	defer tw.timerMu.Unlock()

	// 取消之前的定时器
	if tw.timer != nil {
		tw.timer.Stop()
	}
	tw.timer = time.AfterFunc(tw.delay, tw.reload)
}

// reload 重新加载模板，失败时保留旧模板
func (tw *TemplateWatcher) reload() {
	err := tw.loader.LoadFile(tw.path)
	if err != nil {
		tw.logger.Warn("Failed to reload prompt template, keeping previous one",
			"path", tw.path,
			"error", err,
		)
	}

	if tw.eventBus != nil {
		tw.eventBus.Publish(&events.TemplateEvent{
			Path:      tw.path,
			Err:       err,
			EventTime: time.Now(),
		})
	}
}
