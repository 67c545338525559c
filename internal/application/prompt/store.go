package prompt

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/log"
)

// Store 持有当前生效的模板，可在运行中替换
type Store struct {
	current atomic.Pointer[string]
	path    string
	logger  *slog.Logger
}

// NewStore 创建模板存储，初始模板必须合法
func NewStore(template string) (*Store, error) {
	if err := Validate(template); err != nil {
		return nil, err
	}
	s := &Store{logger: log.NewModuleLogger("prompt", "store")}
	s.current.Store(&template)
	return s, nil
}

// ProvideStore 按配置创建模板存储：配置了模板文件则从文件加载，否则使用内置模板
func ProvideStore(cfg *config.PromptConfig) (*Store, error) {
	s, err := NewStore(DefaultTemplate)
	if err != nil {
		return nil, err
	}
	if cfg.TemplatePath == "" {
		return s, nil
	}
	if err := s.LoadFile(cfg.TemplatePath); err != nil {
		return nil, err
	}
	s.path = cfg.TemplatePath
	return s, nil
}

// Template 返回当前模板
func (s *Store) Template() string {
	return *s.current.Load()
}

// Path 模板文件路径，使用内置模板时为空
func (s *Store) Path() string {
	return s.path
}

// Set 替换模板，不合法时保留旧模板
func (s *Store) Set(template string) error {
	if err := Validate(template); err != nil {
		return err
	}
	s.current.Store(&template)
	return nil
}

// LoadFile 从文件加载模板
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}
	if err := s.Set(string(data)); err != nil {
		return fmt.Errorf("prompt template %s: %w", path, err)
	}
	s.logger.Info("Prompt template loaded", "path", path, "size", len(data))
	return nil
}

// Assemble 使用当前模板填充
func (s *Store) Assemble(history, context, question string) (string, error) {
	return Assemble(s.Template(), history, context, question)
}
