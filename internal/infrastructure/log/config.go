package log

import (
	"os"
	"strconv"
	"strings"
)

// 日志相关环境变量
const (
	EnvLevel     = "FORMABOT_LOG_LEVEL"
	EnvFormat    = "FORMABOT_LOG_FORMAT"
	EnvOutput    = "FORMABOT_LOG_OUTPUT"
	EnvAddSource = "FORMABOT_LOG_ADD_SOURCE"
	EnvMode      = "FORMABOT_ENV"
)

// Config 日志配置，可嵌入应用 YAML 配置的 log 段
type Config struct {
	// Level debug, info, warn, error
	Level string `yaml:"level"`
	// Format console 或 json
	Format string `yaml:"format"`
	// Output stdout, stderr, file:/path/to/log
	Output string `yaml:"output"`
	// AddSource 输出源文件位置
	AddSource bool `yaml:"add_source"`
}

// DefaultConfig 生产环境默认值
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "console",
		Output: "stdout",
	}
}

// NewConfigFromEnv 默认值 + 环境变量
func NewConfigFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	return &cfg
}

// ApplyEnv 环境变量覆盖当前值；FORMABOT_ENV=development 强制 debug 控制台输出
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLevel); v != "" {
		c.Level = v
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	c.AddSource = getEnvBool(EnvAddSource, c.AddSource)

	if isDevelopment() {
		c.Level = "debug"
		c.Format = "console"
		c.AddSource = true
	}
}

func isDevelopment() bool {
	return strings.EqualFold(os.Getenv(EnvMode), "development")
}

// getEnvBool 解析失败时返回默认值
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
