package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "github.com/formabot/backend/internal/infrastructure/log"
)

// 环境变量名
const (
	EnvConfigFile       = "FORMABOT_CONFIG"
	EnvHTTPPort         = "PORT"
	EnvCORSOrigins      = "CORS_ALLOW_ORIGINS"
	EnvDatabasePath     = "DATABASE_PATH"
	EnvLLMBaseURL       = "LLM_BASE_URL"
	EnvLLMAPIKey        = "GROQ_API_KEY"
	EnvLLMModel         = "LLM_MODEL"
	EnvCompressionModel = "COMPRESSION_MODEL"
	EnvEmbeddingBaseURL = "EMBEDDING_BASE_URL"
	EnvEmbeddingAPIKey  = "EMBEDDING_API_KEY"
	EnvEmbeddingModel   = "EMBEDDING_MODEL"
	EnvQdrantHost       = "QDRANT_HOST"
	EnvQdrantPort       = "QDRANT_PORT"
	EnvQdrantCollection = "QDRANT_COLLECTION"
	EnvRetrievalK       = "RETRIEVAL_K"
	EnvPromptTemplate   = "PROMPT_TEMPLATE_PATH"
	EnvTracingEnabled   = "TRACING_ENABLED"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Prompt    PromptConfig    `yaml:"prompt"`
	Tracing   TracingConfig   `yaml:"tracing"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	Log       applog.Config   `yaml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	HTTPPort    string   `yaml:"http_port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Path SQLite 文件路径，留空表示 <数据目录>/formabot.db
	Path string `yaml:"path"`
}

// LLMConfig 生成与压缩模型配置（OpenAI 兼容接口，例如 Groq）
type LLMConfig struct {
	BaseURL          string  `yaml:"base_url"`
	APIKey           string  `yaml:"api_key"`
	Model            string  `yaml:"model"`
	CompressionModel string  `yaml:"compression_model"`
	RequestsPerSec   float64 `yaml:"requests_per_second"`
}

// EmbeddingConfig 向量化服务配置
type EmbeddingConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// QdrantConfig 文档索引配置
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// RetrievalConfig 检索管线配置
type RetrievalConfig struct {
	// K 每次检索的候选文档数量（历史部署使用过 2 到 10）
	K int `yaml:"k"`
	// CompressionConcurrency 并发压缩的候选数量上限
	CompressionConcurrency int `yaml:"compression_concurrency"`
}

// TimeoutConfig 外部调用超时
type TimeoutConfig struct {
	Index       time.Duration `yaml:"index"`
	Compression time.Duration `yaml:"compression"`
	Generation  time.Duration `yaml:"generation"`
	Store       time.Duration `yaml:"store"`
}

// PromptConfig 提示词模板配置
type PromptConfig struct {
	// TemplatePath 模板文件路径，留空使用内置模板
	TemplatePath string `yaml:"template_path"`
	// Watch 模板文件变更时是否自动重新加载
	Watch bool `yaml:"watch"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// WebSocketConfig WebSocket 配置
type WebSocketConfig struct {
	ReadBufferSize  int `yaml:"read_buffer_size"`
	WriteBufferSize int `yaml:"write_buffer_size"`
}

// NewConfig 创建配置（默认值 + 环境变量覆盖）
func NewConfig() *Config {
	cfg := defaultConfig()
	cfg.applyEnv()
	return cfg
}

// Load 加载配置：默认值 → YAML 文件（FORMABOT_CONFIG）→ 环境变量
func Load() (*Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// defaultConfig 返回默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    ":8000",
			CORSOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "",
		},
		LLM: LLMConfig{
			BaseURL:          "https://api.groq.com/openai/v1",
			Model:            "llama-3.3-70b-versatile",
			CompressionModel: "llama-3.3-70b-versatile",
			RequestsPerSec:   5,
		},
		Embedding: EmbeddingConfig{
			BaseURL: "http://localhost:11434/v1",
			Model:   "nomic-embed-text",
		},
		Qdrant: QdrantConfig{
			Host:       "localhost",
			Port:       6334,
			Collection: "chatbot",
		},
		Retrieval: RetrievalConfig{
			K:                      10,
			CompressionConcurrency: 4,
		},
		Timeouts: TimeoutConfig{
			Index:       10 * time.Second,
			Compression: 30 * time.Second,
			Generation:  60 * time.Second,
			Store:       5 * time.Second,
		},
		Prompt: PromptConfig{
			Watch: true,
		},
		Tracing: TracingConfig{
			ServiceName: "formabot-backend",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		Log: applog.DefaultConfig(),
	}
}

// loadFile 从 YAML 文件覆盖配置
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv 使用环境变量覆盖配置
func (c *Config) applyEnv() {
	if v := os.Getenv(EnvHTTPPort); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		c.Server.HTTPPort = v
	}
	if v := os.Getenv(EnvCORSOrigins); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	setString(&c.Database.Path, EnvDatabasePath)
	setString(&c.LLM.BaseURL, EnvLLMBaseURL)
	setString(&c.LLM.APIKey, EnvLLMAPIKey)
	setString(&c.LLM.Model, EnvLLMModel)
	setString(&c.LLM.CompressionModel, EnvCompressionModel)
	setString(&c.Embedding.BaseURL, EnvEmbeddingBaseURL)
	setString(&c.Embedding.APIKey, EnvEmbeddingAPIKey)
	setString(&c.Embedding.Model, EnvEmbeddingModel)
	setString(&c.Qdrant.Host, EnvQdrantHost)
	setInt(&c.Qdrant.Port, EnvQdrantPort)
	setString(&c.Qdrant.Collection, EnvQdrantCollection)
	setInt(&c.Retrieval.K, EnvRetrievalK)
	setString(&c.Prompt.TemplatePath, EnvPromptTemplate)
	if v := os.Getenv(EnvTracingEnabled); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
	c.Log.ApplyEnv()
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval.k must be positive, got %d", c.Retrieval.K)
	}
	if c.Retrieval.CompressionConcurrency <= 0 {
		c.Retrieval.CompressionConcurrency = 1
	}
	if c.Qdrant.Collection == "" {
		return fmt.Errorf("qdrant.collection is required")
	}
	return nil
}

// DatabasePath 返回 SQLite 文件路径
func (c *DatabaseConfig) DatabasePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(DataDir(), "formabot.db")
}

// NewDatabaseConfig 创建数据库配置
func NewDatabaseConfig(cfg *Config) *DatabaseConfig {
	return &cfg.Database
}

// NewServerConfig 创建服务器配置
func NewServerConfig(cfg *Config) *ServerConfig {
	return &cfg.Server
}

// NewRetrievalConfig 创建检索配置
func NewRetrievalConfig(cfg *Config) *RetrievalConfig {
	return &cfg.Retrieval
}

// NewTimeoutConfig 创建超时配置
func NewTimeoutConfig(cfg *Config) *TimeoutConfig {
	return &cfg.Timeouts
}

// NewPromptConfig 创建提示词配置
func NewPromptConfig(cfg *Config) *PromptConfig {
	return &cfg.Prompt
}

// NewLLMConfig 创建 LLM 配置
func NewLLMConfig(cfg *Config) *LLMConfig {
	return &cfg.LLM
}

// NewEmbeddingConfig 创建向量化配置
func NewEmbeddingConfig(cfg *Config) *EmbeddingConfig {
	return &cfg.Embedding
}

// NewQdrantConfig 创建索引配置
func NewQdrantConfig(cfg *Config) *QdrantConfig {
	return &cfg.Qdrant
}

// NewTracingConfig 创建追踪配置
func NewTracingConfig(cfg *Config) *TracingConfig {
	return &cfg.Tracing
}

// NewWebSocketConfig 创建 WebSocket 配置
func NewWebSocketConfig(cfg *Config) *WebSocketConfig {
	return &cfg.WebSocket
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
