package config

import "github.com/google/wire"

// ProviderSet 配置 ProviderSet
var ProviderSet = wire.NewSet(
	Load,
	NewDatabaseConfig,
	NewServerConfig,
	NewRetrievalConfig,
	NewTimeoutConfig,
	NewPromptConfig,
	NewLLMConfig,
	NewEmbeddingConfig,
	NewQdrantConfig,
	NewTracingConfig,
	NewWebSocketConfig,
)
