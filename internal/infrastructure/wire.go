package infrastructure

import (
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/embedding"
	"github.com/formabot/backend/internal/infrastructure/llm"
	"github.com/formabot/backend/internal/infrastructure/metrics"
	"github.com/formabot/backend/internal/infrastructure/storage"
	"github.com/formabot/backend/internal/infrastructure/tokenizer"
	"github.com/formabot/backend/internal/infrastructure/tracing"
	"github.com/formabot/backend/internal/infrastructure/vector"
	"github.com/formabot/backend/internal/infrastructure/watcher"
	"github.com/formabot/backend/internal/infrastructure/websocket"
	"github.com/google/wire"
)

// ProviderSet Infrastructure 层总 ProviderSet
var ProviderSet = wire.NewSet(
	config.ProviderSet,
	storage.ProviderSet,
	watcher.ProviderSet,
	websocket.ProviderSet,
	metrics.ProviderSet,
	tokenizer.ProviderSet,
	tracing.ProviderSet,
	llm.ProviderSet,
	embedding.ProviderSet,
	vector.ProviderSet,
)
