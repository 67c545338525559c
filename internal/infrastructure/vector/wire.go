package vector

import (
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/embedding"
	"github.com/google/wire"
)

// ProviderSet 文档索引 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideQdrantIndex,
	wire.Bind(new(Embedder), new(*embedding.Client)),
	wire.Bind(new(rag.IndexProvider), new(*QdrantIndex)),
)
