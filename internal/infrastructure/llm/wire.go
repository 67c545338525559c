package llm

import (
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/google/wire"
)

// ProviderSet 生成与压缩 ProviderSet
var ProviderSet = wire.NewSet(
	ProvideClient,
	ProvideExtractor,
	wire.Bind(new(rag.Generator), new(*Client)),
	wire.Bind(new(rag.Compressor), new(*Extractor)),
)
