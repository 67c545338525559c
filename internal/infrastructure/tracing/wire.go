package tracing

import "github.com/google/wire"

// ProviderSet 链路追踪 ProviderSet
var ProviderSet = wire.NewSet(ProvideTracing)
