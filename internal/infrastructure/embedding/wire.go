package embedding

import "github.com/google/wire"

// ProviderSet 向量化 ProviderSet
var ProviderSet = wire.NewSet(ProvideClient)
