package tokenizer

import "github.com/google/wire"

// ProviderSet token 计数 ProviderSet
var ProviderSet = wire.NewSet(ProvideCounter)
