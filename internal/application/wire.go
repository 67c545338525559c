package application

import (
	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/application/prompt"
	"github.com/google/wire"
)

// ProviderSet Application 层总 ProviderSet
var ProviderSet = wire.NewSet(
	prompt.ProvideStore,
	chat.ProviderSet,
)
