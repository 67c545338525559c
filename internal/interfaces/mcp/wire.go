package mcp

import (
	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/application/retrieval"
	"github.com/google/wire"
)

// ProviderSet MCP ProviderSet
var ProviderSet = wire.NewSet(
	NewServer,
	wire.Bind(new(DocumentSearcher), new(*retrieval.Pipeline)),
	wire.Bind(new(ConversationLister), new(*chat.ConversationService)),
)
