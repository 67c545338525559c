package handler

import (
	"github.com/formabot/backend/internal/application/chat"
	"github.com/google/wire"
)

// ProviderSet Handler ProviderSet
var ProviderSet = wire.NewSet(
	NewChatHandler,
	NewConversationHandler,
	NewSystemHandler,
	NewWebSocketHandler,
	wire.Bind(new(ChatService), new(*chat.Orchestrator)),
	wire.Bind(new(ConversationQuery), new(*chat.ConversationService)),
	wire.Bind(new(HealthChecker), new(*chat.ConversationService)),
)
