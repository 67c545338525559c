package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationService_ListAndMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orchestrator.Chat(ctx, "q1", "s1")
	require.NoError(t, err)
	_, err = h.orchestrator.Chat(ctx, "q2", "s2")
	require.NoError(t, err)

	conversations, err := h.service.ListConversations(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, "s2", conversations[0].ID)
	assert.Equal(t, 2, conversations[0].MessageCount)

	messages, err := h.service.GetMessages(ctx, "s1", 0, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "q1", messages[0].Content)

	_, err = h.service.GetMessages(ctx, "unknown", 0, 10)
	assert.ErrorIs(t, err, conversation.ErrConversationNotFound)
}

func TestConversationService_Transcript(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orchestrator.Chat(ctx, "q1", "s1")
	require.NoError(t, err)

	transcript, err := h.service.GetTranscript(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q1", transcript.Conversation.Title)
	assert.Len(t, transcript.Messages, 2)
}

func TestConversationService_Stats(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.orchestrator.Chat(ctx, "q1", "s1")
	require.NoError(t, err)

	stats, err := h.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalConversations)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.Equal(t, 1, stats.RecentConversations)
	assert.Equal(t, 1, stats.UserMessages)
	assert.Equal(t, 1, stats.AssistantMessages)
}

func TestConversationService_Health(t *testing.T) {
	h := newHarness(t)

	health := h.service.Health(context.Background())
	assert.Equal(t, HealthStatusHealthy, health.Status)
	assert.Equal(t, uint64(42), health.DocumentCount)
	assert.Equal(t, "test-model", health.Model)

	h.index.err = errors.New("qdrant down")
	health = h.service.Health(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, health.Status)
	assert.Equal(t, "qdrant down", health.Error)
}
