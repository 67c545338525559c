package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/formabot/backend/internal/application/chat"
	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// fakeChat 可配置的对话编排
type fakeChat struct {
	result    *chat.Result
	err       error
	deleted   []string
	resetID   string
	gotText   string
	deleteErr error
}

func (f *fakeChat) Chat(ctx context.Context, message, sessionID string) (*chat.Result, error) {
	f.gotText = message
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	if sessionID != "" {
		r.SessionID = sessionID
	}
	return &r, nil
}

func (f *fakeChat) Reset(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
	}
	f.resetID = sessionID
	return sessionID, nil
}

func (f *fakeChat) Delete(ctx context.Context, conversationID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, conversationID)
	return nil
}

// fakeQuery 内存中的对话数据
type fakeQuery struct {
	conversations []*conversation.Conversation
	messages      map[string][]*conversation.Message
	gotOffset     int
	gotLimit      int
	health        *chat.Health
}

func (f *fakeQuery) ListConversations(ctx context.Context, offset, limit int) ([]*conversation.Conversation, error) {
	f.gotOffset, f.gotLimit = offset, limit
	return f.conversations, nil
}

func (f *fakeQuery) GetMessages(ctx context.Context, id string, offset, limit int) ([]*conversation.Message, error) {
	msgs, ok := f.messages[id]
	if !ok {
		return nil, conversation.ErrConversationNotFound
	}
	return msgs, nil
}

func (f *fakeQuery) GetTranscript(ctx context.Context, id string) (*chat.Transcript, error) {
	msgs, ok := f.messages[id]
	if !ok {
		return nil, conversation.ErrConversationNotFound
	}
	for _, conv := range f.conversations {
		if conv.ID == id {
			return &chat.Transcript{Conversation: conv, Messages: msgs}, nil
		}
	}
	return nil, conversation.ErrConversationNotFound
}

func (f *fakeQuery) Stats(ctx context.Context) (*conversation.Stats, error) {
	return &conversation.Stats{
		TotalConversations:  1,
		TotalMessages:       2,
		RecentConversations: 1,
		UserMessages:        1,
		AssistantMessages:   1,
	}, nil
}

func (f *fakeQuery) Health(ctx context.Context) *chat.Health {
	return f.health
}

func newFakes() (*fakeChat, *fakeQuery) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	page := 3
	c := &fakeChat{result: &chat.Result{
		Response:  "Ouvrez le menu Formations.",
		SessionID: "generated",
		Sources: []rag.Source{rag.NewSource(rag.Candidate{
			Content:  "Pour créer une formation...",
			Metadata: rag.Metadata{Source: "guide.pdf", Page: &page},
		}, 0)},
	}}
	q := &fakeQuery{
		conversations: []*conversation.Conversation{{
			ID: "s1", Title: "Comment créer une formation?", CreatedAt: now, UpdatedAt: now, MessageCount: 2,
		}},
		messages: map[string][]*conversation.Message{
			"s1": {
				{ID: "m1", ConversationID: "s1", Role: conversation.RoleUser, Content: "Comment créer une formation?", CreatedAt: now},
				{ID: "m2", ConversationID: "s1", Role: conversation.RoleAssistant, Content: "<b>Ouvrez</b> le menu.", CreatedAt: now},
			},
		},
		health: &chat.Health{Status: chat.HealthStatusHealthy, DocumentCount: 12, Model: "llama"},
	}
	return c, q
}

// setupRouter 创建测试路由
func setupRouter(c *fakeChat, q *fakeQuery) *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(TranscriptTemplate())

	chatHandler := NewChatHandler(c)
	conversationHandler := NewConversationHandler(q, c)
	systemHandler := NewSystemHandler(q)

	router.GET("/", systemHandler.Root)
	router.GET("/health", systemHandler.Health)
	router.POST("/chat", chatHandler.Chat)
	router.POST("/reset", chatHandler.Reset)
	router.GET("/conversations", conversationHandler.List)
	router.GET("/conversations/stats", conversationHandler.Stats)
	router.GET("/conversations/:id", conversationHandler.Messages)
	router.GET("/conversations/:id/html", conversationHandler.HTML)
	router.DELETE("/conversations/:id", conversationHandler.Delete)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatHandler_Chat(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodPost, "/chat", map[string]string{
		"message":    "Comment créer une formation?",
		"session_id": "s1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "Ouvrez le menu Formations.", resp.Response)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Page 3", resp.Sources[0].Location)
	assert.Equal(t, "Comment créer une formation?", c.gotText)
}

func TestChatHandler_ChatOmitsEmptySources(t *testing.T) {
	c, q := newFakes()
	c.result.Sources = nil
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodPost, "/chat", map[string]string{"message": "Bonjour"})
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.NotContains(t, raw, "sources")
	assert.Equal(t, "generated", raw["session_id"])
}

func TestChatHandler_ChatValidation(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	tests := []struct {
		name string
		body any
	}{
		{"缺少 message", map[string]string{"session_id": "s1"}},
		{"空白 message", map[string]string{"message": "   "}},
		{"非法 JSON", "not-an-object"},
		{"保留的会话 ID", map[string]string{"message": "q", "session_id": "stats"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(router, http.MethodPost, "/chat", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestChatHandler_ChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"检索不可用", fmt.Errorf("wrap: %w", rag.ErrRetrievalUnavailable), http.StatusServiceUnavailable},
		{"生成失败", fmt.Errorf("%w: timeout", chat.ErrGenerationFailure), http.StatusBadGateway},
		{"存储失败", fmt.Errorf("%w: disk full", conversation.ErrStoreFailure), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, q := newFakes()
			c.err = tt.err
			router := setupRouter(c, q)

			w := doJSON(router, http.MethodPost, "/chat", map[string]string{"message": "q"})
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestChatHandler_Reset(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodPost, "/reset", map[string]string{"session_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", c.resetID)

	// 空请求体重置默认会话
	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, chat.DefaultSessionID, resp.SessionID)
	assert.Equal(t, "memory reset", resp.Status)
}

func TestChatHandler_ResetChunkedBody(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	// 分块传输的请求体没有 Content-Length
	req := httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(`{"session_id":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ResetResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, "s1", c.resetID)

	// 空的分块请求体仍重置默认会话
	req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chat.DefaultSessionID, c.resetID)

	// 非法 JSON 仍是 400
	req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader("{"))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_List(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodGet, "/conversations?skip=5&limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, q.gotOffset)
	assert.Equal(t, 20, q.gotLimit)

	var list []ConversationDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MessageCount)

	// 默认分页
	doJSON(router, http.MethodGet, "/conversations", nil)
	assert.Equal(t, 0, q.gotOffset)
	assert.Equal(t, 100, q.gotLimit)

	w = doJSON(router, http.MethodGet, "/conversations?skip=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationHandler_Messages(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodGet, "/conversations/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var messages []MessageDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)

	w = doJSON(router, http.MethodGet, "/conversations/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationHandler_Delete(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodDelete, "/conversations/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s1"}, c.deleted)

	c.deleteErr = conversation.ErrConversationNotFound
	w = doJSON(router, http.MethodDelete, "/conversations/s1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConversationHandler_Stats(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodGet, "/conversations/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"total_conversations": 1,
		"total_messages": 2,
		"recent_conversations": 1,
		"message_distribution": {"user": 1, "assistant": 1}
	}`, w.Body.String())
}

func TestConversationHandler_HTML(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodGet, "/conversations/s1/html", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Comment créer une formation?")
	// 消息内容被转义
	assert.Contains(t, w.Body.String(), "&lt;b&gt;Ouvrez&lt;/b&gt;")

	w = doJSON(router, http.MethodGet, "/conversations/unknown/html", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemHandler(t *testing.T) {
	c, q := newFakes()
	router := setupRouter(c, q)

	w := doJSON(router, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"online"`)

	w = doJSON(router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","document_count":12,"model":"llama"}`, w.Body.String())

	q.health = &chat.Health{Status: chat.HealthStatusUnhealthy, Error: "qdrant down"}
	w = doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"unhealthy","error":"qdrant down"}`, w.Body.String())
}
