package chat

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formabot/backend/internal/application/prompt"
	"github.com/formabot/backend/internal/application/retrieval"
	"github.com/formabot/backend/internal/application/session"
	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/formabot/backend/internal/infrastructure/metrics"
	"github.com/formabot/backend/internal/infrastructure/storage"
	"github.com/formabot/backend/internal/infrastructure/tokenizer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// fakeIndex 返回固定候选
type fakeIndex struct {
	candidates []rag.Candidate
	count      uint64
	err        error
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]rag.Candidate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeIndex) Count(ctx context.Context) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

// passthroughCompressor 原样保留候选内容
type passthroughCompressor struct{}

func (passthroughCompressor) Extract(ctx context.Context, content, query string) (string, error) {
	return content, nil
}

// fakeGenerator 记录收到的提示词并返回固定回复
type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
}

func (g *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	reply, err, block := g.reply, g.err, g.block
	g.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (g *fakeGenerator) Model() string {
	return "test-model"
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

func (g *fakeGenerator) set(reply string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reply, g.err = reply, err
}

// recordingBus 记录发布的事件
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Subscribe(events.EventType, events.Handler) func() { return func() {} }
func (b *recordingBus) SubscribeMultiple([]events.EventType, events.Handler) func() {
	return func() {}
}
func (b *recordingBus) Close() {}

func (b *recordingBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) last() events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		return nil
	}
	return b.events[len(b.events)-1]
}

// testTemplate 简化的提示模板
const testTemplate = "H[{history}] C[{context}] Q[{question}]"

// harness 组装一个使用临时 SQLite 的编排器
type harness struct {
	orchestrator *Orchestrator
	service      *ConversationService
	store        *storage.ConversationRepository
	cache        *session.Cache
	index        *fakeIndex
	generator    *fakeGenerator
	bus          *recordingBus
	timeouts     *config.TimeoutConfig
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := storage.OpenDB(filepath.Join(t.TempDir(), "chat.db"))
	require.NoError(t, err)
	require.NoError(t, storage.InitSchema(db))
	t.Cleanup(func() { db.Close() })

	store := storage.NewConversationRepository(db)
	cache := session.NewCache(store)
	index := &fakeIndex{
		count: 42,
		candidates: []rag.Candidate{{
			Content:  "Pour créer une formation, ouvrez le menu Formations puis cliquez sur Nouvelle formation.",
			Metadata: rag.Metadata{Source: "docs/guide_formations.pdf", Page: intPtr(3)},
			Score:    0.92,
		}},
	}
	timeouts := &config.TimeoutConfig{
		Index:       time.Second,
		Compression: time.Second,
		Generation:  time.Second,
		Store:       5 * time.Second,
	}
	pipeline := retrieval.NewPipeline(index, passthroughCompressor{},
		&config.RetrievalConfig{K: 4, CompressionConcurrency: 2}, timeouts)

	prompts, err := prompt.NewStore(testTemplate)
	require.NoError(t, err)

	generator := &fakeGenerator{reply: "Ouvrez le menu Formations."}
	bus := &recordingBus{}
	m := metrics.New(prometheus.NewRegistry())

	o := NewOrchestrator(store, cache, session.NewLocker(), pipeline, prompts, generator,
		bus, m, tokenizer.ProvideCounter(), timeouts)

	return &harness{
		orchestrator: o,
		service:      NewConversationService(store, index, generator, timeouts),
		store:        store,
		cache:        cache,
		index:        index,
		generator:    generator,
		bus:          bus,
		timeouts:     timeouts,
	}
}

func intPtr(v int) *int {
	return &v
}

// historyOf 从提示词中取出历史段落
func historyOf(p string) string {
	start := strings.Index(p, "H[") + 2
	end := strings.Index(p, "] C[")
	return p[start:end]
}
