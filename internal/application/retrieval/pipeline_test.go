package retrieval

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/formabot/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIndex 返回固定候选
type fakeIndex struct {
	candidates []rag.Candidate
	err        error
	delay      time.Duration
	gotK       int
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]rag.Candidate, error) {
	f.gotK = k
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

func (f *fakeIndex) Count(ctx context.Context) (uint64, error) {
	return uint64(len(f.candidates)), f.err
}

// fakeCompressor 按内容查表返回片段
type fakeCompressor struct {
	mu       sync.Mutex
	excerpts map[string]string
	err      error
	calls    int
}

func (f *fakeCompressor) Extract(ctx context.Context, content, query string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.excerpts[content], nil
}

func newTestPipeline(index rag.IndexProvider, compressor rag.Compressor) *Pipeline {
	return NewPipeline(index, compressor,
		&config.RetrievalConfig{K: 3, CompressionConcurrency: 2},
		&config.TimeoutConfig{Index: time.Second, Compression: time.Second},
	)
}

func page(n int) *int { return &n }

func TestPipeline_Run(t *testing.T) {
	index := &fakeIndex{candidates: []rag.Candidate{
		{Content: "doc A", Metadata: rag.Metadata{Source: "data/guide.pdf", Page: page(3)}},
		{Content: "doc B", Metadata: rag.Metadata{Source: "data/faq.txt"}},
		{Content: "doc C", Metadata: rag.Metadata{}},
	}}
	compressor := &fakeCompressor{excerpts: map[string]string{
		"doc A": "Créer une formation depuis le tableau de bord.",
		"doc B": "   ",
		"doc C": "Ajouter des modules.",
	}}

	p := newTestPipeline(index, compressor)
	result, err := p.Run(context.Background(), "Comment créer une formation?")
	require.NoError(t, err)

	assert.Equal(t, 3, index.gotK)
	assert.Equal(t, 3, compressor.calls)
	assert.Equal(t,
		"- Créer une formation depuis le tableau de bord.\n\n- Ajouter des modules.",
		result.Context,
	)

	require.Len(t, result.Sources, 2)
	assert.Equal(t, "guide.pdf", result.Sources[0].Title)
	assert.Equal(t, "PDF Document", result.Sources[0].Type)
	assert.Equal(t, "Page 3", result.Sources[0].Location)
	assert.Equal(t, "Document 2", result.Sources[1].Title)
	assert.Equal(t, "Section", result.Sources[1].Location)
}

func TestPipeline_AllDropped(t *testing.T) {
	index := &fakeIndex{candidates: []rag.Candidate{{Content: "hors sujet"}}}
	compressor := &fakeCompressor{excerpts: map[string]string{}}

	result, err := newTestPipeline(index, compressor).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, result.Context)
	assert.Empty(t, result.Sources)
}

func TestPipeline_EmptyIndex(t *testing.T) {
	compressor := &fakeCompressor{}

	result, err := newTestPipeline(&fakeIndex{}, compressor).Run(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, compressor.calls)
}

func TestPipeline_SearchFailure(t *testing.T) {
	index := &fakeIndex{err: errors.New("connection refused")}

	_, err := newTestPipeline(index, &fakeCompressor{}).Run(context.Background(), "q")
	require.Error(t, err)
	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)

	var re *rag.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rag.StageSearch, re.Stage)
}

func TestPipeline_SearchTimeout(t *testing.T) {
	index := &fakeIndex{delay: time.Second}
	p := NewPipeline(index, &fakeCompressor{},
		&config.RetrievalConfig{K: 2, CompressionConcurrency: 1},
		&config.TimeoutConfig{Index: 20 * time.Millisecond, Compression: time.Second},
	)

	_, err := p.Run(context.Background(), "q")
	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPipeline_CompressFailure(t *testing.T) {
	index := &fakeIndex{candidates: []rag.Candidate{{Content: "a"}, {Content: "b"}}}
	compressor := &fakeCompressor{err: errors.New("503 from provider")}

	_, err := newTestPipeline(index, compressor).Run(context.Background(), "q")
	assert.ErrorIs(t, err, rag.ErrRetrievalUnavailable)

	var re *rag.RetrievalError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, rag.StageCompress, re.Stage)
}

func TestPipeline_CompressKeepsOrder(t *testing.T) {
	var candidates []rag.Candidate
	excerpts := map[string]string{}
	for i := 0; i < 20; i++ {
		content := strings.Repeat("x", i+1)
		candidates = append(candidates, rag.Candidate{Content: content})
		excerpts[content] = content
	}

	p := newTestPipeline(&fakeIndex{}, &fakeCompressor{excerpts: excerpts})
	kept, err := p.Compress(context.Background(), candidates, "q")
	require.NoError(t, err)
	require.Len(t, kept, 20)
	for i, c := range kept {
		assert.Equal(t, i+1, len(c.Content))
	}
}

func TestBuildContext_PreviewRule(t *testing.T) {
	long := strings.Repeat("é", 151)
	exact := strings.Repeat("é", 150)

	result := BuildContext([]rag.Candidate{{Content: exact}, {Content: long}})
	require.Len(t, result.Sources, 2)
	assert.Equal(t, exact, result.Sources[0].Preview)
	assert.Equal(t, exact+"...", result.Sources[1].Preview)
}
