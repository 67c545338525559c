package vector

import (
	"testing"

	"github.com/formabot/backend/internal/domain/rag"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	page := 4
	doc := Document{
		Content:  "Pour créer une formation, ouvrez le tableau de bord.",
		Metadata: rag.Metadata{Source: "data/guide.pdf", Page: &page, Type: "Guide"},
	}

	c, ok := candidateFromPayload(qdrant.NewValueMap(payloadFromDocument(doc)))
	require.True(t, ok)
	assert.Equal(t, doc.Content, c.Content)
	assert.Equal(t, "data/guide.pdf", c.Metadata.Source)
	assert.Equal(t, "Guide", c.Metadata.Type)
	require.NotNil(t, c.Metadata.Page)
	assert.Equal(t, 4, *c.Metadata.Page)
}

func TestCandidateFromPayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]any
		ok       bool
		page     *int
		source   string
		pageZero bool
	}{
		{
			name:    "无页码",
			payload: map[string]any{"content": "texte", "source": "notes.txt"},
			ok:      true,
			source:  "notes.txt",
		},
		{
			name:     "页码为 0",
			payload:  map[string]any{"content": "texte", "page": int64(0)},
			ok:       true,
			pageZero: true,
		},
		{
			name:    "浮点页码",
			payload: map[string]any{"content": "texte", "page": 2.0},
			ok:      true,
		},
		{
			name:    "没有内容",
			payload: map[string]any{"source": "vide.pdf"},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := candidateFromPayload(qdrant.NewValueMap(tt.payload))
			assert.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.source, c.Metadata.Source)
			if tt.pageZero {
				require.NotNil(t, c.Metadata.Page)
				assert.Equal(t, 0, *c.Metadata.Page)
			}
		})
	}
}

func TestSanitizeUTF8(t *testing.T) {
	assert.Equal(t, "café", sanitizeUTF8("café"))
	assert.Equal(t, "ab", sanitizeUTF8("a\xffb"))
}

func TestExtractIntValue(t *testing.T) {
	_, ok := extractIntValue(nil)
	assert.False(t, ok)

	v, ok := extractIntValue(qdrant.NewValueInt(7))
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = extractIntValue(qdrant.NewValueString("7"))
	assert.False(t, ok)
}
