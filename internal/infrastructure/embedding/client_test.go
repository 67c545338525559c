package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"http://localhost:11434", "http://localhost:11434/v1"},
		{"http://localhost:11434/", "http://localhost:11434/v1"},
		{"http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"http://localhost:11434/v1/", "http://localhost:11434/v1"},
		{"https://api.openai.com/v1/embeddings", "https://api.openai.com/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.input))
		})
	}
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "sk-1...cdef", maskKey("sk-1234567890abcdef"))
	assert.Equal(t, "***", maskKey("short"))
}

// newEmbeddingServer 返回逆序 index 的测试服务，failures 次之前返回 500
func newEmbeddingServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		n := calls.Add(1)
		if n <= failures {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}

		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "nomic-embed-text"})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClient_EmbedTexts(t *testing.T) {
	srv, _ := newEmbeddingServer(t, 0)
	client := NewClient(srv.URL, "key", "nomic-embed-text")

	vectors, err := client.EmbedTexts(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 1}, vectors[0])
	assert.Equal(t, []float32{3, 1}, vectors[1])

	_, err = client.EmbedTexts(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestClient_NoRetryByDefault(t *testing.T) {
	srv, calls := newEmbeddingServer(t, 1)
	client := NewClient(srv.URL, "key", "m")

	_, err := client.EmbedQuery(context.Background(), "q")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WithRetries(t *testing.T) {
	srv, calls := newEmbeddingServer(t, 2)
	client := NewClient(srv.URL, "key", "m", WithRetries(3), WithBackoff(time.Millisecond))

	dim, err := client.GetVectorDimension(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dim)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_TestConnection(t *testing.T) {
	srv, _ := newEmbeddingServer(t, 0)
	client := NewClient(srv.URL, "key", "m")

	dim, err := client.TestConnection(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dim)

	down, _ := newEmbeddingServer(t, 1)
	_, err = NewClient(down.URL, "key", "m").TestConnection(context.Background())
	assert.Error(t, err)
}
