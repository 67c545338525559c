package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	// 测试单例模式
	c1, err := Get()
	require.NoError(t, err)
	require.NotNil(t, c1)

	c2, err := Get()
	require.NoError(t, err)
	assert.Same(t, c1, c2)
	assert.Equal(t, "tiktoken", c1.Method())
}

func TestCounter_Count(t *testing.T) {
	c, err := Get()
	require.NoError(t, err)

	tests := []struct {
		name     string
		text     string
		minCount int
		maxCount int
	}{
		{"空字符串", "", 0, 0},
		{"简单英文", "Hello, world!", 3, 5},
		{"法语问题", "Comment créer une formation?", 4, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := c.Count(tt.text)
			assert.GreaterOrEqual(t, n, tt.minCount)
			assert.LessOrEqual(t, n, tt.maxCount)
		})
	}
}

func TestCounter_Fallback(t *testing.T) {
	c := &Counter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("abc"))
	assert.Equal(t, 2, c.Count("abcdefgh"))
	assert.Equal(t, "estimate", c.Method())
}
