// Package tokenizer 估算提示词的 token 数量
package tokenizer

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// DefaultEncoding Llama 3 与 GPT-4 系列兼容的编码
const DefaultEncoding = "cl100k_base"

// Counter token 计数器
type Counter struct {
	encoding *tiktoken.Tiktoken
	mu       sync.Mutex
}

// counterInstance 单例实例
var (
	counterInstance *Counter
	counterOnce     sync.Once
	counterErr      error
)

// Get 获取 Counter 单例，避免重复加载编码文件
func Get() (*Counter, error) {
	counterOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			counterErr = err
			return
		}
		counterInstance = &Counter{encoding: enc}
	})

	if counterErr != nil {
		return nil, counterErr
	}
	return counterInstance, nil
}

// ProvideCounter 提供 Counter，编码加载失败时退化为按字符估算
func ProvideCounter() *Counter {
	c, err := Get()
	if err != nil {
		return &Counter{}
	}
	return c
}

// Count 计算文本的 token 数量
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding == nil {
		// 经验值：平均每 4 个字符约 1 个 token
		return (utf8.RuneCountInString(text) + 3) / 4
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoding.Encode(text, nil, nil))
}

// Method 返回计算方法标识
func (c *Counter) Method() string {
	if c.encoding == nil {
		return "estimate"
	}
	return "tiktoken"
}
