// Package session 维护进程内的会话记忆（问答历史）
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/formabot/backend/internal/domain/conversation"
	"github.com/formabot/backend/internal/infrastructure/log"
	"golang.org/x/sync/singleflight"
)

// Cache 会话 ID 到问答历史的内存映射
// 缺失时从存储重建；条目只在 Reset 时移除
type Cache struct {
	mu      sync.RWMutex
	entries map[string][]conversation.Exchange

	reader conversation.MessageReader
	group  singleflight.Group
	logger *slog.Logger
}

// NewCache 创建会话缓存
func NewCache(reader conversation.MessageReader) *Cache {
	return &Cache{
		entries: make(map[string][]conversation.Exchange),
		reader:  reader,
		logger:  log.NewModuleLogger("session", "cache"),
	}
}

// Get 返回会话历史的副本，未缓存时从存储重建
// 同一会话的并发重建只读取一次存储
func (c *Cache) Get(ctx context.Context, sessionID string) ([]conversation.Exchange, error) {
	if entry, ok := c.lookup(sessionID); ok {
		return entry, nil
	}

	v, err, _ := c.group.Do(sessionID, func() (any, error) {
		// 等待期间可能已被其他调用填充
		if entry, ok := c.lookup(sessionID); ok {
			return entry, nil
		}
		return c.rebuild(ctx, sessionID)
	})
	if err != nil {
		return nil, err
	}

	return clone(v.([]conversation.Exchange)), nil
}

// Reset 移除会话条目，幂等，不访问存储
func (c *Cache) Reset(sessionID string) {
	c.mu.Lock()
	delete(c.entries, sessionID)
	c.mu.Unlock()
}

// AppendExchange 向已缓存的会话追加一次问答，不访问存储
// 会话未缓存时不做任何事，下次 Get 会从存储重建出包含本次问答的历史
func (c *Cache) AppendExchange(sessionID, userText, assistantText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[sessionID]
	if !ok {
		return
	}
	c.entries[sessionID] = append(entry, conversation.Exchange{
		UserText:      userText,
		AssistantText: assistantText,
	})
}

// Len 已缓存的会话数量
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// lookup 读取缓存条目的副本
func (c *Cache) lookup(sessionID string) ([]conversation.Exchange, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[sessionID]
	if !ok {
		return nil, false
	}
	return clone(entry), true
}

// rebuild 从存储读取全部消息并配对
func (c *Cache) rebuild(ctx context.Context, sessionID string) ([]conversation.Exchange, error) {
	messages, err := c.reader.ListMessages(ctx, sessionID, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild session %s: %w", sessionID, err)
	}

	exchanges := PairExchanges(messages)

	c.mu.Lock()
	c.entries[sessionID] = exchanges
	c.mu.Unlock()

	c.logger.Debug("Session rebuilt from store",
		"session_id", sessionID,
		"messages", len(messages),
		"exchanges", len(exchanges),
	)
	return clone(exchanges), nil
}

func clone(entry []conversation.Exchange) []conversation.Exchange {
	out := make([]conversation.Exchange, len(entry))
	copy(out, entry)
	return out
}
