package session

import (
	"context"
	"sync"
)

// Locker 按会话 ID 串行化操作，不同会话互不阻塞
// 锁条目按引用计数回收，不会随会话数量无限增长
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// NewLocker 创建会话锁注册表
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

// Lock 获取会话锁，ctx 结束时放弃等待
// 成功时返回释放函数，释放函数只能调用一次
func (l *Locker) Lock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	kl, ok := l.locks[sessionID]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[sessionID] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			l.release(sessionID, kl)
		}, nil
	case <-ctx.Done():
		l.release(sessionID, kl)
		return nil, ctx.Err()
	}
}

// release 减少引用计数，归零时删除条目
func (l *Locker) release(sessionID string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, sessionID)
	}
}

// size 当前持有的锁条目数量
func (l *Locker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
