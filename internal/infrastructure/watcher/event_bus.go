// Package watcher 提供模板文件监听和进程内事件分发
package watcher

import (
	"log/slog"
	"sync"

	"github.com/formabot/backend/internal/domain/events"
	"github.com/formabot/backend/internal/infrastructure/log"
)

// subscriberQueueSize 每个订阅者的待处理事件上限，超出后丢弃
const subscriberQueueSize = 64

// subscriber 每个订阅者独占一个 goroutine，按发布顺序处理事件
type subscriber struct {
	id      uint64
	handler events.Handler
	queue   chan events.Event
}

// eventBus 进程内事件总线
type eventBus struct {
	mu     sync.RWMutex
	subs   map[events.EventType][]*subscriber
	nextID uint64
	closed bool
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewEventBus 创建事件总线
func NewEventBus() events.EventBus {
	return &eventBus{
		subs:   make(map[events.EventType][]*subscriber),
		logger: log.NewModuleLogger("watcher", "event_bus"),
	}
}

// Subscribe 订阅单一事件类型；总线关闭后订阅无效
func (b *eventBus) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	b.nextID++
	sub := &subscriber{
		id:      b.nextID,
		handler: handler,
		queue:   make(chan events.Event, subscriberQueueSize),
	}
	b.subs[eventType] = append(b.subs[eventType], sub)

	b.wg.Add(1)
	go b.run(sub)

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(eventType, sub.id) })
	}
}

// SubscribeMultiple 同一个处理器订阅多个类型，每个类型各自有序
func (b *eventBus) SubscribeMultiple(eventTypes []events.EventType, handler events.Handler) func() {
	unsubs := make([]func(), 0, len(eventTypes))
	for _, t := range eventTypes {
		unsubs = append(unsubs, b.Subscribe(t, handler))
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// remove 取消订阅并关闭其队列，已入队的事件仍会处理完
func (b *eventBus) remove(eventType events.EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	subs := b.subs[eventType]
	for i, sub := range subs {
		if sub.id != id {
			continue
		}
		next := make([]*subscriber, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		b.subs[eventType] = append(next, subs[i+1:]...)
		close(sub.queue)
		return
	}
}

// Publish 非阻塞投递；订阅者队列已满时丢弃该事件
func (b *eventBus) Publish(event events.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	subs := b.subs[event.Type()]
	for _, sub := range subs {
		select {
		case sub.queue <- event:
		default:
			b.logger.Warn("Subscriber queue full, dropping event",
				"type", event.Type(),
				"subscriber", sub.id,
			)
		}
	}
}

// run 订阅者的处理循环，队列关闭后退出
func (b *eventBus) run(sub *subscriber) {
	defer b.wg.Done()
	for event := range sub.queue {
		b.dispatch(sub, event)
	}
}

// dispatch 处理器的 panic 和错误只记录日志
func (b *eventBus) dispatch(sub *subscriber, event events.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				"type", event.Type(),
				"subscriber", sub.id,
				"panic", r,
			)
		}
	}()

	if err := sub.handler.HandleEvent(event); err != nil {
		b.logger.Error("Handler returned error",
			"type", event.Type(),
			"subscriber", sub.id,
			"error", err,
		)
	}
}

// Close 停止接收事件，等待已入队事件处理完成；可重复调用
func (b *eventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, subs := range b.subs {
		for _, sub := range subs {
			close(sub.queue)
		}
	}
	b.subs = nil
	b.mu.Unlock()

	b.wg.Wait()
	b.logger.Info("Event bus closed")
}
