package events

// Handler 事件订阅者；返回的错误只记录日志，不重试
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 函数适配为 Handler
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// EventBus 进程内发布/订阅
// 同一订阅者按发布顺序收到事件；Publish 不阻塞调用方
type EventBus interface {
	// Subscribe 返回的函数用于取消订阅，可重复调用
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())

	Publish(event Event)

	// Close 停止接收新事件并等待已投递事件处理完
	Close()
}
