package events

import "time"

// TemplateEvent 提示模板重新加载事件
type TemplateEvent struct {
	// Path 模板文件路径
	Path string
	// Err 加载失败原因，成功时为 nil
	Err error
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *TemplateEvent) Type() EventType {
	return TemplateReloaded
}

// Timestamp 实现 Event 接口
func (e *TemplateEvent) Timestamp() time.Time {
	return e.EventTime
}
