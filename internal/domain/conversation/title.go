package conversation

import (
	"fmt"
	"time"
)

// TitleMaxLength 标题最大字符数（按 rune 计算）
const TitleMaxLength = 50

// TitleTriggerCount 消息数达到该值且最新消息为助手回复时设置标题
const TitleTriggerCount = 2

// DefaultTitle 新对话的占位标题
func DefaultTitle(now time.Time) string {
	return fmt.Sprintf("Conversation du %s", now.Format("02/01/2006 15:04"))
}

// TitleFromFirstMessage 用第一条用户消息生成标题，超过 50 个字符时截断并追加省略号
func TitleFromFirstMessage(content string) string {
	runes := []rune(content)
	if len(runes) <= TitleMaxLength {
		return content
	}
	return string(runes[:TitleMaxLength]) + "..."
}
