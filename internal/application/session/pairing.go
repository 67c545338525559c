package session

import (
	"strings"

	"github.com/formabot/backend/internal/domain/conversation"
)

// PairExchanges 按时间顺序单次扫描，把用户消息与其后的助手回复配成一对
//   - 用户消息之后又出现用户消息：前一条没有得到回复（生成失败），丢弃
//   - 没有前置用户消息的助手回复：丢弃
//   - 末尾未得到回复的用户消息：丢弃
//
// messages 必须已按 created_at 升序排列
func PairExchanges(messages []*conversation.Message) []conversation.Exchange {
	exchanges := make([]conversation.Exchange, 0, len(messages)/2)

	var pending *conversation.Message
	for _, msg := range messages {
		switch msg.Role {
		case conversation.RoleUser:
			pending = msg
		case conversation.RoleAssistant:
			if pending == nil {
				continue
			}
			exchanges = append(exchanges, conversation.Exchange{
				UserText:      pending.Content,
				AssistantText: msg.Content,
			})
			pending = nil
		}
	}

	return exchanges
}

// FormatHistory 把问答历史格式化为模板中的 {history} 文本
func FormatHistory(exchanges []conversation.Exchange) string {
	if len(exchanges) == 0 {
		return ""
	}

	var b strings.Builder
	for i, ex := range exchanges {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Human: ")
		b.WriteString(ex.UserText)
		b.WriteString("\nAI: ")
		b.WriteString(ex.AssistantText)
	}
	return b.String()
}
