// Package prompt 负责把历史、上下文和问题填入提示模板
package prompt

import (
	"errors"
	"fmt"
	"strings"
)

// 模板必须声明的三个占位符
const (
	SlotHistory  = "{history}"
	SlotContext  = "{context}"
	SlotQuestion = "{question}"
)

// RequiredSlots 模板必须包含的占位符（按填充顺序）
var RequiredSlots = []string{SlotHistory, SlotContext, SlotQuestion}

// ErrTemplate 模板缺少必需占位符
var ErrTemplate = errors.New("invalid prompt template")

// TemplateError 模板校验失败详情
type TemplateError struct {
	Missing []string
}

// Error 返回错误描述
func (e *TemplateError) Error() string {
	return fmt.Sprintf("%s: missing slots %s", ErrTemplate, strings.Join(e.Missing, ", "))
}

// Is 支持 errors.Is(err, ErrTemplate)
func (e *TemplateError) Is(target error) bool {
	return target == ErrTemplate
}

// Validate 检查模板是否声明了全部三个占位符
func Validate(template string) error {
	var missing []string
	for _, slot := range RequiredSlots {
		if !strings.Contains(template, slot) {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		return &TemplateError{Missing: missing}
	}
	return nil
}

// Assemble 填充模板
// 单次扫描替换，填入的值原样保留，值中出现的占位符文本不会被再次替换
func Assemble(template, history, context, question string) (string, error) {
	if err := Validate(template); err != nil {
		return "", err
	}
	r := strings.NewReplacer(
		SlotHistory, history,
		SlotContext, context,
		SlotQuestion, question,
	)
	return r.Replace(template), nil
}
