// Package handler 提供开发时使用的 slog 控制台输出
package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

// prefixKeys 这些字段显示在行首方括号内
var prefixKeys = map[string]bool{
	"module":     true,
	"component":  true,
	"request_id": true,
	"service":    true,
}

// ConsoleHandler 单行彩色输出：
// LEVEL 15:04:05.000 [module/component] #request message key=value ...
type ConsoleHandler struct {
	opts  *slog.HandlerOptions
	mu    *sync.Mutex
	out   io.Writer
	color bool
	attrs []slog.Attr
	group string
}

// NewConsoleHandler 创建控制台处理器，color 为 false 时不输出 ANSI 转义
func NewConsoleHandler(out io.Writer, opts *slog.HandlerOptions, color bool) *ConsoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &ConsoleHandler{
		out:   out,
		opts:  opts,
		mu:    &sync.Mutex{},
		color: color,
	}
}

// Enabled 未设置级别时默认 info
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	if h.opts.Level == nil {
		return level >= slog.LevelInfo
	}
	return level >= h.opts.Level.Level()
}

// Handle 输出一条记录
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	all := make([]slog.Attr, 0, len(h.attrs)+r.NumAttrs())
	all = append(all, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		all = append(all, a)
		return true
	})

	var module, component, requestID string
	for _, a := range all {
		switch a.Key {
		case "module":
			module = a.Value.String()
		case "component":
			component = a.Value.String()
		case "request_id":
			requestID = a.Value.String()
		}
	}

	var buf bytes.Buffer
	buf.WriteString(h.paint(levelColor(r.Level), fmt.Sprintf("%-5s", r.Level.String())))
	buf.WriteByte(' ')
	buf.WriteString(h.paint(colorGray, r.Time.Format("15:04:05.000")))

	switch {
	case module != "" && component != "":
		fmt.Fprintf(&buf, " [%s/%s]", module, component)
	case module != "":
		fmt.Fprintf(&buf, " [%s]", module)
	}
	if requestID != "" {
		buf.WriteString(" #")
		buf.WriteString(shortID(requestID))
	}

	buf.WriteByte(' ')
	buf.WriteString(r.Message)

	for _, a := range all {
		if prefixKeys[a.Key] {
			continue
		}
		buf.WriteByte(' ')
		buf.WriteString(h.paint(colorGray, a.Key+"="))
		buf.WriteString(formatValue(a.Value))
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

// WithAttrs 返回带有额外属性的处理器
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	next.attrs = append(next.attrs, attrs...)
	return &next
}

// WithGroup 返回带有分组的处理器
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	if next.group != "" {
		next.group = next.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

func (h *ConsoleHandler) paint(color, s string) string {
	if !h.color {
		return s
	}
	return color + s + colorReset
}

// formatValue 含空白的字符串加引号
func formatValue(v slog.Value) string {
	s := v.Resolve().String()
	if v.Kind() == slog.KindString && (s == "" || strings.ContainsAny(s, " \t\n\"=")) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// shortID uuid 只显示前 8 位
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}
