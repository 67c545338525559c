package rag

import (
	"errors"
	"fmt"
)

// ErrRetrievalUnavailable 索引或压缩服务不可用（含超时）
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Stage 检索失败所在的阶段
type Stage string

const (
	// StageSearch 索引检索
	StageSearch Stage = "search"
	// StageCompress 上下文压缩
	StageCompress Stage = "compress"
)

// RetrievalError 检索失败详情，errors.Is(err, ErrRetrievalUnavailable) 恒为 true
type RetrievalError struct {
	Stage Stage
	Err   error
}

// Error 返回错误描述
func (e *RetrievalError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s failed: %v", ErrRetrievalUnavailable, e.Stage, e.Err)
}

// Unwrap 返回底层错误
func (e *RetrievalError) Unwrap() []error {
	return []error{ErrRetrievalUnavailable, e.Err}
}
