package chat

import "errors"

// ErrGenerationFailure 生成服务调用失败或超时
var ErrGenerationFailure = errors.New("generation failure")
