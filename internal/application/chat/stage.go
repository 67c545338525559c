package chat

// Stage 一轮对话的处理阶段，只能按顺序前进，任一阶段都可能进入 StageFailed
type Stage string

const (
	StageResolvingSession Stage = "resolving_session"
	StageRetrieving       Stage = "retrieving"
	StageGenerating       Stage = "generating"
	StagePersisting       Stage = "persisting"
	StageResponding       Stage = "responding"
	StageFailed           Stage = "failed"
)

// TurnError 记录失败发生的阶段
type TurnError struct {
	Stage Stage
	Err   error
}

func (e *TurnError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *TurnError) Unwrap() error {
	return e.Err
}
