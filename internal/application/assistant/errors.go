package assistant

import "errors"

var (
	// ErrBackendUnavailable 表示 embedding/生成后端不可达
	ErrBackendUnavailable = errors.New("inference backend unavailable")
	// ErrBackendTimeout 表示后端调用超出截止时间
	ErrBackendTimeout = errors.New("inference backend timeout")
	// ErrNoCandidates 表示合法的空结果，不是失败
	ErrNoCandidates = errors.New("no candidates found")
	// ErrComputationFailed 表示流水线整体失败，会广播给同 fingerprint 的全部等待方
	ErrComputationFailed = errors.New("answer computation failed")
)
