package service

import (
	"errors"
)

// 领域错误定义。守卫与校验失败都不落库，调用方修正输入后可安全重试。
var (
	// ErrGuardViolation 守卫未通过（稿样未批准、缺质检照片）
	ErrGuardViolation = errors.New("guard violation")
	// ErrInvalidTransition 当前状态不支持所请求的流转
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrMissingOverrideReason 指定状态与默认推进结果不一致时必须给出强制理由
	ErrMissingOverrideReason = errors.New("override reason required")
	// ErrConflict 稿样版本号冲突
	ErrConflict = errors.New("version conflict")
	// ErrHasDependents 工单存在从属记录（稿样/质检/发货），禁止删除
	ErrHasDependents = errors.New("job has dependent records")
)

// GuardError 守卫未通过的详细信息，网关据此提示操作员
type GuardError struct {
	Reason           string `json:"reason"`
	CurrentStatus    string `json:"current_status"`
	SuggestedStatus  string `json:"suggested_status,omitempty"`
	RequiresOverride bool   `json:"requires_override"`
	RequiresPhoto    bool   `json:"requires_photo"`
}

func (e *GuardError) Error() string {
	return e.Reason
}

func (e *GuardError) Is(target error) bool {
	return target == ErrGuardViolation
}
