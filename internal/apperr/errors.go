// Package apperr 定义了治理核心对外暴露的结构化错误类型。
// 四类错误都会原样透传给协作服务，不允许被吞掉或降级为静默空操作。
package apperr

import (
	"errors"
	"fmt"
)

// ErrForbidden 表示主体无权访问目标行。
// 统一返回同一个错误值，调用方无法区分“行不存在”与“行存在但不可见”。
var ErrForbidden = errors.New("forbidden")

// QuotaExceeded 表示写入会超出租户套餐对某资源种类的上限。
// 调用方可以通过升级套餐或等待窗口重置来恢复。
type QuotaExceeded struct {
	ResourceKind string
	Current      int64
	Ceiling      int64
}

func (e *QuotaExceeded) Error() string {
	return fmt.Sprintf("quota exceeded: kind=%s current=%d ceiling=%d", e.ResourceKind, e.Current, e.Ceiling)
}

// PartitionCreateFailed 表示目标分区既不存在也无法创建，触发写入失败。
type PartitionCreateFailed struct {
	Table  string
	Bucket string
	Err    error
}

func (e *PartitionCreateFailed) Error() string {
	return fmt.Sprintf("partition create failed: table=%s bucket=%s: %v", e.Table, e.Bucket, e.Err)
}

func (e *PartitionCreateFailed) Unwrap() error { return e.Err }

// ValidationError 表示配置或取值不合法，在产生任何副作用之前被拒绝。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// IsQuotaExceeded 判断错误链中是否包含配额超限。
func IsQuotaExceeded(err error) (*QuotaExceeded, bool) {
	var qe *QuotaExceeded
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}

// IsValidation 判断错误链中是否包含校验失败。
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsPartitionCreateFailed 判断错误链中是否包含分区创建失败。
func IsPartitionCreateFailed(err error) (*PartitionCreateFailed, bool) {
	var pe *PartitionCreateFailed
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
