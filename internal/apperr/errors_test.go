package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuotaExceededCarriesFields(t *testing.T) {
	err := &QuotaExceeded{ResourceKind: "document", Current: 100, Ceiling: 100}
	assert.Contains(t, err.Error(), "document")
	assert.Contains(t, err.Error(), "current=100")
	assert.Contains(t, err.Error(), "ceiling=100")

	wrapped := fmt.Errorf("创建文档失败: %w", err)
	qe, ok := IsQuotaExceeded(wrapped)
	require.True(t, ok)
	assert.Equal(t, "document", qe.ResourceKind)
	assert.Equal(t, int64(100), qe.Current)
	assert.Equal(t, int64(100), qe.Ceiling)
}

func TestPartitionCreateFailedUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := &PartitionCreateFailed{Table: "analytics", Bucket: "analytics_y2026m08", Err: cause}

	assert.ErrorIs(t, err, cause)
	pe, ok := IsPartitionCreateFailed(fmt.Errorf("记录事件失败: %w", err))
	require.True(t, ok)
	assert.Equal(t, "analytics", pe.Table)
	assert.Equal(t, "analytics_y2026m08", pe.Bucket)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "window", Reason: "未知的配额窗口"}
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "window", ve.Field)

	_, ok = IsValidation(errors.New("别的错误"))
	assert.False(t, ok)
}

func TestForbiddenIsOpaque(t *testing.T) {
	// 越权与不存在统一为同一个错误值，不泄露行的存在性
	assert.ErrorIs(t, fmt.Errorf("读取失败: %w", ErrForbidden), ErrForbidden)
	_, ok := IsQuotaExceeded(ErrForbidden)
	assert.False(t, ok)
}
