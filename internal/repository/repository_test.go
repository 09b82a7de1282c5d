package repository

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMustAffect(t *testing.T) {
	// 命中行的写语句原样放行
	assert.NoError(t, mustAffect(&gorm.DB{RowsAffected: 1}))
	assert.NoError(t, mustAffect(&gorm.DB{RowsAffected: 3}))
}

func TestMustAffectZeroRowsIsNotFound(t *testing.T) {
	// 注入谓词把越权的更新/删除过滤成零行命中，
	// 必须折算为 ErrRecordNotFound 而不是静默成功
	err := mustAffect(&gorm.DB{RowsAffected: 0})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMustAffectKeepsStatementError(t *testing.T) {
	cause := errors.New("connection reset")
	err := mustAffect(&gorm.DB{Error: cause, RowsAffected: 0})
	assert.ErrorIs(t, err, cause)
}
