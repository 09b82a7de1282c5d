package service

import (
	"context"
	"testing"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePrincipalOf(t *testing.T) {
	// 正常主体必须原样返回，且调用立即完成
	want := policy.Principal{
		UserID:   7,
		TenantID: uuid.New(),
		Role:     model.RoleUser,
		Tier:     model.TierFree,
	}
	got, err := writePrincipalOf(policy.WithPrincipal(context.Background(), want))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWritePrincipalOfMissingPrincipal(t *testing.T) {
	_, err := writePrincipalOf(context.Background())
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestWritePrincipalOfSuspendedTenant(t *testing.T) {
	// 套餐为空表示租户被停用，写主体解析被拒
	suspended := policy.Principal{UserID: 7, TenantID: uuid.New(), Role: model.RoleUser}
	_, err := writePrincipalOf(policy.WithPrincipal(context.Background(), suspended))
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateCollectionSuspendedTenantForbidden(t *testing.T) {
	// 被停用的租户不能创建集合，拒绝发生在任何落库动作之前
	svc := NewResourceService(nil, nil, nil, nil, nil, nil)
	suspended := policy.Principal{UserID: 7, TenantID: uuid.New(), Role: model.RoleUser}
	ctx := policy.WithPrincipal(context.Background(), suspended)
	_, err := svc.CreateCollection(ctx, "知识库", "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
