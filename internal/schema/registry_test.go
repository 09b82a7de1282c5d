package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryTenantEntitiesHaveTenantColumn(t *testing.T) {
	for _, e := range Registry() {
		if e.Regime == RegimeTenant || e.Regime == RegimePublicRead {
			assert.NotEmpty(t, e.TenantColumn, "实体 %s 缺少租户列", e.Table)
		}
	}
}

func TestRegistryPublicEntitiesHaveOwnerColumn(t *testing.T) {
	for _, e := range Registry() {
		if e.Regime == RegimePublicRead {
			assert.NotEmpty(t, e.OwnerColumn, "公开实体 %s 缺少所有者列", e.Table)
		}
	}
}

func TestRegistryPartitionedEntitiesAreAppendOnly(t *testing.T) {
	var partitioned []string
	for _, e := range Registry() {
		if e.Partitioned {
			partitioned = append(partitioned, e.Table)
			assert.True(t, e.AppendOnly, "分区实体 %s 必须是追加表", e.Table)
		}
	}
	assert.ElementsMatch(t, []string{"analytics", "vector_analytics"}, partitioned)
}

func TestRegistryTableNamesAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, e := range Registry() {
		assert.False(t, seen[e.Table], "表 %s 重复注册", e.Table)
		seen[e.Table] = true
		assert.NotNil(t, e.Model, "实体 %s 缺少模型", e.Table)
	}
}

func TestFindEntity(t *testing.T) {
	e, ok := FindEntity("documents")
	require.True(t, ok)
	assert.Equal(t, RegimeTenant, e.Regime)
	assert.True(t, e.SoftDelete)

	e, ok = FindEntity("bots")
	require.True(t, ok)
	assert.Equal(t, RegimePublicRead, e.Regime)
	assert.Equal(t, "owner_user_id", e.OwnerColumn)

	_, ok = FindEntity("no_such_table")
	assert.False(t, ok)
}

func TestReferenceEntities(t *testing.T) {
	for _, table := range []string{"tier_features", "tier_models"} {
		e, ok := FindEntity(table)
		require.True(t, ok, table)
		assert.Equal(t, RegimeReference, e.Regime, table)
	}
}
