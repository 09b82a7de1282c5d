package policy

import (
	"context"
	"testing"

	"linkai-core-go/internal/model"
	"linkai-core-go/internal/schema"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSet(t *testing.T) *PolicySet {
	t.Helper()
	return Compile(schema.Registry(), 1)
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := Principal{UserID: 7, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}
	ctx := WithPrincipal(context.Background(), p)

	got, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, ok = PrincipalFrom(context.Background())
	assert.False(t, ok)
}

func TestSystemAndBypassFlags(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsSystem(ctx))
	assert.False(t, HasAdminBypass(ctx))

	assert.True(t, IsSystem(WithSystem(ctx)))
	assert.True(t, HasAdminBypass(WithAdminBypass(ctx)))
	// 两种标记互不影响
	assert.False(t, HasAdminBypass(WithSystem(ctx)))
	assert.False(t, IsSystem(WithAdminBypass(ctx)))
}

func TestTenantIsolationBlocksCrossTenantReads(t *testing.T) {
	set := newTestSet(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	alice := Principal{UserID: 1, TenantID: tenantA, Role: model.RoleUser}

	for _, table := range []string{"documents", "collections", "conversations", "messages", "tenant_usage"} {
		assert.True(t, set.CanRead(alice, table, tenantA), "本租户读 %s 应放行", table)
		assert.False(t, set.CanRead(alice, table, tenantB), "跨租户读 %s 应拒绝", table)
		assert.False(t, set.CanMutate(alice, table, tenantB, 1), "跨租户写 %s 应拒绝", table)
	}
}

func TestPublicReadRegime(t *testing.T) {
	set := newTestSet(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	owner := Principal{UserID: 1, TenantID: tenantA, Role: model.RoleUser}
	stranger := Principal{UserID: 2, TenantID: tenantB, Role: model.RoleUser}

	for _, table := range []string{"bots", "profiles", "links"} {
		// 任何人可读
		assert.True(t, set.CanRead(owner, table, tenantA), table)
		assert.True(t, set.CanRead(stranger, table, tenantA), table)
		// 只有所有者可写
		assert.True(t, set.CanMutate(owner, table, tenantA, 1), table)
		assert.False(t, set.CanMutate(stranger, table, tenantA, 1), table)
		// 同租户的非所有者也不能写
		sameTenant := Principal{UserID: 3, TenantID: tenantA, Role: model.RoleUser}
		assert.False(t, set.CanMutate(sameTenant, table, tenantA, 1), table)
	}
}

func TestReferenceRegimeAdminOnlyWrites(t *testing.T) {
	set := newTestSet(t)
	user := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser}
	admin := Principal{UserID: 2, TenantID: uuid.New(), Role: model.RoleAdmin}

	for _, table := range []string{"tier_features", "tier_models"} {
		assert.True(t, set.CanRead(user, table, uuid.Nil), table)
		assert.False(t, set.CanMutate(user, table, uuid.Nil, 0), table)
		assert.True(t, set.CanMutate(admin, table, uuid.Nil, 0), table)
	}
}

func TestUnregisteredTableDenied(t *testing.T) {
	set := newTestSet(t)
	p := Principal{UserID: 1, TenantID: uuid.New()}
	assert.False(t, set.CanRead(p, "pg_catalog", p.TenantID))
	assert.False(t, set.CanMutate(p, "pg_catalog", p.TenantID, 1))
}

func TestCompileCarriesAppendOnly(t *testing.T) {
	set := newTestSet(t)
	rule, ok := set.Lookup("messages")
	require.True(t, ok)
	assert.True(t, rule.AppendOnly)

	rule, ok = set.Lookup("documents")
	require.True(t, ok)
	assert.False(t, rule.AppendOnly)
}

func TestStoreAtomicSwap(t *testing.T) {
	store := NewStore(Compile(schema.Registry(), 1))
	assert.Equal(t, int64(1), store.Current().Version)

	// 规则集整体替换，版本号单调推进
	store.Apply(Compile(schema.Registry(), 2))
	assert.Equal(t, int64(2), store.Current().Version)

	rule, ok := store.Current().Lookup("documents")
	require.True(t, ok)
	assert.Equal(t, "tenant_id", rule.TenantColumn)
}
