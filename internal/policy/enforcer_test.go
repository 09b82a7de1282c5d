package policy

import (
	"context"
	"os"
	"testing"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/schema"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	// 管理员旁路会写审计日志，测试里也要有可用的 logger。
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

// newDryRunDB 构造一个只生成 SQL、不触库的 *gorm.DB，并挂载访问控制插件。
// 空 DSN 走 pgx 默认配置，连接是惰性建立的，DryRun 下不会真正发起。
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open(""), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.Use(NewEnforcer(NewStore(Compile(schema.Registry(), 1)))))
	return db
}

func userCtx(p Principal) context.Context {
	return WithPrincipal(context.Background(), p)
}

func TestEnforcerScopesTenantReads(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	var docs []model.Document
	tx := db.WithContext(userCtx(p)).Find(&docs)

	require.NoError(t, tx.Error)
	assert.Contains(t, tx.Statement.SQL.String(), `"documents"."tenant_id" = $`)
	assert.Contains(t, tx.Statement.Vars, p.TenantID)
}

func TestEnforcerScopesDeleteToTenant(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}
	id := uuid.New()

	tx := db.WithContext(userCtx(p)).Where("document_id = ?", id).Delete(&model.Document{})

	require.NoError(t, tx.Error)
	assert.Contains(t, tx.Statement.SQL.String(), `"documents"."tenant_id" = $`)
	assert.Contains(t, tx.Statement.Vars, p.TenantID)
}

func TestEnforcerPublicReadUnscoped(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 9, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	var bots []model.Bot
	tx := db.WithContext(userCtx(p)).Find(&bots)

	require.NoError(t, tx.Error)
	assert.NotContains(t, tx.Statement.SQL.String(), "tenant_id")
}

func TestEnforcerPublicWriteRequiresOwnership(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 3, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	tx := db.WithContext(userCtx(p)).Model(&model.Bot{}).
		Where("bot_id = ?", uuid.New()).
		Updates(map[string]interface{}{"name": "改名"})

	require.NoError(t, tx.Error)
	sql := tx.Statement.SQL.String()
	assert.Contains(t, sql, `"bots"."tenant_id" = $`)
	assert.Contains(t, sql, `"bots"."owner_user_id" = $`)
	assert.Contains(t, tx.Statement.Vars, p.TenantID)
	assert.Contains(t, tx.Statement.Vars, p.UserID)
}

func TestEnforcerCreateRejectsForeignTenant(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	tx := db.WithContext(userCtx(p)).Create(&model.Document{
		DocumentID:   uuid.New(),
		TenantID:     uuid.New(), // 不是主体所在租户
		CollectionID: uuid.New(),
		Title:        "越权文档",
	})
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	tx = db.WithContext(userCtx(p)).Create(&model.Document{
		DocumentID:   uuid.New(),
		TenantID:     p.TenantID,
		CollectionID: uuid.New(),
		Title:        "本租户文档",
	})
	require.NoError(t, tx.Error)
	assert.Contains(t, tx.Statement.SQL.String(), `INSERT INTO "documents"`)
}

func TestEnforcerCreateRejectsForeignOwner(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 3, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	tx := db.WithContext(userCtx(p)).Create(&model.Bot{
		BotID:       uuid.New(),
		TenantID:    p.TenantID,
		OwnerUserID: 99, // 不是主体本人
		Name:        "代写机器人",
		LLMModel:    "gpt-4o-mini",
	})
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	tx = db.WithContext(userCtx(p)).Create(&model.Bot{
		BotID:       uuid.New(),
		TenantID:    p.TenantID,
		OwnerUserID: p.UserID,
		Name:        "自己的机器人",
		LLMModel:    "gpt-4o-mini",
	})
	assert.NoError(t, tx.Error)
}

func TestEnforcerCreateBatchStopsAtFirstViolation(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	rows := []model.Document{
		{DocumentID: uuid.New(), TenantID: p.TenantID, CollectionID: uuid.New(), Title: "合法"},
		{DocumentID: uuid.New(), TenantID: uuid.New(), CollectionID: uuid.New(), Title: "混入"},
	}
	tx := db.WithContext(userCtx(p)).Create(&rows)
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)
}

func TestEnforcerAppendOnlyRowsImmutable(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}
	ctx := userCtx(p)

	tx := db.WithContext(ctx).Model(&model.Message{}).
		Where("id = ?", 1).
		Update("content", "篡改")
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	tx = db.WithContext(ctx).Where("tenant_id = ?", p.TenantID).Delete(&model.AnalyticsEvent{})
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	// 追加本身照常放行
	tx = db.WithContext(ctx).Create(&model.Message{
		ConversationID: uuid.New(),
		TenantID:       p.TenantID,
		Role:           "user",
		Content:        "你好",
	})
	assert.NoError(t, tx.Error)
}

func TestEnforcerReferenceWritesAdminOnly(t *testing.T) {
	db := newDryRunDB(t)
	user := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}
	admin := Principal{UserID: 2, TenantID: uuid.New(), Role: model.RoleAdmin, Tier: model.TierBusiness}

	tx := db.WithContext(userCtx(user)).Model(&model.TierFeature{}).
		Where("tier = ?", model.TierFree).
		Update("ceiling", 5)
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	tx = db.WithContext(userCtx(admin)).Model(&model.TierFeature{}).
		Where("tier = ?", model.TierFree).
		Update("ceiling", 5)
	assert.NoError(t, tx.Error)

	// 引用表全局可读，不注入租户谓词
	var features []model.TierFeature
	tx = db.WithContext(userCtx(user)).Find(&features)
	require.NoError(t, tx.Error)
	assert.NotContains(t, tx.Statement.SQL.String(), "tenant_id")
}

func TestEnforcerMissingPrincipalDenied(t *testing.T) {
	db := newDryRunDB(t)

	var docs []model.Document
	tx := db.WithContext(context.Background()).Find(&docs)
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)
}

func TestEnforcerUnregisteredTableDenied(t *testing.T) {
	db := newDryRunDB(t)
	p := Principal{UserID: 1, TenantID: uuid.New(), Role: model.RoleUser, Tier: model.TierFree}

	var rows []map[string]interface{}
	tx := db.WithContext(userCtx(p)).Table("pg_stat_activity").Find(&rows)
	assert.ErrorIs(t, tx.Error, apperr.ErrForbidden)

	// 系统上下文不受注册表限制
	tx = db.WithContext(WithSystem(context.Background())).Table("pg_stat_activity").Find(&rows)
	assert.NoError(t, tx.Error)
}

func TestEnforcerSystemContextUnscoped(t *testing.T) {
	db := newDryRunDB(t)

	var docs []model.Document
	tx := db.WithContext(WithSystem(context.Background())).Find(&docs)

	require.NoError(t, tx.Error)
	assert.NotContains(t, tx.Statement.SQL.String(), "tenant_id")
}

func TestEnforcerAdminBypassUnscoped(t *testing.T) {
	db := newDryRunDB(t)
	admin := Principal{UserID: 2, TenantID: uuid.New(), Role: model.RoleAdmin, Tier: model.TierBusiness}
	ctx := WithAdminBypass(userCtx(admin))

	var docs []model.Document
	tx := db.WithContext(ctx).Find(&docs)

	require.NoError(t, tx.Error)
	assert.NotContains(t, tx.Statement.SQL.String(), "tenant_id")
}
