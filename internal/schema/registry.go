// Package schema 维护实体注册表、数据库迁移与时间分区管理。
package schema

import (
	"linkai-core-go/internal/model"
)

// Regime 表示实体的隔离制度。
type Regime int

const (
	// RegimeTenant 严格租户行隔离：只有同租户主体可见/可改。
	RegimeTenant Regime = iota
	// RegimePublicRead 公开展示实体：全局可读，仅所属主体可改。
	RegimePublicRead
	// RegimeReference 参考数据（套餐上限、模型目录）：全局可读，仅管理员可改。
	RegimeReference
)

// Entity 是注册表中的一条实体描述。
// 注册表是显式、可审查的行为清单：时间戳维护、行级策略、
// 索引建立都以它为唯一依据，而不是对 schema 做隐式全表遍历——
// 隐式遍历会随着实体增加而悄悄漂移。
type Entity struct {
	Table        string
	Model        interface{}
	Regime       Regime
	TenantColumn string
	OwnerColumn  string
	SoftDelete   bool
	// Searchable 列出参与三元组(trigram)模糊文本索引的列。
	Searchable []string
	// VectorColumns 列出参与 ivfflat 近邻索引的向量列。
	VectorColumns []string
	// Partitioned 为 true 的表由迁移层以原生 DDL 建立按月分区父表，
	// 不参与 AutoMigrate。
	Partitioned bool
	// AppendOnly 为 true 的表没有任何更新/删除路径。
	AppendOnly bool
}

// Registry 返回全部受治理实体的注册表。
// 新实体必须在这里登记才能获得行级策略与索引维护；
// 不在表中的表名在携带主体的会话里一律拒绝访问。
func Registry() []Entity {
	return []Entity{
		{
			Table:        "tenants",
			Model:        &model.Tenant{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
		},
		{
			Table:        "tenant_subscriptions",
			Model:        &model.TenantSubscription{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
		},
		{
			Table:        "users",
			Model:        &model.User{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			OwnerColumn:  "id",
			SoftDelete:   true,
			Searchable:   []string{"username"},
		},
		{
			Table:        "collections",
			Model:        &model.Collection{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			SoftDelete:   true,
			Searchable:   []string{"name"},
		},
		{
			Table:        "documents",
			Model:        &model.Document{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			SoftDelete:   true,
			Searchable:   []string{"title"},
		},
		{
			Table:         "document_chunks",
			Model:         &model.DocumentChunk{},
			Regime:        RegimeTenant,
			TenantColumn:  "tenant_id",
			Searchable:    []string{"content"},
			VectorColumns: []string{"embedding"},
		},
		{
			Table:        "conversations",
			Model:        &model.Conversation{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			OwnerColumn:  "user_id",
			SoftDelete:   true,
		},
		{
			Table:         "messages",
			Model:         &model.Message{},
			Regime:        RegimeTenant,
			TenantColumn:  "tenant_id",
			VectorColumns: []string{"embedding"},
			AppendOnly:    true,
		},
		{
			Table:        "bots",
			Model:        &model.Bot{},
			Regime:       RegimePublicRead,
			TenantColumn: "tenant_id",
			OwnerColumn:  "owner_user_id",
			SoftDelete:   true,
		},
		{
			Table:        "profiles",
			Model:        &model.Profile{},
			Regime:       RegimePublicRead,
			TenantColumn: "tenant_id",
			OwnerColumn:  "owner_user_id",
		},
		{
			Table:        "links",
			Model:        &model.Link{},
			Regime:       RegimePublicRead,
			TenantColumn: "tenant_id",
			OwnerColumn:  "owner_user_id",
		},
		{
			Table:  "tier_features",
			Model:  &model.TierFeature{},
			Regime: RegimeReference,
		},
		{
			Table:  "tier_models",
			Model:  &model.TierModel{},
			Regime: RegimeReference,
		},
		{
			Table:        "tenant_usage",
			Model:        &model.TenantUsage{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
		},
		{
			Table:        "analytics",
			Model:        &model.AnalyticsEvent{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			Partitioned:  true,
			AppendOnly:   true,
		},
		{
			Table:        "vector_analytics",
			Model:        &model.VectorAnalyticsEvent{},
			Regime:       RegimeTenant,
			TenantColumn: "tenant_id",
			Partitioned:  true,
			AppendOnly:   true,
		},
	}
}

// FindEntity 按表名在注册表中查找实体描述。
func FindEntity(table string) (Entity, bool) {
	for _, e := range Registry() {
		if e.Table == table {
			return e, true
		}
	}
	return Entity{}, false
}
