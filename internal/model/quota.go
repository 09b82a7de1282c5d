package model

import (
	"time"

	"github.com/google/uuid"
)

// 配额约束的资源种类常量。
const (
	ResourceKindBot          = "bot"
	ResourceKindCollection   = "collection"
	ResourceKindDocument     = "document"
	ResourceKindVectorSearch = "vector_search"
	ResourceKindToken        = "token"
)

// 配额窗口常量：total 为累计总量，day/month 为按日/按月滚动窗口。
const (
	WindowTotal = "total"
	WindowDay   = "day"
	WindowMonth = "month"
)

// TierFeature 对应 tier_features 表：套餐等级 → 资源种类 → 上限。
// 上限是数据而不是代码，运营修改后立即生效，无需重新部署。
type TierFeature struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Tier         string `gorm:"type:varchar(20);not null;uniqueIndex:uk_tier_kind" json:"tier"`
	ResourceKind string `gorm:"type:varchar(50);not null;uniqueIndex:uk_tier_kind" json:"resourceKind"`
	Ceiling      int64  `gorm:"not null" json:"ceiling"`
	// Window 取值 total | day | month，决定计数口径。
	Window    string    `gorm:"type:varchar(10);not null;default:'total'" json:"window"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TierFeature) TableName() string {
	return "tier_features"
}

// TierModel 对应 tier_models 表：按套餐等级可见的模型目录。
// Kind 取值 llm 或 embedding。
type TierModel struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Tier        string `gorm:"type:varchar(20);not null;index" json:"tier"`
	Kind        string `gorm:"type:varchar(20);not null" json:"kind"`
	ModelName   string `gorm:"type:varchar(100);not null" json:"modelName"`
	Dimensions  int    `gorm:"not null;default:0" json:"dimensions"` // 仅 embedding 模型有意义
	Description string `gorm:"type:text" json:"description"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TierModel) TableName() string {
	return "tier_models"
}

// TenantUsage 对应 tenant_usage 表：每 (租户, 资源种类, 窗口桶) 一行的运行计数。
// 这一行是配额检查与资源写入线性化的锁点：检查前对它加行锁，
// 使同一租户同一资源的并发创建者串行通过检查。
// BucketKey 在累计口径下固定为 total，按日窗口形如 2026-08-29，按月形如 2026-08。
type TenantUsage struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_tenant_kind_bucket" json:"tenantId"`
	ResourceKind string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_tenant_kind_bucket" json:"resourceKind"`
	BucketKey    string    `gorm:"type:varchar(10);not null;default:'';uniqueIndex:uk_tenant_kind_bucket" json:"bucketKey"`
	UsedCount    int64     `gorm:"not null;default:0" json:"usedCount"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TenantUsage) TableName() string {
	return "tenant_usage"
}

// UsageEntry 是 get_usage 返回给协作服务的单项用量。
type UsageEntry struct {
	Current int64 `json:"current"`
	Ceiling int64 `json:"ceiling"`
}
