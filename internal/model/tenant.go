// Package model 包含了应用的数据模型定义。
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tenant 是多租户隔离边界，对应数据库中的 tenants 表。
// 租户拥有其全部用户、文档、会话与用量计数；
// 在存在从属行的情况下删除租户必须级联，绝不允许悬挂。
type Tenant struct {
	TenantID uuid.UUID `gorm:"type:uuid;primaryKey;column:tenant_id" json:"tenantId"`
	Name     string    `gorm:"type:varchar(100);not null" json:"name"`
	// EmbeddingModel 决定租户文档分块的向量维度，写入时据此校验。
	EmbeddingModel string    `gorm:"type:varchar(100);not null;default:'text-embedding-3-small'" json:"embeddingModel"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tenant) TableName() string {
	return "tenants"
}

// TenantSubscription 对应 tenant_subscriptions 表。
// 一个租户同一时间只应有一条 is_active=true 的记录；
// 订阅失效后所有写入路径返回 Forbidden。
type TenantSubscription struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	// Tier 取值 free | pro | business，决定配额上限与可见模型。
	Tier      string     `gorm:"type:varchar(20);not null" json:"tier"`
	IsActive  bool       `gorm:"not null;default:true" json:"isActive"`
	StartedAt time.Time  `gorm:"autoCreateTime" json:"startedAt"`
	ExpiresAt *time.Time `gorm:"default:null" json:"expiresAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TenantSubscription) TableName() string {
	return "tenant_subscriptions"
}

// 订阅套餐等级常量。
const (
	TierFree     = "free"
	TierPro      = "pro"
	TierBusiness = "business"
)
