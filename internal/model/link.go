package model

import (
	"time"

	"github.com/google/uuid"
)

// Profile 对应 profiles 表，是面向公众展示的实体：
// 全局可读，仅所属主体可修改。
type Profile struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	OwnerUserID uint      `gorm:"not null;uniqueIndex" json:"ownerUserId"`
	DisplayName string    `gorm:"type:varchar(100);not null" json:"displayName"`
	Bio         string    `gorm:"type:text" json:"bio"`
	AvatarURL   string    `gorm:"type:varchar(255)" json:"avatarUrl"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Profile) TableName() string {
	return "profiles"
}

// Link 对应 links 表，公开展示的外链条目，排序由 Position 决定。
type Link struct {
	LinkID      uuid.UUID `gorm:"type:uuid;primaryKey;column:link_id" json:"linkId"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	OwnerUserID uint      `gorm:"not null;index" json:"ownerUserId"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	URL         string    `gorm:"type:varchar(512);not null" json:"url"`
	Position    int       `gorm:"not null;default:0" json:"position"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Link) TableName() string {
	return "links"
}
