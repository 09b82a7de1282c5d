package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Collection 对应 collections 表，是租户内文档的命名分组。
// 每个套餐等级对可创建的集合数量有上限。
type Collection struct {
	CollectionID uuid.UUID      `gorm:"type:uuid;primaryKey;column:collection_id" json:"collectionId"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenantId"`
	Name         string         `gorm:"type:varchar(100);not null" json:"name"`
	Description  string         `gorm:"type:text" json:"description"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Collection) TableName() string {
	return "collections"
}
