package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Bot 对应 bots 表。机器人数量按套餐等级限额。
// IsPublic=true 的机器人全局可读，但仍只有所属主体可修改。
type Bot struct {
	BotID       uuid.UUID `gorm:"type:uuid;primaryKey;column:bot_id" json:"botId"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	OwnerUserID uint      `gorm:"not null;index" json:"ownerUserId"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	// LLMModel 必须是所属租户套餐可见的模型之一，写入时校验。
	LLMModel  string         `gorm:"type:varchar(100);not null;column:llm_model" json:"llmModel"`
	IsPublic  bool           `gorm:"not null;default:false" json:"isPublic"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Bot) TableName() string {
	return "bots"
}
