package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Conversation 对应 conversations 表。
// 不变式：LastActivityAt 必须始终等于其最新一条消息的创建时间，
// 该字段与消息追加在同一事务内维护。
type Conversation struct {
	ConversationID uuid.UUID      `gorm:"type:uuid;primaryKey;column:conversation_id" json:"conversationId"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenantId"`
	UserID         uint           `gorm:"not null;index" json:"userId"`
	Title          string         `gorm:"type:varchar(255)" json:"title"`
	LastActivityAt time.Time      `gorm:"not null" json:"lastActivityAt"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Conversation) TableName() string {
	return "conversations"
}

// Message 对应 messages 表。消息是仅追加的，按创建时间排序，
// 没有任何更新或删除路径。Embedding 可选，用于历史语义检索。
type Message struct {
	ID             uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uuid.UUID        `gorm:"type:uuid;not null;index" json:"conversationId"`
	TenantID       uuid.UUID        `gorm:"type:uuid;not null;index" json:"tenantId"`
	Role           string           `gorm:"type:varchar(20);not null" json:"role"` // "user" 或 "assistant"
	Content        string           `gorm:"type:text;not null" json:"content"`
	Embedding      *pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt      time.Time        `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Message) TableName() string {
	return "messages"
}
