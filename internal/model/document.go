package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// Document 对应 documents 表。文档属于一个集合，集合属于一个租户。
// 文档按天计入配额；软删除的文档不计数，恢复时需要重新过配额检查。
type Document struct {
	DocumentID   uuid.UUID      `gorm:"type:uuid;primaryKey;column:document_id" json:"documentId"`
	TenantID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenantId"`
	CollectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"collectionId"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Source       string         `gorm:"type:varchar(255)" json:"source"`
	Author       string         `gorm:"type:varchar(100)" json:"author"`
	DocumentType string         `gorm:"type:varchar(50)" json:"documentType"`
	ChunkCount   int            `gorm:"not null;default:0" json:"chunkCount"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Document) TableName() string {
	return "documents"
}

// DocumentChunk 对应 document_chunks 表。
// 每个文档被切分为按 chunk_index 排序的若干分块，
// 分块携带定长向量与原文片段；向量维度由租户配置的嵌入模型决定。
type DocumentChunk struct {
	ChunkID    uuid.UUID       `gorm:"type:uuid;primaryKey;column:chunk_id" json:"chunkId"`
	DocumentID uuid.UUID       `gorm:"type:uuid;not null;index" json:"documentId"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"tenantId"`
	ChunkIndex int             `gorm:"not null" json:"chunkIndex"`
	Content    string          `gorm:"type:text;not null" json:"content"`
	Embedding  pgvector.Vector `gorm:"type:vector(1536)" json:"-"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentChunk) TableName() string {
	return "document_chunks"
}
