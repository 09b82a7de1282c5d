package repository

import (
	"context"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChunkMatch 带相似度距离的分块检索结果，距离为余弦距离，越小越相似
type ChunkMatch struct {
	model.DocumentChunk
	Distance float64 `gorm:"column:distance" json:"distance"`
}

// MessageMatch 带相似度距离的消息检索结果
type MessageMatch struct {
	model.Message
	Distance float64 `gorm:"column:distance" json:"distance"`
}

// SearchRepository 检索数据访问接口。
// 所有查询都经由模型链构建，租户谓词由访问控制插件注入。
type SearchRepository interface {
	SimilarChunks(ctx context.Context, embedding pgvector.Vector, collectionID *uuid.UUID, limit int, threshold float64) ([]ChunkMatch, error)
	SimilarMessages(ctx context.Context, embedding pgvector.Vector, conversationID *uuid.UUID, limit int) ([]MessageMatch, error)
	TextSearchDocuments(ctx context.Context, query string, limit int) ([]model.Document, error)
	TextSearchChunks(ctx context.Context, query string, limit int) ([]model.DocumentChunk, error)
	TextSearchUsers(ctx context.Context, query string, limit int) ([]model.User, error)
}

type searchRepository struct {
	db *gorm.DB
}

// NewSearchRepository 创建检索仓储实例
func NewSearchRepository(db *gorm.DB) SearchRepository {
	return &searchRepository{db: db}
}

// SimilarChunks 按余弦距离做近邻检索，ivfflat 索引只有在
// ORDER BY 使用同一距离算子时才会命中
func (r *searchRepository) SimilarChunks(ctx context.Context, embedding pgvector.Vector, collectionID *uuid.UUID, limit int, threshold float64) ([]ChunkMatch, error) {
	query := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).
		Select("document_chunks.*, embedding <=> ? AS distance", embedding).
		Where("embedding IS NOT NULL")
	if threshold > 0 {
		// 相似度阈值换算为距离上界
		query = query.Where("embedding <=> ? <= ?", embedding, 1-threshold)
	}
	if collectionID != nil {
		query = query.Where(
			"document_id IN (?)",
			r.db.WithContext(ctx).Model(&model.Document{}).
				Select("document_id").
				Where("collection_id = ?", *collectionID),
		)
	}

	var matches []ChunkMatch
	err := query.
		Order(clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{embedding}}).
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

// SimilarMessages 在会话历史上做近邻检索，未写入向量的消息不参与
func (r *searchRepository) SimilarMessages(ctx context.Context, embedding pgvector.Vector, conversationID *uuid.UUID, limit int) ([]MessageMatch, error) {
	query := r.db.WithContext(ctx).Model(&model.Message{}).
		Select("messages.*, embedding <=> ? AS distance", embedding).
		Where("embedding IS NOT NULL")
	if conversationID != nil {
		query = query.Where("conversation_id = ?", *conversationID)
	}

	var matches []MessageMatch
	err := query.
		Order(clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{embedding}}).
		Limit(limit).
		Find(&matches).Error
	return matches, err
}

// TextSearchDocuments 标题模糊检索，% 算子与 similarity 排序均命中 trigram 索引
func (r *searchRepository) TextSearchDocuments(ctx context.Context, query string, limit int) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).Model(&model.Document{}).
		Where("title % ? OR title ILIKE ?", query, "%"+query+"%").
		Order(clause.Expr{SQL: "similarity(title, ?) DESC", Vars: []interface{}{query}}).
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

// TextSearchUsers 用户名模糊检索，租户谓词同样由访问控制插件注入
func (r *searchRepository) TextSearchUsers(ctx context.Context, query string, limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("username % ? OR username ILIKE ?", query, "%"+query+"%").
		Order(clause.Expr{SQL: "similarity(username, ?) DESC", Vars: []interface{}{query}}).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *searchRepository) TextSearchChunks(ctx context.Context, query string, limit int) ([]model.DocumentChunk, error) {
	var chunks []model.DocumentChunk
	err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).
		Where("content % ? OR content ILIKE ?", query, "%"+query+"%").
		Order(clause.Expr{SQL: "similarity(content, ?) DESC", Vars: []interface{}{query}}).
		Limit(limit).
		Find(&chunks).Error
	return chunks, err
}
