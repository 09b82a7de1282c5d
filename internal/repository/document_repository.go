package repository

import (
	"context"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DocumentRepository 文档与分块数据访问接口
type DocumentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, doc *model.Document) error
	FindByID(ctx context.Context, documentID uuid.UUID) (*model.Document, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]model.Document, int64, error)
	SoftDelete(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
	Restore(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
	CreateChunks(ctx context.Context, tx *gorm.DB, chunks []model.DocumentChunk) error
	CountChunks(ctx context.Context, documentID uuid.UUID) (int64, error)
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建文档仓储实例
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

func (r *documentRepository) Create(ctx context.Context, tx *gorm.DB, doc *model.Document) error {
	return tx.WithContext(ctx).Create(doc).Error
}

func (r *documentRepository) FindByID(ctx context.Context, documentID uuid.UUID) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Document{}).Where("collection_id = ?", collectionID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, total, err
}

func (r *documentRepository) SoftDelete(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&model.Document{}))
}

func (r *documentRepository) Restore(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).Unscoped().Model(&model.Document{}).
		Where("document_id = ?", documentID).
		Update("deleted_at", nil))
}

// CreateChunks 批量写入文档分块，分批避免单条 SQL 过长
func (r *documentRepository) CreateChunks(ctx context.Context, tx *gorm.DB, chunks []model.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	return tx.WithContext(ctx).CreateInBatches(chunks, 100).Error
}

func (r *documentRepository) CountChunks(ctx context.Context, documentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DocumentChunk{}).
		Where("document_id = ?", documentID).
		Count(&count).Error
	return count, err
}
