package repository

import (
	"context"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CollectionRepository 知识库集合数据访问接口
type CollectionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, collection *model.Collection) error
	FindByID(ctx context.Context, collectionID uuid.UUID) (*model.Collection, error)
	List(ctx context.Context) ([]model.Collection, error)
	Update(ctx context.Context, collection *model.Collection) error
	SoftDelete(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) error
	Restore(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) error
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository 创建集合仓储实例
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Create(ctx context.Context, tx *gorm.DB, collection *model.Collection) error {
	return tx.WithContext(ctx).Create(collection).Error
}

func (r *collectionRepository) FindByID(ctx context.Context, collectionID uuid.UUID) (*model.Collection, error) {
	var collection model.Collection
	err := r.db.WithContext(ctx).Where("collection_id = ?", collectionID).First(&collection).Error
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

func (r *collectionRepository) List(ctx context.Context) ([]model.Collection, error) {
	var collections []model.Collection
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&collections).Error
	return collections, err
}

func (r *collectionRepository) Update(ctx context.Context, collection *model.Collection) error {
	return r.db.WithContext(ctx).Model(&model.Collection{}).
		Where("collection_id = ?", collection.CollectionID).
		Updates(map[string]interface{}{
			"name":        collection.Name,
			"description": collection.Description,
		}).Error
}

// SoftDelete 软删除集合，行保留且不再计入配额
func (r *collectionRepository) SoftDelete(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).
		Where("collection_id = ?", collectionID).
		Delete(&model.Collection{}))
}

// Restore 恢复软删除的集合，恢复前须重新通过配额检查
func (r *collectionRepository) Restore(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).Unscoped().Model(&model.Collection{}).
		Where("collection_id = ?", collectionID).
		Update("deleted_at", nil))
}
