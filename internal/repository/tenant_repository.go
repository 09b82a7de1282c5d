package repository

import (
	"context"
	"time"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TenantRepository 租户与订阅数据访问接口
type TenantRepository interface {
	CreateTenant(ctx context.Context, tx *gorm.DB, tenant *model.Tenant) error
	FindTenantByID(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error)
	CreateSubscription(ctx context.Context, tx *gorm.DB, sub *model.TenantSubscription) error
	FindActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*model.TenantSubscription, error)
	UpdateSubscriptionTier(ctx context.Context, tenantID uuid.UUID, tier string) error
	DeactivateSubscriptions(ctx context.Context, tenantID uuid.UUID) error
}

type tenantRepository struct {
	db *gorm.DB
}

// NewTenantRepository 创建租户仓储实例
func NewTenantRepository(db *gorm.DB) TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) CreateTenant(ctx context.Context, tx *gorm.DB, tenant *model.Tenant) error {
	return tx.WithContext(ctx).Create(tenant).Error
}

func (r *tenantRepository) FindTenantByID(ctx context.Context, tenantID uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *tenantRepository) CreateSubscription(ctx context.Context, tx *gorm.DB, sub *model.TenantSubscription) error {
	return tx.WithContext(ctx).Create(sub).Error
}

// FindActiveSubscription 查找租户当前生效的订阅，一个租户同一时刻只应有一条
func (r *tenantRepository) FindActiveSubscription(ctx context.Context, tenantID uuid.UUID) (*model.TenantSubscription, error) {
	var sub model.TenantSubscription
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Order("started_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeactivateSubscriptions 停用租户的全部订阅。
// 没有生效订阅的租户在写入路径上被拒，读路径不受影响。
func (r *tenantRepository) DeactivateSubscriptions(ctx context.Context, tenantID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.TenantSubscription{}).
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Update("is_active", false).Error
}

// UpdateSubscriptionTier 切换套餐：停用旧订阅并写入新订阅，保留历史记录
func (r *tenantRepository) UpdateSubscriptionTier(ctx context.Context, tenantID uuid.UUID, tier string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.TenantSubscription{}).
			Where("tenant_id = ? AND is_active = ?", tenantID, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Create(&model.TenantSubscription{
			TenantID:  tenantID,
			Tier:      tier,
			IsActive:  true,
			StartedAt: time.Now(),
		}).Error
	})
}
