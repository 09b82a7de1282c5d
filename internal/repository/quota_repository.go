package repository

import (
	"context"
	"fmt"
	"time"

	"linkai-core-go/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QuotaRepository 配额数据访问接口。
// 计数器行是同租户同资源并发预占的串行化点，相关方法必须在调用方事务内执行。
type QuotaRepository interface {
	LockCounter(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, kind, bucketKey string) (*model.TenantUsage, error)
	UpdateCounter(ctx context.Context, tx *gorm.DB, usage *model.TenantUsage, used int64) error
	GetCounter(ctx context.Context, tenantID uuid.UUID, kind, bucketKey string) (int64, error)
	CountLive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, kind, window string) (int64, error)
	FindFeature(ctx context.Context, tier, kind string) (*model.TierFeature, error)
	ListFeatures(ctx context.Context, tier string) ([]model.TierFeature, error)
	ListModels(ctx context.Context, tier string) ([]model.TierModel, error)
	UpsertFeature(ctx context.Context, feature *model.TierFeature) error
	IncrSearchCount(ctx context.Context, tenantID uuid.UUID, day string, ttl time.Duration) (int64, error)
	DecrSearchCount(ctx context.Context, tenantID uuid.UUID, day string) error
	GetSearchCount(ctx context.Context, tenantID uuid.UUID, day string) (int64, error)
}

type quotaRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

// NewQuotaRepository 创建配额仓储实例
func NewQuotaRepository(db *gorm.DB, rdb *redis.Client) QuotaRepository {
	return &quotaRepository{db: db, rdb: rdb}
}

// LockCounter 取出并锁住 (租户, 资源, 窗口桶) 的计数器行。
// 先以 DO NOTHING 的 upsert 保证行存在，再 SELECT FOR UPDATE 加行锁：
// 同一组合的并发预占在此排队，不同组合互不阻塞。
func (r *quotaRepository) LockCounter(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, kind, bucketKey string) (*model.TenantUsage, error) {
	seed := model.TenantUsage{
		TenantID:     tenantID,
		ResourceKind: kind,
		BucketKey:    bucketKey,
	}
	err := tx.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "resource_kind"}, {Name: "bucket_key"}},
			DoNothing: true,
		}).
		Create(&seed).Error
	if err != nil {
		return nil, err
	}

	var usage model.TenantUsage
	err = tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND resource_kind = ? AND bucket_key = ?", tenantID, kind, bucketKey).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func (r *quotaRepository) UpdateCounter(ctx context.Context, tx *gorm.DB, usage *model.TenantUsage, used int64) error {
	return tx.WithContext(ctx).Model(&model.TenantUsage{}).
		Where("id = ?", usage.ID).
		Update("used_count", used).Error
}

// GetCounter 无锁读取计数器当前值，计数器行不存在视为零
func (r *quotaRepository) GetCounter(ctx context.Context, tenantID uuid.UUID, kind, bucketKey string) (int64, error) {
	var usage model.TenantUsage
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND resource_kind = ? AND bucket_key = ?", tenantID, kind, bucketKey).
		First(&usage).Error
	if err == gorm.ErrRecordNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return usage.UsedCount, nil
}

// CountLive 实时统计窗口内未软删除的资源行数。
// 软删除的行天然被 GORM 默认作用域排除，恢复后重新计入。
// tx 为 nil 时脱离事务读取，用于用量报表。
func (r *quotaRepository) CountLive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, kind, window string) (int64, error) {
	if tx == nil {
		tx = r.db
	}
	var query *gorm.DB
	switch kind {
	case model.ResourceKindBot:
		query = tx.WithContext(ctx).Model(&model.Bot{})
	case model.ResourceKindCollection:
		query = tx.WithContext(ctx).Model(&model.Collection{})
	case model.ResourceKindDocument:
		query = tx.WithContext(ctx).Model(&model.Document{})
	default:
		return 0, fmt.Errorf("资源类型 %s 不支持实时计数", kind)
	}
	query = query.Where("tenant_id = ?", tenantID)

	now := time.Now().UTC()
	switch window {
	case model.WindowDay:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		query = query.Where("created_at >= ?", start)
	case model.WindowMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("created_at >= ?", start)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *quotaRepository) FindFeature(ctx context.Context, tier, kind string) (*model.TierFeature, error) {
	var feature model.TierFeature
	err := r.db.WithContext(ctx).
		Where("tier = ? AND resource_kind = ?", tier, kind).
		First(&feature).Error
	if err != nil {
		return nil, err
	}
	return &feature, nil
}

func (r *quotaRepository) ListFeatures(ctx context.Context, tier string) ([]model.TierFeature, error) {
	var features []model.TierFeature
	err := r.db.WithContext(ctx).Where("tier = ?", tier).Find(&features).Error
	return features, err
}

func (r *quotaRepository) ListModels(ctx context.Context, tier string) ([]model.TierModel, error) {
	var models []model.TierModel
	err := r.db.WithContext(ctx).Where("tier = ?", tier).Order("kind, model_name").Find(&models).Error
	return models, err
}

// UpsertFeature 管理端调整某套餐某资源的上限，修改即时生效
func (r *quotaRepository) UpsertFeature(ctx context.Context, feature *model.TierFeature) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tier"}, {Name: "resource_kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"ceiling", "window"}),
		}).
		Create(feature).Error
}

func searchCountKey(tenantID uuid.UUID, day string) string {
	return fmt.Sprintf("quota:vector_search:%s:%s", tenantID, day)
}

// IncrSearchCount 向量检索计数走 Redis：INCR 与 EXPIRE 放进同一管道，
// 键按天分桶并带过期，次日自动归零
func (r *quotaRepository) IncrSearchCount(ctx context.Context, tenantID uuid.UUID, day string, ttl time.Duration) (int64, error) {
	key := searchCountKey(tenantID, day)
	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// DecrSearchCount 预占被拒后回滚计数，避免失败请求占用额度
func (r *quotaRepository) DecrSearchCount(ctx context.Context, tenantID uuid.UUID, day string) error {
	return r.rdb.Decr(ctx, searchCountKey(tenantID, day)).Err()
}

func (r *quotaRepository) GetSearchCount(ctx context.Context, tenantID uuid.UUID, day string) (int64, error) {
	val, err := r.rdb.Get(ctx, searchCountKey(tenantID, day)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}
