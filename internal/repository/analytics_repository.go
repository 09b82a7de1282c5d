package repository

import (
	"context"
	"time"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsRepository 分析事件数据访问接口。
// 事件表按月分区，写入前由事件服务保证目标分区已存在。
type AnalyticsRepository interface {
	InsertEvent(ctx context.Context, event *model.AnalyticsEvent) error
	InsertVectorEvent(ctx context.Context, event *model.VectorAnalyticsEvent) error
	CountEventsSince(ctx context.Context, table string, tenantID uuid.UUID, since time.Time) (int64, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建分析事件仓储实例
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) InsertEvent(ctx context.Context, event *model.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *analyticsRepository) InsertVectorEvent(ctx context.Context, event *model.VectorAnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CountEventsSince 统计某租户自给定时刻以来的事件数，供管理端用量报表使用
func (r *analyticsRepository) CountEventsSince(ctx context.Context, table string, tenantID uuid.UUID, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table(table).
		Where("tenant_id = ? AND occurred_at >= ?", tenantID, since).
		Count(&count).Error
	return count, err
}
