package service

import (
	"context"
	"fmt"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuotaService 配额检查与预占接口。
// CheckAndReserve 必须在资源写入所在的事务里调用，预占与写入同生共死。
type QuotaService interface {
	CheckAndReserve(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, tier, kind string, delta int64) error
	CheckSearchQuota(ctx context.Context, tenantID uuid.UUID, tier string) error
	GetUsage(ctx context.Context, tenantID uuid.UUID, tier string) (map[string]model.UsageEntry, error)
}

type quotaService struct {
	quotaRepo      repository.QuotaRepository
	searchCountTTL time.Duration
}

// NewQuotaService 创建配额服务实例
func NewQuotaService(quotaRepo repository.QuotaRepository, searchCountTTL time.Duration) QuotaService {
	return &quotaService{quotaRepo: quotaRepo, searchCountTTL: searchCountTTL}
}

// bucketKey 计算窗口桶键：总量窗口共用固定桶，日/月窗口按 UTC 时间分桶
func bucketKey(window string, now time.Time) (string, error) {
	switch window {
	case model.WindowTotal:
		return "total", nil
	case model.WindowDay:
		return now.UTC().Format("2006-01-02"), nil
	case model.WindowMonth:
		return now.UTC().Format("2006-01"), nil
	default:
		return "", &apperr.ValidationError{Field: "window", Reason: fmt.Sprintf("未知的配额窗口 %q", window)}
	}
}

// CheckAndReserve 在行锁保护下检查并预占配额：
// 1. 读取套餐上限，上限是数据行，未配置视为不设限
// 2. 锁住计数器行，把同租户同资源的并发预占串行化
// 3. 实时统计当前用量后判断，超限返回 QuotaExceeded，事务回滚时预占随之释放
func (s *quotaService) CheckAndReserve(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, tier, kind string, delta int64) error {
	feature, err := s.quotaRepo.FindFeature(ctx, tier, kind)
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if feature.Ceiling < 0 {
		return nil
	}

	key, err := bucketKey(feature.Window, time.Now())
	if err != nil {
		return err
	}
	usage, err := s.quotaRepo.LockCounter(ctx, tx, tenantID, kind, key)
	if err != nil {
		return err
	}

	var current int64
	switch kind {
	case model.ResourceKindBot, model.ResourceKindCollection, model.ResourceKindDocument:
		// 以未软删除的行数为准，软删除释放额度，恢复重新占用
		current, err = s.quotaRepo.CountLive(ctx, tx, tenantID, kind, feature.Window)
		if err != nil {
			return err
		}
	default:
		current = usage.UsedCount
	}

	if current+delta > feature.Ceiling {
		log.Warnw("配额预占被拒",
			"tenant_id", tenantID,
			"resource_kind", kind,
			"current", current,
			"ceiling", feature.Ceiling,
		)
		return &apperr.QuotaExceeded{
			ResourceKind: kind,
			Current:      current,
			Ceiling:      feature.Ceiling,
		}
	}
	return s.quotaRepo.UpdateCounter(ctx, tx, usage, current+delta)
}

// CheckSearchQuota 向量检索的计数走 Redis：先 INCR 再判断，
// 超限时回滚计数，保证被拒的请求不占额度
func (s *quotaService) CheckSearchQuota(ctx context.Context, tenantID uuid.UUID, tier string) error {
	feature, err := s.quotaRepo.FindFeature(ctx, tier, model.ResourceKindVectorSearch)
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if feature.Ceiling < 0 {
		return nil
	}

	day := time.Now().UTC().Format("2006-01-02")
	n, err := s.quotaRepo.IncrSearchCount(ctx, tenantID, day, s.searchCountTTL)
	if err != nil {
		return err
	}
	if n > feature.Ceiling {
		if derr := s.quotaRepo.DecrSearchCount(ctx, tenantID, day); derr != nil {
			log.Errorw("回滚检索计数失败", "tenant_id", tenantID, "err", derr)
		}
		return &apperr.QuotaExceeded{
			ResourceKind: model.ResourceKindVectorSearch,
			Current:      n - 1,
			Ceiling:      feature.Ceiling,
		}
	}
	return nil
}

// GetUsage 汇总租户在各资源上的当前用量与上限
func (s *quotaService) GetUsage(ctx context.Context, tenantID uuid.UUID, tier string) (map[string]model.UsageEntry, error) {
	features, err := s.quotaRepo.ListFeatures(ctx, tier)
	if err != nil {
		return nil, err
	}

	report := make(map[string]model.UsageEntry, len(features))
	now := time.Now()
	for _, feature := range features {
		var current int64
		switch feature.ResourceKind {
		case model.ResourceKindBot, model.ResourceKindCollection, model.ResourceKindDocument:
			current, err = s.quotaRepo.CountLive(ctx, nil, tenantID, feature.ResourceKind, feature.Window)
		case model.ResourceKindVectorSearch:
			current, err = s.quotaRepo.GetSearchCount(ctx, tenantID, now.UTC().Format("2006-01-02"))
		default:
			var key string
			key, err = bucketKey(feature.Window, now)
			if err == nil {
				current, err = s.quotaRepo.GetCounter(ctx, tenantID, feature.ResourceKind, key)
			}
		}
		if err != nil {
			return nil, err
		}
		report[feature.ResourceKind] = model.UsageEntry{Current: current, Ceiling: feature.Ceiling}
	}
	return report, nil
}
