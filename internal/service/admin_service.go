package service

import (
	"context"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
)

// TenantReport 管理端的单租户用量报表
type TenantReport struct {
	TenantID     uuid.UUID                   `json:"tenant_id"`
	Tier         string                      `json:"tier"`
	Usage        map[string]model.UsageEntry `json:"usage"`
	EventsLast7d int64                       `json:"events_last_7d"`
}

// AdminService 管理端接口。
// 所有方法都要求调用方 context 持有管理员旁路，跨租户访问会被审计记录。
type AdminService interface {
	ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error)
	TenantUsage(ctx context.Context, tenantID uuid.UUID) (*TenantReport, error)
	SetTierFeature(ctx context.Context, tier, kind string, ceiling int64, window string) error
	SetTenantTier(ctx context.Context, tenantID uuid.UUID, tier string) error
	SuspendTenant(ctx context.Context, tenantID uuid.UUID) error
	PolicyVersion(ctx context.Context) int64
}

type adminService struct {
	userRepo      repository.UserRepository
	tenantRepo    repository.TenantRepository
	quotaRepo     repository.QuotaRepository
	quotaService  QuotaService
	userService   UserService
	analyticsRepo repository.AnalyticsRepository
	policyStore   *policy.Store
}

// NewAdminService 创建管理服务实例
func NewAdminService(
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
	quotaRepo repository.QuotaRepository,
	quotaService QuotaService,
	userService UserService,
	analyticsRepo repository.AnalyticsRepository,
	policyStore *policy.Store,
) AdminService {
	return &adminService{
		userRepo:      userRepo,
		tenantRepo:    tenantRepo,
		quotaRepo:     quotaRepo,
		quotaService:  quotaService,
		userService:   userService,
		analyticsRepo: analyticsRepo,
		policyStore:   policyStore,
	}
}

func requireBypass(ctx context.Context) error {
	if !policy.HasAdminBypass(ctx) {
		return apperr.ErrForbidden
	}
	return nil
}

// ListUsers 跨租户列出全部用户，含软删除的行
func (s *adminService) ListUsers(ctx context.Context, offset, limit int) ([]model.User, int64, error) {
	if err := requireBypass(ctx); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.userRepo.ListAllUsers(ctx, offset, limit)
}

// TenantUsage 汇总任意租户的套餐、各资源用量与近七天事件数
func (s *adminService) TenantUsage(ctx context.Context, tenantID uuid.UUID) (*TenantReport, error) {
	if err := requireBypass(ctx); err != nil {
		return nil, err
	}
	tier, err := s.userService.ResolveTier(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	usage, err := s.quotaService.GetUsage(ctx, tenantID, tier)
	if err != nil {
		return nil, err
	}
	events, err := s.analyticsRepo.CountEventsSince(ctx, model.TableAnalytics, tenantID, time.Now().UTC().AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	return &TenantReport{
		TenantID:     tenantID,
		Tier:         tier,
		Usage:        usage,
		EventsLast7d: events,
	}, nil
}

// SetTierFeature 调整套餐上限。上限是数据行，写入即对所有后续预占生效
func (s *adminService) SetTierFeature(ctx context.Context, tier, kind string, ceiling int64, window string) error {
	if err := requireBypass(ctx); err != nil {
		return err
	}
	switch window {
	case model.WindowTotal, model.WindowDay, model.WindowMonth:
	default:
		return &apperr.ValidationError{Field: "window", Reason: "窗口必须是 total/day/month 之一"}
	}
	log.Infow("管理员调整套餐上限", "tier", tier, "resource_kind", kind, "ceiling", ceiling, "window", window)
	return s.quotaRepo.UpsertFeature(ctx, &model.TierFeature{
		Tier:         tier,
		ResourceKind: kind,
		Ceiling:      ceiling,
		Window:       window,
	})
}

// SetTenantTier 切换租户套餐
func (s *adminService) SetTenantTier(ctx context.Context, tenantID uuid.UUID, tier string) error {
	if err := requireBypass(ctx); err != nil {
		return err
	}
	switch tier {
	case model.TierFree, model.TierPro, model.TierBusiness:
	default:
		return &apperr.ValidationError{Field: "tier", Reason: "未知的套餐档位"}
	}
	log.Infow("管理员切换租户套餐", "tenant_id", tenantID, "tier", tier)
	return s.tenantRepo.UpdateSubscriptionTier(ctx, tenantID, tier)
}

// SuspendTenant 停用租户：停掉全部订阅，租户立即只读。
// 恢复走 SetTenantTier 重新写入生效订阅。
func (s *adminService) SuspendTenant(ctx context.Context, tenantID uuid.UUID) error {
	if err := requireBypass(ctx); err != nil {
		return err
	}
	if _, err := s.tenantRepo.FindTenantByID(ctx, tenantID); err != nil {
		return err
	}
	log.Infow("管理员停用租户", "tenant_id", tenantID)
	return s.tenantRepo.DeactivateSubscriptions(ctx, tenantID)
}

// PolicyVersion 返回当前生效的访问规则集版本
func (s *adminService) PolicyVersion(ctx context.Context) int64 {
	return s.policyStore.Current().Version
}
