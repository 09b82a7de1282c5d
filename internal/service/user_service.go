package service

import (
	"context"
	"errors"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/hash"
	"linkai-core-go/pkg/log"
	"linkai-core-go/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 用户名或密码错误
var ErrInvalidCredentials = errors.New("用户名或密码错误")

// TokenPair 登录颁发的令牌对
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserService 注册、登录与会话管理接口
type UserService interface {
	RegisterTenant(ctx context.Context, tenantName, username, password string) (*model.User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetProfile(ctx context.Context) (*model.User, error)
	ResolveTier(ctx context.Context, tenantID uuid.UUID) (string, error)
}

type userService struct {
	db         *gorm.DB
	rdb        *redis.Client
	jwtManager *token.JWTManager
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
}

// NewUserService 创建用户服务实例
func NewUserService(
	db *gorm.DB,
	rdb *redis.Client,
	jwtManager *token.JWTManager,
	userRepo repository.UserRepository,
	tenantRepo repository.TenantRepository,
) UserService {
	return &userService{
		db:         db,
		rdb:        rdb,
		jwtManager: jwtManager,
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

// RegisterTenant 开通新租户：
// 在一个事务内建立租户、免费档订阅与首个用户。
// 注册时还没有请求主体，整个流程走系统上下文。
func (s *userService) RegisterTenant(ctx context.Context, tenantName, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, &apperr.ValidationError{Field: "username", Reason: "用户名和密码不能为空"}
	}
	sysCtx := policy.WithSystem(ctx)

	if _, err := s.userRepo.FindUserByUsername(sysCtx, username); err == nil {
		return nil, &apperr.ValidationError{Field: "username", Reason: "用户名已被占用"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Password: hashed,
		Role:     model.RoleUser,
	}
	err = s.db.WithContext(sysCtx).Transaction(func(tx *gorm.DB) error {
		tenant := &model.Tenant{
			TenantID: uuid.New(),
			Name:     tenantName,
		}
		if err := s.tenantRepo.CreateTenant(sysCtx, tx, tenant); err != nil {
			return err
		}
		if err := s.tenantRepo.CreateSubscription(sysCtx, tx, &model.TenantSubscription{
			TenantID:  tenant.TenantID,
			Tier:      model.TierFree,
			IsActive:  true,
			StartedAt: time.Now(),
		}); err != nil {
			return err
		}
		user.TenantID = tenant.TenantID
		return s.userRepo.CreateUser(sysCtx, tx, user)
	})
	if err != nil {
		return nil, err
	}

	log.Infow("新租户注册成功", "tenant_id", user.TenantID, "username", username)
	return user, nil
}

// Login 校验凭证并颁发令牌对。
// 登录时主体尚未建立，查库走系统上下文。
func (s *userService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	sysCtx := policy.WithSystem(ctx)

	user, err := s.userRepo.FindUserByUsername(sysCtx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout 把访问令牌拉黑至其自然过期
func (s *userService) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.jwtManager.VerifyToken(accessToken)
	if err != nil {
		// 已失效的令牌无需拉黑
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	return s.rdb.Set(ctx, "jwt:blacklist:"+accessToken, 1, ttl).Err()
}

// RefreshToken 用刷新令牌换发新的令牌对
func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtManager.VerifyToken(refreshToken)
	if err != nil {
		return nil, err
	}

	// 刷新前确认用户仍然存在且未被禁用
	user, err := s.userRepo.FindUserByID(policy.WithSystem(ctx), claims.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwtManager.GenerateToken(user.ID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	newRefreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.TenantID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

func (s *userService) GetProfile(ctx context.Context) (*model.User, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.userRepo.FindUserByID(ctx, p.UserID)
}

// ResolveTier 解析租户当前套餐。
// 令牌里不带套餐，每次请求实时解析，套餐切换立即生效。
// 注册时总会写入一条生效的免费订阅，因此查不到生效订阅
// 意味着租户被停用，返回空套餐，写入路径据此拒绝。
// 付费订阅到期只降级到免费档，不算停用。
func (s *userService) ResolveTier(ctx context.Context, tenantID uuid.UUID) (string, error) {
	sub, err := s.tenantRepo.FindActiveSubscription(policy.WithSystem(ctx), tenantID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if sub.ExpiresAt != nil && sub.ExpiresAt.Before(time.Now()) {
		return model.TierFree, nil
	}
	return sub.Tier, nil
}
