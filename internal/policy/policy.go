package policy

import (
	"context"
	"sync/atomic"

	"linkai-core-go/internal/model"
	"linkai-core-go/internal/schema"

	"github.com/google/uuid"
)

// Principal 携带请求主体的身份信息，随 context 贯穿整条调用链
type Principal struct {
	UserID   uint
	TenantID uuid.UUID
	Role     string
	Tier     string
}

type ctxKey int

const (
	principalKey ctxKey = iota
	systemKey
	adminBypassKey
)

// WithPrincipal 把请求主体写入 context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom 取出请求主体，未认证的 context 返回 false
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// WithSystem 标记内部系统操作（迁移、消费者、播种），不代表任何租户
func WithSystem(ctx context.Context) context.Context {
	return context.WithValue(ctx, systemKey, true)
}

// IsSystem 判断是否为系统上下文
func IsSystem(ctx context.Context) bool {
	v, _ := ctx.Value(systemKey).(bool)
	return v
}

// WithAdminBypass 授予跨租户访问权，只能由管理员中间件在审计之后调用
func WithAdminBypass(ctx context.Context) context.Context {
	return context.WithValue(ctx, adminBypassKey, true)
}

// HasAdminBypass 判断当前 context 是否持有管理员旁路
func HasAdminBypass(ctx context.Context) bool {
	v, _ := ctx.Value(adminBypassKey).(bool)
	return v
}

// Rule 是单张表的访问规则，由注册表实体编译而来
type Rule struct {
	Table        string
	Regime       schema.Regime
	TenantColumn string
	OwnerColumn  string
	AppendOnly   bool
}

// PolicySet 是一个带版本号的完整规则集。
// 规则集整体替换：同一版本内各表的规则保持一致，不存在半新半旧的状态。
type PolicySet struct {
	Version int64
	rules   map[string]Rule
}

// Compile 从实体注册表编译规则集
func Compile(entities []schema.Entity, version int64) *PolicySet {
	rules := make(map[string]Rule, len(entities))
	for _, e := range entities {
		rules[e.Table] = Rule{
			Table:        e.Table,
			Regime:       e.Regime,
			TenantColumn: e.TenantColumn,
			OwnerColumn:  e.OwnerColumn,
			AppendOnly:   e.AppendOnly,
		}
	}
	return &PolicySet{Version: version, rules: rules}
}

// Lookup 查找某张表的规则，未注册的表返回 false
func (s *PolicySet) Lookup(table string) (Rule, bool) {
	r, ok := s.rules[table]
	return r, ok
}

// CanRead 判断主体能否读该表。
// 严格隔离表只能读本租户；公共读表与引用表全局可读。
func (s *PolicySet) CanRead(p Principal, table string, rowTenant uuid.UUID) bool {
	r, ok := s.rules[table]
	if !ok {
		return false
	}
	switch r.Regime {
	case schema.RegimePublicRead, schema.RegimeReference:
		return true
	default:
		return p.TenantID == rowTenant
	}
}

// CanMutate 判断主体能否写该表的某一行。
// 严格隔离表要求租户匹配；公共读表要求租户匹配且为行所有者；
// 引用表只有管理员可写。
func (s *PolicySet) CanMutate(p Principal, table string, rowTenant uuid.UUID, rowOwner uint) bool {
	r, ok := s.rules[table]
	if !ok {
		return false
	}
	switch r.Regime {
	case schema.RegimeReference:
		return p.Role == model.RoleAdmin
	case schema.RegimePublicRead:
		return p.TenantID == rowTenant && p.UserID == rowOwner
	default:
		return p.TenantID == rowTenant
	}
}

// Store 持有当前生效的规则集，支持原子整体替换
type Store struct {
	current atomic.Pointer[PolicySet]
}

// NewStore 以给定规则集初始化
func NewStore(set *PolicySet) *Store {
	s := &Store{}
	s.current.Store(set)
	return s
}

// Current 返回当前生效的规则集
func (s *Store) Current() *PolicySet {
	return s.current.Load()
}

// Apply 原子替换整个规则集，进行中的查询继续使用旧版本
func (s *Store) Apply(set *PolicySet) {
	s.current.Store(set)
}
