package policy

import (
	"reflect"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/schema"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormschema "gorm.io/gorm/schema"
)

// Enforcer 是 GORM 插件，在语句执行前按规则集注入租户谓词并校验写入值。
// 所有经由 *gorm.DB 的读写都会经过它，仓储层不再需要手写租户过滤。
type Enforcer struct {
	store *Store
}

// NewEnforcer 构造访问控制插件
func NewEnforcer(store *Store) *Enforcer {
	return &Enforcer{store: store}
}

// Name 实现 gorm.Plugin 接口
func (e *Enforcer) Name() string {
	return "policy_enforcer"
}

// Initialize 在各类语句构建前挂载回调
func (e *Enforcer) Initialize(db *gorm.DB) error {
	if err := db.Callback().Query().Before("gorm:query").Register("policy:scope_read", e.scopeRead); err != nil {
		return err
	}
	if err := db.Callback().Row().Before("gorm:row").Register("policy:scope_row", e.scopeRead); err != nil {
		return err
	}
	if err := db.Callback().Create().Before("gorm:create").Register("policy:check_create", e.checkCreate); err != nil {
		return err
	}
	if err := db.Callback().Update().Before("gorm:update").Register("policy:scope_update", e.scopeWrite); err != nil {
		return err
	}
	return db.Callback().Delete().Before("gorm:delete").Register("policy:scope_delete", e.scopeWrite)
}

// resolve 确定当前语句作用的表与主体。
// 系统上下文与管理员旁路直接放行（后者记录审计日志）。
// 返回的 ok 为 false 时语句已被放行或拦截，调用方不再加谓词。
func (e *Enforcer) resolve(tx *gorm.DB) (Principal, Rule, bool) {
	ctx := tx.Statement.Context
	if IsSystem(ctx) {
		return Principal{}, Rule{}, false
	}
	table := tableOf(tx)
	if HasAdminBypass(ctx) {
		p, _ := PrincipalFrom(ctx)
		log.Infow("管理员跨租户访问",
			"user_id", p.UserID,
			"tenant_id", p.TenantID,
			"table", table,
		)
		return Principal{}, Rule{}, false
	}
	p, ok := PrincipalFrom(ctx)
	if !ok {
		_ = tx.AddError(apperr.ErrForbidden)
		return Principal{}, Rule{}, false
	}
	rule, ok := e.store.Current().Lookup(table)
	if !ok {
		// 未注册的表在主体上下文里一律拒绝
		_ = tx.AddError(apperr.ErrForbidden)
		return Principal{}, Rule{}, false
	}
	return p, rule, true
}

// scopeRead 为读语句注入租户谓词。
// 公共读表与引用表全局可读，严格隔离表只可见本租户的行。
func (e *Enforcer) scopeRead(tx *gorm.DB) {
	p, rule, ok := e.resolve(tx)
	if !ok {
		return
	}
	switch rule.Regime {
	case schema.RegimePublicRead, schema.RegimeReference:
		return
	default:
		tx.Statement.AddClause(clause.Where{Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: rule.TenantColumn},
				Value:  p.TenantID,
			},
		}})
	}
}

// checkCreate 逐行取出插入值的租户列（及公共表的所有者列），
// 交给规则集的 CanMutate 判定，防止向他人租户写入。
func (e *Enforcer) checkCreate(tx *gorm.DB) {
	p, rule, ok := e.resolve(tx)
	if !ok {
		return
	}
	set := e.store.Current()
	if rule.Regime == schema.RegimeReference {
		if !set.CanMutate(p, rule.Table, p.TenantID, p.UserID) {
			_ = tx.AddError(apperr.ErrForbidden)
		}
		return
	}
	if tx.Statement.Schema == nil {
		_ = tx.AddError(apperr.ErrForbidden)
		return
	}
	tenantField := tx.Statement.Schema.LookUpField(rule.TenantColumn)
	if tenantField == nil {
		_ = tx.AddError(apperr.ErrForbidden)
		return
	}
	var ownerField *gormschema.Field
	if rule.Regime == schema.RegimePublicRead && rule.OwnerColumn != "" {
		ownerField = tx.Statement.Schema.LookUpField(rule.OwnerColumn)
	}

	check := func(rv reflect.Value) {
		v, _ := tenantField.ValueOf(tx.Statement.Context, rv)
		tid, isUUID := v.(uuid.UUID)
		if !isUUID {
			_ = tx.AddError(apperr.ErrForbidden)
			return
		}
		owner := p.UserID
		if ownerField != nil {
			ov, _ := ownerField.ValueOf(tx.Statement.Context, rv)
			oid, isUint := ov.(uint)
			if !isUint {
				_ = tx.AddError(apperr.ErrForbidden)
				return
			}
			owner = oid
		}
		if !set.CanMutate(p, rule.Table, tid, owner) {
			_ = tx.AddError(apperr.ErrForbidden)
		}
	}

	switch tx.Statement.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < tx.Statement.ReflectValue.Len(); i++ {
			check(tx.Statement.ReflectValue.Index(i))
			if tx.Error != nil {
				return
			}
		}
	default:
		check(tx.Statement.ReflectValue)
	}
}

// scopeWrite 为更新/删除语句注入谓词。
// 严格隔离表限定本租户；公共读表还要求是行所有者；
// 追加表的既有行不可修改也不可删除。
func (e *Enforcer) scopeWrite(tx *gorm.DB) {
	p, rule, ok := e.resolve(tx)
	if !ok {
		return
	}
	if rule.AppendOnly {
		_ = tx.AddError(apperr.ErrForbidden)
		return
	}
	// 引用表没有租户谓词可注入，直接按规则集判定可变性。
	if rule.Regime == schema.RegimeReference {
		if !e.store.Current().CanMutate(p, rule.Table, p.TenantID, p.UserID) {
			_ = tx.AddError(apperr.ErrForbidden)
		}
		return
	}
	exprs := []clause.Expression{
		clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: rule.TenantColumn},
			Value:  p.TenantID,
		},
	}
	if rule.Regime == schema.RegimePublicRead && rule.OwnerColumn != "" {
		exprs = append(exprs, clause.Eq{
			Column: clause.Column{Table: clause.CurrentTable, Name: rule.OwnerColumn},
			Value:  p.UserID,
		})
	}
	tx.Statement.AddClause(clause.Where{Exprs: exprs})
}

func tableOf(tx *gorm.DB) string {
	if tx.Statement.Table != "" {
		return tx.Statement.Table
	}
	if tx.Statement.Schema != nil {
		return tx.Statement.Schema.Table
	}
	return ""
}
