package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 对应数据库中的 users 表。
// 每个用户恰好属于一个租户。用户只做软删除（DeletedAt 置位），
// 从不物理删除，软删除后不计入配额、不出现在默认读取中。
type User struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	Username string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"username"`
	Password string    `gorm:"type:varchar(255);not null" json:"-"`
	// Role 取值 USER 或 ADMIN；ADMIN 是运营支持角色，可显式绕过租户隔离。
	Role      string         `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}

// 用户角色常量。
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
