package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// JSONMap 是 jsonb 列的载体类型。
type JSONMap map[string]interface{}

// Value 实现 driver.Valuer，将 map 序列化为 jsonb 文本。
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner，从数据库反序列化 jsonb。
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return errors.New("jsonb 列的扫描源类型不受支持")
	}
}

// GormDataType 告诉 GORM 该字段的列类型。
func (JSONMap) GormDataType() string {
	return "jsonb"
}

// AnalyticsEvent 对应按月分区的 analytics 父表。
// 事件仅追加，按 (租户, 时间桶) 归档；分区在首条写入落地前惰性创建。
// 父表由迁移层以原生 DDL 建立（GORM 不感知分区），模型只用于读写。
type AnalyticsEvent struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null" json:"tenantId"`
	EventType  string    `gorm:"type:varchar(50);not null" json:"eventType"`
	Payload    JSONMap   `gorm:"type:jsonb" json:"payload"`
	OccurredAt time.Time `gorm:"not null" json:"occurredAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (AnalyticsEvent) TableName() string {
	return "analytics"
}

// VectorAnalyticsEvent 对应按月分区的 vector_analytics 父表，
// 记录向量检索类事件（查询、召回规模、延迟等）。
type VectorAnalyticsEvent struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null" json:"tenantId"`
	EventType  string    `gorm:"type:varchar(50);not null" json:"eventType"`
	Payload    JSONMap   `gorm:"type:jsonb" json:"payload"`
	OccurredAt time.Time `gorm:"not null" json:"occurredAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (VectorAnalyticsEvent) TableName() string {
	return "vector_analytics"
}

// 可分区事件表的表名常量。
const (
	TableAnalytics       = "analytics"
	TableVectorAnalytics = "vector_analytics"
)
