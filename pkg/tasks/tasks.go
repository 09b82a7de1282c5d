// Package tasks defines the structure for usage events that are sent through Kafka.
package tasks

import (
	"time"

	"github.com/google/uuid"
)

// UsageEvent 是协作服务（embedding/query）异步上报的用量事件。
// OccurredAt 取事件自身发生的时间而非消费时间，
// 以便回放或补报的事件落入正确的历史分区。
type UsageEvent struct {
	TenantID   uuid.UUID              `json:"tenant_id"`
	Table      string                 `json:"table"`      // analytics 或 vector_analytics
	EventType  string                 `json:"event_type"` // query / token_usage / ingest ...
	OccurredAt time.Time              `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}
