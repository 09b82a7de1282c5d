package service

import (
	"context"
	"fmt"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/tasks"

	"github.com/google/uuid"
)

// EventService 分析事件写入接口。
// 写入前按事件自身的发生时间保障目标月分区存在，
// 补录的历史事件会落进历史分区而不是当前分区。
type EventService interface {
	Record(ctx context.Context, tenantID uuid.UUID, table, eventType string, occurredAt time.Time, payload map[string]interface{}) error
	Process(ctx context.Context, event tasks.UsageEvent) error
}

// PartitionEnsurer 抽象分区保障能力，由 schema.PartitionManager 实现。
type PartitionEnsurer interface {
	EnsurePartition(ctx context.Context, table string, eventTime time.Time) (string, error)
}

type eventService struct {
	partitions    PartitionEnsurer
	analyticsRepo repository.AnalyticsRepository
}

// NewEventService 创建事件服务实例
func NewEventService(partitions PartitionEnsurer, analyticsRepo repository.AnalyticsRepository) EventService {
	return &eventService{partitions: partitions, analyticsRepo: analyticsRepo}
}

// Record 记录一条分析事件：
// 1. 校验目标表与事件类型
// 2. 按事件时间保障月分区存在，分区创建失败时事件不落库
// 3. 写入事件行
func (s *eventService) Record(ctx context.Context, tenantID uuid.UUID, table, eventType string, occurredAt time.Time, payload map[string]interface{}) error {
	if eventType == "" {
		return &apperr.ValidationError{Field: "event_type", Reason: "事件类型不能为空"}
	}
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	if _, err := s.partitions.EnsurePartition(ctx, table, occurredAt); err != nil {
		return err
	}

	switch table {
	case model.TableAnalytics:
		return s.analyticsRepo.InsertEvent(ctx, &model.AnalyticsEvent{
			TenantID:   tenantID,
			EventType:  eventType,
			Payload:    model.JSONMap(payload),
			OccurredAt: occurredAt,
		})
	case model.TableVectorAnalytics:
		return s.analyticsRepo.InsertVectorEvent(ctx, &model.VectorAnalyticsEvent{
			TenantID:   tenantID,
			EventType:  eventType,
			Payload:    model.JSONMap(payload),
			OccurredAt: occurredAt,
		})
	default:
		return &apperr.ValidationError{Field: "table", Reason: fmt.Sprintf("未知的事件表 %q", table)}
	}
}

// Process 消费 Kafka 投递的用量事件。
// 消费者不代表任何请求主体，落库走系统上下文，租户取自事件本身。
func (s *eventService) Process(ctx context.Context, event tasks.UsageEvent) error {
	return s.Record(policy.WithSystem(ctx), event.TenantID, event.Table, event.EventType, event.OccurredAt, event.Payload)
}
