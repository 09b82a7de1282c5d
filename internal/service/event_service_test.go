package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/pkg/tasks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePartitionEnsurer struct {
	calls []struct {
		table string
		at    time.Time
	}
	err error
}

func (f *fakePartitionEnsurer) EnsurePartition(_ context.Context, table string, eventTime time.Time) (string, error) {
	f.calls = append(f.calls, struct {
		table string
		at    time.Time
	}{table, eventTime})
	if f.err != nil {
		return "", f.err
	}
	return table + "_y2026m08", nil
}

type fakeAnalyticsRepo struct {
	events       []*model.AnalyticsEvent
	vectorEvents []*model.VectorAnalyticsEvent
	lastCtx      context.Context
}

func (f *fakeAnalyticsRepo) InsertEvent(ctx context.Context, event *model.AnalyticsEvent) error {
	f.lastCtx = ctx
	f.events = append(f.events, event)
	return nil
}

func (f *fakeAnalyticsRepo) InsertVectorEvent(ctx context.Context, event *model.VectorAnalyticsEvent) error {
	f.lastCtx = ctx
	f.vectorEvents = append(f.vectorEvents, event)
	return nil
}

func (f *fakeAnalyticsRepo) CountEventsSince(_ context.Context, _ string, _ uuid.UUID, _ time.Time) (int64, error) {
	return int64(len(f.events)), nil
}

func TestRecordEnsuresPartitionForEventTime(t *testing.T) {
	// 补录的历史事件按自身时间戳找分区，而不是当前月份
	ensurer := &fakePartitionEnsurer{}
	repo := &fakeAnalyticsRepo{}
	svc := NewEventService(ensurer, repo)

	backdated := time.Date(2025, 11, 3, 8, 0, 0, 0, time.UTC)
	err := svc.Record(context.Background(), uuid.New(), model.TableAnalytics, "page_view", backdated, map[string]interface{}{"path": "/u/alice"})
	require.NoError(t, err)

	require.Len(t, ensurer.calls, 1)
	assert.Equal(t, model.TableAnalytics, ensurer.calls[0].table)
	assert.Equal(t, backdated, ensurer.calls[0].at)

	require.Len(t, repo.events, 1)
	assert.Equal(t, "page_view", repo.events[0].EventType)
	assert.Equal(t, backdated, repo.events[0].OccurredAt)
}

func TestRecordDefaultsOccurredAtToNow(t *testing.T) {
	ensurer := &fakePartitionEnsurer{}
	repo := &fakeAnalyticsRepo{}
	svc := NewEventService(ensurer, repo)

	before := time.Now().UTC()
	err := svc.Record(context.Background(), uuid.New(), model.TableVectorAnalytics, "similarity_search", time.Time{}, nil)
	require.NoError(t, err)

	require.Len(t, repo.vectorEvents, 1)
	occurredAt := repo.vectorEvents[0].OccurredAt
	assert.False(t, occurredAt.Before(before))
	assert.False(t, occurredAt.After(time.Now().UTC()))
}

func TestRecordPartitionFailureBlocksInsert(t *testing.T) {
	// 分区保障失败时事件不落库，错误原样上抛
	cause := &apperr.PartitionCreateFailed{Table: model.TableAnalytics, Bucket: "2025-11", Err: errors.New("permission denied")}
	ensurer := &fakePartitionEnsurer{err: cause}
	repo := &fakeAnalyticsRepo{}
	svc := NewEventService(ensurer, repo)

	err := svc.Record(context.Background(), uuid.New(), model.TableAnalytics, "page_view", time.Now(), nil)
	_, ok := apperr.IsPartitionCreateFailed(err)
	require.True(t, ok)
	assert.Empty(t, repo.events)
}

func TestRecordRejectsEmptyEventType(t *testing.T) {
	ensurer := &fakePartitionEnsurer{}
	svc := NewEventService(ensurer, &fakeAnalyticsRepo{})

	err := svc.Record(context.Background(), uuid.New(), model.TableAnalytics, "", time.Now(), nil)
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "event_type", ve.Field)
	assert.Empty(t, ensurer.calls, "校验失败时不应触碰分区")
}

func TestRecordRejectsUnknownTable(t *testing.T) {
	svc := NewEventService(&fakePartitionEnsurer{}, &fakeAnalyticsRepo{})

	err := svc.Record(context.Background(), uuid.New(), "documents", "page_view", time.Now(), nil)
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "table", ve.Field)
}

func TestProcessRunsUnderSystemContext(t *testing.T) {
	// 消费者落库走系统上下文，租户归属取自事件本身
	repo := &fakeAnalyticsRepo{}
	svc := NewEventService(&fakePartitionEnsurer{}, repo)

	tenantID := uuid.New()
	err := svc.Process(context.Background(), tasks.UsageEvent{
		TenantID:   tenantID,
		Table:      model.TableAnalytics,
		EventType:  "resource_created",
		OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, repo.events, 1)
	assert.Equal(t, tenantID, repo.events[0].TenantID)
	assert.True(t, policy.IsSystem(repo.lastCtx))
}
