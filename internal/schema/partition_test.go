package schema

import (
	"context"
	"errors"
	"testing"
	"time"

	"linkai-core-go/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthBucket(t *testing.T) {
	from, to := MonthBucket(time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthBucketDecemberRollsIntoNextYear(t *testing.T) {
	from, to := MonthBucket(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthBucketUsesEventTimeNotWallClock(t *testing.T) {
	// 补录的历史事件按事件自身时间分桶
	backdated := time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC)
	from, to := MonthBucket(backdated)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), to)
}

func TestMonthBucketNormalizesTimezone(t *testing.T) {
	// 东八区的 1 日凌晨仍属于 UTC 的上个月
	loc := time.FixedZone("CST", 8*3600)
	from, _ := MonthBucket(time.Date(2026, 9, 1, 3, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), from)
}

func TestPartitionName(t *testing.T) {
	name := PartitionName("analytics", time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "analytics_y2026m08", name)

	name = PartitionName("vector_analytics", time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "vector_analytics_y2025m12", name)
}

func TestBuildPartitionDDL(t *testing.T) {
	name, ddl := BuildPartitionDDL("analytics", time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "analytics_y2026m08", name)
	assert.Equal(t,
		"CREATE TABLE IF NOT EXISTS analytics_y2026m08 PARTITION OF analytics FOR VALUES FROM ('2026-08-01') TO ('2026-09-01')",
		ddl,
	)
}

func TestIsDuplicateTable(t *testing.T) {
	assert.True(t, IsDuplicateTable(&pgconn.PgError{Code: "42P07"}))
	assert.False(t, IsDuplicateTable(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsDuplicateTable(errors.New("connection refused")))
	assert.False(t, IsDuplicateTable(nil))
}

func TestEnsurePartitionRejectsUnmanagedTable(t *testing.T) {
	pm := NewPartitionManager(nil)
	_, err := pm.EnsurePartition(context.Background(), "users", time.Now())
	require.Error(t, err)
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "table", ve.Field)

	_, err = pm.EnsurePartition(context.Background(), "no_such_table", time.Now())
	_, ok = apperr.IsValidation(err)
	assert.True(t, ok)
}
