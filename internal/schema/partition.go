package schema

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/pkg/log"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgDuplicateTable 是 PostgreSQL duplicate_table 的 SQLSTATE。
const pgDuplicateTable = "42P07"

// PartitionManager 负责在时间分桶写入落地前确保目标分区存在。
// 创建是幂等的：并发创建同一分区时，落败一方被归一为成功。
// 本组件从不删除旧分区，归档/保留是外部运维职责。
type PartitionManager struct {
	db *gorm.DB

	// ensured 缓存本进程已确认存在的分区名，避免重复发 DDL。
	// 缓存只是快路径，正确性始终由 IF NOT EXISTS 与 42P07 归一保证。
	mu      sync.RWMutex
	ensured map[string]struct{}
}

// NewPartitionManager 创建一个新的 PartitionManager。
func NewPartitionManager(db *gorm.DB) *PartitionManager {
	return &PartitionManager{
		db:      db,
		ensured: make(map[string]struct{}),
	}
}

// MonthBucket 根据事件自身的时间戳（而非当前墙钟）计算 UTC 月度分桶。
// 回放或补报的历史事件因此落入正确的历史分区。
func MonthBucket(eventTime time.Time) (from, to time.Time) {
	t := eventTime.UTC()
	from = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to = from.AddDate(0, 1, 0)
	return from, to
}

// PartitionName 返回某表某月分桶对应的分区名，如 analytics_y2026m08。
func PartitionName(table string, eventTime time.Time) string {
	t := eventTime.UTC()
	return fmt.Sprintf("%s_y%04dm%02d", table, t.Year(), int(t.Month()))
}

// BuildPartitionDDL 生成“不存在则创建”的分区 DDL。
func BuildPartitionDDL(table string, eventTime time.Time) (name string, ddl string) {
	from, to := MonthBucket(eventTime)
	name = PartitionName(table, eventTime)
	ddl = fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s PARTITION OF %s FOR VALUES FROM ('%s') TO ('%s')",
		name, table, from.Format("2006-01-02"), to.Format("2006-01-02"),
	)
	return name, ddl
}

// IsDuplicateTable 判断错误是否为并发创建导致的“表已存在”。
func IsDuplicateTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable
	}
	return false
}

// EnsurePartition 确保 table 在 eventTime 所属月份的分区存在，返回分区名。
// 只接受注册表中标记为 Partitioned 的表。
// 除“已存在”竞态外的任何创建失败都包装为 PartitionCreateFailed 上抛，
// 触发写入失败，绝不静默丢弃。
func (pm *PartitionManager) EnsurePartition(ctx context.Context, table string, eventTime time.Time) (string, error) {
	entity, ok := FindEntity(table)
	if !ok || !entity.Partitioned {
		return "", &apperr.ValidationError{Field: "table", Reason: fmt.Sprintf("表 %s 不是受管理的分区表", table)}
	}

	name, ddl := BuildPartitionDDL(table, eventTime)

	pm.mu.RLock()
	_, hit := pm.ensured[name]
	pm.mu.RUnlock()
	if hit {
		return name, nil
	}

	if err := pm.db.WithContext(ctx).Exec(ddl).Error; err != nil {
		// 并发创建者之间的竞态：落败一方归一为成功。
		if !IsDuplicateTable(err) {
			return "", &apperr.PartitionCreateFailed{Table: table, Bucket: name, Err: err}
		}
	} else {
		log.Infow("分区已创建", "table", table, "partition", name)
	}

	pm.mu.Lock()
	pm.ensured[name] = struct{}{}
	pm.mu.Unlock()

	return name, nil
}

// EnsureCurrent 预创建全部分区表在当前月份的分区，供启动时调用。
func (pm *PartitionManager) EnsureCurrent(ctx context.Context) error {
	now := time.Now().UTC()
	for _, table := range []string{model.TableAnalytics, model.TableVectorAnalytics} {
		if _, err := pm.EnsurePartition(ctx, table, now); err != nil {
			return err
		}
	}
	return nil
}
