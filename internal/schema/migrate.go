package schema

import (
	"errors"
	"fmt"

	"linkai-core-go/internal/config"
	"linkai-core-go/internal/model"
	"linkai-core-go/pkg/hash"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Migrate 基于实体注册表建立数据库结构：
// 扩展、普通表、分区父表、三元组文本索引与 ivfflat 向量索引，
// 并在首次启动时播种默认的套餐上限与模型目录。
func Migrate(db *gorm.DB, cfg config.IndexConfig) error {
	// 1. 扩展：pgvector 提供向量列与近邻索引，pg_trgm 提供模糊文本索引
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("创建 vector 扩展失败: %w", err)
	}
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		return fmt.Errorf("创建 pg_trgm 扩展失败: %w", err)
	}

	// 2. 普通表走 AutoMigrate，分区父表必须用原生 DDL（GORM 不感知分区）
	for _, entity := range Registry() {
		if entity.Partitioned {
			if err := createPartitionedParent(db, entity.Table); err != nil {
				return err
			}
			continue
		}
		if err := db.AutoMigrate(entity.Model); err != nil {
			return fmt.Errorf("迁移表 %s 失败: %w", entity.Table, err)
		}
	}

	// 3. 按注册表建立索引
	if err := createIndexes(db, cfg); err != nil {
		return err
	}

	// 4. 播种套餐数据（仅当 tier_features 为空）
	if err := seedTierData(db); err != nil {
		return err
	}

	log.Info("数据库迁移完成")
	return nil
}

// SeedAdmin 建立初始运营管理员与其所属的系统租户，已存在则跳过
func SeedAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		return nil
	}
	var existing model.User
	err := db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := hash.HashPassword(cfg.Password)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		tenant := model.Tenant{TenantID: uuid.New(), Name: "system"}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.TenantSubscription{
			TenantID: tenant.TenantID,
			Tier:     model.TierBusiness,
			IsActive: true,
		}).Error; err != nil {
			return err
		}
		admin := model.User{
			TenantID: tenant.TenantID,
			Username: cfg.Username,
			Password: hashed,
			Role:     model.RoleAdmin,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}
		log.Infow("已创建初始管理员账号", "username", cfg.Username)
		return nil
	})
}

// createPartitionedParent 建立按月 RANGE 分区的事件父表。
// 主键必须包含分区键，因此采用 (id, occurred_at) 复合主键。
func createPartitionedParent(db *gorm.DB, table string) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id bigint GENERATED BY DEFAULT AS IDENTITY,
		tenant_id uuid NOT NULL,
		event_type varchar(50) NOT NULL,
		payload jsonb,
		occurred_at timestamptz NOT NULL,
		PRIMARY KEY (id, occurred_at)
	) PARTITION BY RANGE (occurred_at)`, table)
	if err := db.Exec(ddl).Error; err != nil {
		return fmt.Errorf("创建分区父表 %s 失败: %w", table, err)
	}
	idx := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_tenant_time ON %s (tenant_id, occurred_at)", table, table)
	if err := db.Exec(idx).Error; err != nil {
		return fmt.Errorf("创建分区表索引失败: %w", err)
	}
	return nil
}

// createIndexes 依注册表为可搜索列建 GIN trigram 索引，为向量列建 ivfflat 索引。
// ivfflat 的 lists 参数来自配置；重建/调优属于写路径之外的运维任务。
func createIndexes(db *gorm.DB, cfg config.IndexConfig) error {
	lists := cfg.IvfflatLists
	if lists <= 0 {
		lists = 100
	}
	for _, entity := range Registry() {
		if entity.Partitioned {
			continue
		}
		for _, col := range entity.Searchable {
			ddl := fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS idx_%s_%s_trgm ON %s USING gin (%s gin_trgm_ops)",
				entity.Table, col, entity.Table, col,
			)
			if err := db.Exec(ddl).Error; err != nil {
				return fmt.Errorf("创建 trigram 索引失败 (%s.%s): %w", entity.Table, col, err)
			}
		}
		for _, col := range entity.VectorColumns {
			ddl := fmt.Sprintf(
				"CREATE INDEX IF NOT EXISTS idx_%s_%s_ivfflat ON %s USING ivfflat (%s vector_cosine_ops) WITH (lists = %d)",
				entity.Table, col, entity.Table, col, lists,
			)
			if err := db.Exec(ddl).Error; err != nil {
				return fmt.Errorf("创建 ivfflat 索引失败 (%s.%s): %w", entity.Table, col, err)
			}
		}
	}
	return nil
}

// seedTierData 播种默认的套餐上限与模型目录。
// 这些都是数据行：播种之后运营可以直接改表，修改即时生效。
func seedTierData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.TierFeature{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	features := []model.TierFeature{
		{Tier: model.TierFree, ResourceKind: model.ResourceKindDocument, Ceiling: 100, Window: model.WindowDay},
		{Tier: model.TierPro, ResourceKind: model.ResourceKindDocument, Ceiling: 2000, Window: model.WindowDay},
		{Tier: model.TierBusiness, ResourceKind: model.ResourceKindDocument, Ceiling: 20000, Window: model.WindowDay},

		{Tier: model.TierFree, ResourceKind: model.ResourceKindCollection, Ceiling: 5, Window: model.WindowTotal},
		{Tier: model.TierPro, ResourceKind: model.ResourceKindCollection, Ceiling: 50, Window: model.WindowTotal},
		{Tier: model.TierBusiness, ResourceKind: model.ResourceKindCollection, Ceiling: 500, Window: model.WindowTotal},

		{Tier: model.TierFree, ResourceKind: model.ResourceKindBot, Ceiling: 1, Window: model.WindowTotal},
		{Tier: model.TierPro, ResourceKind: model.ResourceKindBot, Ceiling: 10, Window: model.WindowTotal},
		{Tier: model.TierBusiness, ResourceKind: model.ResourceKindBot, Ceiling: 100, Window: model.WindowTotal},

		{Tier: model.TierFree, ResourceKind: model.ResourceKindVectorSearch, Ceiling: 200, Window: model.WindowDay},
		{Tier: model.TierPro, ResourceKind: model.ResourceKindVectorSearch, Ceiling: 5000, Window: model.WindowDay},
		{Tier: model.TierBusiness, ResourceKind: model.ResourceKindVectorSearch, Ceiling: 50000, Window: model.WindowDay},

		{Tier: model.TierFree, ResourceKind: model.ResourceKindToken, Ceiling: 100000, Window: model.WindowMonth},
		{Tier: model.TierPro, ResourceKind: model.ResourceKindToken, Ceiling: 1000000, Window: model.WindowMonth},
		{Tier: model.TierBusiness, ResourceKind: model.ResourceKindToken, Ceiling: 10000000, Window: model.WindowMonth},
	}
	if err := db.Create(&features).Error; err != nil {
		return fmt.Errorf("播种套餐上限失败: %w", err)
	}

	models := []model.TierModel{
		{Tier: model.TierFree, Kind: "llm", ModelName: "gpt-3.5-turbo", Description: "Fast and cost-effective model for most queries"},
		{Tier: model.TierPro, Kind: "llm", ModelName: "gpt-3.5-turbo", Description: "Fast and cost-effective model for most queries"},
		{Tier: model.TierPro, Kind: "llm", ModelName: "gpt-4-turbo", Description: "Advanced reasoning capabilities for complex queries"},
		{Tier: model.TierBusiness, Kind: "llm", ModelName: "gpt-3.5-turbo", Description: "Fast and cost-effective model for most queries"},
		{Tier: model.TierBusiness, Kind: "llm", ModelName: "gpt-4-turbo", Description: "Advanced reasoning capabilities for complex queries"},
		{Tier: model.TierBusiness, Kind: "llm", ModelName: "gpt-4-turbo-vision", Description: "Vision capabilities for image analysis"},
		{Tier: model.TierBusiness, Kind: "llm", ModelName: "claude-3-5-sonnet", Description: "Alternative model with excellent instruction following"},

		{Tier: model.TierFree, Kind: "embedding", ModelName: "text-embedding-3-small", Dimensions: 1536, Description: "Fast and efficient general purpose embedding model"},
		{Tier: model.TierPro, Kind: "embedding", ModelName: "text-embedding-3-small", Dimensions: 1536, Description: "Fast and efficient general purpose embedding model"},
		{Tier: model.TierPro, Kind: "embedding", ModelName: "text-embedding-3-large", Dimensions: 3072, Description: "High performance embedding model with better retrieval quality"},
		{Tier: model.TierBusiness, Kind: "embedding", ModelName: "text-embedding-3-small", Dimensions: 1536, Description: "Fast and efficient general purpose embedding model"},
		{Tier: model.TierBusiness, Kind: "embedding", ModelName: "text-embedding-3-large", Dimensions: 3072, Description: "High performance embedding model with better retrieval quality"},
	}
	if err := db.Create(&models).Error; err != nil {
		return fmt.Errorf("播种模型目录失败: %w", err)
	}

	log.Info("已播种默认套餐上限与模型目录")
	return nil
}
