package service

import (
	"context"
	"fmt"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/config"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/kafka"
	"linkai-core-go/pkg/log"
	"linkai-core-go/pkg/tasks"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ChunkInput 创建文档时随文档一并写入的分块
type ChunkInput struct {
	Index     int       `json:"index"`
	Content   string    `json:"content" binding:"required"`
	Embedding []float32 `json:"embedding"`
}

// ResourceService 配额约束下的资源生命周期接口。
// 每次创建都在单个事务里完成配额预占与资源写入，超限时整体回滚。
type ResourceService interface {
	CreateCollection(ctx context.Context, name, description string) (*model.Collection, error)
	ListCollections(ctx context.Context) ([]model.Collection, error)
	CreateDocument(ctx context.Context, collectionID uuid.UUID, title, source, author, docType string, chunks []ChunkInput) (*model.Document, error)
	ListDocuments(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]model.Document, int64, error)
	CreateBot(ctx context.Context, name, llmModel string, isPublic bool) (*model.Bot, error)
	ListMyBots(ctx context.Context) ([]model.Bot, error)
	ListPublicBots(ctx context.Context, offset, limit int) ([]model.Bot, int64, error)
	UpdateBot(ctx context.Context, bot *model.Bot) error
	DeleteResource(ctx context.Context, kind string, id uuid.UUID) error
	RestoreResource(ctx context.Context, kind string, id uuid.UUID) error
}

type resourceService struct {
	db             *gorm.DB
	quotaService   QuotaService
	collectionRepo repository.CollectionRepository
	documentRepo   repository.DocumentRepository
	botRepo        repository.BotRepository
	quotaRepo      repository.QuotaRepository
}

// NewResourceService 创建资源服务实例
func NewResourceService(
	db *gorm.DB,
	quotaService QuotaService,
	collectionRepo repository.CollectionRepository,
	documentRepo repository.DocumentRepository,
	botRepo repository.BotRepository,
	quotaRepo repository.QuotaRepository,
) ResourceService {
	return &resourceService{
		db:             db,
		quotaService:   quotaService,
		collectionRepo: collectionRepo,
		documentRepo:   documentRepo,
		botRepo:        botRepo,
		quotaRepo:      quotaRepo,
	}
}

// principalOf 从 context 取出请求主体，服务层的写路径必须有主体
func principalOf(ctx context.Context) (policy.Principal, error) {
	p, ok := policy.PrincipalFrom(ctx)
	if !ok {
		return policy.Principal{}, apperr.ErrForbidden
	}
	return p, nil
}

// writePrincipalOf 在 principalOf 之上要求租户订阅仍然生效。
// 被停用的租户（无生效订阅，套餐解析为空）可以读但不能写。
func writePrincipalOf(ctx context.Context) (policy.Principal, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return policy.Principal{}, err
	}
	if p.Tier == "" {
		return policy.Principal{}, apperr.ErrForbidden
	}
	return p, nil
}

// CreateCollection 创建集合：
// 1. 校验入参
// 2. 事务内先预占配额再写入，并发超发在计数器行锁上被串行化
// 3. 落库成功后异步发布用量事件
func (s *resourceService) CreateCollection(ctx context.Context, name, description string) (*model.Collection, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Reason: "集合名称不能为空"}
	}

	collection := &model.Collection{
		CollectionID: uuid.New(),
		TenantID:     p.TenantID,
		Name:         name,
		Description:  description,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quotaService.CheckAndReserve(ctx, tx, p.TenantID, p.Tier, model.ResourceKindCollection, 1); err != nil {
			return err
		}
		return s.collectionRepo.Create(ctx, tx, collection)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(p.TenantID, "collection_created", map[string]interface{}{
		"collection_id": collection.CollectionID.String(),
	})
	return collection, nil
}

func (s *resourceService) ListCollections(ctx context.Context) ([]model.Collection, error) {
	return s.collectionRepo.List(ctx)
}

// CreateDocument 创建文档并写入分块。
// 文档配额按天计，向量维度必须与租户配置的嵌入模型一致。
func (s *resourceService) CreateDocument(ctx context.Context, collectionID uuid.UUID, title, source, author, docType string, chunks []ChunkInput) (*model.Document, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, &apperr.ValidationError{Field: "title", Reason: "文档标题不能为空"}
	}
	dims := config.Conf.Index.EmbeddingDimensions
	for _, c := range chunks {
		if len(c.Embedding) > 0 && len(c.Embedding) != dims {
			return nil, &apperr.ValidationError{
				Field:  "chunks.embedding",
				Reason: fmt.Sprintf("向量维度 %d 与配置的 %d 不一致", len(c.Embedding), dims),
			}
		}
	}

	// 集合必须属于当前租户，访问控制插件保证查不到他人租户的行
	if _, err := s.collectionRepo.FindByID(ctx, collectionID); err != nil {
		return nil, err
	}

	doc := &model.Document{
		DocumentID:   uuid.New(),
		TenantID:     p.TenantID,
		CollectionID: collectionID,
		Title:        title,
		Source:       source,
		Author:       author,
		DocumentType: docType,
		ChunkCount:   len(chunks),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quotaService.CheckAndReserve(ctx, tx, p.TenantID, p.Tier, model.ResourceKindDocument, 1); err != nil {
			return err
		}
		if err := s.documentRepo.Create(ctx, tx, doc); err != nil {
			return err
		}
		rows := make([]model.DocumentChunk, 0, len(chunks))
		for _, c := range chunks {
			row := model.DocumentChunk{
				ChunkID:    uuid.New(),
				DocumentID: doc.DocumentID,
				TenantID:   p.TenantID,
				ChunkIndex: c.Index,
				Content:    c.Content,
			}
			if len(c.Embedding) > 0 {
				row.Embedding = pgvector.NewVector(c.Embedding)
			}
			rows = append(rows, row)
		}
		return s.documentRepo.CreateChunks(ctx, tx, rows)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(p.TenantID, "document_created", map[string]interface{}{
		"document_id": doc.DocumentID.String(),
		"chunk_count": len(chunks),
	})
	return doc, nil
}

func (s *resourceService) ListDocuments(ctx context.Context, collectionID uuid.UUID, offset, limit int) ([]model.Document, int64, error) {
	return s.documentRepo.ListByCollection(ctx, collectionID, offset, limit)
}

// CreateBot 创建机器人，挂载的 LLM 模型必须在当前套餐的模型目录内
func (s *resourceService) CreateBot(ctx context.Context, name, llmModel string, isPublic bool) (*model.Bot, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &apperr.ValidationError{Field: "name", Reason: "机器人名称不能为空"}
	}
	if llmModel != "" {
		allowed, err := s.modelAllowed(ctx, p.Tier, "llm", llmModel)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, &apperr.ValidationError{
				Field:  "llm_model",
				Reason: fmt.Sprintf("模型 %s 不在 %s 套餐的可用目录内", llmModel, p.Tier),
			}
		}
	}

	bot := &model.Bot{
		BotID:       uuid.New(),
		TenantID:    p.TenantID,
		OwnerUserID: p.UserID,
		Name:        name,
		LLMModel:    llmModel,
		IsPublic:    isPublic,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quotaService.CheckAndReserve(ctx, tx, p.TenantID, p.Tier, model.ResourceKindBot, 1); err != nil {
			return err
		}
		return s.botRepo.Create(ctx, tx, bot)
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(p.TenantID, "bot_created", map[string]interface{}{
		"bot_id": bot.BotID.String(),
	})
	return bot, nil
}

func (s *resourceService) ListMyBots(ctx context.Context) ([]model.Bot, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return nil, err
	}
	return s.botRepo.ListByOwner(ctx, p.UserID)
}

// ListPublicBots 列出全部公开机器人，公开读表不受租户隔离约束
func (s *resourceService) ListPublicBots(ctx context.Context, offset, limit int) ([]model.Bot, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.botRepo.ListPublic(ctx, offset, limit)
}

func (s *resourceService) UpdateBot(ctx context.Context, bot *model.Bot) error {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return err
	}
	if bot.LLMModel != "" {
		allowed, err := s.modelAllowed(ctx, p.Tier, "llm", bot.LLMModel)
		if err != nil {
			return err
		}
		if !allowed {
			return &apperr.ValidationError{
				Field:  "llm_model",
				Reason: fmt.Sprintf("模型 %s 不在 %s 套餐的可用目录内", bot.LLMModel, p.Tier),
			}
		}
	}
	return s.botRepo.Update(ctx, bot)
}

// DeleteResource 软删除资源，行保留但立即释放配额
func (s *resourceService) DeleteResource(ctx context.Context, kind string, id uuid.UUID) error {
	if _, err := principalOf(ctx); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch kind {
		case model.ResourceKindCollection:
			return s.collectionRepo.SoftDelete(ctx, tx, id)
		case model.ResourceKindDocument:
			return s.documentRepo.SoftDelete(ctx, tx, id)
		case model.ResourceKindBot:
			return s.botRepo.SoftDelete(ctx, tx, id)
		default:
			return &apperr.ValidationError{Field: "kind", Reason: fmt.Sprintf("不支持删除的资源类型 %q", kind)}
		}
	})
}

// RestoreResource 恢复软删除的资源，恢复本身要重新通过配额检查
func (s *resourceService) RestoreResource(ctx context.Context, kind string, id uuid.UUID) error {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.quotaService.CheckAndReserve(ctx, tx, p.TenantID, p.Tier, kind, 1); err != nil {
			return err
		}
		switch kind {
		case model.ResourceKindCollection:
			return s.collectionRepo.Restore(ctx, tx, id)
		case model.ResourceKindDocument:
			return s.documentRepo.Restore(ctx, tx, id)
		case model.ResourceKindBot:
			return s.botRepo.Restore(ctx, tx, id)
		default:
			return &apperr.ValidationError{Field: "kind", Reason: fmt.Sprintf("不支持恢复的资源类型 %q", kind)}
		}
	})
}

func (s *resourceService) modelAllowed(ctx context.Context, tier, kind, name string) (bool, error) {
	models, err := s.quotaRepo.ListModels(ctx, tier)
	if err != nil {
		return false, err
	}
	for _, m := range models {
		if m.Kind == kind && m.ModelName == name {
			return true, nil
		}
	}
	return false, nil
}

// publishEvent 把用量事件投递到 Kafka，失败只记日志不影响主流程
func (s *resourceService) publishEvent(tenantID uuid.UUID, eventType string, payload map[string]interface{}) {
	event := tasks.UsageEvent{
		TenantID:   tenantID,
		Table:      model.TableAnalytics,
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	if err := kafka.ProduceUsageEvent(event); err != nil {
		log.Errorw("发布用量事件失败", "event_type", eventType, "err", err)
	}
}
