package service

import (
	"context"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/repository"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// ConversationService 会话与消息接口。
// 消息是追加表：只增不改，追加时同事务刷新会话活跃时间并预占 token 配额。
type ConversationService interface {
	CreateConversation(ctx context.Context, title string) (*model.Conversation, error)
	ListConversations(ctx context.Context, offset, limit int) ([]model.Conversation, int64, error)
	AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string, tokenCount int64, embedding []float32) (*model.Message, error)
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error)
	DeleteConversation(ctx context.Context, conversationID uuid.UUID) error
}

type conversationService struct {
	db               *gorm.DB
	conversationRepo repository.ConversationRepository
	quotaService     QuotaService
}

// NewConversationService 创建会话服务实例
func NewConversationService(db *gorm.DB, conversationRepo repository.ConversationRepository, quotaService QuotaService) ConversationService {
	return &conversationService{db: db, conversationRepo: conversationRepo, quotaService: quotaService}
}

func (s *conversationService) CreateConversation(ctx context.Context, title string) (*model.Conversation, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	conversation := &model.Conversation{
		ConversationID: uuid.New(),
		TenantID:       p.TenantID,
		UserID:         p.UserID,
		Title:          title,
	}
	if err := s.conversationRepo.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *conversationService) ListConversations(ctx context.Context, offset, limit int) ([]model.Conversation, int64, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.conversationRepo.ListByUser(ctx, p.UserID, offset, limit)
}

// AppendMessage 追加消息：
// 1. 校验会话归属，查不到视为不存在
// 2. 事务内预占本月 token 配额并写入消息，同步刷新会话活跃时间
func (s *conversationService) AppendMessage(ctx context.Context, conversationID uuid.UUID, role, content string, tokenCount int64, embedding []float32) (*model.Message, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, &apperr.ValidationError{Field: "content", Reason: "消息内容不能为空"}
	}
	switch role {
	case "user", "assistant", "system":
	default:
		return nil, &apperr.ValidationError{Field: "role", Reason: "角色必须是 user/assistant/system 之一"}
	}
	if _, err := s.conversationRepo.FindByID(ctx, conversationID); err != nil {
		return nil, err
	}

	message := &model.Message{
		ConversationID: conversationID,
		TenantID:       p.TenantID,
		Role:           role,
		Content:        content,
	}
	if len(embedding) > 0 {
		vec := pgvector.NewVector(embedding)
		message.Embedding = &vec
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tokenCount > 0 {
			if err := s.quotaService.CheckAndReserve(ctx, tx, p.TenantID, p.Tier, model.ResourceKindToken, tokenCount); err != nil {
				return err
			}
		}
		return s.conversationRepo.AppendMessage(ctx, tx, message)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

func (s *conversationService) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	if _, err := principalOf(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.conversationRepo.ListMessages(ctx, conversationID, limit)
}

func (s *conversationService) DeleteConversation(ctx context.Context, conversationID uuid.UUID) error {
	if _, err := principalOf(ctx); err != nil {
		return err
	}
	return s.conversationRepo.SoftDelete(ctx, conversationID)
}
