package repository

import (
	"context"
	"time"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversationRepository 会话与消息数据访问接口
type ConversationRepository interface {
	Create(ctx context.Context, conversation *model.Conversation) error
	FindByID(ctx context.Context, conversationID uuid.UUID) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.Conversation, int64, error)
	AppendMessage(ctx context.Context, tx *gorm.DB, message *model.Message) error
	ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error)
	SoftDelete(ctx context.Context, conversationID uuid.UUID) error
}

type conversationRepository struct {
	db *gorm.DB
}

// NewConversationRepository 创建会话仓储实例
func NewConversationRepository(db *gorm.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *model.Conversation) error {
	if conversation.LastActivityAt.IsZero() {
		conversation.LastActivityAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(conversation).Error
}

func (r *conversationRepository) FindByID(ctx context.Context, conversationID uuid.UUID) (*model.Conversation, error) {
	var conversation model.Conversation
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).First(&conversation).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *conversationRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]model.Conversation, int64, error) {
	var conversations []model.Conversation
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Conversation{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("last_activity_at DESC").Offset(offset).Limit(limit).Find(&conversations).Error
	return conversations, total, err
}

// AppendMessage 在调用方事务里追加消息并刷新会话的最近活跃时间，
// 两者要么同时落库要么同时失败
func (r *conversationRepository) AppendMessage(ctx context.Context, tx *gorm.DB, message *model.Message) error {
	if err := tx.WithContext(ctx).Create(message).Error; err != nil {
		return err
	}
	return mustAffect(tx.WithContext(ctx).Model(&model.Conversation{}).
		Where("conversation_id = ?", message.ConversationID).
		Update("last_activity_at", message.CreatedAt))
}

func (r *conversationRepository) ListMessages(ctx context.Context, conversationID uuid.UUID, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}

func (r *conversationRepository) SoftDelete(ctx context.Context, conversationID uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Delete(&model.Conversation{}))
}
