package repository

import (
	"context"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BotRepository 机器人数据访问接口
type BotRepository interface {
	Create(ctx context.Context, tx *gorm.DB, bot *model.Bot) error
	FindByID(ctx context.Context, botID uuid.UUID) (*model.Bot, error)
	ListByOwner(ctx context.Context, ownerUserID uint) ([]model.Bot, error)
	ListPublic(ctx context.Context, offset, limit int) ([]model.Bot, int64, error)
	Update(ctx context.Context, bot *model.Bot) error
	SoftDelete(ctx context.Context, tx *gorm.DB, botID uuid.UUID) error
	Restore(ctx context.Context, tx *gorm.DB, botID uuid.UUID) error
}

type botRepository struct {
	db *gorm.DB
}

// NewBotRepository 创建机器人仓储实例
func NewBotRepository(db *gorm.DB) BotRepository {
	return &botRepository{db: db}
}

func (r *botRepository) Create(ctx context.Context, tx *gorm.DB, bot *model.Bot) error {
	return tx.WithContext(ctx).Create(bot).Error
}

// FindByID 机器人表全局可读，读到的行可能属于其他租户
func (r *botRepository) FindByID(ctx context.Context, botID uuid.UUID) (*model.Bot, error) {
	var bot model.Bot
	err := r.db.WithContext(ctx).Where("bot_id = ?", botID).First(&bot).Error
	if err != nil {
		return nil, err
	}
	return &bot, nil
}

func (r *botRepository) ListByOwner(ctx context.Context, ownerUserID uint) ([]model.Bot, error) {
	var bots []model.Bot
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Find(&bots).Error
	return bots, err
}

func (r *botRepository) ListPublic(ctx context.Context, offset, limit int) ([]model.Bot, int64, error) {
	var bots []model.Bot
	var total int64
	query := r.db.WithContext(ctx).Model(&model.Bot{}).Where("is_public = ?", true)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&bots).Error
	return bots, total, err
}

func (r *botRepository) Update(ctx context.Context, bot *model.Bot) error {
	return mustAffect(r.db.WithContext(ctx).Model(&model.Bot{}).
		Where("bot_id = ?", bot.BotID).
		Updates(map[string]interface{}{
			"name":      bot.Name,
			"llm_model": bot.LLMModel,
			"is_public": bot.IsPublic,
		}))
}

func (r *botRepository) SoftDelete(ctx context.Context, tx *gorm.DB, botID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).
		Where("bot_id = ?", botID).
		Delete(&model.Bot{}))
}

func (r *botRepository) Restore(ctx context.Context, tx *gorm.DB, botID uuid.UUID) error {
	return mustAffect(tx.WithContext(ctx).Unscoped().Model(&model.Bot{}).
		Where("bot_id = ?", botID).
		Update("deleted_at", nil))
}
