package repository

import (
	"context"

	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkRepository 主页与链接数据访问接口
type LinkRepository interface {
	UpsertProfile(ctx context.Context, profile *model.Profile) error
	FindProfileByOwner(ctx context.Context, ownerUserID uint) (*model.Profile, error)
	CreateLink(ctx context.Context, link *model.Link) error
	ListLinksByOwner(ctx context.Context, ownerUserID uint) ([]model.Link, error)
	UpdateLink(ctx context.Context, link *model.Link) error
	DeleteLink(ctx context.Context, linkID uuid.UUID) error
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository 创建链接仓储实例
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// UpsertProfile 每位用户只有一个主页，存在即更新
func (r *linkRepository) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	var existing model.Profile
	err := r.db.WithContext(ctx).Where("owner_user_id = ?", profile.OwnerUserID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.WithContext(ctx).Create(profile).Error
	}
	if err != nil {
		return err
	}
	return mustAffect(r.db.WithContext(ctx).Model(&model.Profile{}).
		Where("owner_user_id = ?", profile.OwnerUserID).
		Updates(map[string]interface{}{
			"display_name": profile.DisplayName,
			"bio":          profile.Bio,
			"avatar_url":   profile.AvatarURL,
		}))
}

func (r *linkRepository) FindProfileByOwner(ctx context.Context, ownerUserID uint) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerUserID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *linkRepository) CreateLink(ctx context.Context, link *model.Link) error {
	return r.db.WithContext(ctx).Create(link).Error
}

func (r *linkRepository) ListLinksByOwner(ctx context.Context, ownerUserID uint) ([]model.Link, error) {
	var links []model.Link
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ?", ownerUserID).
		Order("position ASC").
		Find(&links).Error
	return links, err
}

func (r *linkRepository) UpdateLink(ctx context.Context, link *model.Link) error {
	return mustAffect(r.db.WithContext(ctx).Model(&model.Link{}).
		Where("link_id = ?", link.LinkID).
		Updates(map[string]interface{}{
			"title":    link.Title,
			"url":      link.URL,
			"position": link.Position,
		}))
}

func (r *linkRepository) DeleteLink(ctx context.Context, linkID uuid.UUID) error {
	return mustAffect(r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Delete(&model.Link{}))
}
