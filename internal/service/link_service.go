package service

import (
	"context"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/repository"

	"github.com/google/uuid"
)

// PublicProfile 对外展示的主页视图：主页信息加有序链接列表
type PublicProfile struct {
	Profile model.Profile `json:"profile"`
	Links   []model.Link  `json:"links"`
}

// LinkService 主页与链接管理接口。
// 读取全局可见，写入只允许行的所有者。
type LinkService interface {
	UpsertProfile(ctx context.Context, displayName, bio, avatarURL string) (*model.Profile, error)
	GetPublicProfile(ctx context.Context, ownerUserID uint) (*PublicProfile, error)
	CreateLink(ctx context.Context, title, url string, position int) (*model.Link, error)
	UpdateLink(ctx context.Context, linkID uuid.UUID, title, url string, position int) (*model.Link, error)
	DeleteLink(ctx context.Context, linkID uuid.UUID) error
}

type linkService struct {
	linkRepo repository.LinkRepository
}

// NewLinkService 创建链接服务实例
func NewLinkService(linkRepo repository.LinkRepository) LinkService {
	return &linkService{linkRepo: linkRepo}
}

func (s *linkService) UpsertProfile(ctx context.Context, displayName, bio, avatarURL string) (*model.Profile, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if displayName == "" {
		return nil, &apperr.ValidationError{Field: "display_name", Reason: "展示名称不能为空"}
	}
	profile := &model.Profile{
		TenantID:    p.TenantID,
		OwnerUserID: p.UserID,
		DisplayName: displayName,
		Bio:         bio,
		AvatarURL:   avatarURL,
	}
	if err := s.linkRepo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return s.linkRepo.FindProfileByOwner(ctx, p.UserID)
}

// GetPublicProfile 公开主页视图，无需登录即可访问
func (s *linkService) GetPublicProfile(ctx context.Context, ownerUserID uint) (*PublicProfile, error) {
	profile, err := s.linkRepo.FindProfileByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	links, err := s.linkRepo.ListLinksByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	return &PublicProfile{Profile: *profile, Links: links}, nil
}

func (s *linkService) CreateLink(ctx context.Context, title, url string, position int) (*model.Link, error) {
	p, err := writePrincipalOf(ctx)
	if err != nil {
		return nil, err
	}
	if title == "" || url == "" {
		return nil, &apperr.ValidationError{Field: "title", Reason: "链接标题和地址不能为空"}
	}
	link := &model.Link{
		LinkID:      uuid.New(),
		TenantID:    p.TenantID,
		OwnerUserID: p.UserID,
		Title:       title,
		URL:         url,
		Position:    position,
	}
	if err := s.linkRepo.CreateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *linkService) UpdateLink(ctx context.Context, linkID uuid.UUID, title, url string, position int) (*model.Link, error) {
	if _, err := writePrincipalOf(ctx); err != nil {
		return nil, err
	}
	link := &model.Link{
		LinkID:   linkID,
		Title:    title,
		URL:      url,
		Position: position,
	}
	if err := s.linkRepo.UpdateLink(ctx, link); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *linkService) DeleteLink(ctx context.Context, linkID uuid.UUID) error {
	if _, err := principalOf(ctx); err != nil {
		return err
	}
	return s.linkRepo.DeleteLink(ctx, linkID)
}
