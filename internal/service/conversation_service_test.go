package service

import (
	"context"
	"testing"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeConversationRepo struct {
	conversations map[uuid.UUID]*model.Conversation
	created       []*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[uuid.UUID]*model.Conversation)}
}

func (f *fakeConversationRepo) Create(_ context.Context, conversation *model.Conversation) error {
	f.conversations[conversation.ConversationID] = conversation
	f.created = append(f.created, conversation)
	return nil
}

func (f *fakeConversationRepo) FindByID(_ context.Context, conversationID uuid.UUID) (*model.Conversation, error) {
	conversation, ok := f.conversations[conversationID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return conversation, nil
}

func (f *fakeConversationRepo) ListByUser(_ context.Context, userID uint, _, _ int) ([]model.Conversation, int64, error) {
	var out []model.Conversation
	for _, conversation := range f.conversations {
		if conversation.UserID == userID {
			out = append(out, *conversation)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeConversationRepo) AppendMessage(_ context.Context, _ *gorm.DB, message *model.Message) error {
	conversation, ok := f.conversations[message.ConversationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	conversation.LastActivityAt = message.CreatedAt
	return nil
}

func (f *fakeConversationRepo) ListMessages(_ context.Context, _ uuid.UUID, _ int) ([]model.Message, error) {
	return nil, nil
}

func (f *fakeConversationRepo) SoftDelete(_ context.Context, _ uuid.UUID) error {
	return nil
}

func principalCtx() context.Context {
	return policy.WithPrincipal(context.Background(), policy.Principal{
		UserID:   7,
		TenantID: uuid.New(),
		Role:     model.RoleUser,
		Tier:     model.TierFree,
	})
}

func TestCreateConversationStampsPrincipal(t *testing.T) {
	repo := newFakeConversationRepo()
	svc := NewConversationService(nil, repo, nil)

	ctx := principalCtx()
	p, _ := policy.PrincipalFrom(ctx)
	conversation, err := svc.CreateConversation(ctx, "售后咨询")
	require.NoError(t, err)
	assert.Equal(t, p.TenantID, conversation.TenantID)
	assert.Equal(t, p.UserID, conversation.UserID)
	assert.NotEqual(t, uuid.Nil, conversation.ConversationID)
}

func TestCreateConversationRequiresPrincipal(t *testing.T) {
	svc := NewConversationService(nil, newFakeConversationRepo(), nil)
	_, err := svc.CreateConversation(context.Background(), "匿名")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCreateConversationSuspendedTenantForbidden(t *testing.T) {
	// 套餐解析为空表示租户被停用，写入被拒
	svc := NewConversationService(nil, newFakeConversationRepo(), nil)
	ctx := policy.WithPrincipal(context.Background(), policy.Principal{
		UserID:   7,
		TenantID: uuid.New(),
		Role:     model.RoleUser,
	})
	_, err := svc.CreateConversation(ctx, "停用租户")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestAppendMessageValidation(t *testing.T) {
	// 校验在触库之前完成，nil 的 db 句柄不会被触碰
	repo := newFakeConversationRepo()
	svc := NewConversationService(nil, repo, nil)
	ctx := principalCtx()

	_, err := svc.AppendMessage(ctx, uuid.New(), "user", "", 0, nil)
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "content", ve.Field)

	_, err = svc.AppendMessage(ctx, uuid.New(), "moderator", "你好", 0, nil)
	ve, ok = apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "role", ve.Field)
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	svc := NewConversationService(nil, newFakeConversationRepo(), nil)
	_, err := svc.AppendMessage(principalCtx(), uuid.New(), "user", "你好", 0, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
