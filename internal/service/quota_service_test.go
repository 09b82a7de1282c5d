package service

import (
	"context"
	"testing"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeQuotaRepo 是 QuotaRepository 的内存实现，供服务层测试使用。
type fakeQuotaRepo struct {
	features    map[string]model.TierFeature // key: tier|kind
	liveCounts  map[string]int64             // key: kind
	counters    map[string]int64             // key: kind|bucket
	lockCalls   int
	updateCalls int

	searchCount int64
	decrCalled  bool
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{
		features:   make(map[string]model.TierFeature),
		liveCounts: make(map[string]int64),
		counters:   make(map[string]int64),
	}
}

func (f *fakeQuotaRepo) addFeature(tier, kind string, ceiling int64, window string) {
	f.features[tier+"|"+kind] = model.TierFeature{Tier: tier, ResourceKind: kind, Ceiling: ceiling, Window: window}
}

func (f *fakeQuotaRepo) LockCounter(_ context.Context, _ *gorm.DB, tenantID uuid.UUID, kind, bucketKey string) (*model.TenantUsage, error) {
	f.lockCalls++
	return &model.TenantUsage{
		TenantID:     tenantID,
		ResourceKind: kind,
		BucketKey:    bucketKey,
		UsedCount:    f.counters[kind+"|"+bucketKey],
	}, nil
}

func (f *fakeQuotaRepo) UpdateCounter(_ context.Context, _ *gorm.DB, usage *model.TenantUsage, used int64) error {
	f.updateCalls++
	f.counters[usage.ResourceKind+"|"+usage.BucketKey] = used
	return nil
}

func (f *fakeQuotaRepo) GetCounter(_ context.Context, _ uuid.UUID, kind, bucketKey string) (int64, error) {
	return f.counters[kind+"|"+bucketKey], nil
}

func (f *fakeQuotaRepo) CountLive(_ context.Context, _ *gorm.DB, _ uuid.UUID, kind, _ string) (int64, error) {
	return f.liveCounts[kind], nil
}

func (f *fakeQuotaRepo) FindFeature(_ context.Context, tier, kind string) (*model.TierFeature, error) {
	feature, ok := f.features[tier+"|"+kind]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &feature, nil
}

func (f *fakeQuotaRepo) ListFeatures(_ context.Context, tier string) ([]model.TierFeature, error) {
	var out []model.TierFeature
	for _, feature := range f.features {
		if feature.Tier == tier {
			out = append(out, feature)
		}
	}
	return out, nil
}

func (f *fakeQuotaRepo) ListModels(_ context.Context, _ string) ([]model.TierModel, error) {
	return nil, nil
}

func (f *fakeQuotaRepo) UpsertFeature(_ context.Context, feature *model.TierFeature) error {
	f.features[feature.Tier+"|"+feature.ResourceKind] = *feature
	return nil
}

func (f *fakeQuotaRepo) IncrSearchCount(_ context.Context, _ uuid.UUID, _ string, _ time.Duration) (int64, error) {
	f.searchCount++
	return f.searchCount, nil
}

func (f *fakeQuotaRepo) DecrSearchCount(_ context.Context, _ uuid.UUID, _ string) error {
	f.decrCalled = true
	f.searchCount--
	return nil
}

func (f *fakeQuotaRepo) GetSearchCount(_ context.Context, _ uuid.UUID, _ string) (int64, error) {
	return f.searchCount, nil
}

func TestCheckAndReserveAllowsUnderCeiling(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindDocument, 100, model.WindowDay)
	repo.liveCounts[model.ResourceKindDocument] = 99

	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindDocument, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.lockCalls, "检查前必须锁计数器行")
	assert.Equal(t, 1, repo.updateCalls)
}

func TestCheckAndReserveRejectsAtCeiling(t *testing.T) {
	// 免费档每天 100 篇文档，第 101 篇被拒
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindDocument, 100, model.WindowDay)
	repo.liveCounts[model.ResourceKindDocument] = 100

	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindDocument, 1)
	require.Error(t, err)

	qe, ok := apperr.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, model.ResourceKindDocument, qe.ResourceKind)
	assert.Equal(t, int64(100), qe.Current)
	assert.Equal(t, int64(100), qe.Ceiling)
	assert.Equal(t, 0, repo.updateCalls, "被拒时不得推进计数器")
}

func TestCheckAndReserveSoftDeletedRowsFreeQuota(t *testing.T) {
	// 软删除后实时计数下降，新的创建重新放行
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindCollection, 5, model.WindowTotal)
	repo.liveCounts[model.ResourceKindCollection] = 5

	svc := NewQuotaService(repo, time.Hour)
	tenantID := uuid.New()
	err := svc.CheckAndReserve(context.Background(), nil, tenantID, model.TierFree, model.ResourceKindCollection, 1)
	_, ok := apperr.IsQuotaExceeded(err)
	require.True(t, ok)

	repo.liveCounts[model.ResourceKindCollection] = 4 // 软删除了一个
	err = svc.CheckAndReserve(context.Background(), nil, tenantID, model.TierFree, model.ResourceKindCollection, 1)
	assert.NoError(t, err)
}

func TestCheckAndReserveUnconfiguredKindIsUnlimited(t *testing.T) {
	repo := newFakeQuotaRepo()
	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindBot, 1)
	assert.NoError(t, err)
	assert.Equal(t, 0, repo.lockCalls, "未配置上限时不应触碰计数器")
}

func TestCheckAndReserveNegativeCeilingIsUnlimited(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierBusiness, model.ResourceKindBot, -1, model.WindowTotal)
	repo.liveCounts[model.ResourceKindBot] = 100000

	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierBusiness, model.ResourceKindBot, 1)
	assert.NoError(t, err)
}

func TestCheckAndReserveMalformedWindow(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindDocument, 100, "fortnight")

	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindDocument, 1)
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "window", ve.Field)
}

func TestCheckAndReserveTokenUsesCounter(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindToken, 1000, model.WindowMonth)
	bucket := time.Now().UTC().Format("2006-01")
	repo.counters[model.ResourceKindToken+"|"+bucket] = 900

	svc := NewQuotaService(repo, time.Hour)
	err := svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindToken, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), repo.counters[model.ResourceKindToken+"|"+bucket])

	err = svc.CheckAndReserve(context.Background(), nil, uuid.New(), model.TierFree, model.ResourceKindToken, 1)
	_, ok := apperr.IsQuotaExceeded(err)
	assert.True(t, ok)
}

func TestCheckSearchQuota(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindVectorSearch, 3, model.WindowDay)
	svc := NewQuotaService(repo, time.Hour)
	tenantID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.CheckSearchQuota(context.Background(), tenantID, model.TierFree))
	}

	err := svc.CheckSearchQuota(context.Background(), tenantID, model.TierFree)
	qe, ok := apperr.IsQuotaExceeded(err)
	require.True(t, ok)
	assert.Equal(t, model.ResourceKindVectorSearch, qe.ResourceKind)
	assert.Equal(t, int64(3), qe.Current)
	assert.Equal(t, int64(3), qe.Ceiling)
	assert.True(t, repo.decrCalled, "被拒的请求必须回滚计数")
	assert.Equal(t, int64(3), repo.searchCount)
}

func TestGetUsageAggregates(t *testing.T) {
	repo := newFakeQuotaRepo()
	repo.addFeature(model.TierFree, model.ResourceKindDocument, 100, model.WindowDay)
	repo.addFeature(model.TierFree, model.ResourceKindCollection, 5, model.WindowTotal)
	repo.addFeature(model.TierFree, model.ResourceKindVectorSearch, 200, model.WindowDay)
	repo.liveCounts[model.ResourceKindDocument] = 42
	repo.liveCounts[model.ResourceKindCollection] = 3
	repo.searchCount = 17

	svc := NewQuotaService(repo, time.Hour)
	usage, err := svc.GetUsage(context.Background(), uuid.New(), model.TierFree)
	require.NoError(t, err)

	assert.Equal(t, model.UsageEntry{Current: 42, Ceiling: 100}, usage[model.ResourceKindDocument])
	assert.Equal(t, model.UsageEntry{Current: 3, Ceiling: 5}, usage[model.ResourceKindCollection])
	assert.Equal(t, model.UsageEntry{Current: 17, Ceiling: 200}, usage[model.ResourceKindVectorSearch])
}

func TestBucketKey(t *testing.T) {
	at := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	key, err := bucketKey(model.WindowTotal, at)
	require.NoError(t, err)
	assert.Equal(t, "total", key)

	key, err = bucketKey(model.WindowDay, at)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29", key)

	key, err = bucketKey(model.WindowMonth, at)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", key)

	_, err = bucketKey("weekly", at)
	assert.Error(t, err)
}
