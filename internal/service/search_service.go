package service

import (
	"context"
	"fmt"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/config"
	"linkai-core-go/internal/model"
	"linkai-core-go/internal/repository"
	"linkai-core-go/pkg/log"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// SearchService 检索接口：向量近邻与文本模糊两条只读路径。
// 检索不改动业务数据，但向量检索计入配额并产生分析事件。
type SearchService interface {
	SimilaritySearch(ctx context.Context, embedding []float32, collectionID *uuid.UUID, limit int) ([]repository.ChunkMatch, error)
	MessageSearch(ctx context.Context, embedding []float32, conversationID *uuid.UUID, limit int) ([]repository.MessageMatch, error)
	TextSearch(ctx context.Context, query, scope string, limit int) (interface{}, error)
}

type searchService struct {
	searchRepo   repository.SearchRepository
	quotaService QuotaService
	eventService EventService
}

// NewSearchService 创建检索服务实例
func NewSearchService(searchRepo repository.SearchRepository, quotaService QuotaService, eventService EventService) SearchService {
	return &searchService{searchRepo: searchRepo, quotaService: quotaService, eventService: eventService}
}

// SimilaritySearch 向量近邻检索：
// 1. 校验向量维度
// 2. 扣减当日检索配额，超限直接拒绝
// 3. 执行检索并记录向量分析事件
func (s *searchService) SimilaritySearch(ctx context.Context, embedding []float32, collectionID *uuid.UUID, limit int) ([]repository.ChunkMatch, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return nil, err
	}
	dims := config.Conf.Index.EmbeddingDimensions
	if len(embedding) != dims {
		return nil, &apperr.ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("向量维度 %d 与配置的 %d 不一致", len(embedding), dims),
		}
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if err := s.quotaService.CheckSearchQuota(ctx, p.TenantID, p.Tier); err != nil {
		return nil, err
	}

	start := time.Now()
	matches, err := s.searchRepo.SimilarChunks(ctx, pgvector.NewVector(embedding), collectionID, limit, config.Conf.Index.SimilarityThreshold)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"result_count": len(matches),
		"latency_ms":   time.Since(start).Milliseconds(),
	}
	if collectionID != nil {
		payload["collection_id"] = collectionID.String()
	}
	if err := s.eventService.Record(ctx, p.TenantID, model.TableVectorAnalytics, "similarity_search", time.Now().UTC(), payload); err != nil {
		// 事件落库失败不影响检索结果
		log.Errorw("记录检索事件失败", "tenant_id", p.TenantID, "err", err)
	}
	return matches, nil
}

// MessageSearch 会话历史的语义检索，与分块检索共享当日向量检索配额
func (s *searchService) MessageSearch(ctx context.Context, embedding []float32, conversationID *uuid.UUID, limit int) ([]repository.MessageMatch, error) {
	p, err := principalOf(ctx)
	if err != nil {
		return nil, err
	}
	dims := config.Conf.Index.EmbeddingDimensions
	if len(embedding) != dims {
		return nil, &apperr.ValidationError{
			Field:  "embedding",
			Reason: fmt.Sprintf("向量维度 %d 与配置的 %d 不一致", len(embedding), dims),
		}
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	if err := s.quotaService.CheckSearchQuota(ctx, p.TenantID, p.Tier); err != nil {
		return nil, err
	}

	start := time.Now()
	matches, err := s.searchRepo.SimilarMessages(ctx, pgvector.NewVector(embedding), conversationID, limit)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"result_count": len(matches),
		"latency_ms":   time.Since(start).Milliseconds(),
	}
	if conversationID != nil {
		payload["conversation_id"] = conversationID.String()
	}
	if err := s.eventService.Record(ctx, p.TenantID, model.TableVectorAnalytics, "message_search", time.Now().UTC(), payload); err != nil {
		log.Errorw("记录检索事件失败", "tenant_id", p.TenantID, "err", err)
	}
	return matches, nil
}

// TextSearch 基于 trigram 的模糊检索，按范围检索文档标题、分块内容或用户名，
// 不计入向量检索配额
func (s *searchService) TextSearch(ctx context.Context, query, scope string, limit int) (interface{}, error) {
	if _, err := principalOf(ctx); err != nil {
		return nil, err
	}
	if query == "" {
		return nil, &apperr.ValidationError{Field: "query", Reason: "检索词不能为空"}
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	switch scope {
	case "", "documents":
		return s.searchRepo.TextSearchDocuments(ctx, query, limit)
	case "chunks":
		return s.searchRepo.TextSearchChunks(ctx, query, limit)
	case "users":
		return s.searchRepo.TextSearchUsers(ctx, query, limit)
	default:
		return nil, &apperr.ValidationError{Field: "scope", Reason: fmt.Sprintf("不支持的检索范围 %q", scope)}
	}
}
