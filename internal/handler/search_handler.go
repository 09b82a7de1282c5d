package handler

import (
	"net/http"
	"strconv"

	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SearchHandler 负责向量近邻与文本模糊检索请求。
type SearchHandler struct {
	searchService service.SearchService
}

// NewSearchHandler 创建检索处理器实例
func NewSearchHandler(searchService service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

type similaritySearchRequest struct {
	Embedding    []float32 `json:"embedding" binding:"required"`
	CollectionID string    `json:"collection_id"`
	Limit        int       `json:"limit"`
}

// SimilaritySearch 向量近邻检索，计入当日检索配额
func (h *SearchHandler) SimilaritySearch(c *gin.Context) {
	var req similaritySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	var collectionID *uuid.UUID
	if req.CollectionID != "" {
		id, err := uuid.Parse(req.CollectionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的集合 ID"})
			return
		}
		collectionID = &id
	}
	matches, err := h.searchService.SimilaritySearch(c.Request.Context(), req.Embedding, collectionID, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, matches)
}

type messageSearchRequest struct {
	Embedding      []float32 `json:"embedding" binding:"required"`
	ConversationID string    `json:"conversation_id"`
	Limit          int       `json:"limit"`
}

// MessageSearch 会话历史的语义检索，与分块检索共享配额
func (h *SearchHandler) MessageSearch(c *gin.Context) {
	var req messageSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	var conversationID *uuid.UUID
	if req.ConversationID != "" {
		id, err := uuid.Parse(req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的会话 ID"})
			return
		}
		conversationID = &id
	}
	matches, err := h.searchService.MessageSearch(c.Request.Context(), req.Embedding, conversationID, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, matches)
}

// TextSearch 模糊检索，scope 可选 documents/chunks/users
func (h *SearchHandler) TextSearch(c *gin.Context) {
	query := c.Query("q")
	scope := c.DefaultQuery("scope", "documents")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	results, err := h.searchService.TextSearch(c.Request.Context(), query, scope, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, results)
}
