package handler

import (
	"net/http"
	"strconv"

	"linkai-core-go/internal/model"
	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ResourceHandler 负责集合、文档与机器人的生命周期请求。
type ResourceHandler struct {
	resourceService     service.ResourceService
	conversationService service.ConversationService
}

// NewResourceHandler 创建资源处理器实例
func NewResourceHandler(resourceService service.ResourceService, conversationService service.ConversationService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService, conversationService: conversationService}
}

type createResourceRequest struct {
	Kind string `json:"kind" binding:"required"`

	// 集合 / 机器人 / 会话共用
	Name        string `json:"name"`
	Description string `json:"description"`
	Title       string `json:"title"`

	// 文档
	CollectionID string               `json:"collection_id"`
	Source       string               `json:"source"`
	Author       string               `json:"author"`
	DocumentType string               `json:"document_type"`
	Chunks       []service.ChunkInput `json:"chunks"`

	// 机器人
	LLMModel string `json:"llm_model"`
	IsPublic bool   `json:"is_public"`
}

// CreateResource 统一的资源创建入口，按 kind 分发到各自的创建逻辑
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}

	ctx := c.Request.Context()
	switch req.Kind {
	case model.ResourceKindCollection:
		collection, err := h.resourceService.CreateCollection(ctx, req.Name, req.Description)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"resource_id": collection.CollectionID, "kind": req.Kind})
	case model.ResourceKindDocument:
		collectionID, err := uuid.Parse(req.CollectionID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的集合 ID"})
			return
		}
		doc, err := h.resourceService.CreateDocument(ctx, collectionID, req.Title, req.Source, req.Author, req.DocumentType, req.Chunks)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"resource_id": doc.DocumentID, "kind": req.Kind})
	case model.ResourceKindBot:
		bot, err := h.resourceService.CreateBot(ctx, req.Name, req.LLMModel, req.IsPublic)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"resource_id": bot.BotID, "kind": req.Kind})
	case "conversation":
		conversation, err := h.conversationService.CreateConversation(ctx, req.Title)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"resource_id": conversation.ConversationID, "kind": req.Kind})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "未知的资源种类: " + req.Kind})
	}
}

type createCollectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// CreateCollection 创建知识库集合
func (h *ResourceHandler) CreateCollection(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	collection, err := h.resourceService.CreateCollection(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, collection)
}

// ListCollections 列出当前租户的集合
func (h *ResourceHandler) ListCollections(c *gin.Context) {
	collections, err := h.resourceService.ListCollections(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, collections)
}

type createDocumentRequest struct {
	CollectionID string               `json:"collection_id" binding:"required"`
	Title        string               `json:"title" binding:"required"`
	Source       string               `json:"source"`
	Author       string               `json:"author"`
	DocumentType string               `json:"document_type"`
	Chunks       []service.ChunkInput `json:"chunks"`
}

// CreateDocument 创建文档并写入分块
func (h *ResourceHandler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	collectionID, err := uuid.Parse(req.CollectionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的集合 ID"})
		return
	}
	doc, err := h.resourceService.CreateDocument(c.Request.Context(), collectionID, req.Title, req.Source, req.Author, req.DocumentType, req.Chunks)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, doc)
}

// ListDocuments 分页列出集合内的文档
func (h *ResourceHandler) ListDocuments(c *gin.Context) {
	collectionID, err := uuid.Parse(c.Param("collectionId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的集合 ID"})
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	docs, total, err := h.resourceService.ListDocuments(c.Request.Context(), collectionID, offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"total": total, "items": docs})
}

type createBotRequest struct {
	Name     string `json:"name" binding:"required"`
	LLMModel string `json:"llm_model"`
	IsPublic bool   `json:"is_public"`
}

// CreateBot 创建机器人
func (h *ResourceHandler) CreateBot(c *gin.Context) {
	var req createBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	bot, err := h.resourceService.CreateBot(c.Request.Context(), req.Name, req.LLMModel, req.IsPublic)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bot)
}

// ListMyBots 列出当前用户拥有的机器人
func (h *ResourceHandler) ListMyBots(c *gin.Context) {
	bots, err := h.resourceService.ListMyBots(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bots)
}

type updateBotRequest struct {
	Name     string `json:"name" binding:"required"`
	LLMModel string `json:"llm_model"`
	IsPublic bool   `json:"is_public"`
}

// UpdateBot 更新机器人，授权由数据访问层的所有者谓词兜底
func (h *ResourceHandler) UpdateBot(c *gin.Context) {
	botID, err := uuid.Parse(c.Param("botId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的机器人 ID"})
		return
	}
	var req updateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	bot := &model.Bot{BotID: botID, Name: req.Name, LLMModel: req.LLMModel, IsPublic: req.IsPublic}
	if err := h.resourceService.UpdateBot(c.Request.Context(), bot); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, bot)
}

// DeleteResource 软删除资源，立即释放配额
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	kind := c.Param("kind")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的资源 ID"})
		return
	}
	if err := h.resourceService.DeleteResource(c.Request.Context(), kind, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// RestoreResource 恢复软删除的资源，恢复前重新通过配额检查
func (h *ResourceHandler) RestoreResource(c *gin.Context) {
	kind := c.Param("kind")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的资源 ID"})
		return
	}
	if err := h.resourceService.RestoreResource(c.Request.Context(), kind, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
