package handler

import (
	"net/http"
	"strconv"

	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConversationHandler 负责会话与消息请求。
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建会话处理器实例
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

// CreateConversation 创建新会话
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	conversation, err := h.conversationService.CreateConversation(c.Request.Context(), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, conversation)
}

// ListConversations 按最近活跃时间列出当前用户的会话
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	conversations, total, err := h.conversationService.ListConversations(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"total": total, "items": conversations})
}

type appendMessageRequest struct {
	Role       string    `json:"role" binding:"required"`
	Content    string    `json:"content" binding:"required"`
	TokenCount int64     `json:"token_count"`
	Embedding  []float32 `json:"embedding"`
}

// AppendMessage 向会话追加消息
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的会话 ID"})
		return
	}
	var req appendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	message, err := h.conversationService.AppendMessage(c.Request.Context(), conversationID, req.Role, req.Content, req.TokenCount, req.Embedding)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, message)
}

// ListMessages 按时间顺序列出会话内的消息
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的会话 ID"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	messages, err := h.conversationService.ListMessages(c.Request.Context(), conversationID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, messages)
}

// DeleteConversation 软删除会话
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的会话 ID"})
		return
	}
	if err := h.conversationService.DeleteConversation(c.Request.Context(), conversationID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
