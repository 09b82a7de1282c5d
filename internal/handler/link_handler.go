package handler

import (
	"net/http"
	"strconv"

	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LinkHandler 负责主页与链接的管理请求。
type LinkHandler struct {
	linkService service.LinkService
}

// NewLinkHandler 创建链接处理器实例
func NewLinkHandler(linkService service.LinkService) *LinkHandler {
	return &LinkHandler{linkService: linkService}
}

type upsertProfileRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatar_url"`
}

// UpsertProfile 创建或更新当前用户的主页
func (h *LinkHandler) UpsertProfile(c *gin.Context) {
	var req upsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	profile, err := h.linkService.UpsertProfile(c.Request.Context(), req.DisplayName, req.Bio, req.AvatarURL)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

type linkRequest struct {
	Title    string `json:"title" binding:"required"`
	URL      string `json:"url" binding:"required"`
	Position int    `json:"position"`
}

// CreateLink 在主页上添加链接
func (h *LinkHandler) CreateLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	link, err := h.linkService.CreateLink(c.Request.Context(), req.Title, req.URL, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, link)
}

// UpdateLink 更新链接，所有者校验由数据访问层兜底
func (h *LinkHandler) UpdateLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的链接 ID"})
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	link, err := h.linkService.UpdateLink(c.Request.Context(), linkID, req.Title, req.URL, req.Position)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, link)
}

// DeleteLink 删除链接
func (h *LinkHandler) DeleteLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的链接 ID"})
		return
	}
	if err := h.linkService.DeleteLink(c.Request.Context(), linkID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// PublicHandler 负责无需登录的公开读取端点。
type PublicHandler struct {
	linkService     service.LinkService
	resourceService service.ResourceService
}

// NewPublicHandler 创建公开端点处理器实例
func NewPublicHandler(linkService service.LinkService, resourceService service.ResourceService) *PublicHandler {
	return &PublicHandler{linkService: linkService, resourceService: resourceService}
}

// GetProfile 公开主页视图：主页信息加有序链接
func (h *PublicHandler) GetProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的用户 ID"})
		return
	}
	profile, err := h.linkService.GetPublicProfile(c.Request.Context(), uint(userID))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, profile)
}

// ListPublicBots 列出全部公开的机器人
func (h *PublicHandler) ListPublicBots(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	bots, total, err := h.resourceService.ListPublicBots(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"total": total, "items": bots})
}
