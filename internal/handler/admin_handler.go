package handler

import (
	"net/http"
	"strconv"

	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler 负责管理端请求，路由上必须挂载管理员中间件。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建管理处理器实例
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 跨租户分页列出用户
func (h *AdminHandler) ListUsers(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	users, total, err := h.adminService.ListUsers(c.Request.Context(), offset, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"total": total, "items": users})
}

// TenantUsage 查看任意租户的用量报表
func (h *AdminHandler) TenantUsage(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的租户 ID"})
		return
	}
	report, err := h.adminService.TenantUsage(c.Request.Context(), tenantID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report)
}

type setTierFeatureRequest struct {
	Tier         string `json:"tier" binding:"required"`
	ResourceKind string `json:"resource_kind" binding:"required"`
	Ceiling      int64  `json:"ceiling"`
	Window       string `json:"window" binding:"required"`
}

// SetTierFeature 调整套餐上限，写入即生效
func (h *AdminHandler) SetTierFeature(c *gin.Context) {
	var req setTierFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	if err := h.adminService.SetTierFeature(c.Request.Context(), req.Tier, req.ResourceKind, req.Ceiling, req.Window); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

type setTenantTierRequest struct {
	Tier string `json:"tier" binding:"required"`
}

// SetTenantTier 切换租户套餐
func (h *AdminHandler) SetTenantTier(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的租户 ID"})
		return
	}
	var req setTenantTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	if err := h.adminService.SetTenantTier(c.Request.Context(), tenantID, req.Tier); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// SuspendTenant 停用租户，停用后租户只读
func (h *AdminHandler) SuspendTenant(c *gin.Context) {
	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的租户 ID"})
		return
	}
	if err := h.adminService.SuspendTenant(c.Request.Context(), tenantID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// PolicyVersion 查看当前生效的访问规则集版本
func (h *AdminHandler) PolicyVersion(c *gin.Context) {
	respondOK(c, gin.H{"version": h.adminService.PolicyVersion(c.Request.Context())})
}
