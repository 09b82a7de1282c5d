package handler

import (
	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/repository"
	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UsageHandler 负责用量报表与模型目录请求。
type UsageHandler struct {
	quotaService service.QuotaService
	quotaRepo    repository.QuotaRepository
}

// NewUsageHandler 创建用量处理器实例
func NewUsageHandler(quotaService service.QuotaService, quotaRepo repository.QuotaRepository) *UsageHandler {
	return &UsageHandler{quotaService: quotaService, quotaRepo: quotaRepo}
}

// GetUsage 返回当前租户各资源的用量与上限
func (h *UsageHandler) GetUsage(c *gin.Context) {
	p, ok := policy.PrincipalFrom(c.Request.Context())
	if !ok {
		respondError(c, apperr.ErrForbidden)
		return
	}
	usage, err := h.quotaService.GetUsage(c.Request.Context(), p.TenantID, p.Tier)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"tier": p.Tier, "usage": usage})
}

// ListModels 返回当前套餐可用的模型目录
func (h *UsageHandler) ListModels(c *gin.Context) {
	p, ok := policy.PrincipalFrom(c.Request.Context())
	if !ok {
		respondError(c, apperr.ErrForbidden)
		return
	}
	models, err := h.quotaRepo.ListModels(c.Request.Context(), p.Tier)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, models)
}
