// Package handler 包含了处理 HTTP 请求的处理器。
package handler

import (
	"errors"
	"net/http"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// respondOK 统一的成功响应结构
func respondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "success",
		"data":    data,
	})
}

// respondError 把领域错误映射为 HTTP 响应：
// 配额超限 429、越权 403、参数错误 400、凭证错误 401、
// 记录不存在 404（跨租户访问在数据层表现为查不到，同样 404，不泄露存在性）
func respondError(c *gin.Context, err error) {
	if quotaErr, ok := apperr.IsQuotaExceeded(err); ok {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    http.StatusTooManyRequests,
			"message": quotaErr.Error(),
			"data": gin.H{
				"resource_kind": quotaErr.ResourceKind,
				"current":       quotaErr.Current,
				"ceiling":       quotaErr.Ceiling,
			},
		})
		return
	}

	if validationErr, ok := apperr.IsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": validationErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, apperr.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{
			"code":    http.StatusForbidden,
			"message": "没有访问权限",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": err.Error(),
		})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"code":    http.StatusNotFound,
			"message": "资源不存在",
		})
	default:
		if partitionErr, ok := apperr.IsPartitionCreateFailed(err); ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": partitionErr.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "服务器内部错误",
		})
	}
}
