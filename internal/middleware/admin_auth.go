package middleware

import (
	"net/http"

	"linkai-core-go/internal/model"
	"linkai-core-go/internal/policy"
	"linkai-core-go/pkg/log"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware 管理员中间件，必须挂在 AuthMiddleware 之后。
// 只有 ADMIN 角色能通过，并在此处授予跨租户旁路；
// 每次授予都会记录审计日志，旁路不会出现在任何其它路径上。
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(CtxPrincipalKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未认证"})
			c.Abort()
			return
		}
		principal, ok := value.(policy.Principal)
		if !ok || principal.Role != model.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"code": http.StatusForbidden, "message": "权限不足"})
			c.Abort()
			return
		}

		log.Infow("授予管理员跨租户旁路",
			"user_id", principal.UserID,
			"tenant_id", principal.TenantID,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.Request = c.Request.WithContext(policy.WithAdminBypass(c.Request.Context()))
		c.Next()
	}
}
