// Package middleware 包含了 Gin 框架的中间件。
package middleware

import (
	"net/http"
	"strings"

	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/service"
	"linkai-core-go/pkg/database"
	"linkai-core-go/pkg/token"

	"github.com/gin-gonic/gin"
)

// 上下文键常量。
const (
	CtxPrincipalKey   = "principal"
	CtxAccessTokenKey = "access_token"
)

// AuthMiddleware 认证中间件：
//  1. 校验 Bearer 令牌与 Redis 黑名单
//  2. 实时解析租户套餐（令牌不带套餐，变更即时生效）
//  3. 把请求主体同时写入 gin 上下文与 request context，
//     后者供数据访问层的行级授权使用
func AuthMiddleware(jwtManager *token.JWTManager, userService service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "请求未携带 token"})
			c.Abort()
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "token 格式错误"})
			c.Abort()
			return
		}
		tokenString := parts[1]

		claims, err := jwtManager.VerifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token"})
			c.Abort()
			return
		}

		// 已登出的令牌在黑名单中
		exists, err := database.RDB.Exists(c.Request.Context(), "jwt:blacklist:"+tokenString).Result()
		if err == nil && exists > 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "token 已失效"})
			c.Abort()
			return
		}

		tier, err := userService.ResolveTier(c.Request.Context(), claims.TenantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"code": http.StatusInternalServerError, "message": "解析租户套餐失败"})
			c.Abort()
			return
		}

		principal := policy.Principal{
			UserID:   claims.UserID,
			TenantID: claims.TenantID,
			Role:     claims.Role,
			Tier:     tier,
		}
		c.Set(CtxPrincipalKey, principal)
		c.Set(CtxAccessTokenKey, tokenString)
		c.Request = c.Request.WithContext(policy.WithPrincipal(c.Request.Context(), principal))
		c.Next()
	}
}

// PublicAccess 公开端点中间件：注入匿名主体，
// 使数据访问层放行公共读表，同时继续拦截严格隔离表
func PublicAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(policy.WithPrincipal(c.Request.Context(), policy.Principal{}))
		c.Next()
	}
}
