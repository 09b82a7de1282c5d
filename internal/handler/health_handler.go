package handler

import (
	"context"
	"net/http"
	"time"

	"linkai-core-go/pkg/database"
	"linkai-core-go/pkg/kafka"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查端点，探测 Postgres、Redis 与 Kafka 连通性。
type HealthHandler struct{}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Check 返回各依赖的健康状态，任一依赖异常返回 503
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"postgres": "ok", "redis": "ok", "kafka": "ok"}
	healthy := true

	sqlDB, err := database.DB.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		status["postgres"] = "unavailable"
		healthy = false
	}
	if err := database.RDB.Ping(ctx).Err(); err != nil {
		status["redis"] = "unavailable"
		healthy = false
	}
	if err := kafka.Ping(ctx); err != nil {
		status["kafka"] = "unavailable"
		healthy = false
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"code": code, "data": status})
}
