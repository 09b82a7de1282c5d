package handler

import (
	"net/http"
	"time"

	"linkai-core-go/internal/apperr"
	"linkai-core-go/internal/policy"
	"linkai-core-go/internal/service"

	"github.com/gin-gonic/gin"
)

// EventHandler 负责分析事件的同步上报。
// 异步路径走 Kafka 消费者，两条路径共用同一套分区保障。
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler 创建事件处理器实例
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type recordEventRequest struct {
	Table      string                 `json:"table" binding:"required"`
	EventType  string                 `json:"event_type" binding:"required"`
	OccurredAt *time.Time             `json:"occurred_at"`
	Payload    map[string]interface{} `json:"payload"`
}

// RecordEvent 记录一条分析事件。
// occurred_at 可以是过去的时间，补录事件会落进对应的历史分区。
func (h *EventHandler) RecordEvent(c *gin.Context) {
	var req recordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "无效的请求参数: " + err.Error()})
		return
	}
	p, ok := policy.PrincipalFrom(c.Request.Context())
	if !ok {
		respondError(c, apperr.ErrForbidden)
		return
	}
	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}
	if err := h.eventService.Record(c.Request.Context(), p.TenantID, req.Table, req.EventType, occurredAt, req.Payload); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}
