package router

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"graphsink/internal/app"
	"graphsink/internal/dlq"
	"graphsink/internal/domain"
)

// SinkService 是 HTTP 层依赖的服务接口，由 app.Service 实现。
type SinkService interface {
	Enqueue(entities ...domain.Entity) error
	Flush(ctx context.Context) (app.Report, error)
	Translate(entities []domain.Entity) (domain.IngestionEvent, error)
	DeadLetters(limit int) ([]dlq.Record, error)
	PurgeDeadLetters() error
	Stats() app.Stats
}

// SinkHandler 处理写入、预览、flush 与死信查询。
type SinkHandler struct {
	svc    SinkService
	logger *zap.Logger
}

// NewSinkHandler 构建一个新的 SinkHandler。
func NewSinkHandler(svc SinkService, logger *zap.Logger) *SinkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SinkHandler{svc: svc, logger: logger}
}

const defaultDLQLimit = 100

// RegisterRoutes 将路由注册到给定的路由组。
func (h *SinkHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/events", h.handleEnqueue)
	rg.POST("/translate", h.handleTranslate)
	rg.POST("/flush", h.handleFlush)
	rg.GET("/dlq", h.handleDLQ)
	rg.DELETE("/dlq", h.handlePurge)
	rg.GET("/stats", h.handleStats)
}

func (h *SinkHandler) bindEntities(c *gin.Context) ([]domain.Entity, bool) {
	entities, err := domain.DecodeEntities(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return nil, false
	}
	if len(entities) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entities payload is empty"})
		return nil, false
	}
	return entities, true
}

func (h *SinkHandler) handleEnqueue(c *gin.Context) {
	entities, ok := h.bindEntities(c)
	if !ok {
		return
	}
	if err := h.svc.Enqueue(entities...); err != nil {
		if errors.Is(err, app.ErrBufferFull) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("enqueue failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(entities), "pending": h.svc.Stats().Pending})
}

func (h *SinkHandler) handleTranslate(c *gin.Context) {
	entities, ok := h.bindEntities(c)
	if !ok {
		return
	}
	result, err := h.svc.Translate(entities)
	if err != nil {
		h.logger.Error("translate failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *SinkHandler) handleFlush(c *gin.Context) {
	report, err := h.svc.Flush(c.Request.Context())
	if err != nil {
		h.logger.Error("flush failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "report": report})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *SinkHandler) handleDLQ(c *gin.Context) {
	limit := defaultDLQLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	records, err := h.svc.DeadLetters(limit)
	if err != nil {
		h.logger.Error("list dead letters failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (h *SinkHandler) handlePurge(c *gin.Context) {
	if err := h.svc.PurgeDeadLetters(); err != nil {
		h.logger.Error("purge dead letters failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("dead letters purged")
	c.Status(http.StatusNoContent)
}

func (h *SinkHandler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}
