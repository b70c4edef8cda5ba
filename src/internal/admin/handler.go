package admin

import (
	"context"
	"net/http"
	"stridehub-webhook-svc/src/internal/cache"
	"stridehub-webhook-svc/src/internal/config"
	"stridehub-webhook-svc/src/internal/queue"
	"stridehub-webhook-svc/src/internal/registry"
	"stridehub-webhook-svc/src/internal/webhook"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	GetQueueStats(c *gin.Context)
	GetIgnoredUsers(c *gin.Context)
	DrainQueue(c *gin.Context)
}

type handler struct {
	config       *config.Configuration
	queueRepo    queue.Repository
	registry     *registry.Registry
	drainer      webhook.DrainRunner
	cacheService cache.Service
}

func NewHandler(cfg *config.Configuration, queueRepo queue.Repository, reg *registry.Registry,
	drainer webhook.DrainRunner, cacheService cache.Service) Handler {
	return &handler{
		config:       cfg,
		queueRepo:    queueRepo,
		registry:     reg,
		drainer:      drainer,
		cacheService: cacheService,
	}
}

func (h *handler) GetQueueStats(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	userID, _ := c.Get("user_id")
	logrus.WithField("admin_user_id", userID).Debug("Admin user accessing queue stats")

	if h.cacheService != nil {
		cached, err := h.cacheService.GetQueueStats(ctx)
		if err == nil && cached != nil {
			c.JSON(http.StatusOK, gin.H{
				"success": true,
				"data":    cached,
				"message": "Queue statistics retrieved successfully (from cache)",
			})
			return
		}
	}

	stats, err := h.queueRepo.Stats(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to get queue statistics")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve queue statistics",
			"message": err.Error(),
		})
		return
	}

	if h.cacheService != nil {
		if err := h.cacheService.SaveQueueStats(ctx, stats); err != nil {
			logrus.WithError(err).Warn("Failed to cache queue stats")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
		"message": "Queue statistics retrieved successfully",
	})
}

func (h *handler) GetIgnoredUsers(c *gin.Context) {
	ids := h.registry.List()

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"users": ids,
			"count": len(ids),
		},
	})
}

func (h *handler) DrainQueue(c *gin.Context) {
	ctx, cancel := h.requestContext(c)
	defer cancel()

	userID, _ := c.Get("user_id")
	logrus.WithField("admin_user_id", userID).Info("Manual queue drain requested")

	summary, err := h.drainer.Run(ctx)
	if err != nil {
		logrus.WithError(err).Error("Manual queue drain failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to drain queue",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    summary,
		"message": "Queue drained successfully",
	})
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), time.Duration(h.config.App.Timeout)*time.Second)
}
