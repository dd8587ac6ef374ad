package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizgen/internal/cache"
	"github.com/stemsi/quizgen/internal/llm"
	"github.com/stemsi/quizgen/internal/response"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	llmClient *llm.Client
	store     cache.Store
	version   string
}

// NewHealthHandler creates a new HealthHandler. store may be nil when the
// cache is disabled.
func NewHealthHandler(llmClient *llm.Client, store cache.Store, version string) *HealthHandler {
	return &HealthHandler{llmClient: llmClient, store: store, version: version}
}

// Health godoc
// GET /health
// Basic liveness plus version info, no dependency probing.
func (h *HealthHandler) Health(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// Live godoc
// GET /health/live
// Process liveness only.
func (h *HealthHandler) Live(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"status": "alive"})
}

// Ready godoc
// GET /health/ready
// Probes the model backend and the cache. A missing or unreachable cache
// degrades the status instead of failing the probe, generation still works
// without it.
func (h *HealthHandler) Ready(c *gin.Context) {
	llmStatus := h.llmClient.CheckHealth(c.Request.Context())

	cacheHealthy := false
	if h.store != nil {
		cacheHealthy = h.store.Ping(c.Request.Context())
	}

	status := "healthy"
	code := http.StatusOK
	switch {
	case !llmStatus.Healthy || !llmStatus.ModelAvailable:
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	case !cacheHealthy:
		status = "degraded"
	}

	response.Success(c, code, gin.H{
		"status": status,
		"llm":    llmStatus,
		"cache": gin.H{
			"enabled": h.store != nil,
			"healthy": cacheHealthy,
		},
	})
}
