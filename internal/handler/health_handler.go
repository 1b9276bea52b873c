package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/werewolfcoder/OrderingSystem/pkg/logger"
	"github.com/werewolfcoder/OrderingSystem/pkg/response"
)

// CheckFunc reports whether a dependency is reachable
type CheckFunc func(ctx context.Context) error

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	service string
	checks  map[string]CheckFunc
	stats   map[string]func() int
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. checks are run by /ready.
func NewHealthHandler(service string, checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{
		service: service,
		checks:  checks,
		stats:   make(map[string]func() int),
		timeout: 2 * time.Second,
	}
}

// WithStat adds a number reported by a successful /ready
func (h *HealthHandler) WithStat(name string, fn func() int) *HealthHandler {
	h.stats[name] = fn
	return h
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(gin.H{"status": "ok", "service": h.service}))
}

// Ready GET /ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	details := make(map[string]string, len(names))
	ready := true
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.Get().WithContext(ctx).Warn("readiness check failed", zap.String("check", name), zap.Error(err))
			details[name] = "unavailable"
			ready = false
			continue
		}
		details[name] = "ok"
	}

	if !ready {
		response.Abort(c, response.ErrorWithDetails(response.ErrCodeServiceUnavailable, "Service not ready", details))
		return
	}
	stats := make(map[string]int, len(h.stats))
	for name, fn := range h.stats {
		stats[name] = fn()
	}
	c.JSON(http.StatusOK, response.Success(gin.H{"status": "ready", "checks": details, "stats": stats}))
}
