package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/studentdesk/internal/app/models/dto"
)

// HealthCheck reports whether a dependency is reachable
type HealthCheck func(ctx context.Context) error

// HealthController serves liveness and readiness endpoints
type HealthController struct {
	checks map[string]HealthCheck
}

// NewHealthController creates a HealthController over the named checks
func NewHealthController(checks map[string]HealthCheck) *HealthController {
	return &HealthController{checks: checks}
}

// Ping is the liveness probe
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /ping [get]
func (c *HealthController) Ping(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// Health runs every dependency check
// @Summary Readiness probe
// @Description Checks the store and the optional cache
// @Tags health
// @Produce json
// @Success 200 {object} dto.APIResponse "All dependencies reachable"
// @Failure 503 {object} dto.APIResponse "A dependency is down"
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(c.checks))
	for name, check := range c.checks {
		if err := check(checkCtx); err != nil {
			results[name] = "down: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "up"
	}

	resp := dto.NewAPIResponse(results)
	resp.Success = status == http.StatusOK
	ctx.JSON(status, resp)
}
