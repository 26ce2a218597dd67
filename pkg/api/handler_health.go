package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsconductor/core/pkg/database"
	"github.com/opsconductor/core/pkg/version"
)

const healthCheckTimeout = 2 * time.Second

// healthHandler handles GET /health (spec §6): overall service status plus
// one entry each for the database, the asset façade and the LLM oracle. The
// database check is load-bearing (its failure flips overall status to
// unhealthy); an asset façade failure only degrades status. The LLM oracle
// entry is not probed: it reads "bypassed" when FEATURE_BYPASS_LLM is set and
// "healthy" otherwise. The secrets broker is not checked.
func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]HealthCheck{}
	overall := "healthy"

	dbStatus, err := database.Health(ctx, s.db.Pool)
	if err != nil {
		checks["database"] = HealthCheck{Status: "unhealthy", Message: err.Error()}
		overall = "unhealthy"
	} else {
		checks["database"] = HealthCheck{Status: dbStatus.Status}
	}

	if _, err := s.assets.CountAssets(ctx, assetFiltersFromQuery(c)); err != nil {
		checks["assets"] = HealthCheck{Status: "degraded", Message: err.Error()}
		if overall == "healthy" {
			overall = "degraded"
		}
	} else {
		checks["assets"] = HealthCheck{Status: "healthy"}
	}

	if s.cfg.Features.BypassLLM {
		checks["llm_oracle"] = HealthCheck{Status: "bypassed", Message: "FEATURE_BYPASS_LLM active"}
	} else {
		checks["llm_oracle"] = HealthCheck{Status: "healthy"}
	}

	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, HealthResponse{
		Status:  overall,
		Version: version.Full(),
		Checks:  checks,
	})
}
