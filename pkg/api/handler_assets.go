package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsconductor/core/pkg/models"
)

const defaultAssetSearchLimit = 50

func assetFiltersFromQuery(c *gin.Context) models.AssetFilters {
	return models.AssetFilters{
		OS:          c.Query("os"),
		Hostname:    c.Query("hostname"),
		IP:          c.Query("ip"),
		Status:      c.Query("status"),
		Environment: c.Query("environment"),
		Tag:         c.Query("tag"),
	}
}

// assetsCountHandler handles GET /assets/count (spec §6), a thin
// read-only proxy to the asset façade.
func (s *Server) assetsCountHandler(c *gin.Context) {
	started := time.Now()
	count, err := s.assets.CountAssets(c.Request.Context(), assetFiltersFromQuery(c))
	if err != nil {
		writeError(c, started, http.StatusBadGateway, errCodeUpstreamUnreachable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// assetsSearchHandler handles GET /assets/search.
func (s *Server) assetsSearchHandler(c *gin.Context) {
	started := time.Now()
	limit := defaultAssetSearchLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	assets, err := s.assets.SearchAssets(c.Request.Context(), assetFiltersFromQuery(c), limit)
	if err != nil {
		writeError(c, started, http.StatusBadGateway, errCodeUpstreamUnreachable, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets})
}

// assetsConnectionProfileHandler handles GET /assets/connection-profile?host=.
func (s *Server) assetsConnectionProfileHandler(c *gin.Context) {
	started := time.Now()
	host := c.Query("host")
	if host == "" {
		writeError(c, started, http.StatusBadRequest, errCodeValidation, "host is required")
		return
	}

	profile, err := s.assets.ConnectionProfile(c.Request.Context(), host)
	if err != nil {
		writeError(c, started, http.StatusBadGateway, errCodeUpstreamUnreachable, err.Error())
		return
	}
	c.JSON(http.StatusOK, profile)
}
