// Package api implements the ingress HTTP surface spec §6 names: the
// public AI execution/selector/asset endpoints, the internal-only secrets
// routes, and the health/metrics endpoints.
package api

import (
	"context"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/classifier"
	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/database"
	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/embedding"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/opsconductor/core/pkg/planner"
	"github.com/opsconductor/core/pkg/responder"
	"github.com/opsconductor/core/pkg/secrets"
	"github.com/opsconductor/core/pkg/selector"
	"github.com/opsconductor/core/pkg/toolindex"
)

// Server is the HTTP API server.
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server

	cfg *config.Config
	db  *database.Client

	store         toolindex.Store
	assets        asset.Client
	secretsBroker secrets.Broker
	classifier    classifier.Classifier
	selector      selector.Selector
	planner       planner.Planner
	responder     responder.Responder
	dispatcher    dispatcher.Dispatcher
	embedder      embedding.Service
	metrics       *observability.Metrics

	searchCache *searchCache
}

// Deps bundles every collaborator NewServer wires into request handlers.
type Deps struct {
	Config     *config.Config
	DB         *database.Client
	Store      toolindex.Store
	Assets     asset.Client
	Secrets    secrets.Broker
	Classifier classifier.Classifier
	Selector   selector.Selector
	Planner    planner.Planner
	Responder  responder.Responder
	Dispatcher dispatcher.Dispatcher
	Embedder   embedding.Service
	Metrics    *observability.Metrics
	Redis      *redis.Client
}

// NewServer constructs the API server and registers every route.
func NewServer(d Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	s := &Server{
		engine:        engine,
		cfg:           d.Config,
		db:            d.DB,
		store:         d.Store,
		assets:        d.Assets,
		secretsBroker: d.Secrets,
		classifier:    d.Classifier,
		selector:      d.Selector,
		planner:       d.Planner,
		responder:     d.Responder,
		dispatcher:    d.Dispatcher,
		embedder:      d.Embedder,
		metrics:       d.Metrics,
		searchCache:   newSearchCache(d.Redis, d.Config.Selector.CacheTTL, d.Config.Selector.CacheMaxEntries),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.Use(gin.Recovery())
	s.engine.Use(securityHeaders())
	s.engine.Use(observability.TraceMiddleware())
	s.engine.MaxMultipartMemory = 2 << 20

	s.engine.GET("/health", s.healthHandler)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/ai/execute", s.executeHandler)
	s.engine.POST("/ai/tools/execute", s.toolExecuteHandler)
	s.engine.GET("/ai/tools/list", s.toolListHandler)

	s.engine.GET("/api/selector/search", s.selectorSearchHandler)

	s.engine.GET("/assets/count", s.assetsCountHandler)
	s.engine.GET("/assets/search", s.assetsSearchHandler)
	s.engine.GET("/assets/connection-profile", s.assetsConnectionProfileHandler)

	internal := s.engine.Group("/internal", internalOnly(s.cfg.Secrets.InternalKey))
	internal.POST("/secrets/credential-upsert", s.credentialUpsertHandler)
	internal.POST("/secrets/credential-lookup", s.credentialLookupHandler)
	internal.POST("/secrets/credential-delete", s.credentialDeleteHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{Addr: addr, Handler: s.engine}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.engine}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// bypassActive reports whether the request should take the deterministic
// echo path rather than the full pipeline (spec §4.11).
func (s *Server) bypassActive() bool {
	return s.cfg.Features.BypassLLM
}
