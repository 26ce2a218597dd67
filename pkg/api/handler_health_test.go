package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/database"
	"github.com/opsconductor/core/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newHealthTestPool starts a real PostgreSQL container so healthHandler's
// database.Health call has a live pool to ping, mirroring pkg/database's
// own container-backed test style rather than faking pgxpool.Pool (which
// has no exported interface to fake against).
func newHealthTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("opsconductor_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/opsconductor_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

// newTestRedis starts an in-process miniredis instance so the search cache
// exercises a real go-redis client without requiring a container, the same
// tradeoff the deduplication Redis-failure tests in the retrieval pack make
// for fast unit coverage.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestServer(t *testing.T, pool *pgxpool.Pool) (*Server, *fakeStore, *fakeAssetClient) {
	store := newFakeStore()
	assets := &fakeAssetClient{profiles: map[string]models.ConnectionProfile{}}
	selCfg := config.DefaultSelectorConfig()
	s := &Server{
		cfg:         &config.Config{Selector: selCfg, Exec: config.DefaultExecConfig(), Secrets: config.SecretsConfig{InternalKey: "internal-test-key"}},
		db:          &database.Client{Pool: pool},
		store:       store,
		assets:      assets,
		searchCache: newSearchCache(newTestRedis(t), selCfg.CacheTTL, selCfg.CacheMaxEntries),
	}
	return s, store, assets
}

func TestHealthHandler_Healthy(t *testing.T) {
	pool := newHealthTestPool(t)
	s, _, _ := newTestServer(t, pool)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	s.healthHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "healthy", resp.Checks["database"].Status)
	assert.Equal(t, "healthy", resp.Checks["assets"].Status)
}

func TestHealthHandler_DegradesOnAssetError(t *testing.T) {
	pool := newHealthTestPool(t)
	s, _, assets := newTestServer(t, pool)
	assets.countErr = assert.AnError

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	s.healthHandler(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "degraded", resp.Checks["assets"].Status)
}

func TestHealthHandler_BypassReportsLLMBypassed(t *testing.T) {
	pool := newHealthTestPool(t)
	s, _, _ := newTestServer(t, pool)
	s.cfg.Features.BypassLLM = true

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	s.healthHandler(c)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bypassed", resp.Checks["llm_oracle"].Status)
}
