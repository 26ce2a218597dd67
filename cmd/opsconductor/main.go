// OpsConductor orchestrator server - provides the HTTP API that drives the
// A/AB/C/D/E pipeline and the Asset-Intelligent Executor.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/opsconductor/core/pkg/api"
	"github.com/opsconductor/core/pkg/asset"
	"github.com/opsconductor/core/pkg/classifier"
	"github.com/opsconductor/core/pkg/config"
	"github.com/opsconductor/core/pkg/database"
	"github.com/opsconductor/core/pkg/dispatcher"
	"github.com/opsconductor/core/pkg/embedding"
	"github.com/opsconductor/core/pkg/llmoracle"
	"github.com/opsconductor/core/pkg/observability"
	"github.com/opsconductor/core/pkg/planner"
	"github.com/opsconductor/core/pkg/responder"
	"github.com/opsconductor/core/pkg/secrets"
	"github.com/opsconductor/core/pkg/selector"
	"github.com/opsconductor/core/pkg/toolindex"
	"github.com/opsconductor/core/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("warning: could not load %s: %v", envPath, err)
		log.Printf("continuing with existing environment variables")
	} else {
		log.Printf("loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "8080")

	log.Printf("starting opsconductor")
	log.Printf("http port: %s", httpPort)
	log.Printf("config directory: %s", *configDir)
	log.Printf("version: %s", version.Full())

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("failed to initialize configuration: %v", err)
	}

	dbConfig, err := database.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("failed to load database config: %v", err)
	}

	dbClient, err := database.NewClient(ctx, dbConfig)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to PostgreSQL and applied migrations")

	oracle, err := newOracle()
	if err != nil {
		log.Fatalf("failed to initialize LLM oracle: %v", err)
	}

	store := toolindex.NewStore(dbClient.Pool)
	embedder := embedding.NewService()
	assets := asset.NewClient(cfg.Collaborators.Asset.URL, 10*time.Second)

	broker, err := secrets.NewBroker(dbClient.Pool, cfg.Secrets.KMSKey, cfg.Secrets.InternalKey)
	if err != nil {
		log.Fatalf("failed to initialize secrets broker: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Selector.RedisAddr})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	log.Printf("connected to redis at %s", cfg.Selector.RedisAddr)

	classifierSvc := classifier.New(oracle)
	selectorSvc := selector.New(store, embedder, assets, oracle, cfg.Selector, cfg.LLMBudget)
	plannerSvc := planner.New(store, oracle)
	responderSvc := responder.New(oracle)
	dispatcherSvc := dispatcher.New(broker, assets, cfg.Collaborators, time.Duration(cfg.Exec.TimeoutMS)*time.Millisecond, cfg.Secrets.InternalKey)

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	server := api.NewServer(api.Deps{
		Config:     cfg,
		DB:         dbClient,
		Store:      store,
		Assets:     assets,
		Secrets:    broker,
		Classifier: classifierSvc,
		Selector:   selectorSvc,
		Planner:    plannerSvc,
		Responder:  responderSvc,
		Dispatcher: dispatcherSvc,
		Embedder:   embedder,
		Metrics:    metrics,
		Redis:      redisClient,
	})

	addr := ":" + httpPort
	log.Printf("http server listening on %s", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
	case err := <-errCh:
		log.Printf("http server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("error during server shutdown: %v", err)
	}
	log.Println("shutdown complete")
}

// newOracle constructs the Anthropic-backed LLM client every stage shares
// (DESIGN.md's Open Question decision #1: one provider/model for
// classification, selection tie-break, planning, and response). Reading
// ANTHROPIC_API_KEY/LLM_MODEL directly here rather than through pkg/config
// keeps the closed env-var list spec §6 enumerates free of credential
// material.
func newOracle() (llmoracle.Client, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	model := getEnv("LLM_MODEL", "claude-sonnet-4-5")
	return llmoracle.NewAnthropicClient(apiKey, model)
}
