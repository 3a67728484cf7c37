package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"chronos-reconciler/internal/domain/repository"
	"chronos-reconciler/internal/infrastructure/config"
	"chronos-reconciler/internal/infrastructure/oauth"
	"chronos-reconciler/internal/infrastructure/persistence"
	storeRepo "chronos-reconciler/internal/interface/repository"
	"chronos-reconciler/internal/usecase"
	"chronos-reconciler/pkg/logger"
	"chronos-reconciler/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
)

// storeTimeout bounds a single PostgREST request, retries included
const storeTimeout = 30 * time.Second

// store is everything the usecases need from the data store
type store interface {
	repository.DirectoryRepository
	repository.MeetingRepository
	repository.TokenRepository
}

// app holds the wired services shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.ZapLogger
	registry *prometheus.Registry

	store       store
	runs        repository.RunLogRepository
	reconciler  *usecase.ReconciliationService
	executor    *usecase.UpdateExecutor
	zoomOAuth   *oauth.ZoomOAuth
	mongoClient *mongo.Client
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	log := logger.NewLogger(level)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(cfg.MetricsNamespace, registry)

	a := &app{cfg: cfg, log: log, registry: registry}

	// Set up the data store
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required when STORE_DRIVER=%s", config.StoreDriverPostgres)
		}
		log.Info("Connecting to PostgreSQL")
		db, err := persistence.NewPostgresDB(cfg.PostgresDSN, cfg.UpdateConcurrency*2)
		if err != nil {
			return nil, err
		}
		a.store = storeRepo.NewGormStore(db)
	default:
		if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
			return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required when STORE_DRIVER=%s", config.StoreDriverPostgREST)
		}
		a.store = storeRepo.NewPostgRESTStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StoreRetryMax, storeTimeout, log)
	}

	// Set up the run log
	a.runs = storeRepo.NopRunLogRepository{}
	if cfg.MongoURI != "" {
		log.Info("Connecting to MongoDB")
		client, db, err := persistence.NewMongoClient(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoUser, cfg.MongoPassword)
		if err != nil {
			return nil, err
		}
		a.mongoClient = client

		runs, err := storeRepo.NewMongoRunLogRepository(ctx, db)
		if err != nil {
			a.close()
			return nil, err
		}
		a.runs = runs
	}

	httpClient := &http.Client{Timeout: cfg.RemoteCallTimeout}

	a.zoomOAuth = oauth.NewZoomOAuth(
		cfg.ZoomClientID,
		cfg.ZoomClientSecret,
		cfg.ZoomAuthURL,
		cfg.ZoomTokenURL,
		cfg.ZoomRedirectURL,
		httpClient,
		log,
	)
	var refresher usecase.CredentialRefresher
	if a.zoomOAuth.Configured() {
		refresher = a.zoomOAuth
	} else {
		log.Warn("Zoom OAuth client is not configured, expired tokens cannot be refreshed")
	}

	credentials := usecase.NewCredentialManager(a.store, refresher, m, log)
	zoomClient := storeRepo.NewZoomClient(cfg.ZoomAPIBaseURL, httpClient, storeRepo.ExpiryCodes(cfg.ZoomExpiryCodes...), log)

	a.executor = usecase.NewUpdateExecutor(zoomClient, a.store, credentials, a.runs, m, log, usecase.ExecutorConfig{
		Concurrency: cfg.UpdateConcurrency,
		CallTimeout: cfg.RemoteCallTimeout,
		BatchSize:   cfg.UpsertBatchSize,
		RateLimit:   cfg.ZoomRateLimit,
	})
	a.reconciler = usecase.NewReconciliationService(a.store, a.runs, m, log, usecase.WithPageSize(cfg.StorePageSize))

	return a, nil
}

func (a *app) close() {
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.log.Error("MongoDB disconnect error", "error", err)
		}
	}
	a.log.Sync()
}
