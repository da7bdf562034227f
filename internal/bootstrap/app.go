// Package bootstrap builds the shared dependencies used by every binary.
package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-ingest/internal/analyses"
	"resume-ingest/internal/fetch"
	"resume-ingest/internal/inference"
	"resume-ingest/internal/inference/gemini"
	"resume-ingest/internal/inference/openai"
	"resume-ingest/internal/ingest"
	"resume-ingest/internal/queue"
	"resume-ingest/internal/services/health"
	"resume-ingest/internal/shared/config"
	"resume-ingest/internal/shared/server"
	"resume-ingest/internal/shared/storage/db"
	"resume-ingest/internal/shared/storage/object"
	localstore "resume-ingest/internal/shared/storage/object/local"
	s3store "resume-ingest/internal/shared/storage/object/s3"
	"resume-ingest/internal/shared/telemetry"
	"resume-ingest/internal/uploads"
)

// App holds shared dependencies.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.Store
	Queue    queue.Client
	Repo     analyses.Repo
	Pipeline *ingest.Pipeline
	Jobs     *ingest.Jobs
	Health   *health.Service
}

// Build prepares every dependency and the router. Missing credentials and
// unreachable backends are logged and leave the matching feature degraded;
// only a database failure outside development is fatal.
func Build(cfg config.Config) (*App, error) {
	if err := telemetry.Configure(cfg.LogJSON, cfg.LogDebug); err != nil {
		return nil, err
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  BuildStore(ctx, cfg),
		Queue:  buildQueue(ctx, cfg),
		Health: health.NewService(),
	}

	if sqlDB != nil {
		app.Repo = &analyses.PGRepo{DB: sqlDB}
		app.Health.Register("database", func(ctx context.Context) error {
			return db.Ping(ctx, sqlDB, 0)
		})
	} else {
		app.Repo = analyses.NewMemoryRepo()
	}

	opts := PipelineOptions(ctx, cfg, app.Store)
	if sqlDB != nil || cfg.DevLike() {
		opts.Recorder = app.Repo
	}
	app.Pipeline = ingest.New(opts)
	app.Jobs = ingest.NewJobs(app.Pipeline, app.Repo, app.Queue)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		IngestHandler:   ingest.NewHandler(app.Pipeline, app.Jobs),
		AnalysesHandler: analyses.NewHandler(app.Repo),
		UploadsHandler:  uploads.NewHandler(presignerFor(app.Store), cfg.DefaultBucket, cfg.FetchMaxBytes),
		Health:          app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"object_store": cfg.ObjectStoreType,
		"llm_provider": cfg.LLMProvider,
		"database":     sqlDB != nil,
		"queue":        app.Queue != nil,
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// PipelineOptions wires the fetcher and inference client for cfg. The CLI
// shares it with the server so both run the same pipeline.
func PipelineOptions(ctx context.Context, cfg config.Config, store object.Store) ingest.Options {
	fetcher := fetch.New(fetch.Options{
		Store:           store,
		HTTPClient:      &http.Client{Timeout: cfg.FetchTimeout},
		StorageEndpoint: cfg.StorageEndpoint,
		MaxBytes:        cfg.FetchMaxBytes,
	})
	client := inference.NewClient(
		BuildCompleter(ctx, cfg),
		inference.WithTimeout(cfg.LLMTimeout),
		inference.WithProvider(cfg.LLMProvider),
	)
	return ingest.Options{
		Fetcher:       fetcher,
		Inferrer:      client,
		DefaultBucket: cfg.DefaultBucket,
		FetchTimeout:  cfg.FetchTimeout,
	}
}

// BuildStore returns the configured object store. A store that cannot be
// created is replaced by one that reports itself unavailable on every call.
func BuildStore(ctx context.Context, cfg config.Config) object.Store {
	switch cfg.ObjectStoreType {
	case "local":
		return localstore.New(cfg.LocalStoreDir)
	default:
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Endpoint)
		if err != nil {
			telemetry.Warn("bootstrap.store_unavailable", map[string]any{"error": err})
			return object.Unavailable(err)
		}
		return store
	}
}

// BuildCompleter returns the provider selected by cfg, or a completer that
// reports the provider as not configured when its credential is missing.
func BuildCompleter(ctx context.Context, cfg config.Config) inference.Completer {
	var (
		completer inference.Completer
		err       error
	)
	switch cfg.LLMProvider {
	case "gemini":
		completer, err = gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
	default:
		completer, err = openai.NewClient(openai.Options{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.LLMModel,
			BaseURL: cfg.LLMBaseURL,
			Timeout: cfg.LLMTimeout,
		})
	}
	if err != nil {
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{
			"provider": cfg.LLMProvider,
			"error":    err,
		})
		return inference.NotConfigured(cfg.LLMProvider)
	}
	return completer
}

// presignerFor returns store when it can presign uploads. Local and
// unavailable stores cannot.
func presignerFor(store object.Store) uploads.Presigner {
	if s3, ok := store.(*s3store.Store); ok {
		return s3
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Warn("bootstrap.database_disabled", map[string]any{
			"reason": "DATABASE_URL empty; using in-memory analysis store",
		})
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	opts := db.OptionsFromConfig(cfg)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts.For(db.PoolLambda))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts.For(db.PoolServer))
	}
	if err != nil {
		if cfg.DevLike() {
			telemetry.Warn("bootstrap.database_unavailable", map[string]any{"error": err})
			return nil, nil
		}
		return nil, err
	}

	if cfg.DevLike() {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Warn("bootstrap.migrations_failed", map[string]any{"error": err})
		}
	}
	return sqlDB, nil
}

func buildQueue(ctx context.Context, cfg config.Config) queue.Client {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.QueueURL, cfg.AWSRegion)
	if err != nil {
		telemetry.Warn("bootstrap.queue_unavailable", map[string]any{"error": err})
		return nil
	}
	return client
}
