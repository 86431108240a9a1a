package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/outfit-recommender/internal/domain/auth"
	"github.com/yanqian/outfit-recommender/internal/domain/outfit"
	"github.com/yanqian/outfit-recommender/internal/domain/recommend"
	"github.com/yanqian/outfit-recommender/internal/domain/replenish"
	"github.com/yanqian/outfit-recommender/internal/domain/wardrobe"
	"github.com/yanqian/outfit-recommender/internal/domain/weather"
	"github.com/yanqian/outfit-recommender/internal/infra/config"
	imagegen "github.com/yanqian/outfit-recommender/internal/infra/imagegen/openai"
	"github.com/yanqian/outfit-recommender/internal/infra/outfitstore"
	"github.com/yanqian/outfit-recommender/internal/infra/queue"
	"github.com/yanqian/outfit-recommender/internal/infra/storage"
	"github.com/yanqian/outfit-recommender/internal/infra/wardroberepo"
	"github.com/yanqian/outfit-recommender/internal/infra/weather/weatherapi"
)

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideRecommendConfig(cfg *config.Config) recommend.Config {
	return recommend.Config{
		PrimaryCollection:   cfg.Recommend.PrimaryCollection,
		PublicURLBase:       cfg.Recommend.PublicURLBase,
		DefaultImageCount:   cfg.Recommend.DefaultImageCount,
		MaxImageCount:       cfg.Recommend.MaxImageCount,
		CandidateMultiplier: cfg.Recommend.CandidateMultiplier,
		MinCandidates:       cfg.Recommend.MinCandidates,
		GeneratedLimit:      cfg.Recommend.GeneratedLimit,
		ReplenishPerBucket:  cfg.Replenish.PerBucket,
	}
}

func provideWeatherConfig(cfg *config.Config) weather.Config {
	return weather.Config{
		DefaultCity:   cfg.Weather.DefaultCity,
		LookupTimeout: cfg.Weather.LookupTimeout,
	}
}

func provideReplenishConfig(cfg *config.Config) replenish.Config {
	return replenish.Config{
		Enabled:              cfg.Replenish.Enabled,
		PrimaryCollection:    cfg.Recommend.PrimaryCollection,
		AttemptTimeout:       cfg.Generator.AttemptTimeout,
		DefaultGenerateCount: cfg.Generator.DefaultCount,
		MaxGenerateCount:     cfg.Generator.MaxCount,
	}
}

// providePostgresPool returns nil when no DSN is configured or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Store.DSN)
	if dsn == "" {
		logger.Info("store postgres dsn not set, using memory store")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory store", "error", err)
		return nil
	}
	if cfg.Store.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Store.MaxConns
	}
	if cfg.Store.MinConns > 0 {
		poolConfig.MinConns = cfg.Store.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory store", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory store", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres image store enabled")
	return pool
}

func provideOutfitStore(pool *pgxpool.Pool) outfit.Store {
	if pool == nil {
		return outfitstore.NewMemoryStore()
	}
	return outfitstore.NewPostgresStore(pool)
}

func provideWardrobeRepository(pool *pgxpool.Pool) wardrobe.Repository {
	if pool == nil {
		return wardroberepo.NewMemoryRepository()
	}
	return wardroberepo.NewPostgresRepository(pool)
}

// provideWeatherProvider returns nil without an API key; the resolver then
// reports weather as unavailable.
func provideWeatherProvider(cfg *config.Config, logger *slog.Logger) weather.Provider {
	if strings.TrimSpace(cfg.Weather.APIKey) == "" {
		logger.Info("weather api key not set, weather lookups disabled")
		return nil
	}
	client := weatherapi.NewClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, cfg.Weather.LookupTimeout)
	return weatherapi.NewBreakerProvider(client, weatherapi.BreakerConfig{
		FailureThreshold: cfg.Weather.Breaker.FailureThreshold,
		Timeout:          cfg.Weather.Breaker.OpenTimeout,
		Interval:         cfg.Weather.Breaker.Interval,
	}, logger)
}

func provideImageGenerator(cfg *config.Config, logger *slog.Logger) replenish.Generator {
	if strings.TrimSpace(cfg.Generator.APIKey) == "" {
		logger.Info("image api key not set, generation disabled")
		return nil
	}
	return imagegen.NewGenerator(imagegen.Config{
		APIKey:  cfg.Generator.APIKey,
		BaseURL: cfg.Generator.BaseURL,
		Model:   cfg.Generator.Model,
		Size:    cfg.Generator.Size,
	}, logger)
}

func provideUploader(cfg *config.Config, logger *slog.Logger) replenish.Uploader {
	fallback := storage.NewMemoryStorage(cfg.Storage.PublicBase)
	if strings.TrimSpace(cfg.Storage.Endpoint) == "" || strings.TrimSpace(cfg.Storage.Bucket) == "" {
		logger.Info("r2 storage not configured, using memory storage")
		return fallback
	}
	r2, err := storage.NewR2Storage(storage.R2Config{
		Endpoint:   cfg.Storage.Endpoint,
		AccessKey:  cfg.Storage.AccessKey,
		SecretKey:  cfg.Storage.SecretKey,
		Bucket:     cfg.Storage.Bucket,
		Region:     cfg.Storage.Region,
		PublicBase: cfg.Storage.PublicBase,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize r2 storage, using memory storage", "error", err)
		return fallback
	}
	logger.Info("r2 storage enabled", "bucket", cfg.Storage.Bucket)
	return r2
}

func provideJobQueue(cfg *config.Config, logger *slog.Logger) queue.HandlerQueue {
	fallback := func() queue.HandlerQueue {
		return queue.NewPoolQueue(cfg.Replenish.Workers, cfg.Replenish.Backlog, logger)
	}
	if cfg.Replenish.Queue != config.QueueValkey {
		return fallback()
	}
	opt, err := buildValkeyOptions(cfg.Replenish.ValkeyURL)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to in-process queue", "error", err)
		return fallback()
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to in-process queue", "error", err)
		return fallback()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to in-process queue", "error", err)
		client.Close()
		return fallback()
	}
	logger.Info("valkey job queue enabled", "key", cfg.Replenish.QueueKey)
	return queue.NewValkeyQueue(client, cfg.Replenish.QueueKey, cfg.Replenish.Workers, logger)
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

// provideReplenishService builds the replenisher and subscribes it to the job queue.
func provideReplenishService(
	cfg replenish.Config,
	store outfit.Store,
	generator replenish.Generator,
	uploader replenish.Uploader,
	wardrobeRepo wardrobe.Repository,
	jobs queue.HandlerQueue,
	logger *slog.Logger,
) *replenish.Service {
	svc := replenish.NewService(cfg, store, generator, uploader, wardrobeRepo, jobs, logger)
	jobs.SetHandler(svc.Handle)
	return svc
}
