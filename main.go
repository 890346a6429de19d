package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/apibigdata/siret-api/handlers"
	"github.com/apibigdata/siret-api/internal/config"
	"github.com/apibigdata/siret-api/internal/database"
	"github.com/apibigdata/siret-api/internal/siret"
	"github.com/apibigdata/siret-api/internal/siret/handler"
	"github.com/apibigdata/siret-api/internal/siret/repository"
	"github.com/apibigdata/siret-api/internal/siret/service"
	"github.com/apibigdata/siret-api/pkg/logger"
	"github.com/apibigdata/siret-api/pkg/metrics"
	"github.com/apibigdata/siret-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	if err := run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

// run owns every deferred cleanup so that they complete before main exits
// the process on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.Init(cfg.Log.Level)
	if cfg.Log.File != "" {
		f, err := logger.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		defer f.Close()
	}
	logger.Infof("config loaded: store=%s mongo=%v redis=%v rate_limit=%v", cfg.Store.Backend, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.RateLimit.Enabled)

	ctx := context.Background()
	svc, cleanup, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Server.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	if cfg.RateLimit.Enabled {
		r.Use(rateLimiter(ctx, cfg))
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the document store answers
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		uptime := time.Since(startTime).String()
		if err := svc.Ping(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "store": err.Error(), "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "store": cfg.Store.Backend, "uptime": uptime})
	})

	handler.RegisterSiretRoutes(r, svc)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("Starting SIRET API on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// buildService constructs the one store client for the process and the
// service on top of it. The returned cleanup disconnects the client.
func buildService(ctx context.Context, cfg *config.Config) (service.Service, func(), error) {
	if cfg.Store.Backend == config.BackendMemory {
		logger.Warn("using in-memory document store: data is lost on restart")
		return service.NewMemoryService(), func() {}, nil
	}

	client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, cfg.MongoDB.ConnectAttempts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to MongoDB: %w", err)
	}
	db := client.Database(cfg.MongoDB.Database)
	records := repository.NewMongoRepo(db.Collection(cfg.MongoDB.RecordsCollection))
	if err := records.EnsureIndex(ctx, siret.FieldSiret); err != nil {
		logger.Warnf("%v", err)
	}
	auditLog := repository.NewMongoRepo(db.Collection(cfg.MongoDB.AuditCollection))
	logger.Infof("connected to MongoDB database %s (records=%s audit=%s)", cfg.MongoDB.Database, cfg.MongoDB.RecordsCollection, cfg.MongoDB.AuditCollection)

	return service.New(records, auditLog), func() { _ = client.Disconnect(context.Background()) }, nil
}

// rateLimiter prefers the Redis-backed limiter when configured and reachable,
// otherwise the in-process token bucket.
func rateLimiter(ctx context.Context, cfg *config.Config) gin.HandlerFunc {
	if cfg.RateLimit.UseRedis && cfg.Redis.Host != "" {
		rc := redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		err := rc.Ping(ctx).Err()
		if err == nil {
			logger.Infof("rate limiter: redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			return middleware.RedisRateLimitMiddleware(rc, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
		logger.Warnf("redis ping failed (%s:%s), falling back to in-memory rate limiter: %v", cfg.Redis.Host, cfg.Redis.Port, err)
	}
	logger.Infof("rate limiter: in-memory (rps=%.2f burst=%d)", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}
