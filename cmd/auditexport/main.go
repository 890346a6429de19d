package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/apibigdata/siret-api/internal/config"
	"github.com/apibigdata/siret-api/internal/database"
	"github.com/apibigdata/siret-api/internal/siret/audit"
	"github.com/apibigdata/siret-api/internal/siret/repository"
	"github.com/apibigdata/siret-api/internal/storage"
	"github.com/apibigdata/siret-api/pkg/logger"
)

// auditexport copies the whole audit_logs collection into the MinIO bucket
// as one NDJSON object. Run it from cron; the collection itself is not modified.
func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	if err := run(); err != nil {
		logger.Fatalf("%v", err)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Store.Backend != config.BackendMongo {
		return fmt.Errorf("audit export needs STORE_BACKEND=%s, got %q", config.BackendMongo, cfg.Store.Backend)
	}

	ctx := context.Background()
	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("cannot reach object storage: %w", err)
	}

	col := client.Database(cfg.MongoDB.Database).Collection(cfg.MongoDB.AuditCollection)
	trail := audit.NewTrail(repository.NewMongoRepo(col))
	key := audit.ExportKey(time.Now())

	n, err := audit.Export(ctx, trail, store, key)
	if err != nil {
		return fmt.Errorf("audit export failed: %w", err)
	}
	logger.Infof("exported %d audit entries to %s/%s", n, cfg.MinIO.Bucket, key)

	link, err := store.GetPresignedURL(ctx, key, 24*time.Hour)
	if err != nil {
		logger.Warnf("presign %s: %v", key, err)
		return nil
	}
	logger.Infof("download link (24h): %s", link)
	return nil
}
