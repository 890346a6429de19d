package storage

import (
	"context"
	"testing"

	"github.com/apibigdata/siret-api/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewMinIOStorageRequiresEndpoint(t *testing.T) {
	_, err := NewMinIOStorage(context.Background(), config.MinIOConfig{Bucket: "siret-audit"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "MINIO_ENDPOINT")
}
