package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/apibigdata/siret-api/internal/siret"
	"github.com/apibigdata/siret-api/internal/siret/repository"
	"github.com/apibigdata/siret-api/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestTrail(col repository.Collection) *Trail {
	t := NewTrail(col)
	t.now = func() time.Time { return fixedNow }
	return t
}

func TestLogAndEntries(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(repository.NewMemoryRepo())

	trail.Log(ctx, siret.ActionGet, int64(42))
	trail.Log(ctx, siret.ActionPut, int64(42))
	trail.Log(ctx, siret.ActionDelete, int64(7))

	got, err := trail.Entries(ctx, 42)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, siret.ActionGet, got[0].Action)
	require.Equal(t, siret.ActionPut, got[1].Action)
	require.EqualValues(t, 42, got[0].Siret)
	require.True(t, fixedNow.Equal(got[0].Timestamp))
	require.False(t, got[0].ID.IsZero())

	all, err := trail.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
}

// failingCollection rejects every insert.
type failingCollection struct {
	repository.Collection
}

func (failingCollection) InsertOne(context.Context, interface{}) error {
	return errors.New("audit store down")
}

func TestLogSwallowsInsertFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuditWriteFailures.WithLabelValues("POST"))
	trail := newTestTrail(failingCollection{Collection: repository.NewMemoryRepo()})

	require.NotPanics(t, func() { trail.Log(context.Background(), siret.ActionPost, int32(1)) })

	after := testutil.ToFloat64(metrics.AuditWriteFailures.WithLabelValues("POST"))
	require.Equal(t, before+1, after)
}

type recordingUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (u *recordingUploader) UploadFile(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	if u.err != nil {
		return u.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(b)) != size {
		return errors.New("size mismatch")
	}
	u.key, u.contentType, u.body = key, contentType, b
	return nil
}

func TestExportWritesNDJSON(t *testing.T) {
	ctx := context.Background()
	col := repository.NewMemoryRepo()
	trail := newTestTrail(col)
	trail.Log(ctx, siret.ActionPost, int32(123))
	trail.Log(ctx, siret.ActionGet, int64(123))

	up := &recordingUploader{}
	key := ExportKey(fixedNow)
	n, err := Export(ctx, trail, up, key)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "audit_logs/20240301T120000Z.ndjson", up.key)
	require.Equal(t, "application/x-ndjson", up.contentType)

	var actions []string
	sc := bufio.NewScanner(bytes.NewReader(up.body))
	for sc.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		actions = append(actions, line["action"].(string))
		require.EqualValues(t, 123, line["siret"])
	}
	require.Equal(t, []string{"POST", "GET"}, actions)

	// export only reads the trail
	docs, err := col.FindMany(ctx, bson.D{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
}

func TestExportPropagatesUploadError(t *testing.T) {
	ctx := context.Background()
	trail := newTestTrail(repository.NewMemoryRepo())
	trail.Log(ctx, siret.ActionGet, int64(1))

	_, err := Export(ctx, trail, &recordingUploader{err: errors.New("bucket gone")}, "k")
	require.Error(t, err)
}
