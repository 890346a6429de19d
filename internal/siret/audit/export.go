package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Uploader stores an object under key. *storage.MinIOStorage satisfies it.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
}

// ExportKey names the archive object for a snapshot taken at ts.
func ExportKey(ts time.Time) string {
	return fmt.Sprintf("audit_logs/%s.ndjson", ts.UTC().Format("20060102T150405Z"))
}

// Export writes every audit entry as one JSON object per line and uploads the
// result under key. Entries are only read; the audit collection is untouched.
// It returns the number of exported entries.
func Export(ctx context.Context, t *Trail, up Uploader, key string) (int, error) {
	entries, err := t.All(ctx)
	if err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return 0, fmt.Errorf("encode audit entry %s: %w", e.ID.Hex(), err)
		}
	}
	if err := up.UploadFile(ctx, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("upload %s: %w", key, err)
	}
	return len(entries), nil
}
