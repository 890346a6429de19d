package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/apibigdata/siret-api/internal/siret"
	"github.com/apibigdata/siret-api/internal/siret/repository"
	"github.com/apibigdata/siret-api/pkg/logger"
	"github.com/apibigdata/siret-api/pkg/metrics"
	"go.mongodb.org/mongo-driver/bson"
)

// Trail writes and reads entries of the audit collection.
type Trail struct {
	col repository.Collection
	now func() time.Time
}

func NewTrail(col repository.Collection) *Trail {
	return &Trail{col: col, now: func() time.Time { return time.Now().UTC() }}
}

// Log records one audit entry on a best-effort basis. A failed insert never
// reaches the caller: the operation being audited carries on regardless.
// Failures are logged and counted in siret_audit_write_failures_total so the
// gap stays visible.
func (t *Trail) Log(ctx context.Context, action siret.Action, id interface{}) {
	entry := siret.AuditEntry{Action: action, Siret: id, Timestamp: t.now()}
	if err := t.col.InsertOne(ctx, entry); err != nil {
		metrics.AuditWriteFailures.WithLabelValues(string(action)).Inc()
		logger.Warnf("audit entry %s siret=%v not written: %v", action, id, err)
	}
}

// Entries returns the audit entries recorded for id, oldest first.
func (t *Trail) Entries(ctx context.Context, id int64) ([]siret.AuditEntry, error) {
	docs, err := t.col.FindMany(ctx, repository.BySiret(id))
	if err != nil {
		return nil, fmt.Errorf("list audit entries for %d: %w", id, err)
	}
	return decodeEntries(docs)
}

// All returns every audit entry in store order.
func (t *Trail) All(ctx context.Context) ([]siret.AuditEntry, error) {
	docs, err := t.col.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return decodeEntries(docs)
}

func decodeEntries(docs []bson.D) ([]siret.AuditEntry, error) {
	out := make([]siret.AuditEntry, 0, len(docs))
	for _, d := range docs {
		raw, err := bson.Marshal(d)
		if err != nil {
			return nil, fmt.Errorf("encode audit entry: %w", err)
		}
		var e siret.AuditEntry
		if err := bson.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
