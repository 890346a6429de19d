package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apibigdata/siret-api/internal/siret"
	"github.com/apibigdata/siret-api/internal/siret/audit"
	"github.com/apibigdata/siret-api/internal/siret/repository"
	"github.com/apibigdata/siret-api/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrInvalidIdentifier = errors.New("siret identifier is not an integer")
	ErrMissingField      = errors.New("siret field is required")
	ErrNotFound          = errors.New("siret not found")
)

// Service defines the SIRET record operations used by the handler layer.
type Service interface {
	ReadOne(ctx context.Context, rawID string) (siret.Record, error)
	ReadAll(ctx context.Context) ([]siret.Record, error)
	CreateOne(ctx context.Context, body siret.Record) error
	UpdateOne(ctx context.Context, rawID string, body siret.Record) error
	DeleteOne(ctx context.Context, rawID string) error
	AuditTrail(ctx context.Context, rawID string) ([]siret.AuditEntry, error)
	Ping(ctx context.Context) error
}

// New wires a Service over a records collection and an audit collection.
func New(records, auditLog repository.Collection) Service {
	return &recordService{records: records, audit: audit.NewTrail(auditLog)}
}

// NewMemoryService returns a Service whose two collections live in memory.
func NewMemoryService() Service {
	return New(repository.NewMemoryRepo(), repository.NewMemoryRepo())
}

// NewMongoService returns a Service backed by two MongoDB collections.
// Caller owns the client the collections come from.
func NewMongoService(records, auditLog *mongo.Collection) Service {
	return New(repository.NewMongoRepo(records), repository.NewMongoRepo(auditLog))
}

type recordService struct {
	records repository.Collection
	audit   *audit.Trail
}

// ParseID parses a path identifier as a base-10 int64. Surrounding
// whitespace, a leading sign and single underscores between digits
// ("1_000") are accepted.
func ParseID(raw string) (int64, error) {
	digits, ok := stripDigitSeparators(strings.TrimSpace(raw))
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}
	return id, nil
}

func stripDigitSeparators(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	isDigit := func(i int) bool { return i >= 0 && i < len(s) && s[i] >= '0' && s[i] <= '9' }
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			if !isDigit(i-1) || !isDigit(i+1) {
				return "", false
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String(), true
}

func (s *recordService) parse(raw string) (int64, error) {
	id, err := ParseID(raw)
	if err != nil {
		logger.Warnf("SIRET is not a valid integer: %q", raw)
	}
	return id, err
}

// ReadOne audits the lookup, then returns the first record whose siret equals rawID.
func (s *recordService) ReadOne(ctx context.Context, rawID string) (siret.Record, error) {
	id, err := s.parse(rawID)
	if err != nil {
		return nil, err
	}
	logger.Infof("GET siret %d", id)
	s.audit.Log(ctx, siret.ActionGet, id)

	doc, err := s.records.FindOne(ctx, repository.BySiret(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			logger.Warnf("siret %d not found", id)
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read siret %d: %w", id, err)
	}
	logger.Debugf("raw document for siret %d: %v", id, doc)
	return siret.Display(doc), nil
}

// ReadAll returns every record in store order. It is not audited.
func (s *recordService) ReadAll(ctx context.Context) ([]siret.Record, error) {
	logger.Info("GET all siret records")
	docs, err := s.records.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("read all siret records: %w", err)
	}
	out := make([]siret.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, siret.Display(d))
	}
	return out, nil
}

// CreateOne inserts body as given, then audits the creation. Duplicate siret
// values are accepted.
func (s *recordService) CreateOne(ctx context.Context, body siret.Record) error {
	logger.Infof("POST siret record: %v", bson.D(body))
	id, ok := body.Lookup(siret.FieldSiret)
	if !ok {
		logger.Errorf("siret field missing from POST body")
		return ErrMissingField
	}
	if err := s.records.InsertOne(ctx, bson.D(body)); err != nil {
		return fmt.Errorf("create siret %v: %w", id, err)
	}
	logger.Infof("siret %v created", id)
	s.audit.Log(ctx, siret.ActionPost, id)
	return nil
}

// UpdateOne audits first, then merges body into the matching record. The
// audit entry stays even when no record matches.
func (s *recordService) UpdateOne(ctx context.Context, rawID string, body siret.Record) error {
	id, err := s.parse(rawID)
	if err != nil {
		return err
	}
	logger.Infof("PUT siret %d with %v", id, bson.D(body))
	s.audit.Log(ctx, siret.ActionPut, id)

	matched, err := s.records.UpdateOne(ctx, repository.BySiret(id), bson.D(body))
	if err != nil {
		return fmt.Errorf("update siret %d: %w", id, err)
	}
	if matched == 0 {
		logger.Warnf("siret %d not found for update", id)
		return ErrNotFound
	}
	logger.Infof("siret %d updated", id)
	return nil
}

// DeleteOne audits first, then removes one matching record. The audit entry
// stays even when nothing was deleted.
func (s *recordService) DeleteOne(ctx context.Context, rawID string) error {
	id, err := s.parse(rawID)
	if err != nil {
		return err
	}
	logger.Infof("DELETE siret %d", id)
	s.audit.Log(ctx, siret.ActionDelete, id)

	deleted, err := s.records.DeleteOne(ctx, repository.BySiret(id))
	if err != nil {
		return fmt.Errorf("delete siret %d: %w", id, err)
	}
	if deleted == 0 {
		logger.Warnf("siret %d not found for deletion", id)
		return ErrNotFound
	}
	logger.Infof("siret %d deleted", id)
	return nil
}

// AuditTrail lists the audit entries for rawID. Reading the trail is not itself audited.
func (s *recordService) AuditTrail(ctx context.Context, rawID string) ([]siret.AuditEntry, error) {
	id, err := s.parse(rawID)
	if err != nil {
		return nil, err
	}
	return s.audit.Entries(ctx, id)
}

func (s *recordService) Ping(ctx context.Context) error {
	return s.records.Ping(ctx)
}
