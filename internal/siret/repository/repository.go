package repository

import (
	"context"
	"errors"

	"github.com/apibigdata/siret-api/internal/siret"
	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Collection is the document-store accessor the SIRET service needs. The same
// capability set is used for the records collection and the audit collection.
// Filters are exact-match documents; an empty filter matches everything.
type Collection interface {
	FindOne(ctx context.Context, filter bson.D) (bson.D, error)
	FindAll(ctx context.Context) ([]bson.D, error)
	FindMany(ctx context.Context, filter bson.D) ([]bson.D, error)
	InsertOne(ctx context.Context, doc interface{}) error
	UpdateOne(ctx context.Context, filter bson.D, fields bson.D) (matched int64, err error)
	DeleteOne(ctx context.Context, filter bson.D) (deleted int64, err error)
	Ping(ctx context.Context) error
}

// BySiret is the single-field filter used for every lookup.
func BySiret(id interface{}) bson.D {
	return bson.D{{Key: siret.FieldSiret, Value: id}}
}
