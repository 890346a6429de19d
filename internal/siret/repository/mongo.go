package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepo implements Collection on top of a MongoDB collection.
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	return &MongoRepo{col: col}
}

// EnsureIndex creates a non-unique ascending index on key. The records
// collection allows several documents with the same siret, so the index is
// only there to speed up lookups.
func (m *MongoRepo) EnsureIndex(ctx context.Context, key string) error {
	idx := mongo.IndexModel{Keys: bson.D{{Key: key, Value: 1}}}
	if _, err := m.col.Indexes().CreateOne(ctx, idx); err != nil {
		return fmt.Errorf("create index on %s.%s: %w", m.col.Name(), key, err)
	}
	return nil
}

func (m *MongoRepo) FindOne(ctx context.Context, filter bson.D) (bson.D, error) {
	var d bson.D
	err := m.col.FindOne(ctx, filter).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find one in %s: %w", m.col.Name(), err)
	}
	return d, nil
}

func (m *MongoRepo) FindAll(ctx context.Context) ([]bson.D, error) {
	return m.FindMany(ctx, bson.D{})
}

func (m *MongoRepo) FindMany(ctx context.Context, filter bson.D) ([]bson.D, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cur, err := m.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", m.col.Name(), err)
	}
	defer cur.Close(ctx)
	out := []bson.D{}
	for cur.Next(ctx) {
		var d bson.D
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("decode from %s: %w", m.col.Name(), err)
		}
		out = append(out, d)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", m.col.Name(), err)
	}
	return out, nil
}

func (m *MongoRepo) InsertOne(ctx context.Context, doc interface{}) error {
	if _, err := m.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s: %w", m.col.Name(), err)
	}
	return nil
}

// UpdateOne applies fields with $set and reports how many documents matched.
// An empty field set only checks for a match: MongoDB rejects an empty $set.
func (m *MongoRepo) UpdateOne(ctx context.Context, filter bson.D, fields bson.D) (int64, error) {
	if len(fields) == 0 {
		n, err := m.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
		if err != nil {
			return 0, fmt.Errorf("count in %s: %w", m.col.Name(), err)
		}
		return n, nil
	}
	res, err := m.col.UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: fields}})
	if err != nil {
		return 0, fmt.Errorf("update in %s: %w", m.col.Name(), err)
	}
	return res.MatchedCount, nil
}

func (m *MongoRepo) DeleteOne(ctx context.Context, filter bson.D) (int64, error) {
	res, err := m.col.DeleteOne(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", m.col.Name(), err)
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) Ping(ctx context.Context) error {
	return m.col.Database().Client().Ping(ctx, readpref.Primary())
}
