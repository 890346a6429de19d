package repository

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepo is an in-memory Collection used by unit tests and by
// STORE_BACKEND=memory. Documents are kept in insertion order and go through
// a BSON round trip on the way in and out, so they carry the same value types
// the Mongo driver would hand back.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs []bson.D
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (m *MemoryRepo) FindOne(_ context.Context, filter bson.D) (bson.D, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := m.indexOf(filter)
	if i < 0 {
		return nil, ErrNotFound
	}
	return toDocument(m.docs[i])
}

func (m *MemoryRepo) FindAll(ctx context.Context) ([]bson.D, error) {
	return m.FindMany(ctx, nil)
}

func (m *MemoryRepo) FindMany(_ context.Context, filter bson.D) ([]bson.D, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []bson.D{}
	for _, d := range m.docs {
		if !matches(d, filter) {
			continue
		}
		c, err := toDocument(d)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *MemoryRepo) InsertOne(_ context.Context, doc interface{}) error {
	d, err := toDocument(doc)
	if err != nil {
		return err
	}
	if _, ok := lookup(d, "_id"); !ok {
		d = append(bson.D{{Key: "_id", Value: primitive.NewObjectID()}}, d...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, d)
	return nil
}

func (m *MemoryRepo) UpdateOne(_ context.Context, filter bson.D, fields bson.D) (int64, error) {
	set, err := toDocument(fields)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(filter)
	if i < 0 {
		return 0, nil
	}
	d := m.docs[i]
	for _, f := range set {
		replaced := false
		for j := range d {
			if d[j].Key == f.Key {
				d[j].Value = f.Value
				replaced = true
				break
			}
		}
		if !replaced {
			d = append(d, f)
		}
	}
	m.docs[i] = d
	return 1, nil
}

func (m *MemoryRepo) DeleteOne(_ context.Context, filter bson.D) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(filter)
	if i < 0 {
		return 0, nil
	}
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return 1, nil
}

func (m *MemoryRepo) Ping(context.Context) error { return nil }

// indexOf must be called with m.mu held.
func (m *MemoryRepo) indexOf(filter bson.D) int {
	for i, d := range m.docs {
		if matches(d, filter) {
			return i
		}
	}
	return -1
}

func matches(d bson.D, filter bson.D) bool {
	for _, f := range filter {
		v, ok := lookup(d, f.Key)
		if !ok || !valuesEqual(v, f.Value) {
			return false
		}
	}
	return true
}

func lookup(d bson.D, key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// valuesEqual compares numbers by value across int32/int64/double, the way
// MongoDB equality filters do.
func valuesEqual(a, b interface{}) bool {
	if x, ok := asInt(a); ok {
		if y, ok := asInt(b); ok {
			return x == y
		}
	}
	if x, ok := asFloat(a); ok {
		if y, ok := asFloat(b); ok {
			return x == y
		}
	}
	return reflect.DeepEqual(a, b)
}

func asInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat(v interface{}) (float64, bool) {
	if n, ok := asInt(v); ok {
		return float64(n), true
	}
	if f, ok := v.(float64); ok {
		return f, true
	}
	return 0, false
}

func toDocument(v interface{}) (bson.D, error) {
	if d, ok := v.(bson.D); v == nil || (ok && d == nil) {
		return bson.D{}, nil
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var d bson.D
	if err := bson.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return d, nil
}
