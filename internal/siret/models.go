package siret

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FieldSiret is the key every record carries; its value identifies the record.
const FieldSiret = "siret"

// Record is a schema-free business-entity document. Fields keep the order
// they were supplied in, and numbers keep their integer/float distinction.
// Request bodies are plain JSON: "$"-prefixed keys are ordinary field names.
type Record bson.D

// MarshalJSON renders the record as a JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return bson.MarshalExtJSON(bson.D(r), false, false)
}

var errNotObject = errors.New("record must be a JSON object")

// UnmarshalJSON accepts any JSON object. Arrays and scalars are rejected.
func (r *Record) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", errNotObject, err)
	}
	if tok != json.Delim('{') {
		return errNotObject
	}
	d, err := decodeObject(dec)
	if err != nil {
		return fmt.Errorf("%w: %v", errNotObject, err)
	}
	*r = Record(d)
	return nil
}

// decodeObject reads members up to the closing brace. A repeated key keeps
// its first position and takes the last value.
func decodeObject(dec *json.Decoder) (bson.D, error) {
	d := bson.D{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		replaced := false
		for i := range d {
			if d[i].Key == key {
				d[i].Value = v
				replaced = true
				break
			}
		}
		if !replaced {
			d = append(d, bson.E{Key: key, Value: v})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeArray(dec *json.Decoder) (bson.A, error) {
	a := bson.A{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		a = append(a, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return a, nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %v", v)
	case json.Number:
		return number(v)
	}
	// string, bool or nil
	return tok, nil
}

// number maps integers to int32 when they fit, int64 otherwise, and
// everything else (fractions, exponents, out-of-range integers) to float64.
func number(n json.Number) (interface{}, error) {
	if i, err := n.Int64(); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return int32(i), nil
		}
		return i, nil
	}
	return n.Float64()
}

// Lookup returns the value stored under key.
func (r Record) Lookup(key string) (interface{}, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Display copies a stored document and renders its "_id" as a string.
func Display(doc bson.D) Record {
	out := make(Record, 0, len(doc))
	for _, e := range doc {
		if e.Key == "_id" {
			e.Value = displayID(e.Value)
		}
		out = append(out, e)
	}
	return out
}

func displayID(v interface{}) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return fmt.Sprint(v)
}

// Action is the verb recorded in the audit trail.
type Action string

const (
	ActionGet    Action = "GET"
	ActionPost   Action = "POST"
	ActionPut    Action = "PUT"
	ActionDelete Action = "DELETE"
)

// AuditEntry records which action touched which siret, and when.
// Entries are written once and never changed. Siret holds the parsed path
// identifier for GET/PUT/DELETE and the body's value for POST.
type AuditEntry struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    Action             `bson:"action" json:"action"`
	Siret     interface{}        `bson:"siret" json:"siret"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
