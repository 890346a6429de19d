package siret

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRecordKeepsFieldOrderAndIntegers(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"siret": 123, "city": "Paris", "ratio": 1.5, "big": 12345678901234}`), &r))

	require.Equal(t, []string{"siret", "city", "ratio", "big"}, keys(r))
	v, ok := r.Lookup(FieldSiret)
	require.True(t, ok)
	require.EqualValues(t, 123, v)
	big, _ := r.Lookup("big")
	require.Equal(t, int64(12345678901234), big)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{"siret": 123, "city": "Paris", "ratio": 1.5, "big": 12345678901234}`, string(out))
}

func TestRecordRejectsNonObjects(t *testing.T) {
	var r Record
	require.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &r))
	require.Error(t, json.Unmarshal([]byte(`"siret"`), &r))
}

func TestDisplayRendersObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := bson.D{{Key: "_id", Value: oid}, {Key: "siret", Value: int64(7)}}

	r := Display(doc)

	id, ok := r.Lookup("_id")
	require.True(t, ok)
	require.Equal(t, oid.Hex(), id)
	// source document is left untouched
	require.Equal(t, oid, doc[0].Value)
}

func TestNilRecordMarshalsToEmptyObject(t *testing.T) {
	out, err := json.Marshal(Record(nil))
	require.NoError(t, err)
	require.Equal(t, "{}", string(out))
}

func keys(r Record) []string {
	out := make([]string, 0, len(r))
	for _, e := range r {
		out = append(out, e.Key)
	}
	return out
}

func TestRecordKeepsDollarKeysVerbatim(t *testing.T) {
	body := `{"siret": 1, "q": {"$oid": "nothex"}, "price": {"$numberInt": "5"}, "tags": [{"$date": 1}, 2.5]}`
	var r Record
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	q, _ := r.Lookup("q")
	require.Equal(t, bson.D{{Key: "$oid", Value: "nothex"}}, q)
	price, _ := r.Lookup("price")
	require.Equal(t, bson.D{{Key: "$numberInt", Value: "5"}}, price)
	tags, _ := r.Lookup("tags")
	require.Equal(t, bson.A{bson.D{{Key: "$date", Value: int32(1)}}, 2.5}, tags)

	out, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, body, string(out))
}

func TestRecordNumberTypes(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"a": 7, "b": 3000000000, "c": 2.0, "d": 1e3, "e": 99999999999999999999, "f": null, "g": true}`), &r))

	want := Record{
		{Key: "a", Value: int32(7)},
		{Key: "b", Value: int64(3000000000)},
		{Key: "c", Value: 2.0},
		{Key: "d", Value: 1000.0},
		{Key: "e", Value: 1e20},
		{Key: "f", Value: nil},
		{Key: "g", Value: true},
	}
	require.Equal(t, want, r)
}

func TestRecordRepeatedKeyTakesLastValue(t *testing.T) {
	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"siret": 1, "city": "Paris", "siret": 2}`), &r))

	require.Equal(t, []string{"siret", "city"}, keys(r))
	v, _ := r.Lookup(FieldSiret)
	require.Equal(t, int32(2), v)
}
