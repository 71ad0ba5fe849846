package models

import (
	"bytes"
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Blob is an opaque payload stored as compact JSON text. It is written to
// the document store as a plain string and emitted unchanged in API
// responses: valid JSON goes out raw, anything else as a JSON string.
type Blob string

// NewBlob re-encodes a raw JSON value into its stable compact form. A JSON
// null or an empty value yields an empty Blob.
func NewBlob(raw json.RawMessage) Blob {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Blob(raw)
	}
	return Blob(buf.String())
}

func (b Blob) MarshalJSON() ([]byte, error) {
	if b == "" {
		return []byte("null"), nil
	}
	if json.Valid([]byte(b)) {
		return []byte(b), nil
	}
	return json.Marshal(string(b))
}

func (b *Blob) UnmarshalJSON(data []byte) error {
	*b = NewBlob(data)
	return nil
}

// UnmarshalBSONValue accepts documents written as strings as well as older
// documents that stored structured fields as embedded BSON. The latter are
// converted to relaxed extended JSON.
func (b *Blob) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*b = Blob(rv.StringValue())
		return nil
	case bsontype.Null, bsontype.Undefined:
		*b = ""
		return nil
	}
	out, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: rv}}, false, false)
	if err != nil {
		return err
	}
	var wrapped struct {
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(out, &wrapped); err != nil {
		return err
	}
	*b = NewBlob(wrapped.V)
	return nil
}
