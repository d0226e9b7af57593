package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Serializer encodes and decodes the values crossing the kv contract so that
// backends only ever see raw bytes.
//
// BlobStore embeds serialized values directly inside its JSON envelope, so a
// serializer used with that backend must produce valid JSON documents.
// JSONSerializer satisfies this by construction.
type Serializer interface {
	// Serialize encodes value into its stored byte representation.
	Serialize(value any) ([]byte, error)

	// Deserialize decodes a stored byte representation back into a value.
	Deserialize(data []byte) (any, error)
}

// JSONSerializer encodes values as JSON. Deserialized values follow the usual
// encoding/json mapping: objects become map[string]any, arrays []any and
// numbers float64.
type JSONSerializer struct{}

// NewJSONSerializer returns a new JSONSerializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Serialize encodes value as a compact JSON document.
func (s *JSONSerializer) Serialize(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializerEncodeFailed, err)
	}

	return data, nil
}

// Deserialize decodes a JSON document into a Go value.
func (s *JSONSerializer) Deserialize(data []byte) (any, error) {
	var value any

	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializerDecodeFailed, err)
	}

	return value, nil
}
