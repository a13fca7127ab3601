package store

import (
	"bytes"
	"encoding/json"

	"github.com/ronaldjose/terrastore/internal/common"
)

// Value is an opaque JSON document. Validation happens on ingress; every
// Value held by a bucket is well-formed JSON with an object or array root.
type Value []byte

// NewValue validates raw bytes and returns them as a Value.
// Scalar-root documents ("42", "\"x\"", "true") are rejected.
func NewValue(raw []byte) (Value, error) {
	if err := validateDocument(raw); err != nil {
		return nil, err
	}
	return Value(raw), nil
}

// Bytes returns the raw JSON bytes.
func (v Value) Bytes() []byte {
	return []byte(v)
}

// Copy returns an independent copy of the value.
func (v Value) Copy() Value {
	if v == nil {
		return nil
	}
	dup := make([]byte, len(v))
	copy(dup, v)
	return Value(dup)
}

// Document parses the value into its tagged-variant view.
func (v Value) Document() (Document, error) {
	return ParseDocument([]byte(v))
}

// Map returns the value as an associative array for operator invocation.
// The value must have an object root.
func (v Value) Map() (map[string]any, error) {
	doc, err := v.Document()
	if err != nil {
		return nil, err
	}
	m, ok := doc.Object()
	if !ok {
		return nil, NewOperationError(common.BadRequestCode, "value is not a JSON object")
	}
	return documentMap(m), nil
}

// MarshalJSON embeds the raw document without re-encoding.
func (v Value) MarshalJSON() ([]byte, error) {
	if len(v) == 0 {
		return []byte("null"), nil
	}
	return []byte(v), nil
}

// UnmarshalJSON captures the raw document verbatim. The input buffer is
// owned by the decoder, so the bytes are copied.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	dup := make([]byte, len(trimmed))
	copy(dup, trimmed)
	*v = Value(dup)
	return nil
}

// ValueFromMap re-encodes an operator result as a Value.
func ValueFromMap(m map[string]any) (Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, NewOperationError(common.BadRequestCode, "cannot encode value: %v", err)
	}
	return Value(raw), nil
}

// validateDocument checks that raw is well-formed JSON whose root is an
// object or an array.
func validateDocument(raw []byte) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return NewOperationError(common.BadRequestCode, "empty value")
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return NewOperationError(common.BadRequestCode, "value root must be a JSON object or array")
	}
	if !json.Valid(trimmed) {
		return NewOperationError(common.BadRequestCode, "malformed JSON value")
	}
	return nil
}
