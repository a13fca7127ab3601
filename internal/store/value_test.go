package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldjose/terrastore/internal/common"
)

func TestNewValue_Validation(t *testing.T) {
	valid := []string{
		`{"v":1}`,
		`[1,2,3]`,
		`{"nested":{"a":[true,null,"x"]}}`,
		`  {"padded": 1}  `,
	}
	for _, raw := range valid {
		_, err := NewValue([]byte(raw))
		assert.NoError(t, err, "expected %q to validate", raw)
	}

	invalid := []string{
		``,
		`42`,
		`"scalar"`,
		`true`,
		`null`,
		`{"open":`,
		`{"dup" 1}`,
	}
	for _, raw := range invalid {
		_, err := NewValue([]byte(raw))
		require.Error(t, err, "expected %q to be rejected", raw)
		var opErr *OperationError
		require.ErrorAs(t, err, &opErr)
		assert.Equal(t, common.BadRequestCode, opErr.Msg.Code)
	}
}

func TestValue_MarshalRoundTrip(t *testing.T) {
	value := mustValue(t, `{"v":1}`)
	encoded, err := json.Marshal(map[string]Value{"k": value})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":{"v":1}}`, string(encoded))

	var decoded map[string]Value
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.JSONEq(t, `{"v":1}`, string(decoded["k"].Bytes()))
}

func TestValue_Map(t *testing.T) {
	value := mustValue(t, `{"name":"x","count":2,"tags":["a","b"]}`)
	m, err := value.Map()
	require.NoError(t, err)
	assert.Equal(t, "x", m["name"])
	assert.Equal(t, float64(2), m["count"])
	assert.Equal(t, []any{"a", "b"}, m["tags"])

	_, err = mustValue(t, `[1]`).Map()
	assert.Error(t, err, "array-rooted values have no map view")
}

func TestParseDocument_TaggedVariant(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"b":true,"n":1.5,"s":"x","z":null,"arr":[1],"obj":{"k":"v"}}`))
	require.NoError(t, err)
	require.Equal(t, KindObject, doc.Kind())

	obj, ok := doc.Object()
	require.True(t, ok)

	b, ok := obj["b"].Bool()
	require.True(t, ok)
	assert.True(t, b)

	n, ok := obj["n"].Number()
	require.True(t, ok)
	assert.Equal(t, 1.5, n)

	s, ok := obj["s"].String()
	require.True(t, ok)
	assert.Equal(t, "x", s)

	assert.Equal(t, KindNull, obj["z"].Kind())

	arr, ok := obj["arr"].Array()
	require.True(t, ok)
	require.Len(t, arr, 1)
	assert.Equal(t, KindNumber, arr[0].Kind())

	nested, ok := obj["obj"].Object()
	require.True(t, ok)
	v, ok := nested["k"].String()
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestValueFromMap(t *testing.T) {
	value, err := ValueFromMap(map[string]any{"v": float64(1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1}`, string(value.Bytes()))
}

func TestParsePredicate(t *testing.T) {
	p := ParsePredicate("gjson:v.nested")
	assert.Equal(t, "gjson", p.ConditionType)
	assert.Equal(t, "v.nested", p.Expression)

	// Expressions keep their own colons.
	p = ParsePredicate("gjson:a:b:c")
	assert.Equal(t, "a:b:c", p.Expression)

	assert.True(t, ParsePredicate("").IsEmpty())
}
