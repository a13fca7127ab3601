// Package operators provides the built-in named operators registered at
// process init: the gjson document condition, lexicographical key
// comparators and the merge/replace update functions. Deployments extend
// the registry with their own implementations before the node starts.
package operators

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/ronaldjose/terrastore/internal/store"
)

// Condition type and comparator/function names known at boot.
const (
	GJSONConditionType      = "gjson"
	LexicographicalName     = "lexicographical"
	LexicographicalDescName = "lexicographical-desc"
	MergeFunctionName       = "merge"
	ReplaceFunctionName     = "replace"
)

// NewRegistry builds the registry every node boots with.
func NewRegistry() *store.Registry {
	registry := store.NewRegistry(Lexicographical{})
	registry.RegisterComparator(LexicographicalName, Lexicographical{})
	registry.RegisterComparator(LexicographicalDescName, LexicographicalDesc{})
	registry.RegisterCondition(GJSONConditionType, GJSONCondition{})
	registry.RegisterFunction(MergeFunctionName, MergeFunction{})
	registry.RegisterFunction(ReplaceFunctionName, ReplaceFunction{})
	return registry
}

// Lexicographical orders keys by byte-wise string comparison, ascending.
type Lexicographical struct{}

func (Lexicographical) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// LexicographicalDesc orders keys by byte-wise string comparison, descending.
type LexicographicalDesc struct{}

func (LexicographicalDesc) Compare(a, b string) int {
	return strings.Compare(b, a)
}

// GJSONCondition evaluates a gjson path expression against the raw
// document. A plain path holds when it resolves to an existing, truthy
// result (non-false, non-null). The "path==literal" form holds when the
// path resolves to exactly that literal.
type GJSONCondition struct{}

func (GJSONCondition) IsSatisfied(_ string, value store.Value, expression string) bool {
	if path, expected, ok := strings.Cut(expression, "=="); ok {
		result := gjson.GetBytes(value.Bytes(), strings.TrimSpace(path))
		if !result.Exists() {
			return false
		}
		expected = strings.TrimSpace(expected)
		return result.String() == strings.Trim(expected, `"`) || result.Raw == expected
	}
	result := gjson.GetBytes(value.Bytes(), expression)
	if !result.Exists() {
		return false
	}
	switch result.Type {
	case gjson.False, gjson.Null:
		return false
	default:
		return true
	}
}

// MergeFunction shallow-merges the update parameters into the value.
type MergeFunction struct{}

func (MergeFunction) Apply(_ string, value map[string]any, params map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(value)+len(params))
	for k, v := range value {
		merged[k] = v
	}
	for k, v := range params {
		merged[k] = v
	}
	return merged, nil
}

// ReplaceFunction discards the value and returns the update parameters.
type ReplaceFunction struct{}

func (ReplaceFunction) Apply(_ string, _ map[string]any, params map[string]any) (map[string]any, error) {
	if len(params) == 0 {
		return nil, fmt.Errorf("replace requires non-empty parameters")
	}
	return params, nil
}
