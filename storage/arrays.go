package storage

import (
	"fmt"

	"github.com/houseplants-app/plants-api/interfaces"
)

// normalizeValues converts values into their JSON-normalized form so that
// equality matches across adapters.
func normalizeValues(values []any) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		n, err := interfaces.NormalizeValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// unionArray appends each value not already present in current.
func unionArray(current []any, values []any) []any {
	out := append([]any{}, current...)
	for _, v := range values {
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// differenceArray drops every element of current equal to any of values.
func differenceArray(current []any, values []any) []any {
	out := make([]any, 0, len(current))
	for _, e := range current {
		if !containsValue(values, e) {
			out = append(out, e)
		}
	}
	return out
}

func containsValue(arr []any, v any) bool {
	for _, e := range arr {
		if interfaces.ValuesEqual(e, v) {
			return true
		}
	}
	return false
}

// arrayField returns the array stored under field, treating a missing field as empty.
func arrayField(fields interfaces.Fields, field string) ([]any, error) {
	raw, ok := fields[field]
	if !ok || raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("field %q is not an array", field)
	}
	return arr, nil
}
