package interfaces

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Fields is a JSON-normalized document body: values are restricted to
// string, float64, bool, nil, []any and map[string]any so that two values
// which serialize identically also compare equal.
type Fields map[string]any

// Document is a stored document and its store-assigned id.
type Document struct {
	ID     string
	Fields Fields
}

// FieldsFrom normalizes any JSON-serializable value into Fields.
func FieldsFrom(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode fields: %w", err)
	}
	var f Fields
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("could not normalize fields: %w", err)
	}
	return f, nil
}

// NormalizeValue converts v to its JSON-normalized form.
func NormalizeValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("could not encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("could not normalize value: %w", err)
	}
	return out, nil
}

// ValuesEqual reports whether two normalized values are identical.
func ValuesEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Decode maps the fields onto a struct using its json tags.
func (f Fields) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(map[string]any(f)); err != nil {
		return fmt.Errorf("could not decode document: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the fields.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = cloneValue(v)
	}
	return out
}

// String returns the string value of a field, or "" when absent or not a string.
func (f Fields) String(name string) string {
	s, _ := f[name].(string)
	return s
}

// Array returns the array value of a field, or nil when absent or not an array.
func (f Fields) Array(name string) []any {
	a, _ := f[name].([]any)
	return a
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Fields(t).Clone())
	case Fields:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
