package graph

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// MalformedAttributeError reports a node attribute that is missing or cannot be read as a number.
type MalformedAttributeError struct {
	Node  int
	Key   string
	Value any
}

func (e *MalformedAttributeError) Error() string {
	return fmt.Sprintf("node %d: attribute %q value %#v is not numeric", e.Node, e.Key, e.Value)
}

// Float reads an attribute as a float64. Numbers are accepted directly, strings only if they parse as a number.
// Anything else, including a missing key, is a *MalformedAttributeError (with Node left at -1).
func (a Attributes) Float(key string) (float64, error) {
	raw, ok := a[key]
	if !ok {
		return 0, &MalformedAttributeError{Node: -1, Key: key}
	}
	switch v := raw.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}
	return 0, &MalformedAttributeError{Node: -1, Key: key, Value: raw}
}
