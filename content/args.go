package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Arg is one named tool-call argument.
type Arg struct {
	Key   string
	Value any
}

// Args is an ordered key/value mapping for tool-call arguments. Backends emit
// argument objects with a meaningful key order; the slice keeps it.
type Args []Arg

// Get returns the value for a key and whether it was present.
func (a Args) Get(key string) (any, bool) {
	for _, kv := range a {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Map flattens the args into an unordered map for consumers that do not care
// about order.
func (a Args) Map() map[string]any {
	out := make(map[string]any, len(a))
	for _, kv := range a {
		out[kv.Key] = kv.Value
	}
	return out
}

// Equal compares args pairwise, order included.
func (a Args) Equal(b Args) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Key != b[i].Key || !anyEqual(a[i].Value, b[i].Value) {
			return false
		}
	}
	return true
}

// MarshalJSON emits a JSON object with keys in declaration order.
func (a Args) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(kv.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (a *Args) UnmarshalJSON(data []byte) error {
	parsed, err := ParseArgs(data)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseArgs decodes a JSON object into ordered args. An empty or null payload
// yields nil args; anything that is not an object is an error.
func ParseArgs(data []byte) (Args, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("tool arguments must be a JSON object, got %v", tok)
	}

	var out Args
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v in tool arguments", keyTok)
		}

		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, err
		}
		out = append(out, Arg{Key: key, Value: normalizeNumbers(val)})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// normalizeNumbers rewrites json.Number values into float64/int64 so parsed
// args compare equal to hand-built ones.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i := range t {
			t[i] = normalizeNumbers(t[i])
		}
		return t
	case map[string]any:
		for k := range t {
			t[k] = normalizeNumbers(t[k])
		}
		return t
	default:
		return v
	}
}

func anyEqual(a, b any) bool {
	return reflect.DeepEqual(normalizeScalar(a), normalizeScalar(b))
}

// normalizeScalar widens integer scalars so int(1) and int64(1) compare equal
// across the parse boundary.
func normalizeScalar(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}
