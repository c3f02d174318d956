package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"gopkg.in/yaml.v3"
)

// Member is one key/value pair of an Object.
type Member struct {
	Key   string
	Value any
}

// M is a shorthand for Member for ergonomic construction.
// Example: Object{M("age", Object{M("$gte", 18)}), M("name", "ada")}
func M(key string, value any) Member {
	return Member{Key: key, Value: value}
}

// Object is an ordered query object.
// The zero value is an empty object.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Keys returns the member keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, m := range o {
		keys[i] = m.Key
	}
	return keys
}

// Set returns a copy of o with key set to value.
// An existing key keeps its position; a new key is appended.
func (o Object) Set(key string, value any) Object {
	out := slices.Clone(o)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Member{Key: key, Value: value})
}

// Without returns a copy of o without key.
func (o Object) Without(key string) Object {
	out := make(Object, 0, len(o))
	for _, m := range o {
		if m.Key != key {
			out = append(out, m)
		}
	}
	return out
}

// MarshalJSON writes members in order.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(m.Key)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", m.Key, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		valBytes, err := json.Marshal(m.Value)
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", m.Key, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Members returns the ordered members of v when v is an object.
// Go maps have no order, so their keys come back sorted in RFC 8785 order.
func Members(v any) ([]Member, bool) {
	switch obj := v.(type) {
	case Object:
		return obj, true
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		out := make([]Member, len(keys))
		for i, k := range keys {
			out[i] = Member{Key: k, Value: obj[k]}
		}
		return out, true
	case map[string]string:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		out := make([]Member, len(keys))
		for i, k := range keys {
			out[i] = Member{Key: k, Value: obj[k]}
		}
		return out, true
	default:
		return nil, false
	}
}

// Elements returns the elements of v when v is an array.
// Typed slices ([]string, []int, ...) are accepted; []byte is not an array,
// and neither is an Object, though it is a slice underneath.
func Elements(v any) ([]any, bool) {
	switch arr := v.(type) {
	case []any:
		return arr, true
	case []byte, Object, []Member:
		return nil, false
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// IsScalar reports whether v is a string, bool or number.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool, json.Number,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// IsEmpty reports whether v carries nothing to filter on:
// nil, an empty object or an empty array.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if members, ok := Members(v); ok {
		return len(members) == 0
	}
	if elems, ok := Elements(v); ok {
		return len(elems) == 0
	}
	return false
}

// Plain converts v into values encoding/json and database drivers understand:
// Objects become map[string]any and json.Number becomes int64 or float64.
func Plain(v any) any {
	switch val := v.(type) {
	case Object:
		out := make(map[string]any, len(val))
		for _, m := range val {
			out[m.Key] = Plain(m.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Plain(elem)
		}
		return out
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Plain(elem)
		}
		return out
	default:
		return v
	}
}

// DecodeJSON decodes a JSON document, keeping object member order.
// Numbers decode as json.Number so integers never pass through float64.
func DecodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	delim, ok := tok.(json.Delim)
	if !ok {
		// string, json.Number, bool or nil
		return tok, nil
	}

	switch delim {
	case '{':
		obj := Object{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key must be a string, got %v", keyTok)
			}
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, fmt.Errorf("object key %q: %w", key, err)
			}
			obj = obj.Set(key, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			val, err := decodeJSONValue(dec)
			if err != nil {
				return nil, fmt.Errorf("array index %d: %w", len(arr), err)
			}
			arr = append(arr, val)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("unexpected delimiter %q", delim)
	}
}

// DecodeYAML decodes a YAML document, keeping mapping key order.
// An empty document decodes to nil.
func DecodeYAML(data []byte) (any, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return nil, nil
	}
	return FromYAMLNode(&node)
}

// FromYAMLNode converts a decoded yaml.Node into the ir value model.
func FromYAMLNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromYAMLNode(n.Content[0])

	case yaml.MappingNode:
		obj := Object{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			val, err := FromYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, fmt.Errorf("line %d: key %q: %w", n.Content[i].Line, key, err)
			}
			obj = obj.Set(key, val)
		}
		return obj, nil

	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			val, err := FromYAMLNode(child)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil

	case yaml.AliasNode:
		return FromYAMLNode(n.Alias)

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil

	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}

// FormatScalar renders a scalar for display (never for query text).
func FormatScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785 (Canonical JSON).
// Go's default string comparison uses UTF-8 which produces a different order.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	minLen := min(len(a16), len(b16))
	for i := 0; i < minLen; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}

	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// ParseInt reads a leading integer the way lenient HTTP query layers do:
// surrounding space is ignored, an optional sign is read, digits are
// consumed up to the first non-digit ("12px" is 12, "1.9" is 1, "0x1f" is
// 31), and floats truncate toward zero. Integers beyond int64 saturate.
// ok is false when no integer can be read.
func ParseInt(v any) (n int64, ok bool) {
	switch val := v.(type) {
	case string:
		return parseLeadingInt(val)
	case json.Number:
		return parseLeadingInt(val.String())
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float32:
		return truncFloat(float64(val))
	case float64:
		return truncFloat(val)
	default:
		return 0, false
	}
}

func truncFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseLeadingInt reads the integer prefix of s like JavaScript's parseInt:
// surrounding space and trailing garbage are ignored and a "0x" prefix
// reads hex. Values past the int64 range saturate.
func parseLeadingInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base, isDigit := 10, isDecimalDigit
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base, isDigit = 16, isHexDigit
		s = s[2:]
	}
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == 0 {
		return 0, false
	}

	u, err := strconv.ParseUint(s[:end], base, 64)
	switch {
	case err != nil || (!neg && u > math.MaxInt64):
		if neg {
			return math.MinInt64, true
		}
		return math.MaxInt64, true
	case neg && u > math.MaxInt64:
		return math.MinInt64, true
	case neg:
		return -int64(u), true
	default:
		return int64(u), true
	}
}

func isDecimalDigit(c byte) bool { return c >= '0' && c <= '9' }

func isHexDigit(c byte) bool {
	return isDecimalDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
