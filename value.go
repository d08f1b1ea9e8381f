package simpledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Kind is the JSON type held by a Value.
type Kind int

const (
	// KindUndefined is the zero Value: the field is absent.
	KindUndefined Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one JSON-compatible value stored in a Record.
//
// Numbers keep their JSON text so integers survive a load/write cycle
// unchanged. Arrays and objects are held by reference: copying a Value does
// not copy the nested structure.
type Value struct {
	kind Kind
	b    bool
	s    string // String content, or number text.
	list *[]Value
	obj  *Record
}

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
	_ yaml.Marshaler   = Value{}
	_ yaml.Unmarshaler = (*Value)(nil)
)

// Null returns the JSON null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool returns a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number returns a numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
}

// Int returns an integral numeric value.
func Int(i int64) Value {
	return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)}
}

// String returns a string value.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array returns an array value holding a copy of items.
func Array(items ...Value) Value {
	l := slices.Clone(items)
	if l == nil {
		l = []Value{}
	}
	return Value{kind: KindArray, list: &l}
}

// Object returns an object value referencing r. A nil r yields Null.
func Object(r *Record) Value {
	if r == nil {
		return Null()
	}
	return Value{kind: KindObject, obj: r}
}

// Kind returns the JSON type of v.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether v is null or undefined.
func (v Value) IsNull() bool {
	return v.kind == KindNull || v.kind == KindUndefined
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsFloat returns the number held by v.
func (v Value) AsFloat() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, ok := parseNumber(v.s)
	return f, ok
}

// AsInt returns the number held by v when it is an integer.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return i, true
	}
	f, ok := parseNumber(v.s)
	if !ok || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Items returns the elements of an array value. The slice is a copy; nested
// objects are shared.
func (v Value) Items() []Value {
	if v.kind != KindArray || v.list == nil {
		return nil
	}
	return slices.Clone(*v.list)
}

// Record returns the record referenced by an object value, or nil.
func (v Value) Record() *Record {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Equal reports loose equality as used by template matching.
//
// Null and undefined are equal to each other. Numbers compare numerically,
// strings and booleans by content. Arrays and objects are equal only when
// they are the same instance.
//
// Kinds are never coerced: the string "1" does not equal the number 1, nor
// does true equal 1.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindString:
		return v.s == o.s
	case KindNumber:
		a, okA := parseNumber(v.s)
		b, okB := parseNumber(o.s)
		return okA && okB && a == b
	case KindArray:
		return v.list == o.list
	case KindObject:
		return v.obj == o.obj
	}
	return false
}

// String returns the compact JSON encoding of v.
func (v Value) String() string {
	if v.kind == KindUndefined {
		return "undefined"
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(b)
}

// clone returns a deep copy of v.
func (v Value) clone() Value {
	switch v.kind {
	case KindArray:
		items := make([]Value, 0, len(*v.list))
		for _, item := range *v.list {
			items = append(items, item.clone())
		}
		return Value{kind: KindArray, list: &items}
	case KindObject:
		return Object(v.obj.Clone())
	}
	return v
}

// validate rejects values that cannot be stored: undefined, non-finite
// numbers and records nested inside themselves, at any depth.
func (v Value) validate(path string, onPath map[*Record]bool) error {
	switch v.kind {
	case KindUndefined:
		return &ParamError{Code: ParamInvalidNested, Message: fmt.Sprintf("field %q has no value", path)}
	case KindNumber:
		if _, ok := parseNumber(v.s); !ok {
			return &ParamError{Code: ParamInvalidNested, Message: fmt.Sprintf("field %q is not a finite number: %s", path, v.s)}
		}
	case KindArray:
		for i, item := range *v.list {
			if err := item.validate(fmt.Sprintf("%s[%d]", path, i), onPath); err != nil {
				return err
			}
		}
	case KindObject:
		return v.obj.validatePath(path+".", onPath)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return strconv.AppendBool(nil, v.b), nil
	case KindNumber:
		if _, ok := parseNumber(v.s); !ok {
			return nil, fmt.Errorf("cannot encode non-finite number %s", v.s)
		}
		return []byte(v.s), nil
	case KindString:
		return json.Marshal(v.s)
	case KindArray:
		return json.Marshal(*v.list)
	case KindObject:
		return v.obj.MarshalJSON()
	}
	return nil, errors.New("cannot encode undefined value")
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return errors.New("empty JSON value")
	}
	switch data[0] {
	case 'n':
		if string(data) != "null" {
			return fmt.Errorf("invalid JSON value %q", data)
		}
		*v = Null()
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = String(s)
	case '[':
		var items []Value
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = Array(items...)
	case '{':
		r := &Record{}
		if err := r.UnmarshalJSON(data); err != nil {
			return err
		}
		*v = Object(r)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = Value{kind: KindNumber, s: n.String()}
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindNumber:
		if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
			return i, nil
		}
		f, ok := parseNumber(v.s)
		if !ok {
			return nil, fmt.Errorf("cannot encode non-finite number %s", v.s)
		}
		return f, nil
	case KindString:
		return v.s, nil
	case KindArray:
		return *v.list, nil
	case KindObject:
		return v.obj, nil
	}
	return nil, errors.New("cannot encode undefined value")
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			*v = Null()
			return nil
		}
		return v.UnmarshalYAML(node.Content[0])
	case yaml.AliasNode:
		return v.UnmarshalYAML(node.Alias)
	case yaml.SequenceNode:
		items := make([]Value, len(node.Content))
		for i, c := range node.Content {
			if err := items[i].UnmarshalYAML(c); err != nil {
				return err
			}
		}
		*v = Value{kind: KindArray, list: &items}
	case yaml.MappingNode:
		r := &Record{}
		if err := r.UnmarshalYAML(node); err != nil {
			return err
		}
		*v = Object(r)
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!null":
			*v = Null()
		case "!!bool":
			var b bool
			if err := node.Decode(&b); err != nil {
				return err
			}
			*v = Bool(b)
		case "!!int":
			var i int64
			if err := node.Decode(&i); err != nil {
				return err
			}
			*v = Int(i)
		case "!!float":
			var f float64
			if err := node.Decode(&f); err != nil {
				return err
			}
			*v = Number(f)
		default:
			*v = String(node.Value)
		}
	default:
		return fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
	return nil
}

// parseNumber parses JSON number text, rejecting non-finite results.
func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
