package simpledb

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Record is a schema-less keyed structure. Field order is preserved through
// load and write. The zero value is an empty record ready to use.
//
// A *Record also serves as a template Filter: see Match.
type Record struct {
	fields *orderedmap.OrderedMap[string, Value]
}

var (
	_ Filter           = (*Record)(nil)
	_ json.Marshaler   = (*Record)(nil)
	_ json.Unmarshaler = (*Record)(nil)
	_ yaml.Marshaler   = (*Record)(nil)
	_ yaml.Unmarshaler = (*Record)(nil)
)

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, Value]()}
}

// ParseRecord decodes a JSON object into a Record.
func ParseRecord(data []byte) (*Record, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	r := &Record{}
	if err := r.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Record) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, Value]()
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Get returns the value of key, or an undefined Value when absent.
func (r *Record) Get(key string) Value {
	if r == nil || r.fields == nil {
		return Value{}
	}
	v, _ := r.fields.Get(key)
	return v
}

// Has reports whether key is present, including with a null value.
func (r *Record) Has(key string) bool {
	if r == nil || r.fields == nil {
		return false
	}
	_, ok := r.fields.Get(key)
	return ok
}

// Set sets key to v and returns r. Setting an existing key keeps its
// position. Setting an undefined Value deletes the key.
func (r *Record) Set(key string, v Value) *Record {
	if v.kind == KindUndefined {
		r.Delete(key)
		return r
	}
	r.init()
	r.fields.Set(key, v)
	return r
}

// Delete removes key and reports whether it was present.
func (r *Record) Delete(key string) bool {
	if r == nil || r.fields == nil {
		return false
	}
	_, ok := r.fields.Delete(key)
	return ok
}

// Keys returns the field names in order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	for k := range r.All() {
		keys = append(keys, k)
	}
	return keys
}

// All returns an iterator over the fields in order.
func (r *Record) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if r == nil || r.fields == nil {
			return
		}
		for p := r.fields.Oldest(); p != nil; p = p.Next() {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := NewRecord()
	for k, v := range r.All() {
		c.fields.Set(k, v.clone())
	}
	return c
}

// Match reports whether candidate carries every field of r with a loosely
// equal value (see Value.Equal). Fields of candidate absent from r are
// ignored, so an empty template matches every record.
func (r *Record) Match(candidate *Record) bool {
	for k, v := range r.All() {
		if !v.Equal(candidate.Get(k)) {
			return false
		}
	}
	return true
}

// String returns the compact JSON encoding of r.
func (r *Record) String() string {
	b, err := r.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<record: %v>", err)
	}
	return string(b)
}

func (r *Record) validate(prefix string) error {
	return r.validatePath(prefix, map[*Record]bool{})
}

// validatePath checks every field. onPath holds the records enclosing r, so
// a record nested inside itself is rejected.
func (r *Record) validatePath(prefix string, onPath map[*Record]bool) error {
	if onPath[r] {
		return &ParamError{Code: ParamInvalidNested, Message: fmt.Sprintf("field %q refers to an enclosing record", strings.TrimSuffix(prefix, "."))}
	}
	onPath[r] = true
	defer delete(onPath, r)
	for k, v := range r.All() {
		if err := v.validate(prefix+k, onPath); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. data must be a JSON object.
func (r *Record) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("record must be a JSON object, got %.20q", data)
	}
	fields := orderedmap.New[string, Value]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	r.fields = fields
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (r *Record) MarshalYAML() (any, error) {
	if r == nil || r.fields == nil {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	return r.fields.MarshalYAML()
}

// UnmarshalYAML implements yaml.Unmarshaler. node must be a mapping.
func (r *Record) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("record must be a YAML mapping, got %s", node.ShortTag())
	}
	fields := orderedmap.New[string, Value]()
	if err := fields.UnmarshalYAML(node); err != nil {
		return err
	}
	r.fields = fields
	return nil
}
