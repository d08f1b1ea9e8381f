package simpledb

import (
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRecord(t *testing.T) {
	t.Run("ParseRecord", func(t *testing.T) {
		t.Run("keeps field order", func(t *testing.T) {
			r := rec(t, `{"z":1,"a":2,"m":{"y":1,"b":2}}`)
			if got := r.Keys(); !slices.Equal(got, []string{"z", "a", "m"}) {
				t.Errorf("Keys() = %v", got)
			}
			if got := r.Get("m").Record().Keys(); !slices.Equal(got, []string{"y", "b"}) {
				t.Errorf("nested Keys() = %v", got)
			}
			if got := r.String(); got != `{"z":1,"a":2,"m":{"y":1,"b":2}}` {
				t.Errorf("String() = %s", got)
			}
		})

		t.Run("invalid", func(t *testing.T) {
			for _, in := range []string{``, `not json`, `[]`, `1`, `"a"`, `null`, `{"a":}`} {
				if _, err := ParseRecord([]byte(in)); err == nil {
					t.Errorf("ParseRecord(%q) succeeded", in)
				}
			}
		})
	})

	t.Run("fields", func(t *testing.T) {
		var r Record
		if r.Len() != 0 || r.Has("a") || r.Get("a").Kind() != KindUndefined {
			t.Fatal("zero Record is not empty")
		}
		if got := r.String(); got != `{}` {
			t.Errorf("zero Record String() = %s", got)
		}
		r.Set("a", Int(1)).Set("b", Null()).Set("c", String("x"))
		if r.Len() != 3 || !r.Has("b") {
			t.Errorf("after Set: %s", r.String())
		}
		r.Set("a", Int(5))
		if got := r.Keys(); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("overwriting moved the key: %v", got)
		}
		r.Set("c", Value{})
		if r.Has("c") {
			t.Error("setting undefined did not delete the key")
		}
		if !r.Delete("b") || r.Delete("b") {
			t.Error("Delete reported wrong presence")
		}
		if got := r.String(); got != `{"a":5}` {
			t.Errorf("String() = %s", got)
		}

		var nilRecord *Record
		if nilRecord.Len() != 0 || nilRecord.Has("a") || nilRecord.Delete("a") || nilRecord.Clone() != nil {
			t.Error("nil Record is not empty")
		}
	})

	t.Run("All stops early", func(t *testing.T) {
		r := rec(t, `{"a":1,"b":2,"c":3}`)
		var seen []string
		for k := range r.All() {
			seen = append(seen, k)
			if k == "b" {
				break
			}
		}
		if !slices.Equal(seen, []string{"a", "b"}) {
			t.Errorf("seen = %v", seen)
		}
	})

	t.Run("Clone", func(t *testing.T) {
		r := rec(t, `{"a":{"b":[1,{"c":2}]}}`)
		c := r.Clone()
		r.Get("a").Record().Set("b", Null())
		if got := c.String(); got != `{"a":{"b":[1,{"c":2}]}}` {
			t.Errorf("Clone() = %s", got)
		}
	})

	t.Run("Match", func(t *testing.T) {
		candidate := rec(t, `{"a":1,"b":"x","c":null,"d":[1]}`)
		tests := []struct {
			template string
			want     bool
		}{
			{`{}`, true},
			{`{"a":1}`, true},
			{`{"a":1.0,"b":"x"}`, true},
			{`{"a":2}`, false},
			{`{"a":"1"}`, false},
			{`{"c":null}`, true},
			{`{"missing":null}`, true},
			{`{"missing":0}`, false},
			{`{"d":[1]}`, false},
		}
		for _, tt := range tests {
			t.Run(tt.template, func(t *testing.T) {
				if got := rec(t, tt.template).Match(candidate); got != tt.want {
					t.Errorf("Match() = %t, want %t", got, tt.want)
				}
			})
		}
		shared := Array(Int(1))
		tmpl := NewRecord().Set("d", shared)
		if !tmpl.Match(NewRecord().Set("d", shared)) {
			t.Error("same array instance did not match")
		}
	})

	t.Run("YAML", func(t *testing.T) {
		t.Run("round trip", func(t *testing.T) {
			r := rec(t, `{"z":1,"a":"x","l":[true,null,2.5],"o":{"k":"v"},"e":{}}`)
			b, err := yaml.Marshal(r)
			if err != nil {
				t.Fatalf("yaml.Marshal failed: %v", err)
			}
			var got Record
			if err := yaml.Unmarshal(b, &got); err != nil {
				t.Fatalf("yaml.Unmarshal failed: %v\n%s", err, b)
			}
			if got.String() != r.String() {
				t.Errorf("round trip = %s, want %s\n%s", got.String(), r.String(), b)
			}
		})

		t.Run("decode", func(t *testing.T) {
			in := strings.Join([]string{
				"name: Ann",
				"age: 30",
				"ratio: 0.5",
				"ok: true",
				"none: ~",
				"quoted: '12'",
				"tags: [a, b]",
				"base: &base {x: 1}",
				"copy: *base",
			}, "\n")
			var r Record
			if err := yaml.Unmarshal([]byte(in), &r); err != nil {
				t.Fatalf("yaml.Unmarshal failed: %v", err)
			}
			want := `{"name":"Ann","age":30,"ratio":0.5,"ok":true,"none":null,"quoted":"12","tags":["a","b"],"base":{"x":1},"copy":{"x":1}}`
			if got := r.String(); got != want {
				t.Errorf("decoded = %s, want %s", got, want)
			}
		})

		t.Run("not a mapping", func(t *testing.T) {
			var r Record
			if err := yaml.Unmarshal([]byte("- a\n- b\n"), &r); err == nil {
				t.Error("decoding a sequence succeeded")
			}
		})
	})
}
