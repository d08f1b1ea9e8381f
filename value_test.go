package simpledb

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValue(t *testing.T) {
	t.Run("UnmarshalJSON", func(t *testing.T) {
		tests := []struct {
			in   string
			kind Kind
			out  string
		}{
			{`null`, KindNull, `null`},
			{`true`, KindBool, `true`},
			{`false`, KindBool, `false`},
			{`0`, KindNumber, `0`},
			{`-1.50`, KindNumber, `-1.50`},
			{`1e3`, KindNumber, `1e3`},
			{`98765432109876543210`, KindNumber, `98765432109876543210`},
			{`"hé\n"`, KindString, `"hé\n"`},
			{` [1, "a", null] `, KindArray, `[1,"a",null]`},
			{`[]`, KindArray, `[]`},
			{`{"b":1,"a":{"c":[]}}`, KindObject, `{"b":1,"a":{"c":[]}}`},
		}
		for _, tt := range tests {
			t.Run(tt.in, func(t *testing.T) {
				var v Value
				if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
					t.Fatalf("Unmarshal failed: %v", err)
				}
				if v.Kind() != tt.kind {
					t.Errorf("Kind() = %s, want %s", v.Kind(), tt.kind)
				}
				if got := v.String(); got != tt.out {
					t.Errorf("String() = %s, want %s", got, tt.out)
				}
			})
		}
	})

	t.Run("MarshalJSON", func(t *testing.T) {
		t.Run("valid", func(t *testing.T) {
			tests := []struct {
				name string
				v    Value
				want string
			}{
				{"null", Null(), `null`},
				{"bool", Bool(true), `true`},
				{"int", Int(-42), `-42`},
				{"float", Number(2.5), `2.5`},
				{"string", String(`a"b`), `"a\"b"`},
				{"array", Array(Int(1), Array()), `[1,[]]`},
				{"object", Object(NewRecord().Set("k", Bool(false))), `{"k":false}`},
				{"nil object", Object(nil), `null`},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					b, err := json.Marshal(tt.v)
					if err != nil {
						t.Fatalf("Marshal failed: %v", err)
					}
					if string(b) != tt.want {
						t.Errorf("Marshal() = %s, want %s", b, tt.want)
					}
				})
			}
		})

		t.Run("invalid", func(t *testing.T) {
			for _, v := range []Value{{}, Number(math.NaN()), Number(math.Inf(1)), Array(Value{})} {
				if _, err := json.Marshal(v); err == nil {
					t.Errorf("Marshal(%s) succeeded", v)
				}
			}
		})
	})

	t.Run("Equal", func(t *testing.T) {
		obj := NewRecord()
		arr := Array(Int(1))
		tests := []struct {
			name string
			a, b Value
			want bool
		}{
			{"null null", Null(), Null(), true},
			{"null undefined", Null(), Value{}, true},
			{"undefined zero", Value{}, Int(0), false},
			{"int float", Int(1), Number(1.0), true},
			{"int int", Int(1), Int(2), false},
			{"number text", mustValue(t, `1.0`), mustValue(t, `1`), true},
			{"string", String("a"), String("a"), true},
			{"string number", String("1"), Int(1), false},
			{"bool", Bool(true), Bool(true), true},
			{"bool number", Bool(true), Int(1), false},
			{"same object", Object(obj), Object(obj), true},
			{"equal objects", Object(NewRecord()), Object(NewRecord()), false},
			{"same array", arr, arr, true},
			{"equal arrays", Array(Int(1)), Array(Int(1)), false},
			{"nan", Number(math.NaN()), Number(math.NaN()), false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if got := tt.a.Equal(tt.b); got != tt.want {
					t.Errorf("%s.Equal(%s) = %t, want %t", tt.a, tt.b, got, tt.want)
				}
				if got := tt.b.Equal(tt.a); got != tt.want {
					t.Errorf("%s.Equal(%s) = %t, want %t", tt.b, tt.a, got, tt.want)
				}
			})
		}
	})

	t.Run("accessors", func(t *testing.T) {
		if i, ok := Int(7).AsInt(); !ok || i != 7 {
			t.Errorf("AsInt() = %d, %t", i, ok)
		}
		if i, ok := mustValue(t, `3.0`).AsInt(); !ok || i != 3 {
			t.Errorf("AsInt(3.0) = %d, %t", i, ok)
		}
		if _, ok := Number(3.5).AsInt(); ok {
			t.Error("AsInt(3.5) succeeded")
		}
		if f, ok := mustValue(t, `1e2`).AsFloat(); !ok || f != 100 {
			t.Errorf("AsFloat() = %v, %t", f, ok)
		}
		if s, ok := String("x").AsString(); !ok || s != "x" {
			t.Errorf("AsString() = %q, %t", s, ok)
		}
		if _, ok := Int(1).AsString(); ok {
			t.Error("AsString on a number succeeded")
		}
		if b, ok := Bool(true).AsBool(); !ok || !b {
			t.Errorf("AsBool() = %t, %t", b, ok)
		}
		items := Array(Int(1), Int(2)).Items()
		if len(items) != 2 {
			t.Errorf("Items() = %v", items)
		}
		if String("x").Items() != nil || String("x").Record() != nil {
			t.Error("Items/Record on a string returned data")
		}
		if Kind(99).String() != "Kind(99)" {
			t.Errorf("Kind(99).String() = %q", Kind(99).String())
		}
	})

	t.Run("clone", func(t *testing.T) {
		inner := NewRecord().Set("n", Int(1))
		v := Array(Object(inner))
		c := v.clone()
		inner.Set("n", Int(2))
		if got := c.String(); got != `[{"n":1}]` {
			t.Errorf("clone = %s, want [{\"n\":1}]", got)
		}
	})
}

func mustValue(t *testing.T, s string) Value {
	t.Helper()
	var v Value
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("Unmarshal(%q) failed: %v", s, err)
	}
	return v
}
