// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"fmt"
	"reflect"
	"testing"
)

var (
	uint64Kind = reflect.TypeOf(uint64(0))
	int64Kind  = reflect.TypeOf(int64(0))
)

func TestValueNew(t *testing.T) {
	cases := []struct {
		name  string
		rtype reflect.Type
		val   interface{}
	}{
		{"Value", reflect.TypeOf(""), ValueNew("foo")},
		{"int8", uint64Kind, int8(0)},
		{"int8-neg", int64Kind, int8(-1)},
		{"int16", uint64Kind, int16(0)},
		{"int16-neg", int64Kind, int16(-1)},
		{"int", uint64Kind, int(0)},
		{"int-neg", int64Kind, int(-1)},
		{"int32", uint64Kind, int32(0)},
		{"int32-neg", int64Kind, int32(-1)},
		{"int64-neg", int64Kind, int64(-1)},
		{"uint8", uint64Kind, uint8(0)},
		{"uint16", uint64Kind, uint16(0)},
		{"uint", uint64Kind, uint(0)},
		{"uint32", uint64Kind, uint32(0)},
		{"uint64", uint64Kind, uint64(0)},
		{"float32", reflect.TypeOf(float64(0)), float32(0)},
		{"float64", reflect.TypeOf(float64(0)), float64(0)},
		{"bool", reflect.TypeOf(false), false},
		{"string", reflect.TypeOf(""), "foo"},
		{"[]interface{nil}", reflect.TypeOf(empty{}),
			[]interface{}{nil}},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			val := ValueNew(test.val)
			got := reflect.TypeOf(val.data)
			if got != test.rtype {
				t.Fatal("didn't get expected type for value",
					val, got, test.rtype)
			}
		})
	}
}

func TestValueNewInvalid(t *testing.T) {
	for _, v := range []interface{}{nil, struct{}{}, []interface{}{}, map[string]interface{}{}} {
		t.Run(fmt.Sprintf("%T", v), func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatal("expected panic")
				}
			}()
			ValueNew(v)
		})
	}
}

func TestValueRFC7951String(t *testing.T) {
	cases := []struct {
		val      interface{}
		expected string
	}{
		{"foo", "foo"},
		{10, "10"},
		{-10, "-10"},
		{uint64(18446744073709551615), "18446744073709551615"},
		{1.5, "1.5"},
		{true, "true"},
		{[]interface{}{nil}, "[null]"},
	}
	for _, test := range cases {
		t.Run(test.expected, func(t *testing.T) {
			got := ValueNew(test.val).RFC7951String()
			if got != test.expected {
				t.Fatalf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	if !ValueNew(int8(5)).Equal(ValueNew(uint32(5))) {
		t.Fatal("normalized integers should be equal")
	}
	if ValueNew(5).Equal(ValueNew("5")) {
		t.Fatal("a string and an integer are different values")
	}
	if !Empty().Equal(ValueNew([]interface{}{nil})) {
		t.Fatal("empty values should be equal")
	}
	var nilVal *Value
	if nilVal.Equal(Empty()) {
		t.Fatal("nil is only equal to nil")
	}
}

func TestValueConversions(t *testing.T) {
	v := ValueNew(-3)
	if !v.IsInt64() || v.AsInt64() != -3 {
		t.Fatalf("expected int64 -3, got %v", v)
	}
	if v.IsUint64() {
		t.Fatal("negative values are not uint64")
	}
	u := ValueNew(3)
	if !u.IsUint64() || !u.IsInt64() || u.AsInt64() != 3 {
		t.Fatalf("expected 3 to be representable as both, got %v", u)
	}
	if u.AsFloat() != 3.0 {
		t.Fatalf("expected float conversion, got %v", u.AsFloat())
	}
	if ValueNew(uint64(1<<63)).IsInt64() {
		t.Fatal("large uint64 does not fit an int64")
	}
	if ValueNew(5).ToString("default") != "default" {
		t.Fatal("expected default for non string value")
	}
	if !Empty().AsBoolean() {
		t.Fatal("empty leaves are true")
	}
	if !reflect.DeepEqual(Empty().ToNative(), []interface{}{nil}) {
		t.Fatal("empty native value is [null]")
	}
}
