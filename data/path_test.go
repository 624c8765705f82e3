// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"testing"
)

func TestPathArgumentKeysAreUnambiguous(t *testing.T) {
	l := QNameNew("m", "l")
	k1, k2 := QNameNew("m", "k1"), QNameNew("m", "k2")
	entry := func(v1, v2 string) PathArgument {
		return NodeIdentifierWithPredicates(l,
			KeyValue{Key: k1, Value: ValueNew(v1)},
			KeyValue{Key: k2, Value: ValueNew(v2)})
	}
	cases := []struct {
		name string
		a, b PathArgument
	}{
		{"quote in first key", entry("a'][k2='b", "c"), entry("a", "b'][k2='c")},
		{"backslash before quote", entry(`a\`, "b"), entry(`a\'`, "b")},
		{"string and number", NodeWithKey(l, k1, "1"), NodeWithKey(l, k1, 1)},
		{"string and boolean", NodeWithKey(l, k1, "true"), NodeWithKey(l, k1, true)},
		{"leaf-list values", NodeWithValue(l, "1"), NodeWithValue(l, uint8(1))},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			if test.a.Equal(test.b) {
				t.Fatalf("%s and %s must differ", test.a, test.b)
			}
			if test.a.Key() == test.b.Key() {
				t.Fatalf("shared key %s", test.a.Key())
			}
		})
	}
}

func TestPathArgumentFormatRoundTrip(t *testing.T) {
	top := QNameNew("m", "top")
	l := QNameNew("m", "l")
	cases := []struct {
		name     string
		arg      PathArgument
		expected string
	}{
		{
			name: "quotes in keys",
			arg: NodeIdentifierWithPredicates(l,
				KeyValue{Key: QNameNew("m", "k1"), Value: ValueNew("a'][k2='b")},
				KeyValue{Key: QNameNew("m", "k2"), Value: ValueNew("c")}),
			expected: `/m:top/l[k1="a'][k2='b"][k2='c']`,
		},
		{
			name:     "double quotes",
			arg:      NodeWithKey(l, QNameNew("m", "k1"), `say "hi"`),
			expected: `/m:top/l[k1='say "hi"']`,
		},
		{
			name:     "leaf-list value",
			arg:      NodeWithValue(l, "it's"),
			expected: `/m:top/l[.="it's"]`,
		},
		{
			name:     "brackets and slashes",
			arg:      NodeWithValue(l, "[a]/b"),
			expected: `/m:top/l[.='[a]/b']`,
		},
	}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			iid := RootInstanceID().Node(top).Append(test.arg)
			if iid.String() != test.expected {
				t.Fatalf("expected %s, got %s", test.expected, iid)
			}
			parsed, err := InstanceIDParse(iid.String())
			if err != nil {
				t.Fatalf("unexpected error %s", err)
			}
			if !parsed.Equal(iid) {
				t.Fatalf("expected %s, got %s", iid, parsed)
			}
		})
	}
}
