// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package codec

import (
	"strings"
	"testing"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const testSchema = `
module: test
nodes:
  - name: test
    kind: container
    children:
      - {name: name, kind: leaf, type: string}
      - {name: ports, kind: leaf-list, type: uint}
      - {name: enabled, kind: leaf, type: boolean}
      - {name: ratio, kind: leaf, type: decimal}
      - {name: flag, kind: leaf, type: empty}
      - {name: anything, kind: leaf}
      - name: items
        kind: list
        key: [id]
        children:
          - {name: id, kind: leaf, type: uint}
          - {name: label, kind: leaf, type: string}
      - name: addr
        kind: choice
        children:
          - name: v4
            kind: case
            children:
              - {name: ipv4, kind: leaf, type: string}
              - {name: prefix-len, kind: leaf, type: uint}
          - {name: ipv6, kind: leaf, type: string}
`

const augSchema = `
module: aug
augments:
  - target: /test:test
    nodes:
      - {name: extra, kind: leaf, type: string}
`

const testDocument = `
test:test:
  name: box
  ports: [22, 80]
  enabled: true
  ratio: 0.5
  flag: [null]
  anything: -3
  items:
    - id: 1
      label: one
    - id: 2
  ipv4: 10.0.0.1
  prefix-len: 8
  aug:extra: x
`

func q(name string) data.QName { return data.QNameNew("test", name) }

var extraQName = data.QNameNew("aug", "extra")

func testContext(t *testing.T) *schema.Context {
	t.Helper()
	ctx, err := schema.ContextFromYAML([]byte(testSchema), []byte(augSchema))
	require.NoError(t, err)
	return ctx
}

func rootWith(ctx *schema.Context, children ...*data.Node) (*data.Node, error) {
	return data.BuilderNew(data.KindContainer, ctx.Root().Identifier()).
		Add(children...).Build()
}

func item(id uint64, children ...*data.Node) *data.Node {
	return data.ListEntryWithKey(q("items"), q("id"), id, children...)
}

func expectedDocument(ctx *schema.Context) *data.Node {
	root, _ := rootWith(ctx, data.ContainerNew(q("test"),
		data.LeafNew(q("name"), "box"),
		data.LeafListNew(q("ports"), 22, 80),
		data.LeafNew(q("enabled"), true),
		data.LeafNew(q("ratio"), 0.5),
		data.LeafNew(q("flag"), data.Empty()),
		data.LeafNew(q("anything"), -3),
		data.ListNew(q("items"),
			item(1, data.LeafNew(q("label"), "one")),
			item(2)),
		data.ChoiceNew(q("addr"),
			data.LeafNew(q("ipv4"), "10.0.0.1"),
			data.LeafNew(q("prefix-len"), 8)),
		data.AugmentationNew(data.AugmentationIdentifier(extraQName),
			data.LeafNew(extraQName, "x"))))
	return root
}

func yamlNode(t *testing.T, s string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(s), &n))
	return &n
}

func TestDecode(t *testing.T) {
	ctx := testContext(t)
	got, err := Unmarshal(ctx, []byte(testDocument))
	require.NoError(t, err)
	assert.True(t, got.Equal(expectedDocument(ctx)), "got %s", got)
}

func TestDecodeEmpty(t *testing.T) {
	ctx := testContext(t)
	for _, in := range []string{"", "---\n", "test:test: {}\n"} {
		got, err := Unmarshal(ctx, []byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, ctx.Root().Identifier(), got.Identifier())
	}
	got, err := Unmarshal(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Length())
}

func TestDecodeMergesDocuments(t *testing.T) {
	ctx := testContext(t)
	got, err := Unmarshal(ctx, []byte(`
test:test:
  name: box
  items:
    - id: 1
---
test:test:
  name: crate
  items:
    - id: 2
`))
	require.NoError(t, err)
	expected, _ := rootWith(ctx, data.ContainerNew(q("test"),
		data.LeafNew(q("name"), "crate"),
		data.ListNew(q("items"), item(1), item(2))))
	assert.True(t, got.Equal(expected), "got %s", got)
}

func TestDecodeFailures(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"unknown member", "test:test:\n  bogus: 1\n"},
		{"member without module", "test:\n  name: box\n"},
		{"wrong type", "test:test:\n  ports: [x]\n"},
		{"scalar expected", "test:test:\n  name: {a: b}\n"},
		{"mapping expected", "test:test: [1]\n"},
		{"sequence expected", "test:test:\n  items: {id: 1}\n"},
		{"entry without key", "test:test:\n  items:\n    - label: one\n"},
		{"duplicate entries", "test:test:\n  items:\n    - id: 1\n    - id: 1\n"},
		{"duplicate members", "test:test:\n  name: a\n  test:name: b\n"},
		{"empty with value", "test:test:\n  flag: yes\n"},
		{"syntax", "test:test: [\n"},
	}
	ctx := testContext(t)
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			_, err := Unmarshal(ctx, []byte(test.in))
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestDecodeNode(t *testing.T) {
	ctx := testContext(t)
	testPath := data.RootInstanceID().Node(q("test"))
	cases := []struct {
		name     string
		path     *data.InstanceID
		in       string
		expected *data.Node
	}{{
		name:     "list entry",
		path:     testPath.NodeWithKey(q("items"), q("id"), "3"),
		in:       "label: three\n",
		expected: item(3, data.LeafNew(q("label"), "three")),
	}, {
		name:     "leaf",
		path:     testPath.Node(q("name")),
		in:       "box\n",
		expected: data.LeafNew(q("name"), "box"),
	}, {
		name:     "leaf-list entry",
		path:     testPath.NodeWithValue(q("ports"), 8080),
		in:       "8080\n",
		expected: data.LeafListEntryNew(q("ports"), 8080),
	}, {
		name:     "list",
		path:     testPath.Node(q("items")),
		in:       "- id: 4\n",
		expected: data.ListNew(q("items"), item(4)),
	}, {
		name:     "leaf behind a choice",
		path:     testPath.Node(q("ipv6")),
		in:       "\"::1\"\n",
		expected: data.LeafNew(q("ipv6"), "::1"),
	}, {
		name: "container",
		path: testPath,
		in:   "ipv6: \"::1\"\n",
		expected: data.ContainerNew(q("test"),
			data.ChoiceNew(q("addr"), data.LeafNew(q("ipv6"), "::1"))),
	}}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			got, err := DecodeNode(ctx, test.path, yamlNode(t, test.in))
			require.NoError(t, err)
			assert.True(t, got.Equal(test.expected), "got %s", got)
		})
	}

	_, err := DecodeNode(ctx, testPath.Node(q("bogus")), yamlNode(t, "x\n"))
	assert.ErrorIs(t, err, schema.ErrUnknownNode)
}

func TestEncodeRoundTrip(t *testing.T) {
	ctx := testContext(t)
	doc := expectedDocument(ctx)
	out, err := Marshal(doc)
	require.NoError(t, err)

	text := string(out)
	for _, expected := range []string{
		"test:test:",
		"aug:extra: x",
		"flag: [null]",
		"ipv4: 10.0.0.1",
		"label: one",
		"anything: -3",
	} {
		assert.Contains(t, text, expected)
	}
	assert.False(t, strings.Contains(text, "addr"), "choices are not encoded")
	assert.False(t, strings.Contains(text, "test:name"), "the module is inherited")

	back, err := Unmarshal(ctx, out)
	require.NoError(t, err)
	assert.True(t, back.Equal(doc), "got %s", back)
}

func TestEncodeQuotesStrings(t *testing.T) {
	ctx := testContext(t)
	doc, _ := rootWith(ctx, data.ContainerNew(q("test"),
		data.LeafNew(q("name"), "123"),
		data.LeafNew(q("anything"), "true")))
	out, err := Marshal(doc)
	require.NoError(t, err)

	back, err := Unmarshal(ctx, out)
	require.NoError(t, err)
	assert.True(t, back.Equal(doc), "got %s from\n%s", back, out)
}
