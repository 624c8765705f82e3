// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"io"
	"log/slog"
	"testing"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
	"github.com/stretchr/testify/require"
)

const testSchema = `
module: test
nodes:
  - name: test
    kind: container
    children:
      - name: outer-list
        kind: list
        key: [id]
        children:
          - {name: id, kind: leaf, type: uint}
          - name: inner-list
            kind: list
            key: [name]
            children:
              - {name: name, kind: leaf, type: string}
              - {name: value, kind: leaf, type: string}
      - name: addr
        kind: choice
        children:
          - name: v4
            kind: case
            children:
              - {name: ipv4, kind: leaf, type: string}
              - {name: prefix-len, kind: leaf, type: uint}
          - {name: ipv6, kind: leaf, type: string}
      - {name: tags, kind: leaf-list, type: string, max-elements: 3}
      - {name: description, kind: leaf, type: string}
      - name: pairs
        kind: list
        key: [k1, k2]
        children:
          - {name: k1, kind: leaf, type: string}
          - {name: k2, kind: leaf, type: string}
      - name: state
        kind: container
        config: false
        children:
          - {name: uptime, kind: leaf, type: uint}
      - name: server
        kind: container
        presence: true
        children:
          - {name: host, kind: leaf, type: string, mandatory: true}
          - {name: port, kind: leaf, type: uint}
      - name: dns
        kind: container
        presence: true
        children:
          - {name: servers, kind: leaf-list, type: string, min-elements: 1}
`

const augSchema = `
module: aug
augments:
  - target: /test:test
    nodes:
      - {name: extra, kind: leaf, type: string}
`

func q(name string) data.QName { return data.QNameNew("test", name) }

var (
	testPath      = data.RootInstanceID().Node(q("test"))
	outerListPath = testPath.Node(q("outer-list"))
	tagsPath      = testPath.Node(q("tags"))
	serverPath    = testPath.Node(q("server"))
)

func outerEntryPath(id uint64) *data.InstanceID {
	return outerListPath.NodeWithKey(q("outer-list"), q("id"), id)
}

func innerEntryPath(outer uint64, name string) *data.InstanceID {
	return outerEntryPath(outer).Node(q("inner-list")).
		NodeWithKey(q("inner-list"), q("name"), name)
}

func tagPath(tag string) *data.InstanceID {
	return tagsPath.NodeWithValue(q("tags"), tag)
}

func pairEntry(k1, k2 string) (*data.InstanceID, *data.Node) {
	arg := data.NodeIdentifierWithPredicates(q("pairs"),
		data.KeyValue{Key: q("k1"), Value: data.ValueNew(k1)},
		data.KeyValue{Key: q("k2"), Value: data.ValueNew(k2)})
	entry := data.ListEntryNew(arg, data.LeafNew(q("k1"), k1), data.LeafNew(q("k2"), k2))
	return testPath.Node(q("pairs")).Append(arg), entry
}

func outerEntry(id uint64, children ...*data.Node) *data.Node {
	return data.ListEntryWithKey(q("outer-list"), q("id"), id, children...)
}

func innerEntry(name, value string) *data.Node {
	return data.ListEntryWithKey(q("inner-list"), q("name"), name,
		data.LeafNew(q("value"), value))
}

// fixturePayload holds outer-list entries 1 and 2, entry 2 holding
// inner-list entries "one" and "two".
func fixturePayload() *data.Node {
	return data.ContainerNew(q("test"),
		data.ListNew(q("outer-list"),
			outerEntry(1),
			outerEntry(2,
				data.ListNew(q("inner-list"),
					innerEntry("one", "first"),
					innerEntry("two", "second")))))
}

func testContext(t *testing.T, docs ...string) *schema.Context {
	t.Helper()
	srcs := make([][]byte, len(docs))
	for i, doc := range docs {
		srcs[i] = []byte(doc)
	}
	ctx, err := schema.ContextFromYAML(srcs...)
	require.NoError(t, err)
	return ctx
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestTree(t *testing.T, opts ...Option) *DataTree {
	t.Helper()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	dt, err := New(testContext(t, testSchema), opts...)
	require.NoError(t, err)
	return dt
}

func fixtureTree(t *testing.T, opts ...Option) *DataTree {
	t.Helper()
	dt := newTestTree(t, opts...)
	commit(t, dt, func(m *Modification) error {
		return m.Write(testPath, fixturePayload())
	})
	return dt
}

// commit records changes with fn against the newest snapshot and
// commits them.
func commit(t *testing.T, dt *DataTree, fn func(m *Modification) error) *Candidate {
	t.Helper()
	c, err := prepare(dt, dt.TakeSnapshot(), fn)
	require.NoError(t, err)
	require.NoError(t, dt.Commit(c))
	return c
}

func prepare(dt *DataTree, snap *Snapshot, fn func(m *Modification) error) (*Candidate, error) {
	m := snap.NewModification()
	if err := fn(m); err != nil {
		return nil, err
	}
	m.Ready()
	return dt.Prepare(m)
}
