// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"testing"

	"github.com/danos/datatree/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireValidationError(t *testing.T, err error, constraint string) *ValidationError {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSchemaValidation)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, constraint, verr.Constraint, "%s", err)
	return verr
}

func TestApplySharesUntouchedSubtrees(t *testing.T) {
	dt := fixtureTree(t)
	before := dt.TakeSnapshot()

	commit(t, dt, func(m *Modification) error {
		return m.Write(outerEntryPath(1), outerEntry(1,
			data.ListNew(q("inner-list"), innerEntry("x", "y"))))
	})
	after := dt.TakeSnapshot()

	entry2Before, ok := FindNode(before.RootNode(), outerEntryPath(2))
	require.True(t, ok)
	entry2After, ok := FindNode(after.RootNode(), outerEntryPath(2))
	require.True(t, ok)
	assert.Same(t, entry2Before, entry2After)

	entry1Before, _ := FindNode(before.RootNode(), outerEntryPath(1))
	entry1After, _ := FindNode(after.RootNode(), outerEntryPath(1))
	assert.NotSame(t, entry1Before, entry1After)
	assert.Equal(t, 1, entry1Before.Data().Length(), "the old snapshot is unchanged")
}

func TestApplyReadBack(t *testing.T) {
	dt := newTestTree(t)
	leaf := data.LeafNew(q("description"), "router")
	commit(t, dt, func(m *Modification) error {
		return m.Write(testPath.Node(q("description")), leaf)
	})

	got, ok := dt.TakeSnapshot().ReadNode(testPath.Node(q("description")))
	require.True(t, ok)
	assert.True(t, got.Equal(leaf))

	test, ok := dt.TakeSnapshot().ReadNode(testPath)
	require.True(t, ok)
	assert.Equal(t, 1, test.Length(), "intermediate containers are created")
}

func TestApplyPayloadMirrorsTree(t *testing.T) {
	dt := fixtureTree(t)
	commit(t, dt, func(m *Modification) error {
		return m.Delete(innerEntryPath(2, "one"))
	})
	root := dt.TakeSnapshot().RootNode()
	test, ok := FindNode(root, testPath)
	require.True(t, ok)

	expected := data.ContainerNew(q("test"),
		data.ListNew(q("outer-list"),
			outerEntry(1),
			outerEntry(2,
				data.ListNew(q("inner-list"), innerEntry("two", "second")))))
	assert.True(t, test.Data().Equal(expected), "got %s", test.Data())
}

func TestApplyMerge(t *testing.T) {
	dt := fixtureTree(t)
	commit(t, dt, func(m *Modification) error {
		return m.Merge(testPath, data.ContainerNew(q("test"),
			data.ListNew(q("outer-list"),
				outerEntry(2, data.ListNew(q("inner-list"),
					innerEntry("one", "updated"),
					innerEntry("three", "third")))),
			data.LeafNew(q("description"), "merged")))
	})
	snap := dt.TakeSnapshot()

	inner, ok := snap.ReadNode(outerEntryPath(2).Node(q("inner-list")))
	require.True(t, ok)
	assert.Equal(t, 3, inner.Length())

	one, ok := snap.ReadNode(innerEntryPath(2, "one").Node(q("value")))
	require.True(t, ok)
	assert.Equal(t, "updated", one.Value().AsString())

	_, ok = snap.ReadNode(outerEntryPath(1))
	assert.True(t, ok, "merge keeps entries it does not mention")
}

func TestApplyMergeThenDelete(t *testing.T) {
	dt := fixtureTree(t)
	commit(t, dt, func(m *Modification) error {
		if err := m.Merge(testPath, data.ContainerNew(q("test"),
			data.ListNew(q("outer-list"), outerEntry(3)))); err != nil {
			return err
		}
		return m.Delete(outerEntryPath(2))
	})
	list, ok := dt.TakeSnapshot().ReadNode(outerListPath)
	require.True(t, ok)
	assert.Equal(t, 2, list.Length())
	assert.True(t, list.Contains(outerEntryPath(1).At(2)))
	assert.True(t, list.Contains(outerEntryPath(3).At(2)))
}

func TestApplyStructuralNodes(t *testing.T) {
	dt := fixtureTree(t)
	commit(t, dt, func(m *Modification) error {
		if err := m.Delete(outerEntryPath(1)); err != nil {
			return err
		}
		return m.Delete(outerEntryPath(2))
	})
	snap := dt.TakeSnapshot()
	_, ok := snap.ReadNode(outerListPath)
	assert.False(t, ok, "an empty list disappears")
	_, ok = snap.ReadNode(testPath)
	assert.False(t, ok, "an empty non-presence container disappears")
	assert.Equal(t, 0, snap.RootNode().Length())

	commit(t, dt, func(m *Modification) error {
		return m.Write(testPath.Node(q("dns")).Node(q("servers")),
			data.LeafListNew(q("servers"), "192.0.2.1"))
	})
	_, err := prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Delete(testPath.Node(q("dns")).Node(q("servers")))
	})
	requireValidationError(t, err, ConstraintMinElements)
	commit(t, dt, func(m *Modification) error {
		return m.Delete(testPath.Node(q("dns")))
	})
	_, ok = dt.TakeSnapshot().ReadNode(testPath)
	assert.False(t, ok)
}

func TestApplyDeleteAbsent(t *testing.T) {
	dt := fixtureTree(t)
	before := dt.TakeSnapshot()
	c := commit(t, dt, func(m *Modification) error {
		return m.Delete(outerEntryPath(7))
	})
	assert.Equal(t, Unmodified, c.RootNode().ModificationType())
	entry, _ := FindNode(dt.TakeSnapshot().RootNode(), outerEntryPath(1))
	old, _ := FindNode(before.RootNode(), outerEntryPath(1))
	assert.Same(t, old, entry)
}

func TestApplyDeleteRoot(t *testing.T) {
	dt := fixtureTree(t)
	commit(t, dt, func(m *Modification) error {
		return m.Delete(data.RootInstanceID())
	})
	root := dt.TakeSnapshot().RootNode()
	require.NotNil(t, root)
	assert.Equal(t, 0, root.Length())
}

func TestApplyChoice(t *testing.T) {
	dt := newTestTree(t)
	commit(t, dt, func(m *Modification) error {
		if err := m.Write(testPath.Node(q("ipv4")), data.LeafNew(q("ipv4"), "192.0.2.1")); err != nil {
			return err
		}
		return m.Write(testPath.Node(q("prefix-len")), data.LeafNew(q("prefix-len"), 24))
	})
	snap := dt.TakeSnapshot()
	_, ok := snap.ReadNode(testPath.Node(q("ipv4")))
	require.True(t, ok)
	addr, ok := snap.ReadNode(testPath.Node(q("addr")))
	require.True(t, ok)
	assert.Equal(t, 2, addr.Length())

	c := commit(t, dt, func(m *Modification) error {
		return m.Write(testPath.Node(q("ipv6")), data.LeafNew(q("ipv6"), "2001:db8::1"))
	})
	snap = dt.TakeSnapshot()
	_, ok = snap.ReadNode(testPath.Node(q("ipv4")))
	assert.False(t, ok, "writing another case removes the active one")
	_, ok = snap.ReadNode(testPath.Node(q("prefix-len")))
	assert.False(t, ok)
	_, ok = snap.ReadNode(testPath.Node(q("ipv6")))
	assert.True(t, ok)

	var deleted []string
	require.NoError(t, c.Walk(func(path *data.InstanceID, n *CandidateNode) error {
		if n.ModificationType() == Delete {
			deleted = append(deleted, path.String())
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{"/test:test/addr/ipv4", "/test:test/addr/prefix-len"}, deleted)
}

func TestApplyChoiceBothCases(t *testing.T) {
	dt := newTestTree(t)
	_, err := prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		if err := m.Write(testPath.Node(q("ipv4")), data.LeafNew(q("ipv4"), "192.0.2.1")); err != nil {
			return err
		}
		return m.Write(testPath.Node(q("ipv6")), data.LeafNew(q("ipv6"), "2001:db8::1"))
	})
	requireValidationError(t, err, ConstraintChoice)

	m := dt.TakeSnapshot().NewModification()
	err = m.Write(testPath.Node(q("addr")), data.ChoiceNew(q("addr"),
		data.LeafNew(q("ipv4"), "192.0.2.1"),
		data.LeafNew(q("ipv6"), "2001:db8::1")))
	requireValidationError(t, err, ConstraintChoice)
}

func TestApplyMandatory(t *testing.T) {
	dt := newTestTree(t)
	_, err := prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Write(serverPath, data.ContainerNew(q("server"),
			data.LeafNew(q("port"), 80)))
	})
	verr := requireValidationError(t, err, ConstraintMandatory)
	assert.Equal(t, "/test:test/server/host", verr.Path.String())

	commit(t, dt, func(m *Modification) error {
		return m.Write(serverPath, data.ContainerNew(q("server"),
			data.LeafNew(q("host"), "example.com")))
	})
	_, err = prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Delete(serverPath.Node(q("host")))
	})
	requireValidationError(t, err, ConstraintMandatory)

	_, err = prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		if err := m.Delete(serverPath.Node(q("host"))); err != nil {
			return err
		}
		return m.Write(serverPath.Node(q("host")), data.LeafNew(q("host"), "example.net"))
	})
	assert.NoError(t, err, "the final state is what is validated")
}

func TestApplyMandatoryDisabled(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.MandatoryValidation = false
	dt := newTestTree(t, WithTreeConfig(cfg))
	commit(t, dt, func(m *Modification) error {
		return m.Write(serverPath, data.ContainerNew(q("server")))
	})
	server, ok := dt.TakeSnapshot().ReadNode(serverPath)
	require.True(t, ok, "presence containers exist without children")
	assert.Equal(t, 0, server.Length())
}

func TestApplyMinElements(t *testing.T) {
	dt := newTestTree(t)
	_, err := prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Write(testPath.Node(q("dns")), data.ContainerNew(q("dns")))
	})
	requireValidationError(t, err, ConstraintMinElements)
}

func TestApplyMaxElementsIsAllOrNothing(t *testing.T) {
	dt := newTestTree(t)
	commit(t, dt, func(m *Modification) error {
		return m.Write(tagsPath, data.LeafListNew(q("tags"), "a", "b"))
	})
	before := dt.TakeSnapshot()

	_, err := prepare(dt, before, func(m *Modification) error {
		if err := m.Write(testPath.Node(q("description")), data.LeafNew(q("description"), "x")); err != nil {
			return err
		}
		for _, tag := range []string{"c", "d"} {
			if err := m.Write(tagPath(tag), data.LeafListEntryNew(q("tags"), tag)); err != nil {
				return err
			}
		}
		return nil
	})
	requireValidationError(t, err, ConstraintMaxElements)

	assert.Same(t, before, dt.TakeSnapshot())
	_, ok := dt.TakeSnapshot().ReadNode(testPath.Node(q("description")))
	assert.False(t, ok)

	commit(t, dt, func(m *Modification) error {
		return m.Write(tagPath("c"), data.LeafListEntryNew(q("tags"), "c"))
	})
	tags, _ := dt.TakeSnapshot().ReadNode(tagsPath)
	assert.Equal(t, 3, tags.Length())
}

func TestApplyConfigFalse(t *testing.T) {
	uptime := testPath.Node(q("state")).Node(q("uptime"))

	dt := newTestTree(t)
	m := dt.TakeSnapshot().NewModification()
	err := m.Write(uptime, data.LeafNew(q("uptime"), 10))
	requireValidationError(t, err, ConstraintConfig)
	err = m.Write(testPath, data.ContainerNew(q("test"),
		data.ContainerNew(q("state"), data.LeafNew(q("uptime"), 10))))
	requireValidationError(t, err, ConstraintConfig)

	cfg := DefaultTreeConfig()
	cfg.TreeType = Operational
	oper := newTestTree(t, WithTreeConfig(cfg))
	commit(t, oper, func(m *Modification) error {
		return m.Write(uptime, data.LeafNew(q("uptime"), 10))
	})
	got, ok := oper.TakeSnapshot().ReadNode(uptime)
	require.True(t, ok)
	assert.Equal(t, uint64(10), got.Value().AsUint64())
}

func TestApplyKeys(t *testing.T) {
	dt := fixtureTree(t)
	m := dt.TakeSnapshot().NewModification()

	err := m.Write(outerEntryPath(1), outerEntry(5))
	requireValidationError(t, err, ConstraintShape)

	err = m.Write(outerEntryPath(1), data.ListEntryNew(outerEntryPath(1).At(2),
		data.LeafNew(q("id"), 5)))
	requireValidationError(t, err, ConstraintKey)

	_, err = prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Write(outerEntryPath(1).Node(q("id")), data.LeafNew(q("id"), 9))
	})
	requireValidationError(t, err, ConstraintKey)

	_, err = prepare(dt, dt.TakeSnapshot(), func(m *Modification) error {
		return m.Delete(outerEntryPath(1).Node(q("id")))
	})
	requireValidationError(t, err, ConstraintKey)
}

func TestApplyEntryCreatedFromPath(t *testing.T) {
	dt := newTestTree(t)
	commit(t, dt, func(m *Modification) error {
		return m.Write(innerEntryPath(4, "a").Node(q("value")), data.LeafNew(q("value"), "v"))
	})
	entry, ok := dt.TakeSnapshot().ReadNode(outerEntryPath(4))
	require.True(t, ok)
	id, ok := entry.Child(data.NodeIdentifier(q("id")))
	require.True(t, ok, "key leaves come from the path")
	assert.Equal(t, uint64(4), id.Value().AsUint64())
}

func TestApplyShapeErrors(t *testing.T) {
	dt := newTestTree(t)
	m := dt.TakeSnapshot().NewModification()

	err := m.Write(testPath.Node(q("description")), data.LeafNew(q("description"), 7))
	requireValidationError(t, err, ConstraintType)

	err = m.Write(testPath.Node(q("description")), data.LeafNew(q("tags"), "x"))
	requireValidationError(t, err, ConstraintShape)

	err = m.Write(testPath, data.ContainerNew(q("test"), data.LeafNew(q("bogus"), "x")))
	requireValidationError(t, err, ConstraintShape)

	err = m.Write(testPath.Node(q("bogus")), data.LeafNew(q("bogus"), "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestApplyRequiresReady(t *testing.T) {
	snap := newTestTree(t).TakeSnapshot()
	m := snap.NewModification()
	_, err := snap.Apply(m, snap.Version().Next())
	assert.ErrorIs(t, err, ErrNotReady)

	_, err = snap.op.Apply(m, snap.RootNode(), snap.Version().Next())
	assert.ErrorIs(t, err, ErrNotReady)

	m.Ready()
	root, err := snap.op.Apply(m, snap.RootNode(), snap.Version().Next())
	require.NoError(t, err)
	assert.Same(t, snap.RootNode(), root, "an empty modification changes nothing")
}

func TestApplyMultiKeyEntriesStayDistinct(t *testing.T) {
	dt := newTestTree(t)
	entries := [][2]string{
		{"a'][k2='b", "c"},
		{"a", "b'][k2='c"},
		{"a", "b"},
	}
	commit(t, dt, func(m *Modification) error {
		for _, e := range entries {
			path, entry := pairEntry(e[0], e[1])
			if err := m.Write(path, entry); err != nil {
				return err
			}
		}
		return nil
	})
	snap := dt.TakeSnapshot()
	pairs, err := FindNodeChecked(snap.RootNode(), testPath.Node(q("pairs")))
	require.NoError(t, err)
	assert.Equal(t, len(entries), pairs.Length())

	for _, e := range entries {
		path, _ := pairEntry(e[0], e[1])
		parsed, err := data.InstanceIDParse(path.String())
		require.NoError(t, err, "%s", path)
		n, ok := snap.ReadNode(parsed)
		require.True(t, ok, "%s", path)
		k2, ok := n.Child(data.NodeIdentifier(q("k2")))
		require.True(t, ok)
		assert.Equal(t, e[1], k2.Value().AsString())
	}
}

func TestApplyQuotedLeafListValues(t *testing.T) {
	dt := newTestTree(t)
	values := []string{"it's", `say "hi"`, "[x]/y"}
	commit(t, dt, func(m *Modification) error {
		for _, v := range values {
			if err := m.Write(tagPath(v), data.LeafListEntryNew(q("tags"), v)); err != nil {
				return err
			}
		}
		return nil
	})
	snap := dt.TakeSnapshot()
	for _, v := range values {
		parsed, err := data.InstanceIDParse(tagPath(v).String())
		require.NoError(t, err, "%s", tagPath(v))
		n, ok := snap.ReadNode(parsed)
		require.True(t, ok, "%s", parsed)
		assert.Equal(t, v, n.Value().AsString())
	}
}

func TestApplyRejectsStaleVersion(t *testing.T) {
	dt := fixtureTree(t)
	snap := dt.TakeSnapshot()
	m := snap.NewModification()
	require.NoError(t, m.Delete(outerEntryPath(1)))
	m.Ready()

	for _, v := range []Version{InitialVersion(), snap.Version()} {
		_, err := snap.Apply(m, v)
		assert.ErrorIs(t, err, ErrStaleVersion, "version %s", v)

		_, err = snap.op.Apply(m, snap.RootNode(), v)
		assert.ErrorIs(t, err, ErrStaleVersion, "version %s", v)
	}
	entry, ok := FindNode(snap.RootNode(), outerEntryPath(1))
	require.True(t, ok, "the snapshot is unchanged")
	assert.Equal(t, Version(1), entry.Version())

	applied, err := snap.Apply(m, snap.Version().Next())
	require.NoError(t, err)
	_, ok = FindNode(applied.Root(), outerEntryPath(1))
	assert.False(t, ok)
}

func TestApplyNoopKeepsRoot(t *testing.T) {
	dt := fixtureTree(t)
	snap := dt.TakeSnapshot()
	m := snap.NewModification()
	require.NoError(t, m.Delete(outerEntryPath(7)))
	require.NoError(t, m.Delete(innerEntryPath(2, "nine")))
	m.Ready()

	applied, err := snap.Apply(m, snap.Version().Next())
	require.NoError(t, err)
	assert.Same(t, snap.RootNode(), applied.Root())
	assert.Equal(t, Unmodified, applied.Candidate().RootNode().ModificationType())
	assert.Equal(t, snap.Version().Next(), applied.Snapshot().Version())
}
