// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/danos/datatree/data"
	"github.com/google/uuid"
)

// Operation is the change recorded for one node of a Modification.
type Operation uint8

const (
	// OpNone leaves the node as it is.
	OpNone Operation = iota
	// OpTouch leaves the node but changes some of its descendants. A
	// touched node that does not exist is created.
	OpTouch
	// OpWrite replaces the node.
	OpWrite
	// OpMerge merges a payload into the node.
	OpMerge
	// OpDelete removes the node.
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpTouch:
		return "touch"
	case OpWrite:
		return "write"
	case OpMerge:
		return "merge"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// modifiedNode is one node of the modification tree. Children hold
// the changes recorded below the node after its own operation.
type modifiedNode struct {
	arg      data.PathArgument
	op       Operation
	value    *data.Node
	children map[string]*modifiedNode
}

func (n *modifiedNode) child(arg data.PathArgument) *modifiedNode {
	key := arg.Key()
	if c, ok := n.children[key]; ok {
		return c
	}
	if n.children == nil {
		n.children = make(map[string]*modifiedNode)
	}
	c := &modifiedNode{arg: arg}
	n.children[key] = c
	return c
}

func (n *modifiedNode) sortedChildren() []*modifiedNode {
	keys := slices.Sorted(maps.Keys(n.children))
	out := make([]*modifiedNode, len(keys))
	for i, k := range keys {
		out[i] = n.children[k]
	}
	return out
}

// touch marks n as an ancestor of a change.
func (n *modifiedNode) touch(op *ApplyOperation) {
	switch n.op {
	case OpNone:
		n.op = OpTouch
	case OpDelete:
		n.write(op.emptyNode(n.arg))
	case OpTouch, OpWrite, OpMerge:
	}
}

func (n *modifiedNode) write(value *data.Node) {
	n.op = OpWrite
	n.value = value
	n.children = nil
}

func (n *modifiedNode) delete() {
	n.op = OpDelete
	n.value = nil
	n.children = nil
}

func (n *modifiedNode) merge(op *ApplyOperation, value *data.Node) {
	if n.op == OpDelete {
		n.write(value)
		return
	}
	if len(n.children) == 0 || op.hasValue() {
		switch n.op {
		case OpWrite, OpMerge:
			n.value = op.mergeData(n.value, value)
		case OpNone, OpTouch:
			n.op = OpMerge
			n.value = value
		}
		if op.hasValue() {
			n.children = nil
		}
		return
	}
	// Later changes of the children are recorded below n, so the
	// payload is merged into them one child at a time.
	for child := range value.Children() {
		co, ok := op.Child(child.Identifier())
		if !ok {
			continue
		}
		n.child(child.Identifier()).merge(co, child)
	}
	if n.op == OpNone || n.op == OpTouch {
		n.op = OpMerge
		n.value = op.emptyNode(n.arg)
	}
}

// Modification records changes against a Snapshot. Changes are
// validated against the schema as they are recorded. Once Ready has
// been called the modification is sealed and may be applied, any
// number of times, to its snapshot or to a later one.
type Modification struct {
	id   uuid.UUID
	base *Snapshot

	mu     sync.Mutex
	root   *modifiedNode
	sealed bool
}

func newModification(base *Snapshot) *Modification {
	return &Modification{
		id:   uuid.New(),
		base: base,
		root: &modifiedNode{arg: base.op.schema.Identifier()},
	}
}

// ID returns the identifier of the modification.
func (m *Modification) ID() uuid.UUID { return m.id }

// Snapshot returns the snapshot the modification was created from.
func (m *Modification) Snapshot() *Snapshot { return m.base }

// resolve converts path into the normalized path below the tree root
// and returns the operations handling each node along it, the root's
// first.
func (m *Modification) resolve(path *data.InstanceID) (*data.InstanceID, []*ApplyOperation, error) {
	norm, _, err := m.base.schema.Resolve(path)
	if err != nil {
		return nil, nil, err
	}
	if !m.base.rootPath.IsPrefixOf(norm) {
		return nil, nil, fmt.Errorf("%w: %s is outside of the tree rooted at %s",
			ErrInvalidPath, path, m.base.rootPath)
	}
	rel := norm.Suffix(m.base.rootPath.Len())
	ops := make([]*ApplyOperation, rel.Len()+1)
	ops[0] = m.base.op
	for i := 0; i < rel.Len(); i++ {
		next, ok := ops[i].Child(rel.At(i))
		if !ok {
			return nil, nil, fmt.Errorf("%w %s", ErrUnknownNode, path)
		}
		ops[i+1] = next
	}
	return rel, ops, nil
}

// resolveChange resolves the target of a change and checks that the
// tree may hold it.
func (m *Modification) resolveChange(path *data.InstanceID) (*data.InstanceID, []*ApplyOperation, error) {
	rel, ops, err := m.resolve(path)
	if err != nil {
		return nil, nil, err
	}
	if op := ops[len(ops)-1]; op.rejectsData() {
		return nil, nil, validationErrorf(rel, ConstraintConfig,
			"%s is not configuration data", op.schema.QName())
	}
	return rel, ops, nil
}

func (m *Modification) checkPayload(
	rel *data.InstanceID, op *ApplyOperation, payload *data.Node,
) error {
	if payload == nil {
		return validationErrorf(rel, ConstraintShape, "missing payload")
	}
	want := op.schema.Identifier()
	if last, ok := rel.Last(); ok {
		want = last
	}
	if !payload.Identifier().Equal(want) {
		return validationErrorf(rel, ConstraintShape,
			"payload %s does not match path argument %s",
			payload.Identifier(), want)
	}
	return op.verifyStructure(rel, payload)
}

// descend returns the modified node at rel, marking every node above
// it as touched.
func (m *Modification) descend(rel *data.InstanceID, ops []*ApplyOperation) *modifiedNode {
	n := m.root
	for i := 0; i < rel.Len(); i++ {
		n.touch(ops[i])
		n = n.child(rel.At(i))
	}
	return n
}

func (m *Modification) change(
	path *data.InstanceID,
	payload *data.Node,
	fn func(n *modifiedNode, op *ApplyOperation),
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sealed {
		return ErrSealed
	}
	rel, ops, err := m.resolveChange(path)
	if err != nil {
		return err
	}
	op := ops[len(ops)-1]
	if payload != nil {
		if err := m.checkPayload(rel, op, payload); err != nil {
			return err
		}
	}
	fn(m.descend(rel, ops), op)
	return nil
}

// Write records replacing the node at path with payload. The
// identifier of payload must match the last argument of path.
func (m *Modification) Write(path *data.InstanceID, payload *data.Node) error {
	if payload == nil {
		return validationErrorf(path, ConstraintShape, "missing payload")
	}
	return m.change(path, payload, func(n *modifiedNode, _ *ApplyOperation) {
		n.write(payload)
	})
}

// Merge records merging payload into the node at path. Children of the
// node that payload does not mention are kept.
func (m *Modification) Merge(path *data.InstanceID, payload *data.Node) error {
	if payload == nil {
		return validationErrorf(path, ConstraintShape, "missing payload")
	}
	return m.change(path, payload, func(n *modifiedNode, op *ApplyOperation) {
		n.merge(op, payload)
	})
}

// Delete records removing the node at path. Deleting a node that does
// not exist has no effect. Deleting the root empties the tree.
func (m *Modification) Delete(path *data.InstanceID) error {
	return m.change(path, nil, func(n *modifiedNode, op *ApplyOperation) {
		if n == m.root {
			n.write(op.emptyNode(n.arg))
			return
		}
		n.delete()
	})
}

// Read returns the node at path as it would be after the changes
// recorded so far were applied to the snapshot.
func (m *Modification) Read(path *data.InstanceID) (*data.Node, bool, error) {
	rel, ops, err := m.resolve(path)
	if err != nil {
		return nil, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	mod, depth := m.root, 0
	for depth < rel.Len() {
		next, ok := mod.children[rel.At(depth).Key()]
		if !ok {
			break
		}
		mod = next
		depth++
	}
	at := rel.Prefix(depth)
	current, _ := FindNode(m.base.root, at)
	ac := &applyContext{version: m.base.version.Next()}
	result, _, err := ops[depth].apply(ac, at, mod, current)
	if err != nil {
		return nil, false, err
	}
	n, ok := FindNode(result, rel.Suffix(depth))
	if !ok {
		return nil, false, nil
	}
	return n.Data(), true, nil
}

// Ready seals the modification. Further changes fail with ErrSealed.
func (m *Modification) Ready() {
	m.mu.Lock()
	m.sealed = true
	m.mu.Unlock()
}

// IsReady reports whether Ready was called.
func (m *Modification) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sealed
}
