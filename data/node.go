// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/benbjohnson/immutable"
)

// Kind is the kind of a Node.
type Kind uint8

const (
	KindLeaf Kind = iota
	KindContainer
	KindList
	KindListEntry
	KindLeafList
	KindLeafListEntry
	KindChoice
	KindAugmentation
)

// String returns the name of the Kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindContainer:
		return "container"
	case KindList:
		return "list"
	case KindListEntry:
		return "list-entry"
	case KindLeafList:
		return "leaf-list"
	case KindLeafListEntry:
		return "leaf-list-entry"
	case KindChoice:
		return "choice"
	case KindAugmentation:
		return "augmentation"
	default:
		return "unknown"
	}
}

// HasValue returns whether nodes of this kind hold a Value instead of
// children.
func (k Kind) HasValue() bool {
	return k == KindLeaf || k == KindLeafListEntry
}

// ErrDuplicateChild is returned when two children of a node share an
// identifier.
var ErrDuplicateChild = errors.New("duplicate child")

// Node is an immutable normalized node. Leaves and leaf-list entries
// hold a Value; every other kind holds children keyed by their
// PathArgument. The mutation methods return structurally shared copies
// of the node, which makes copies cheap and keeps the original intact.
type Node struct {
	kind     Kind
	id       PathArgument
	value    *Value
	children *immutable.SortedMap[string, *Node]
}

func emptyChildren() *immutable.SortedMap[string, *Node] {
	return immutable.NewSortedMap[string, *Node](nil)
}

// LeafNew creates a leaf named q holding value.
func LeafNew(q QName, value interface{}) *Node {
	return &Node{kind: KindLeaf, id: NodeIdentifier(q), value: ValueNew(value)}
}

// LeafListEntryNew creates an entry of the leaf-list named q.
func LeafListEntryNew(q QName, value interface{}) *Node {
	v := ValueNew(value)
	return &Node{kind: KindLeafListEntry, id: NodeWithValue(q, v), value: v}
}

// ContainerNew creates a container named q with the supplied children.
// It panics if two children share an identifier.
func ContainerNew(q QName, children ...*Node) *Node {
	return mustBuild(BuilderNew(KindContainer, NodeIdentifier(q)).Add(children...))
}

// ChoiceNew creates a choice named q with the children of its active case.
func ChoiceNew(q QName, children ...*Node) *Node {
	return mustBuild(BuilderNew(KindChoice, NodeIdentifier(q)).Add(children...))
}

// AugmentationNew creates an augmentation identified by id.
func AugmentationNew(id PathArgument, children ...*Node) *Node {
	return mustBuild(BuilderNew(KindAugmentation, id).Add(children...))
}

// ListNew creates the keyed list named q from its entries.
func ListNew(q QName, entries ...*Node) *Node {
	return mustBuild(BuilderNew(KindList, NodeIdentifier(q)).Add(entries...))
}

// LeafListNew creates the leaf-list named q holding values.
func LeafListNew(q QName, values ...interface{}) *Node {
	b := BuilderNew(KindLeafList, NodeIdentifier(q))
	for _, v := range values {
		b.Add(LeafListEntryNew(q, v))
	}
	return mustBuild(b)
}

// ListEntryNew creates a list entry identified by id. Key leaves named
// by the predicates of id are added when the children do not already
// carry them.
func ListEntryNew(id PathArgument, children ...*Node) *Node {
	return mustBuild(BuilderNew(KindListEntry, id).Add(children...))
}

// ListEntryWithKey creates a list entry of the list named q with a
// single key leaf.
func ListEntryWithKey(q, key QName, value interface{}, children ...*Node) *Node {
	return ListEntryNew(NodeWithKey(q, key, value), children...)
}

func mustBuild(b *Builder) *Node {
	n, err := b.Build()
	if err != nil {
		panic(err)
	}
	return n
}

// Builder accumulates the children of a node. Unlike the ...New
// constructors it reports problems as errors.
type Builder struct {
	kind     Kind
	id       PathArgument
	children *immutable.SortedMapBuilder[string, *Node]
	err      error
}

// BuilderNew starts building a node of the given kind.
func BuilderNew(kind Kind, id PathArgument) *Builder {
	return &Builder{
		kind:     kind,
		id:       id,
		children: immutable.NewSortedMapBuilder[string, *Node](nil),
	}
}

// Add appends children to the node being built. The first duplicate
// identifier is remembered and reported by Build.
func (b *Builder) Add(children ...*Node) *Builder {
	for _, child := range children {
		if child == nil {
			continue
		}
		key := child.id.Key()
		if _, dup := b.children.Get(key); dup {
			if b.err == nil {
				b.err = fmt.Errorf("%w %s in %s", ErrDuplicateChild,
					child.id, b.id)
			}
			continue
		}
		b.children.Set(key, child)
	}
	return b
}

// Build returns the node. The builder must not be used afterwards.
func (b *Builder) Build() (*Node, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.kind.HasValue() {
		return nil, fmt.Errorf("cannot build %s %s from children", b.kind, b.id)
	}
	if b.kind == KindListEntry {
		for _, kv := range b.id.keys {
			key := NodeIdentifier(kv.Key).Key()
			if _, ok := b.children.Get(key); !ok {
				b.children.Set(key, LeafNew(kv.Key, kv.Value))
			}
		}
	}
	return &Node{kind: b.kind, id: b.id, children: b.children.Map()}, nil
}

// Kind returns the kind of the node.
func (n *Node) Kind() Kind { return n.kind }

// Identifier returns the PathArgument identifying the node under its parent.
func (n *Node) Identifier() PathArgument { return n.id }

// NodeType returns the QName of the node.
func (n *Node) NodeType() QName { return n.id.NodeType() }

// Value returns the value of a leaf or leaf-list entry, nil otherwise.
func (n *Node) Value() *Value { return n.value }

// Length returns the number of children.
func (n *Node) Length() int {
	if n.children == nil {
		return 0
	}
	return n.children.Len()
}

// Child returns the child identified by arg.
func (n *Node) Child(arg PathArgument) (*Node, bool) {
	if n == nil || n.children == nil {
		return nil, false
	}
	return n.children.Get(arg.Key())
}

// Contains returns whether the node has a child identified by arg.
func (n *Node) Contains(arg PathArgument) bool {
	_, ok := n.Child(arg)
	return ok
}

// Children iterates over the children in canonical identifier order.
// The sequence may be restarted.
func (n *Node) Children() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		if n.children == nil {
			return
		}
		itr := n.children.Iterator()
		for !itr.Done() {
			_, child, _ := itr.Next()
			if !yield(child) {
				return
			}
		}
	}
}

// Range iterates over the children until fn returns false.
func (n *Node) Range(fn func(*Node) bool) *Node {
	for child := range n.Children() {
		if !fn(child) {
			break
		}
	}
	return n
}

// WithChild returns a copy of the node with child added or replacing
// the child of the same identifier.
func (n *Node) WithChild(child *Node) *Node {
	if n.kind.HasValue() {
		panic(fmt.Errorf("cannot add children to %s %s", n.kind, n.id))
	}
	children := n.children
	if children == nil {
		children = emptyChildren()
	}
	return &Node{
		kind:     n.kind,
		id:       n.id,
		children: children.Set(child.id.Key(), child),
	}
}

// WithoutChild returns a copy of the node without the child identified
// by arg. The node itself is returned if there is no such child.
func (n *Node) WithoutChild(arg PathArgument) *Node {
	if !n.Contains(arg) {
		return n
	}
	return &Node{
		kind:     n.kind,
		id:       n.id,
		children: n.children.Delete(arg.Key()),
	}
}

// WithoutChildren returns an empty copy of a node with children.
func (n *Node) WithoutChildren() *Node {
	return &Node{kind: n.kind, id: n.id, children: emptyChildren()}
}

// EmptyNew creates a node of kind with no children.
func EmptyNew(kind Kind, id PathArgument) *Node {
	return &Node{kind: kind, id: id, children: emptyChildren()}
}

// Merge combines the node with new and returns the result. Children
// present in both are merged recursively, children only in new are
// added and children only in the original are kept. Merge is
// accretive only and never removes children. Leaves, and nodes of a
// different kind or identity, are replaced by new.
func (n *Node) Merge(new *Node) *Node {
	if n == nil {
		return new
	}
	if new == nil {
		return n
	}
	if n.kind.HasValue() || n.kind != new.kind || !n.id.Equal(new.id) {
		return new
	}
	out := n
	for child := range new.Children() {
		old, ok := out.Child(child.id)
		if ok {
			out = out.WithChild(old.Merge(child))
		} else {
			out = out.WithChild(child)
		}
	}
	return out
}

// Equal implements deep equality for nodes. Shared subtrees compare in
// constant time.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	if n.kind != other.kind || !n.id.Equal(other.id) {
		return false
	}
	if n.kind.HasValue() {
		return n.value.Equal(other.value)
	}
	if n.Length() != other.Length() {
		return false
	}
	equal := true
	n.Range(func(child *Node) bool {
		oc, ok := other.Child(child.id)
		equal = ok && child.Equal(oc)
		return equal
	})
	return equal
}

// String returns an RFC7951-like JSON representation of the node.
// Choices and augmentations are not visible in the encoding, their
// children appear directly in the enclosing object.
func (n *Node) String() string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n.marshalMember(&buf, "", true)
	buf.WriteByte('}')
	return buf.String()
}

func (n *Node) marshalMember(buf *bytes.Buffer, module string, first bool) bool {
	switch n.kind {
	case KindChoice, KindAugmentation:
		n.Range(func(child *Node) bool {
			first = child.marshalMember(buf, module, first)
			return true
		})
		return first
	}
	if !first {
		buf.WriteByte(',')
	}
	q := n.NodeType()
	buf.WriteByte('"')
	if q.Module != module {
		buf.WriteString(q.Module)
		buf.WriteByte(':')
	}
	buf.WriteString(q.Name)
	buf.WriteString("\":")
	n.marshalBody(buf)
	return false
}

func (n *Node) marshalBody(buf *bytes.Buffer) {
	switch n.kind {
	case KindLeaf, KindLeafListEntry:
		marshalValue(buf, n.value)
	case KindList, KindLeafList:
		buf.WriteByte('[')
		var i int
		n.Range(func(entry *Node) bool {
			if i > 0 {
				buf.WriteByte(',')
			}
			entry.marshalBody(buf)
			i++
			return true
		})
		buf.WriteByte(']')
	default:
		buf.WriteByte('{')
		first := true
		module := n.NodeType().Module
		n.Range(func(child *Node) bool {
			first = child.marshalMember(buf, module, first)
			return true
		})
		buf.WriteByte('}')
	}
}

func marshalValue(buf *bytes.Buffer, v *Value) {
	switch d := v.ToInterface().(type) {
	case string:
		writeJSONString(buf, d)
	case uint64:
		if d > (1<<32)-1 {
			writeJSONString(buf, v.RFC7951String())
			return
		}
		buf.WriteString(v.RFC7951String())
	case int64:
		if d < -(1<<31) || d > (1<<31)-1 {
			writeJSONString(buf, v.RFC7951String())
			return
		}
		buf.WriteString(v.RFC7951String())
	case float64:
		writeJSONString(buf, v.RFC7951String())
	default:
		buf.WriteString(v.RFC7951String())
	}
}

// writeJSONString writes s as a JSON string.
func writeJSONString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encode terminates the value with a newline.
	buf.Truncate(buf.Len() - 1)
}
