// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/danos/datatree/data"
)

// Kind is the kind of a schema node.
type Kind uint8

const (
	KindContainer Kind = iota
	KindLeaf
	KindList
	KindLeafList
	KindChoice
	KindCase
	KindAugmentation
)

var kindNames = map[Kind]string{
	KindContainer:    "container",
	KindLeaf:         "leaf",
	KindList:         "list",
	KindLeafList:     "leaf-list",
	KindChoice:       "choice",
	KindCase:         "case",
	KindAugmentation: "augmentation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

func kindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// LeafType restricts the values a leaf or leaf-list may hold.
type LeafType uint8

const (
	TypeAny LeafType = iota
	TypeString
	TypeInt
	TypeUint
	TypeDecimal
	TypeBoolean
	TypeEmpty
)

var typeNames = map[LeafType]string{
	TypeAny:     "any",
	TypeString:  "string",
	TypeInt:     "int",
	TypeUint:    "uint",
	TypeDecimal: "decimal",
	TypeBoolean: "boolean",
	TypeEmpty:   "empty",
}

func (t LeafType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

func typeFromString(s string) (LeafType, bool) {
	if s == "" {
		return TypeAny, true
	}
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return 0, false
}

// Node is a compiled schema node. Nodes are immutable once the Context
// holding them has been built.
type Node struct {
	kind        Kind
	name        data.QName
	config      bool
	mandatory   bool
	presence    bool
	minElements uint64
	maxElements uint64
	keys        []data.QName
	typ         LeafType
	enum        []string

	children  []*Node
	byName    map[data.QName]*Node
	dataByKey map[string]*Node
	caseOf    map[string]*Node
	id        data.PathArgument
}

func newNode(kind Kind, name data.QName) *Node {
	return &Node{
		kind:      kind,
		name:      name,
		config:    true,
		byName:    make(map[data.QName]*Node),
		dataByKey: make(map[string]*Node),
		caseOf:    make(map[string]*Node),
	}
}

// Kind returns the kind of the node.
func (n *Node) Kind() Kind { return n.kind }

// QName returns the name of the node. Augmentations have no name.
func (n *Node) QName() data.QName { return n.name }

// Config returns the effective config flag, false when the node or
// any of its ancestors is declared config false.
func (n *Node) Config() bool { return n.config }

// Mandatory reports whether a leaf or choice must exist whenever its
// parent exists.
func (n *Node) Mandatory() bool { return n.mandatory }

// Presence reports whether a container carries meaning by existing.
// Non-presence containers are created and removed implicitly.
func (n *Node) Presence() bool { return n.presence }

// MinElements returns the minimum number of entries of a list or
// leaf-list.
func (n *Node) MinElements() uint64 { return n.minElements }

// MaxElements returns the maximum number of entries of a list or
// leaf-list, 0 when unbounded.
func (n *Node) MaxElements() uint64 { return n.maxElements }

// Keys returns the key leaf names of a list.
func (n *Node) Keys() []data.QName { return slices.Clone(n.keys) }

// IsKey returns whether q names a key leaf of the list.
func (n *Node) IsKey(q data.QName) bool {
	return slices.Contains(n.keys, q)
}

// Type returns the type of a leaf or leaf-list.
func (n *Node) Type() LeafType { return n.typ }

// Children returns the schema children in declaration order.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// Child returns the schema child named q. Augmentations are searched
// as if their children were declared on the node.
func (n *Node) Child(q data.QName) (*Node, bool) {
	if c, ok := n.byName[q]; ok {
		return c, true
	}
	for _, c := range n.children {
		if c.kind != KindAugmentation {
			continue
		}
		if found, ok := c.Child(q); ok {
			return found, true
		}
	}
	return nil, false
}

// Identifier returns the PathArgument addressing instances of the node
// in the data view. List and leaf-list entries use the list's
// identifier for the collection itself.
func (n *Node) Identifier() data.PathArgument { return n.id }

// DataChild returns the schema node of the data child addressed by arg.
// For a choice the children of every case are searched.
func (n *Node) DataChild(arg data.PathArgument) (*Node, bool) {
	key := arg.Key()
	if arg.Kind() == data.ArgListEntry || arg.Kind() == data.ArgLeafListEntry {
		key = data.NodeIdentifier(arg.NodeType()).Key()
	}
	c, ok := n.dataByKey[key]
	return c, ok
}

// DataChildren returns the schema nodes of every possible data child.
func (n *Node) DataChildren() []*Node {
	out := make([]*Node, 0, len(n.dataByKey))
	for _, c := range n.dataByKey {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		return compareArgs(a.id, b.id)
	})
	return out
}

func compareArgs(a, b data.PathArgument) int {
	switch {
	case a.Key() < b.Key():
		return -1
	case a.Key() > b.Key():
		return 1
	}
	return 0
}

// CaseOf returns the case of a choice that holds the data child arg.
func (n *Node) CaseOf(arg data.PathArgument) (*Node, bool) {
	c, ok := n.caseOf[arg.Key()]
	return c, ok
}

// Cases returns the cases of a choice.
func (n *Node) Cases() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == KindCase {
			out = append(out, c)
		}
	}
	return out
}

// findThrough searches for a data child named q hidden behind choices
// or augmentations and returns the chain of transparent nodes leading
// to it followed by the node itself.
func (n *Node) findThrough(q data.QName) []*Node {
	for _, c := range n.DataChildren() {
		switch c.kind {
		case KindChoice, KindAugmentation:
			if found, ok := c.dataByKey[data.NodeIdentifier(q).Key()]; ok {
				return []*Node{c, found}
			}
			if chain := c.findThrough(q); chain != nil {
				return append([]*Node{c}, chain...)
			}
		}
	}
	return nil
}

// Lookup returns the schema node of the data child named q. Children
// of choices and augmentations are found too, through holds the
// transparent nodes crossed to reach them, outermost first.
func (n *Node) Lookup(q data.QName) (child *Node, through []*Node, ok bool) {
	if c, found := n.dataByKey[data.NodeIdentifier(q).Key()]; found {
		switch c.kind {
		case KindChoice, KindAugmentation, KindCase:
		default:
			return c, nil, true
		}
	}
	chain := n.findThrough(q)
	if chain == nil {
		return nil, nil, false
	}
	return chain[len(chain)-1], chain[:len(chain)-1], true
}

// Accepts returns whether v is a valid value for the leaf or leaf-list.
func (n *Node) Accepts(v *data.Value) bool {
	switch n.typ {
	case TypeAny:
		return true
	case TypeString:
		if !v.IsString() {
			return false
		}
		return len(n.enum) == 0 || slices.Contains(n.enum, v.AsString())
	case TypeInt:
		return v.IsInt64()
	case TypeUint:
		return v.IsUint64()
	case TypeDecimal:
		return v.IsFloat() || v.IsInt64() || v.IsUint64()
	case TypeBoolean:
		return v.IsBoolean()
	case TypeEmpty:
		return v.IsEmpty()
	}
	return false
}

// ParseValue converts the string form of a value, as found in
// instance-identifier predicates, to a value of the leaf's type.
func (n *Node) ParseValue(s string) (*data.Value, error) {
	var v *data.Value
	switch n.typ {
	case TypeAny, TypeString:
		v = data.ValueNew(s)
	case TypeInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q for %s", s, n.name)
		}
		v = data.ValueNew(i)
	case TypeUint:
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid uint %q for %s", s, n.name)
		}
		v = data.ValueNew(u)
	case TypeDecimal:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal %q for %s", s, n.name)
		}
		v = data.ValueNew(f)
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q for %s", s, n.name)
		}
		v = data.ValueNew(b)
	case TypeEmpty:
		if s != "" && s != "[null]" {
			return nil, fmt.Errorf("invalid empty value %q for %s", s, n.name)
		}
		v = data.Empty()
	}
	if !n.Accepts(v) {
		return nil, fmt.Errorf("value %q not allowed for %s", s, n.name)
	}
	return v, nil
}

// NormalizeValue converts v to the leaf's type when v holds the string
// form of a value.
func (n *Node) NormalizeValue(v *data.Value) (*data.Value, error) {
	if n.Accepts(v) {
		return v, nil
	}
	if v.IsString() {
		return n.ParseValue(v.AsString())
	}
	return nil, fmt.Errorf("value %s not allowed for %s of type %s",
		v.RFC7951String(), n.name, n.typ)
}

func (n *Node) String() string {
	if n.kind == KindAugmentation {
		return n.id.String()
	}
	return n.kind.String() + " " + n.name.String()
}
