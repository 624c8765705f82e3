// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import (
	"slices"
	"strings"
)

// ArgumentKind identifies the form of a PathArgument.
type ArgumentKind uint8

const (
	// ArgNode addresses a container, leaf, list, leaf-list or choice.
	ArgNode ArgumentKind = iota
	// ArgListEntry addresses a list entry by its key predicates.
	ArgListEntry
	// ArgLeafListEntry addresses a leaf-list entry by its value.
	ArgLeafListEntry
	// ArgAugmentation addresses an augmentation by the set of child
	// names it contributes.
	ArgAugmentation
)

// String returns the name of the ArgumentKind.
func (k ArgumentKind) String() string {
	switch k {
	case ArgNode:
		return "node"
	case ArgListEntry:
		return "list-entry"
	case ArgLeafListEntry:
		return "leaf-list-entry"
	case ArgAugmentation:
		return "augmentation"
	default:
		return "unknown"
	}
}

// KeyValue is one key predicate of a list entry.
type KeyValue struct {
	Key   QName
	Value *Value
}

// PathArgument is a single step of an InstanceID. PathArguments are
// immutable; two PathArguments are equal when their Keys are equal.
type PathArgument struct {
	kind      ArgumentKind
	name      QName
	keys      []KeyValue
	value     *Value
	augmented []QName
	key       string
}

// NodeIdentifier creates a PathArgument addressing the node named q.
func NodeIdentifier(q QName) PathArgument {
	arg := PathArgument{kind: ArgNode, name: q}
	arg.key = arg.canonical()
	return arg
}

// NodeIdentifierWithPredicates creates a PathArgument addressing a list
// entry of the list named q. Predicates are kept ordered by key name.
func NodeIdentifierWithPredicates(q QName, keys ...KeyValue) PathArgument {
	ks := make([]KeyValue, len(keys))
	copy(ks, keys)
	slices.SortFunc(ks, func(a, b KeyValue) int {
		return a.Key.Compare(b.Key)
	})
	arg := PathArgument{kind: ArgListEntry, name: q, keys: ks}
	arg.key = arg.canonical()
	return arg
}

// NodeWithKey is shorthand for a list entry with a single key.
func NodeWithKey(q, key QName, value interface{}) PathArgument {
	return NodeIdentifierWithPredicates(q,
		KeyValue{Key: key, Value: ValueNew(value)})
}

// NodeWithValue creates a PathArgument addressing the leaf-list entry
// of the leaf-list named q holding value.
func NodeWithValue(q QName, value interface{}) PathArgument {
	arg := PathArgument{kind: ArgLeafListEntry, name: q, value: ValueNew(value)}
	arg.key = arg.canonical()
	return arg
}

// AugmentationIdentifier creates a PathArgument addressing the
// augmentation contributing the named children.
func AugmentationIdentifier(children ...QName) PathArgument {
	qs := make([]QName, len(children))
	copy(qs, children)
	slices.SortFunc(qs, QName.Compare)
	arg := PathArgument{kind: ArgAugmentation, augmented: qs}
	arg.key = arg.canonical()
	return arg
}

// Kind returns the form of the argument.
func (p PathArgument) Kind() ArgumentKind { return p.kind }

// NodeType returns the QName of the addressed node. Augmentations have
// no node type and return the zero QName.
func (p PathArgument) NodeType() QName { return p.name }

// Keys returns a copy of the key predicates of a list entry argument.
func (p PathArgument) Keys() []KeyValue {
	out := make([]KeyValue, len(p.keys))
	copy(out, p.keys)
	return out
}

// KeyValue returns the predicate value for the named key.
func (p PathArgument) KeyValue(key QName) (*Value, bool) {
	for _, kv := range p.keys {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// Value returns the value of a leaf-list entry argument, or nil.
func (p PathArgument) Value() *Value { return p.value }

// Augmented returns the names contributed by an augmentation argument.
func (p PathArgument) Augmented() []QName {
	out := make([]QName, len(p.augmented))
	copy(out, p.augmented)
	return out
}

// Key returns the identity of the argument. Siblings are stored under
// their Key, so it must be unique among siblings: predicate values are
// escaped and tagged with their type.
func (p PathArgument) Key() string { return p.key }

// IsZero returns whether the argument is unset.
func (p PathArgument) IsZero() bool { return p.key == "" }

// Equal compares two arguments by their identity.
func (p PathArgument) Equal(other PathArgument) bool {
	return p.key == other.key
}

// String returns the argument in instance-identifier form.
func (p PathArgument) String() string { return p.format("") }

var keyEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (p PathArgument) canonical() string {
	var b strings.Builder
	switch p.kind {
	case ArgAugmentation:
		return p.format("")
	case ArgListEntry:
		b.WriteString(p.name.String())
		for _, kv := range p.keys {
			b.WriteByte('[')
			b.WriteString(kv.Key.String())
			b.WriteByte('=')
			writeKeyValue(&b, kv.Value)
			b.WriteByte(']')
		}
	case ArgLeafListEntry:
		b.WriteString(p.name.String())
		b.WriteString("[.=")
		writeKeyValue(&b, p.value)
		b.WriteByte(']')
	default:
		b.WriteString(p.name.String())
	}
	return b.String()
}

func writeKeyValue(b *strings.Builder, v *Value) {
	b.WriteByte(v.typeTag())
	b.WriteByte('\'')
	keyEscaper.WriteString(b, v.RFC7951String())
	b.WriteByte('\'')
}

// quoted quotes a predicate value. Instance-identifiers have no escapes
// so double quotes are used for values holding a single quote.
func quoted(s string) string {
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		return `"` + s + `"`
	}
	return "'" + s + "'"
}

// format writes the argument omitting the module of names that belong
// to the inherited module, the way RFC7951 instance-identifiers do.
func (p PathArgument) format(module string) string {
	var b strings.Builder
	name := func(q QName, inherited string) {
		if q.Module != "" && q.Module != inherited {
			b.WriteString(q.Module)
			b.WriteByte(':')
		}
		b.WriteString(q.Name)
	}
	switch p.kind {
	case ArgAugmentation:
		b.WriteString("(augmentation")
		for i, q := range p.augmented {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(',')
			}
			b.WriteString(q.String())
		}
		b.WriteByte(')')
		return b.String()
	}
	name(p.name, module)
	switch p.kind {
	case ArgListEntry:
		for _, kv := range p.keys {
			b.WriteByte('[')
			name(kv.Key, p.name.Module)
			b.WriteByte('=')
			b.WriteString(quoted(kv.Value.RFC7951String()))
			b.WriteByte(']')
		}
	case ArgLeafListEntry:
		b.WriteString("[.=")
		b.WriteString(quoted(p.value.RFC7951String()))
		b.WriteByte(']')
	}
	return b.String()
}

// InstanceID is an ordered sequence of PathArguments identifying a node
// relative to the root of a tree. The empty InstanceID identifies the
// root itself. InstanceIDs are immutable; the builder methods return
// extended copies.
type InstanceID struct {
	args []PathArgument
}

// RootInstanceID returns the InstanceID of the root node.
func RootInstanceID() *InstanceID {
	return &InstanceID{}
}

// InstanceIDFrom builds an InstanceID from its arguments.
func InstanceIDFrom(args ...PathArgument) *InstanceID {
	out := make([]PathArgument, len(args))
	copy(out, args)
	return &InstanceID{args: out}
}

// Len returns the number of path arguments.
func (i *InstanceID) Len() int {
	if i == nil {
		return 0
	}
	return len(i.args)
}

// IsRoot returns whether the InstanceID identifies the root.
func (i *InstanceID) IsRoot() bool {
	return i.Len() == 0
}

// At returns the argument at index idx.
func (i *InstanceID) At(idx int) PathArgument {
	return i.args[idx]
}

// PathArguments returns a copy of the arguments.
func (i *InstanceID) PathArguments() []PathArgument {
	out := make([]PathArgument, i.Len())
	if i != nil {
		copy(out, i.args)
	}
	return out
}

// Last returns the final argument, false for the root.
func (i *InstanceID) Last() (PathArgument, bool) {
	if i.Len() == 0 {
		return PathArgument{}, false
	}
	return i.args[len(i.args)-1], true
}

// Parent returns the InstanceID without its final argument. The parent
// of the root is the root.
func (i *InstanceID) Parent() *InstanceID {
	if i.Len() == 0 {
		return i
	}
	return i.Prefix(i.Len() - 1)
}

// Prefix returns the InstanceID made of the first n arguments.
func (i *InstanceID) Prefix(n int) *InstanceID {
	if n >= i.Len() {
		return i
	}
	return &InstanceID{args: i.args[:n:n]}
}

// Suffix returns the InstanceID made of the arguments following the
// first n.
func (i *InstanceID) Suffix(n int) *InstanceID {
	if n <= 0 {
		return i
	}
	if n >= i.Len() {
		return RootInstanceID()
	}
	return &InstanceID{args: i.args[n:]}
}

// Append returns a new InstanceID extended by args.
func (i *InstanceID) Append(args ...PathArgument) *InstanceID {
	out := make([]PathArgument, 0, i.Len()+len(args))
	if i != nil {
		out = append(out, i.args...)
	}
	out = append(out, args...)
	return &InstanceID{args: out}
}

// Node returns a new InstanceID extended by a node identifier.
func (i *InstanceID) Node(q QName) *InstanceID {
	return i.Append(NodeIdentifier(q))
}

// NodeWithKey returns a new InstanceID extended by a list entry
// identifier with a single key.
func (i *InstanceID) NodeWithKey(q, key QName, value interface{}) *InstanceID {
	return i.Append(NodeWithKey(q, key, value))
}

// NodeWithValue returns a new InstanceID extended by a leaf-list entry.
func (i *InstanceID) NodeWithValue(q QName, value interface{}) *InstanceID {
	return i.Append(NodeWithValue(q, value))
}

// IsPrefixOf returns whether i is equal to or an ancestor of other.
func (i *InstanceID) IsPrefixOf(other *InstanceID) bool {
	if i.Len() > other.Len() {
		return false
	}
	for idx := 0; idx < i.Len(); idx++ {
		if !i.args[idx].Equal(other.args[idx]) {
			return false
		}
	}
	return true
}

// Equal determines if two instance-identifiers are the same.
func (i *InstanceID) Equal(other *InstanceID) bool {
	return i.Len() == other.Len() && i.IsPrefixOf(other)
}

// String will format an instance-identifier as a string. Module
// prefixes are only written when they differ from the parent's module.
// A list identifier directly followed by one of its entries is written
// once, as the entry.
func (i *InstanceID) String() string {
	if i.Len() == 0 {
		return "/"
	}
	ss := make([]string, 0, len(i.args))
	var module string
	for idx, arg := range i.args {
		if arg.kind == ArgNode && idx+1 < len(i.args) {
			next := i.args[idx+1]
			if next.kind != ArgNode && next.kind != ArgAugmentation &&
				next.name == arg.name {
				continue
			}
		}
		ss = append(ss, arg.format(module))
		if arg.kind != ArgAugmentation {
			module = arg.name.Module
		}
	}
	return "/" + strings.Join(ss, "/")
}
