// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/danos/datatree/data"
)

// ErrUnknownNode is returned when a path names a node the schema does
// not know about.
var ErrUnknownNode = errors.New("unknown node")

// RootName is the name of the root container of every data tree.
var RootName = data.QNameNew("", "data")

// Context is a compiled set of schema modules.
type Context struct {
	root    *Node
	modules []string
}

// ContextNew compiles the sources into a Context. Module nodes are
// built first, augments are applied afterwards so they may target
// nodes of any module in the set.
func ContextNew(sources ...*Source) (*Context, error) {
	srcs := slices.Clone(sources)
	slices.SortFunc(srcs, func(a, b *Source) int {
		return strings.Compare(a.Module, b.Module)
	})
	root := newNode(KindContainer, RootName)
	root.presence = true
	ctx := &Context{root: root}
	for i, src := range srcs {
		if i > 0 && srcs[i-1].Module == src.Module {
			return nil, schemaErrorf("duplicate module %s", src.Module)
		}
		ctx.modules = append(ctx.modules, src.Module)
		for _, ns := range src.Nodes {
			child, err := buildNode(src.Module, ns, root)
			if err != nil {
				return nil, err
			}
			if err := root.addChild(child); err != nil {
				return nil, err
			}
		}
	}
	for _, src := range srcs {
		for _, aug := range src.Augments {
			if err := ctx.augment(src.Module, aug); err != nil {
				return nil, err
			}
		}
	}
	if err := index(root); err != nil {
		return nil, err
	}
	return ctx, nil
}

// ContextFromYAML compiles YAML schema sources.
func ContextFromYAML(docs ...[]byte) (*Context, error) {
	srcs := make([]*Source, 0, len(docs))
	for _, doc := range docs {
		src, err := ParseSource(doc)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, src)
	}
	return ContextNew(srcs...)
}

func (c *Context) augment(module string, aug AugmentSource) error {
	path, err := ParsePath(aug.Target)
	if err != nil || !path.IsAbsolute() {
		return schemaErrorf("invalid augment target %q", aug.Target)
	}
	target, ok := c.FindByPath(path)
	if !ok {
		return schemaErrorf("augment target %s not found", aug.Target)
	}
	if target.kind != KindContainer && target.kind != KindList {
		return schemaErrorf("cannot augment %s", target)
	}
	node := newNode(KindAugmentation, data.QName{})
	node.config = target.config
	for _, ns := range aug.Nodes {
		child, err := buildNode(module, ns, node)
		if err != nil {
			return err
		}
		if err := node.addChild(child); err != nil {
			return err
		}
	}
	return target.addChild(node)
}

func buildNode(module string, ns NodeSource, parent *Node) (*Node, error) {
	kind, ok := kindFromString(ns.Kind)
	if !ok {
		return nil, schemaErrorf("%s: unknown kind %q", ns.Name, ns.Kind)
	}
	if ns.Name == "" {
		return nil, schemaErrorf("%s without a name under %s", kind, parent)
	}
	n := newNode(kind, data.QNameParse(module, ns.Name))
	n.config = parent.config
	if ns.Config != nil {
		if *ns.Config && !parent.config {
			return nil, schemaErrorf("%s: config true under config false", n)
		}
		n.config = *ns.Config
	}
	if kind == KindCase && parent.kind != KindChoice {
		return nil, schemaErrorf("%s: case outside of a choice", n)
	}
	if ns.Mandatory && kind != KindLeaf && kind != KindChoice {
		return nil, schemaErrorf("%s: only leaves and choices may be mandatory", n)
	}
	n.mandatory = ns.Mandatory
	if ns.Presence && kind != KindContainer {
		return nil, schemaErrorf("%s: only containers have presence", n)
	}
	n.presence = ns.Presence
	if (ns.MinElements != 0 || ns.MaxElements != 0) &&
		kind != KindList && kind != KindLeafList {
		return nil, schemaErrorf("%s: only lists have min/max-elements", n)
	}
	if ns.MaxElements != 0 && ns.MinElements > ns.MaxElements {
		return nil, schemaErrorf("%s: min-elements exceeds max-elements", n)
	}
	n.minElements, n.maxElements = ns.MinElements, ns.MaxElements

	switch kind {
	case KindLeaf, KindLeafList:
		if len(ns.Children) != 0 {
			return nil, schemaErrorf("%s: cannot have children", n)
		}
		typeName := ns.Type
		if typeName == "" && len(ns.Enum) != 0 {
			typeName = "string"
		}
		typ, ok := typeFromString(typeName)
		if !ok {
			return nil, schemaErrorf("%s: unknown type %q", n, ns.Type)
		}
		if len(ns.Enum) != 0 && typ != TypeString {
			return nil, schemaErrorf("%s: enum requires type string", n)
		}
		n.typ, n.enum = typ, slices.Clone(ns.Enum)
		return n, nil
	}
	if ns.Type != "" || len(ns.Enum) != 0 {
		return nil, schemaErrorf("%s: only leaves have a type", n)
	}
	for _, cs := range ns.Children {
		child, err := buildNode(n.name.Module, cs, n)
		if err != nil {
			return nil, err
		}
		if kind == KindChoice && child.kind != KindCase {
			// Shorthand case holding a single node.
			short := newNode(KindCase, child.name)
			short.config = child.config
			if err := short.addChild(child); err != nil {
				return nil, err
			}
			child = short
		}
		if err := n.addChild(child); err != nil {
			return nil, err
		}
	}
	if kind == KindList {
		if len(ns.Key) == 0 {
			return nil, schemaErrorf("%s: list without a key", n)
		}
		for _, k := range ns.Key {
			q := data.QNameParse(n.name.Module, k)
			leaf, ok := n.byName[q]
			if !ok || leaf.kind != KindLeaf {
				return nil, schemaErrorf("%s: key %s is not a leaf child", n, q)
			}
			if slices.Contains(n.keys, q) {
				return nil, schemaErrorf("%s: duplicate key %s", n, q)
			}
			n.keys = append(n.keys, q)
		}
	} else if len(ns.Key) != 0 {
		return nil, schemaErrorf("%s: only lists have keys", n)
	}
	return n, nil
}

func (n *Node) addChild(c *Node) error {
	if c.kind != KindAugmentation {
		if _, dup := n.byName[c.name]; dup {
			return schemaErrorf("duplicate node %s in %s", c.name, n)
		}
		n.byName[c.name] = c
	}
	n.children = append(n.children, c)
	return nil
}

// index computes the data view of the subtree rooted at n.
func index(n *Node) error {
	for _, c := range n.children {
		if err := index(c); err != nil {
			return err
		}
	}
	switch n.kind {
	case KindAugmentation:
		names := make([]data.QName, 0, len(n.children))
		for _, c := range n.children {
			names = append(names, c.name)
		}
		n.id = data.AugmentationIdentifier(names...)
	default:
		n.id = data.NodeIdentifier(n.name)
	}
	visible := make(map[data.QName]*Node)
	add := func(c *Node) error {
		key := c.id.Key()
		if _, dup := n.dataByKey[key]; dup {
			return schemaErrorf("duplicate data node %s in %s", c.id, n)
		}
		n.dataByKey[key] = c
		return nil
	}
	for _, c := range n.children {
		switch {
		case n.kind == KindChoice:
			for _, d := range c.dataByKey {
				if err := add(d); err != nil {
					return err
				}
				n.caseOf[d.id.Key()] = c
			}
		default:
			if err := add(c); err != nil {
				return err
			}
		}
	}
	// Names hidden behind choices and augmentations share the
	// namespace of the node that holds them.
	var check func(c *Node) error
	check = func(c *Node) error {
		if c.kind == KindChoice || c.kind == KindAugmentation {
			for _, d := range c.dataByKey {
				if err := check(d); err != nil {
					return err
				}
			}
			return nil
		}
		if other, dup := visible[c.name]; dup && other != c {
			return schemaErrorf("duplicate data node %s in %s", c.name, n)
		}
		visible[c.name] = c
		return nil
	}
	if n.kind != KindChoice {
		for _, c := range n.dataByKey {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Root returns the root container of the schema.
func (c *Context) Root() *Node { return c.root }

// Modules returns the names of the compiled modules.
func (c *Context) Modules() []string { return slices.Clone(c.modules) }

// FindByPath returns the schema node at the absolute path p.
func (c *Context) FindByPath(p Path) (*Node, bool) {
	if !p.IsAbsolute() {
		return nil, false
	}
	return c.root.FindByPath(p)
}

// FindByPath returns the schema node at the path p relative to n.
func (n *Node) FindByPath(p Path) (*Node, bool) {
	cur := n
	for _, q := range p.names {
		next, ok := cur.Child(q)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Resolve checks id against the schema and returns it in normal form
// together with the schema node it addresses. In normal form choices
// and augmentations between a node and its data children are explicit,
// a list or leaf-list entry is preceded by the identifier of its list,
// and key predicate values have the type of their key leaf.
func (c *Context) Resolve(id *data.InstanceID) (*data.InstanceID, *Node, error) {
	cur := c.root
	args := make([]data.PathArgument, 0, id.Len())
	var inCollection, atLeaf bool
	for i := 0; i < id.Len(); i++ {
		arg := id.At(i)
		fail := func(format string, a ...interface{}) error {
			at := data.InstanceIDFrom(append(slices.Clone(args), arg)...)
			return fmt.Errorf("%w %s: %s", ErrUnknownNode, at,
				fmt.Sprintf(format, a...))
		}
		if atLeaf {
			return nil, nil, fail("%s has no children", cur)
		}
		if inCollection {
			entry, err := cur.normalizeEntry(arg)
			if err != nil {
				return nil, nil, fail("%s", err)
			}
			args = append(args, entry)
			inCollection = false
			atLeaf = cur.kind == KindLeafList
			continue
		}
		if cur.kind == KindLeaf {
			return nil, nil, fail("%s has no children", cur)
		}
		child, ok := cur.DataChild(arg)
		if !ok && arg.Kind() != data.ArgAugmentation {
			if chain := cur.findThrough(arg.NodeType()); chain != nil {
				for _, t := range chain[:len(chain)-1] {
					args = append(args, t.id)
				}
				child, ok = chain[len(chain)-1], true
			}
		}
		if !ok {
			return nil, nil, fail("no such node in %s", cur)
		}
		args = append(args, child.id)
		cur = child
		switch arg.Kind() {
		case data.ArgListEntry, data.ArgLeafListEntry:
			entry, err := child.normalizeEntry(arg)
			if err != nil {
				return nil, nil, fail("%s", err)
			}
			args = append(args, entry)
			atLeaf = child.kind == KindLeafList
		default:
			inCollection = child.kind == KindList || child.kind == KindLeafList
			atLeaf = child.kind == KindLeaf
		}
	}
	return data.InstanceIDFrom(args...), cur, nil
}

// Normalize returns id in the normal form described by Resolve.
func (c *Context) Normalize(id *data.InstanceID) (*data.InstanceID, error) {
	out, _, err := c.Resolve(id)
	return out, err
}

// Denormalize removes the choice and augmentation arguments from a
// normalized id, giving the form users write paths in. The result
// resolves back to id.
func (c *Context) Denormalize(id *data.InstanceID) (*data.InstanceID, error) {
	cur := c.root
	args := make([]data.PathArgument, 0, id.Len())
	for _, arg := range id.PathArguments() {
		switch {
		case (arg.Kind() == data.ArgListEntry || arg.Kind() == data.ArgLeafListEntry) &&
			arg.NodeType() == cur.name:
			args = append(args, arg)
			continue
		case cur.kind == KindLeaf || cur.kind == KindLeafList:
			return nil, fmt.Errorf("%w %s: %s has no children", ErrUnknownNode, id, cur)
		}
		child, ok := cur.DataChild(arg)
		if !ok {
			return nil, fmt.Errorf("%w %s: no %s in %s", ErrUnknownNode, id, arg, cur)
		}
		switch child.kind {
		case KindChoice, KindAugmentation:
		default:
			args = append(args, arg)
		}
		cur = child
	}
	return data.InstanceIDFrom(args...), nil
}

// normalizeEntry checks that arg addresses an entry of the list or
// leaf-list n and converts its predicate values to the key types.
func (n *Node) normalizeEntry(arg data.PathArgument) (data.PathArgument, error) {
	if arg.NodeType() != n.name {
		return data.PathArgument{}, fmt.Errorf("%s is not an entry of %s",
			arg, n)
	}
	switch n.kind {
	case KindList:
		if arg.Kind() != data.ArgListEntry {
			return data.PathArgument{}, fmt.Errorf("%s requires key predicates", n)
		}
		keys := arg.Keys()
		if len(keys) != len(n.keys) {
			return data.PathArgument{}, fmt.Errorf("%s requires keys %v", n, n.keys)
		}
		for i, kv := range keys {
			if !n.IsKey(kv.Key) {
				return data.PathArgument{}, fmt.Errorf("%s is not a key of %s",
					kv.Key, n)
			}
			v, err := n.byName[kv.Key].NormalizeValue(kv.Value)
			if err != nil {
				return data.PathArgument{}, err
			}
			keys[i].Value = v
		}
		return data.NodeIdentifierWithPredicates(n.name, keys...), nil
	case KindLeafList:
		if arg.Kind() != data.ArgLeafListEntry {
			return data.PathArgument{}, fmt.Errorf("%s requires a value predicate", n)
		}
		v, err := n.NormalizeValue(arg.Value())
		if err != nil {
			return data.PathArgument{}, err
		}
		return data.NodeWithValue(n.name, v), nil
	}
	return data.PathArgument{}, fmt.Errorf("%s has no entries", n)
}

// Dump writes the schema tree to w, one node per line.
func (c *Context) Dump(w io.Writer) error {
	for _, child := range c.root.children {
		if err := dump(w, child, 0); err != nil {
			return err
		}
	}
	return nil
}

func dump(w io.Writer, n *Node, depth int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.String())
	switch n.kind {
	case KindLeaf, KindLeafList:
		b.WriteString(" (" + n.typ.String() + ")")
	case KindList:
		keys := make([]string, len(n.keys))
		for i, k := range n.keys {
			keys[i] = k.Name
		}
		b.WriteString(" [" + strings.Join(keys, " ") + "]")
	}
	if n.mandatory {
		b.WriteString(" mandatory")
	}
	if n.presence {
		b.WriteString(" presence")
	}
	if n.kind != KindAugmentation && !n.config {
		b.WriteString(" config false")
	}
	if _, err := fmt.Fprintln(w, b.String()); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := dump(w, child, depth+1); err != nil {
			return err
		}
	}
	return nil
}
