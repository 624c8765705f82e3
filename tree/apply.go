// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"maps"
	"slices"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
)

type opKind uint8

const (
	opLeaf opKind = iota
	opLeafListEntry
	opContainer
	opListEntry
	opList
	opLeafList
	opChoice
	opAugmentation
)

func (k opKind) dataKind() data.Kind {
	switch k {
	case opLeaf:
		return data.KindLeaf
	case opLeafListEntry:
		return data.KindLeafListEntry
	case opContainer:
		return data.KindContainer
	case opListEntry:
		return data.KindListEntry
	case opList:
		return data.KindList
	case opLeafList:
		return data.KindLeafList
	case opChoice:
		return data.KindChoice
	case opAugmentation:
		return data.KindAugmentation
	}
	panic(fmt.Errorf("unknown operation kind %d", k))
}

// ApplyOperation applies modifications to the nodes of one schema
// node. Operations form a tree mirroring the data view of the schema
// and are shared, read only, by every snapshot taken under that schema.
type ApplyOperation struct {
	kind     opKind
	schema   *schema.Node
	cfg      TreeConfig
	root     bool
	children map[string]*ApplyOperation
	entry    *ApplyOperation
}

// NewApplyOperation builds the operation tree of ctx for a tree with
// the supplied configuration. The root operation handles the container
// named by the configuration's root path.
func NewApplyOperation(ctx *schema.Context, cfg TreeConfig) (*ApplyOperation, error) {
	rootPath, err := cfg.rootPath()
	if err != nil {
		return nil, err
	}
	_, node, err := ctx.Resolve(rootPath)
	if err != nil {
		return nil, err
	}
	if node.Kind() != schema.KindContainer {
		return nil, fmt.Errorf("tree root %s must be a container, not %s",
			rootPath, node.Kind())
	}
	op := newApplyOperation(node, cfg)
	op.root = true
	return op, nil
}

func newApplyOperation(n *schema.Node, cfg TreeConfig) *ApplyOperation {
	op := &ApplyOperation{schema: n, cfg: cfg}
	switch n.Kind() {
	case schema.KindLeaf:
		op.kind = opLeaf
	case schema.KindLeafList:
		op.kind = opLeafList
		op.entry = &ApplyOperation{kind: opLeafListEntry, schema: n, cfg: cfg}
	case schema.KindList:
		op.kind = opList
		op.entry = &ApplyOperation{
			kind:     opListEntry,
			schema:   n,
			cfg:      cfg,
			children: childOperations(n, cfg),
		}
	case schema.KindContainer:
		op.kind = opContainer
		op.children = childOperations(n, cfg)
	case schema.KindChoice:
		op.kind = opChoice
		op.children = childOperations(n, cfg)
	case schema.KindAugmentation:
		op.kind = opAugmentation
		op.children = childOperations(n, cfg)
	case schema.KindCase:
		panic(fmt.Errorf("case %s has no data of its own", n.QName()))
	default:
		panic(fmt.Errorf("unknown schema kind %s", n.Kind()))
	}
	return op
}

func childOperations(n *schema.Node, cfg TreeConfig) map[string]*ApplyOperation {
	out := make(map[string]*ApplyOperation)
	for _, c := range n.DataChildren() {
		out[c.Identifier().Key()] = newApplyOperation(c, cfg)
	}
	return out
}

// Schema returns the schema node the operation was built for.
func (op *ApplyOperation) Schema() *schema.Node { return op.schema }

// Child returns the operation handling the data child arg.
func (op *ApplyOperation) Child(arg data.PathArgument) (*ApplyOperation, bool) {
	switch op.kind {
	case opList:
		if arg.Kind() == data.ArgListEntry && arg.NodeType() == op.schema.QName() {
			return op.entry, true
		}
	case opLeafList:
		if arg.Kind() == data.ArgLeafListEntry && arg.NodeType() == op.schema.QName() {
			return op.entry, true
		}
	case opContainer, opListEntry, opChoice, opAugmentation:
		c, ok := op.children[arg.Key()]
		return c, ok
	case opLeaf, opLeafListEntry:
	}
	return nil, false
}

func (op *ApplyOperation) hasValue() bool {
	return op.kind == opLeaf || op.kind == opLeafListEntry
}

// structural reports whether nodes of the operation exist only to hold
// children. They are created when a descendant is written and removed
// when their last child goes.
func (op *ApplyOperation) structural() bool {
	switch op.kind {
	case opList, opLeafList, opChoice, opAugmentation:
		return true
	case opContainer:
		return !op.root && !op.schema.Presence()
	}
	return false
}

func (op *ApplyOperation) rejectsData() bool {
	return op.cfg.TreeType == Configuration && !op.schema.Config()
}

// emptyNode returns the payload of a node of the operation created
// implicitly at arg, nil if such nodes cannot be created implicitly.
func (op *ApplyOperation) emptyNode(arg data.PathArgument) *data.Node {
	switch op.kind {
	case opLeaf, opLeafListEntry:
		return nil
	case opListEntry:
		n, err := data.BuilderNew(data.KindListEntry, arg).Build()
		if err != nil {
			return nil
		}
		return n
	}
	return data.EmptyNew(op.kind.dataKind(), arg)
}

// verifyStructure checks that the payload n written at path has the
// shape the schema requires.
func (op *ApplyOperation) verifyStructure(path *data.InstanceID, n *data.Node) error {
	if n.Kind() != op.kind.dataKind() {
		return validationErrorf(path, ConstraintShape,
			"expected %s, got %s", op.kind.dataKind(), n.Kind())
	}
	if op.rejectsData() {
		return validationErrorf(path, ConstraintConfig,
			"%s is not configuration data", op.schema.QName())
	}
	switch op.kind {
	case opLeaf, opLeafListEntry:
		if !op.schema.Accepts(n.Value()) {
			return validationErrorf(path, ConstraintType,
				"value %s is not a valid %s", n.Value().RFC7951String(),
				op.schema.Type())
		}
		if op.kind == opLeafListEntry && !n.Identifier().Value().Equal(n.Value()) {
			return validationErrorf(path, ConstraintKey,
				"value %s does not match %s", n.Value().RFC7951String(),
				n.Identifier())
		}
		return nil
	case opListEntry:
		if err := op.verifyKeys(path, n.Identifier(), func(q data.QName) (*data.Node, bool) {
			return n.Child(data.NodeIdentifier(q))
		}); err != nil {
			return err
		}
	case opChoice:
		var active *schema.Node
		for child := range n.Children() {
			cs, ok := op.schema.CaseOf(child.Identifier())
			if !ok {
				continue
			}
			if active != nil && active != cs {
				return validationErrorf(path, ConstraintChoice,
					"children of cases %s and %s", active.QName().Name,
					cs.QName().Name)
			}
			active = cs
		}
	case opContainer, opList, opLeafList, opAugmentation:
	}
	for child := range n.Children() {
		childPath := path.Append(child.Identifier())
		co, ok := op.Child(child.Identifier())
		if !ok {
			return validationErrorf(childPath, ConstraintShape,
				"%s is not a child of %s", child.Identifier(), op.schema)
		}
		if err := co.verifyStructure(childPath, child); err != nil {
			return err
		}
	}
	return nil
}

// verifyKeys checks that every key predicate of arg names a key of the
// list and that the key leaves hold the predicate values.
func (op *ApplyOperation) verifyKeys(
	path *data.InstanceID,
	arg data.PathArgument,
	leaf func(q data.QName) (*data.Node, bool),
) error {
	keys := op.schema.Keys()
	if len(arg.Keys()) != len(keys) {
		return validationErrorf(path, ConstraintKey,
			"entry must be identified by keys %v", keys)
	}
	for _, q := range keys {
		want, ok := arg.KeyValue(q)
		if !ok {
			return validationErrorf(path, ConstraintKey,
				"missing key predicate %s", q)
		}
		got, ok := leaf(q)
		if !ok {
			return validationErrorf(path, ConstraintKey,
				"missing key leaf %s", q)
		}
		if !got.Value().Equal(want) {
			return validationErrorf(path, ConstraintKey,
				"key leaf %s is %s, expected %s", q,
				got.Value().RFC7951String(), want.RFC7951String())
		}
	}
	return nil
}

// mergeData merges the payload update into old the way applying a
// merge would. Switching a choice to another case replaces it.
func (op *ApplyOperation) mergeData(old, update *data.Node) *data.Node {
	if old == nil || op.hasValue() || old.Kind() != update.Kind() {
		return update
	}
	if op.kind == opChoice && op.caseOfData(old) != op.caseOfData(update) &&
		op.caseOfData(update) != nil {
		return update
	}
	out := old
	for child := range update.Children() {
		co, ok := op.Child(child.Identifier())
		prev, exists := out.Child(child.Identifier())
		switch {
		case ok && exists:
			out = out.WithChild(co.mergeData(prev, child))
		default:
			out = out.WithChild(child)
		}
	}
	return out
}

func (op *ApplyOperation) caseOfData(n *data.Node) *schema.Node {
	for child := range n.Children() {
		if cs, ok := op.schema.CaseOf(child.Identifier()); ok {
			return cs
		}
	}
	return nil
}

type applyContext struct {
	version  Version
	validate bool
}

// appliedNode records what applying a modifiedNode did.
type appliedNode struct {
	arg      data.PathArgument
	op       Operation
	before   *TreeNode
	after    *TreeNode
	children map[string]*appliedNode
}

func (a *appliedNode) sortedChildren() []*appliedNode {
	keys := slices.Sorted(maps.Keys(a.children))
	out := make([]*appliedNode, len(keys))
	for i, k := range keys {
		out[i] = a.children[k]
	}
	return out
}

// Apply applies the sealed modification mod to the tree rooted at
// current and returns the new root. Apply does not change current or
// mod and either returns a complete new root or an error. version must
// be newer than every node of current.
func (op *ApplyOperation) Apply(mod *Modification, current *TreeNode, version Version) (*TreeNode, error) {
	if current != nil && !current.SubtreeVersion().Less(version) {
		return nil, fmt.Errorf("%w: %s is not newer than %s",
			ErrStaleVersion, version, current.SubtreeVersion())
	}
	root, _, err := op.applyRoot(mod, current, version)
	return root, err
}

func (op *ApplyOperation) applyRoot(
	mod *Modification, current *TreeNode, version Version,
) (*TreeNode, *appliedNode, error) {
	if !mod.IsReady() {
		return nil, nil, ErrNotReady
	}
	ac := &applyContext{version: version, validate: true}
	return op.apply(ac, data.RootInstanceID(), mod.root, current)
}

func (op *ApplyOperation) apply(
	ac *applyContext, path *data.InstanceID, mod *modifiedNode, current *TreeNode,
) (*TreeNode, *appliedNode, error) {
	applied := &appliedNode{arg: mod.arg, op: mod.op, before: current}
	var (
		result *TreeNode
		err    error
	)
	switch mod.op {
	case OpNone:
		result = current
	case OpDelete:
		result = nil
	case OpWrite:
		result, err = op.applyWrite(ac, path, mod, applied)
	case OpMerge:
		result, err = op.applyMerge(ac, path, mod, current, applied)
	case OpTouch:
		result, err = op.applyTouch(ac, path, mod, current, applied)
	default:
		err = fmt.Errorf("unknown operation %s", mod.op)
	}
	if err != nil {
		return nil, nil, err
	}
	applied.after = result
	return result, applied, nil
}

func (op *ApplyOperation) applyWrite(
	ac *applyContext, path *data.InstanceID, mod *modifiedNode, applied *appliedNode,
) (*TreeNode, error) {
	if ac.validate {
		if err := op.verifyStructure(path, mod.value); err != nil {
			return nil, err
		}
	}
	written := NewTreeNode(mod.value, ac.version)
	if op.hasValue() {
		return written, nil
	}
	b := written.mutable()
	if _, err := op.applyChildren(ac, path, b, mod.sortedChildren(), applied); err != nil {
		return nil, err
	}
	if ac.validate {
		for child := range b.data.Children() {
			if _, touched := applied.children[child.Identifier().Key()]; touched {
				continue
			}
			co, ok := op.Child(child.Identifier())
			if !ok {
				continue
			}
			if err := co.validateData(path.Append(child.Identifier()), child); err != nil {
				return nil, err
			}
		}
	}
	return op.finish(ac, path, b, applied)
}

func (op *ApplyOperation) applyMerge(
	ac *applyContext, path *data.InstanceID, mod *modifiedNode,
	current *TreeNode, applied *appliedNode,
) (*TreeNode, error) {
	if current == nil || op.hasValue() {
		return op.applyWrite(ac, path, mod, applied)
	}
	if ac.validate {
		if err := op.verifyStructure(path, mod.value); err != nil {
			return nil, err
		}
	}
	// The merged payload was recorded before any child modification,
	// so each of its children is merged first and the child's own
	// modification is replayed on top.
	children := make(map[string]*modifiedNode, mod.value.Length()+len(mod.children))
	for child := range mod.value.Children() {
		co, ok := op.Child(child.Identifier())
		if !ok {
			return nil, validationErrorf(path.Append(child.Identifier()),
				ConstraintShape, "%s is not a child of %s",
				child.Identifier(), op.schema)
		}
		children[child.Identifier().Key()] = mergedModification(co, child,
			mod.children[child.Identifier().Key()])
	}
	for key, cm := range mod.children {
		if _, ok := children[key]; !ok {
			children[key] = cm
		}
	}
	b := current.mutable()
	b.setSubtreeVersion(ac.version)
	ordered := make([]*modifiedNode, 0, len(children))
	for _, key := range slices.Sorted(maps.Keys(children)) {
		ordered = append(ordered, children[key])
	}
	if _, err := op.applyChildren(ac, path, b, ordered, applied); err != nil {
		return nil, err
	}
	return op.finish(ac, path, b, applied)
}

// mergedModification combines merging value with a later modification
// of the same node.
func mergedModification(op *ApplyOperation, value *data.Node, later *modifiedNode) *modifiedNode {
	out := &modifiedNode{arg: value.Identifier(), op: OpMerge, value: value}
	if later == nil {
		return out
	}
	switch later.op {
	case OpWrite, OpDelete:
		return later
	case OpMerge:
		out.value = op.mergeData(value, later.value)
	}
	out.children = later.children
	return out
}

func (op *ApplyOperation) applyTouch(
	ac *applyContext, path *data.InstanceID, mod *modifiedNode,
	current *TreeNode, applied *appliedNode,
) (*TreeNode, error) {
	var b *mutableTreeNode
	if current != nil {
		b = current.mutable()
	} else {
		empty := op.emptyNode(mod.arg)
		if empty == nil {
			return nil, validationErrorf(path, ConstraintExistence,
				"%s does not exist", mod.arg)
		}
		if ac.validate && op.rejectsData() {
			return nil, validationErrorf(path, ConstraintConfig,
				"%s is not configuration data", op.schema.QName())
		}
		b = NewTreeNode(empty, ac.version).mutable()
	}
	b.setSubtreeVersion(ac.version)
	changed, err := op.applyChildren(ac, path, b, mod.sortedChildren(), applied)
	if err != nil {
		return nil, err
	}
	if current != nil && !changed {
		return current, nil
	}
	return op.finish(ac, path, b, applied)
}

func (op *ApplyOperation) applyChildren(
	ac *applyContext, path *data.InstanceID, b *mutableTreeNode,
	mods []*modifiedNode, applied *appliedNode,
) (bool, error) {
	if len(mods) == 0 {
		return false, nil
	}
	if applied.children == nil {
		applied.children = make(map[string]*appliedNode, len(mods))
	}
	var changed bool
	for _, cm := range mods {
		childPath := path.Append(cm.arg)
		co, ok := op.Child(cm.arg)
		if !ok {
			return false, validationErrorf(childPath, ConstraintShape,
				"%s is not a child of %s", cm.arg, op.schema)
		}
		before, _ := b.child(cm.arg)
		after, ca, err := co.apply(ac, childPath, cm, before)
		if err != nil {
			return false, err
		}
		applied.children[cm.arg.Key()] = ca
		if after == before {
			continue
		}
		changed = true
		switch {
		case after != nil:
			b.setChild(after)
		case before != nil:
			b.removeChild(cm.arg)
		}
	}
	return changed, nil
}

// finish runs the checks that need the complete new node and seals it.
// A structural node left without children disappears.
func (op *ApplyOperation) finish(
	ac *applyContext, path *data.InstanceID, b *mutableTreeNode, applied *appliedNode,
) (*TreeNode, error) {
	if op.kind == opChoice {
		if err := op.resolveCase(path, b, applied); err != nil {
			return nil, err
		}
	}
	if op.structural() && b.length() == 0 {
		return nil, nil
	}
	if ac.validate {
		if err := op.validate(path, b.data); err != nil {
			return nil, err
		}
	}
	return b.seal(), nil
}

// resolveCase keeps only the children of the case that was written
// most recently. Writing children of two cases at once is an error.
func (op *ApplyOperation) resolveCase(
	path *data.InstanceID, b *mutableTreeNode, applied *appliedNode,
) error {
	var active *schema.Node
	for _, ca := range applied.sortedChildren() {
		if ca.after == nil {
			continue
		}
		cs, _ := op.schema.CaseOf(ca.arg)
		if active != nil && cs != active {
			return validationErrorf(path, ConstraintChoice,
				"children of cases %s and %s", active.QName().Name,
				cs.QName().Name)
		}
		active = cs
	}
	if active == nil {
		return nil
	}
	var stale []*TreeNode
	for child := range b.childSeq() {
		if cs, _ := op.schema.CaseOf(child.Identifier()); cs != active {
			stale = append(stale, child)
		}
	}
	for _, child := range stale {
		b.removeChild(child.Identifier())
		applied.children[child.Identifier().Key()] = &appliedNode{
			arg:    child.Identifier(),
			op:     OpDelete,
			before: child,
		}
	}
	return nil
}

// validateData validates a written subtree bottom up.
func (op *ApplyOperation) validateData(path *data.InstanceID, n *data.Node) error {
	if op.hasValue() {
		return nil
	}
	for child := range n.Children() {
		co, ok := op.Child(child.Identifier())
		if !ok {
			continue
		}
		if err := co.validateData(path.Append(child.Identifier()), child); err != nil {
			return err
		}
	}
	return op.validate(path, n)
}

// validate checks the constraints a node must satisfy once all of its
// children are in place.
func (op *ApplyOperation) validate(path *data.InstanceID, n *data.Node) error {
	switch op.kind {
	case opList, opLeafList:
		if limit := op.schema.MaxElements(); limit != 0 && uint64(n.Length()) > limit {
			return validationErrorf(path, ConstraintMaxElements,
				"%d entries exceed max-elements %d", n.Length(), limit)
		}
	case opListEntry:
		if err := op.verifyKeys(path, n.Identifier(), func(q data.QName) (*data.Node, bool) {
			return n.Child(data.NodeIdentifier(q))
		}); err != nil {
			return err
		}
		return op.validateChildren(path, n)
	case opContainer, opAugmentation:
		return op.validateChildren(path, n)
	case opLeaf, opLeafListEntry, opChoice:
	}
	return nil
}

// validateChildren checks mandatory leaves, mandatory choices and
// min-elements of the node's data children.
func (op *ApplyOperation) validateChildren(path *data.InstanceID, n *data.Node) error {
	if !op.cfg.MandatoryValidation {
		return nil
	}
	for _, c := range op.schema.DataChildren() {
		if op.cfg.TreeType == Configuration && !c.Config() {
			continue
		}
		child, exists := n.Child(c.Identifier())
		switch c.Kind() {
		case schema.KindLeaf, schema.KindChoice:
			if c.Mandatory() && !exists {
				return validationErrorf(path.Append(c.Identifier()),
					ConstraintMandatory, "missing mandatory %s", c)
			}
		case schema.KindList, schema.KindLeafList:
			var count uint64
			if exists {
				count = uint64(child.Length())
			}
			if limit := c.MinElements(); count < limit {
				return validationErrorf(path.Append(c.Identifier()),
					ConstraintMinElements,
					"%d entries below min-elements %d", count, limit)
			}
		}
	}
	return nil
}
