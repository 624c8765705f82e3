// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"

	"github.com/danos/datatree/data"
)

// checkApplicable reports whether mod, recorded against the tree base,
// can be applied to current without losing a change made between the
// two. Writes and deletes require the node to be untouched since base.
// Merges and touches only require the nodes they change to be, so
// changes to unrelated siblings do not conflict.
func (op *ApplyOperation) checkApplicable(
	path *data.InstanceID, mod *modifiedNode, base, current *TreeNode,
) error {
	if base == current {
		return nil
	}
	switch mod.op {
	case OpNone:
		return nil
	case OpWrite, OpDelete:
		return conflict(path, base, current)
	case OpMerge, OpTouch:
		if op.hasValue() {
			return conflict(path, base, current)
		}
		if !op.structural() {
			switch {
			case base == nil || current == nil:
				return conflict(path, base, current)
			case base.version != current.version:
				return conflict(path, base, current)
			}
		}
		return op.checkChildren(path, mod, base, current)
	}
	return fmt.Errorf("unknown operation %s", mod.op)
}

func (op *ApplyOperation) checkChildren(
	path *data.InstanceID, mod *modifiedNode, base, current *TreeNode,
) error {
	children := make(map[string]*modifiedNode, len(mod.children))
	if mod.op == OpMerge {
		for child := range mod.value.Children() {
			co, ok := op.Child(child.Identifier())
			if !ok {
				continue
			}
			key := child.Identifier().Key()
			children[key] = mergedModification(co, child, mod.children[key])
		}
	}
	for key, cm := range mod.children {
		if _, ok := children[key]; !ok {
			children[key] = cm
		}
	}
	for _, cm := range children {
		co, ok := op.Child(cm.arg)
		if !ok {
			continue
		}
		bc, _ := GetChild(base, cm.arg)
		cc, _ := GetChild(current, cm.arg)
		if err := co.checkApplicable(path.Append(cm.arg), cm, bc, cc); err != nil {
			return err
		}
	}
	return nil
}

func conflict(path *data.InstanceID, base, current *TreeNode) error {
	switch {
	case base == nil:
		return fmt.Errorf("%w: %s was created concurrently",
			ErrConflictingModification, path)
	case current == nil:
		return fmt.Errorf("%w: %s was deleted concurrently",
			ErrConflictingModification, path)
	}
	return fmt.Errorf("%w: %s was modified concurrently at %s",
		ErrConflictingModification, path, current.subtreeVersion)
}
