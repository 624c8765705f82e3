// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"

	"github.com/danos/datatree/data"
)

// FindNode returns the node at path below root. Absence is a normal
// outcome and is reported as false.
func FindNode(root *TreeNode, path *data.InstanceID) (*TreeNode, bool) {
	cur := root
	for i := 0; i < path.Len(); i++ {
		next, ok := GetChild(cur, path.At(i))
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// FindNodeChecked returns the node at path below root. It is used where
// the path is known to exist, so absence is reported as ErrInvalidPath.
func FindNodeChecked(root *TreeNode, path *data.InstanceID) (*TreeNode, error) {
	n, ok := FindNode(root, path)
	if !ok {
		return nil, fmt.Errorf("%w: node %s does not exist", ErrInvalidPath, path)
	}
	return n, nil
}

// FindClosest returns the deepest existing node along path together
// with the prefix of path leading to it.
func FindClosest(root *TreeNode, path *data.InstanceID) (*TreeNode, *data.InstanceID) {
	cur := root
	for i := 0; i < path.Len(); i++ {
		next, ok := GetChild(cur, path.At(i))
		if !ok {
			return cur, path.Prefix(i)
		}
		cur = next
	}
	return cur, path
}

// GetChild returns the child of parent identified by arg. A nil parent
// has no children.
func GetChild(parent *TreeNode, arg data.PathArgument) (*TreeNode, bool) {
	if parent == nil {
		return nil, false
	}
	return parent.Child(arg)
}
