// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"iter"

	"github.com/benbjohnson/immutable"
	"github.com/danos/datatree/data"
)

// TreeNode is an immutable node of a versioned tree. It holds the data
// payload of the node, the version at which the payload was last
// replaced and the version of the most recent change anywhere beneath
// it. Children are materialized as TreeNodes so that each carries its
// own versions. A TreeNode may be shared by any number of trees.
type TreeNode struct {
	data           *data.Node
	version        Version
	subtreeVersion Version
	children       *immutable.SortedMap[string, *TreeNode]
}

// NewTreeNode wraps a whole payload, stamping every node in it with
// version.
func NewTreeNode(payload *data.Node, version Version) *TreeNode {
	n := &TreeNode{
		data:           payload,
		version:        version,
		subtreeVersion: version,
	}
	if payload.Kind().HasValue() {
		return n
	}
	b := immutable.NewSortedMapBuilder[string, *TreeNode](nil)
	for child := range payload.Children() {
		b.Set(child.Identifier().Key(), NewTreeNode(child, version))
	}
	n.children = b.Map()
	return n
}

// Data returns the payload of the node.
func (n *TreeNode) Data() *data.Node { return n.data }

// Identifier returns the PathArgument of the node.
func (n *TreeNode) Identifier() data.PathArgument { return n.data.Identifier() }

// Version returns the version at which the payload was last replaced.
func (n *TreeNode) Version() Version { return n.version }

// SubtreeVersion returns the version of the latest change in the
// subtree rooted at the node.
func (n *TreeNode) SubtreeVersion() Version { return n.subtreeVersion }

// Child returns the child identified by arg.
func (n *TreeNode) Child(arg data.PathArgument) (*TreeNode, bool) {
	if n == nil || n.children == nil {
		return nil, false
	}
	return n.children.Get(arg.Key())
}

// Length returns the number of children.
func (n *TreeNode) Length() int {
	if n.children == nil {
		return 0
	}
	return n.children.Len()
}

// Children iterates over the children in identifier order.
func (n *TreeNode) Children() iter.Seq[*TreeNode] {
	return func(yield func(*TreeNode) bool) {
		if n == nil || n.children == nil {
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

func (n *TreeNode) String() string {
	return n.Identifier().String() + "@" + n.version.String() +
		"/" + n.subtreeVersion.String()
}

// mutableTreeNode rebuilds a TreeNode. Children set on it are mirrored
// into the payload so the two stay consistent. It must not escape the
// apply operation that created it; seal publishes the result.
type mutableTreeNode struct {
	data           *data.Node
	version        Version
	subtreeVersion Version
	children       *immutable.SortedMap[string, *TreeNode]
}

// mutable starts rebuilding n.
func (n *TreeNode) mutable() *mutableTreeNode {
	children := n.children
	if children == nil && !n.data.Kind().HasValue() {
		children = immutable.NewSortedMap[string, *TreeNode](nil)
	}
	return &mutableTreeNode{
		data:           n.data,
		version:        n.version,
		subtreeVersion: n.subtreeVersion,
		children:       children,
	}
}

func (m *mutableTreeNode) child(arg data.PathArgument) (*TreeNode, bool) {
	return m.children.Get(arg.Key())
}

func (m *mutableTreeNode) length() int { return m.children.Len() }

func (m *mutableTreeNode) childSeq() iter.Seq[*TreeNode] {
	return (&TreeNode{children: m.children}).Children()
}

func (m *mutableTreeNode) setChild(c *TreeNode) {
	m.children = m.children.Set(c.Identifier().Key(), c)
	m.data = m.data.WithChild(c.data)
}

func (m *mutableTreeNode) removeChild(arg data.PathArgument) {
	m.children = m.children.Delete(arg.Key())
	m.data = m.data.WithoutChild(arg)
}

func (m *mutableTreeNode) setSubtreeVersion(v Version) { m.subtreeVersion = v }

func (m *mutableTreeNode) seal() *TreeNode {
	return &TreeNode{
		data:           m.data,
		version:        m.version,
		subtreeVersion: m.subtreeVersion,
		children:       m.children,
	}
}
