// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"iter"
	"sync"

	"github.com/danos/datatree/data"
	"github.com/google/uuid"
)

// ModificationType classifies the change a CandidateNode describes.
type ModificationType uint8

const (
	// Unmodified nodes are the same before and after.
	Unmodified ModificationType = iota
	// Write replaced the node or created it with a payload.
	Write
	// Delete removed the node.
	Delete
	// SubtreeModified nodes exist on both sides and some descendant
	// changed.
	SubtreeModified
	// Appeared nodes were created implicitly by a change below them.
	Appeared
	// Disappeared nodes were removed implicitly when their last child
	// was.
	Disappeared
)

func (t ModificationType) String() string {
	switch t {
	case Unmodified:
		return "unmodified"
	case Write:
		return "write"
	case Delete:
		return "delete"
	case SubtreeModified:
		return "subtree-modified"
	case Appeared:
		return "appeared"
	case Disappeared:
		return "disappeared"
	}
	return "unknown"
}

type candidateKind uint8

const (
	candidateWrite candidateKind = iota
	candidateDelete
	candidateUnmodified
	candidateDelta
	candidateApplied
)

// CandidateNode describes how one node changed between two trees.
// Children are computed when they are iterated, so describing a large
// change costs nothing until it is inspected.
type CandidateNode struct {
	kind    candidateKind
	arg     data.PathArgument
	before  *TreeNode
	after   *TreeNode
	applied *appliedNode

	typeOnce sync.Once
	typ      ModificationType
}

func writeCandidate(after *TreeNode) *CandidateNode {
	return &CandidateNode{kind: candidateWrite, arg: after.Identifier(), after: after}
}

func deleteCandidate(before *TreeNode) *CandidateNode {
	return &CandidateNode{kind: candidateDelete, arg: before.Identifier(), before: before}
}

func deltaCandidate(arg data.PathArgument, before, after *TreeNode) *CandidateNode {
	if before == after {
		return &CandidateNode{
			kind:   candidateUnmodified,
			arg:    arg,
			before: before,
			after:  after,
		}
	}
	return &CandidateNode{kind: candidateDelta, arg: arg, before: before, after: after}
}

func appliedCandidate(a *appliedNode) *CandidateNode {
	return &CandidateNode{
		kind:    candidateApplied,
		arg:     a.arg,
		before:  a.before,
		after:   a.after,
		applied: a,
	}
}

// Diff describes the difference between the trees before and after.
// Either side may be nil.
func Diff(before, after *TreeNode) *CandidateNode {
	switch {
	case after != nil:
		return deltaCandidate(after.Identifier(), before, after)
	case before != nil:
		return deltaCandidate(before.Identifier(), before, after)
	}
	return &CandidateNode{kind: candidateUnmodified}
}

// Identifier returns the PathArgument of the node.
func (c *CandidateNode) Identifier() data.PathArgument { return c.arg }

// DataBefore returns the payload of the node before the change.
func (c *CandidateNode) DataBefore() (*data.Node, bool) {
	if c.before == nil {
		return nil, false
	}
	return c.before.Data(), true
}

// DataAfter returns the payload of the node after the change.
func (c *CandidateNode) DataAfter() (*data.Node, bool) {
	if c.after == nil {
		return nil, false
	}
	return c.after.Data(), true
}

// ModificationType classifies the change. It is computed on first use.
func (c *CandidateNode) ModificationType() ModificationType {
	c.typeOnce.Do(func() {
		c.typ = c.modificationType()
	})
	return c.typ
}

func (c *CandidateNode) modificationType() ModificationType {
	switch c.kind {
	case candidateWrite:
		return Write
	case candidateDelete:
		return Delete
	case candidateUnmodified:
		return Unmodified
	case candidateDelta:
		return c.deltaType()
	case candidateApplied:
		return c.appliedType()
	}
	panic("unknown candidate kind")
}

func (c *CandidateNode) deltaType() ModificationType {
	switch {
	case c.before == c.after:
		return Unmodified
	case c.before == nil:
		return Write
	case c.after == nil:
		return Delete
	}
	bd, ad := c.before.Data(), c.after.Data()
	if bd.Kind() != ad.Kind() {
		return Write
	}
	if ad.Kind().HasValue() {
		if bd.Value().Equal(ad.Value()) {
			return Unmodified
		}
		return Write
	}
	return c.subtreeType()
}

func (c *CandidateNode) appliedType() ModificationType {
	switch c.applied.op {
	case OpNone:
		return Unmodified
	case OpDelete:
		if c.before != nil {
			return Delete
		}
		return Unmodified
	case OpWrite:
		switch {
		case c.after != nil:
			return Write
		case c.before != nil:
			return Delete
		}
		return Unmodified
	case OpMerge, OpTouch:
		switch {
		case c.after == nil && c.before == nil:
			return Unmodified
		case c.after == nil:
			return Disappeared
		case c.after.Data().Kind().HasValue():
			if c.before != nil && c.before.Data().Value().Equal(c.after.Data().Value()) {
				return Unmodified
			}
			return Write
		case c.before == nil && c.applied.op == OpMerge:
			return Write
		case c.before == nil:
			return Appeared
		}
		return c.subtreeType()
	}
	panic("unknown operation " + c.applied.op.String())
}

func (c *CandidateNode) subtreeType() ModificationType {
	for child := range c.ChildNodes() {
		if child.ModificationType() != Unmodified {
			return SubtreeModified
		}
	}
	return Unmodified
}

// ChildNodes iterates over the candidates of the children that may
// have changed. The sequence may be restarted.
func (c *CandidateNode) ChildNodes() iter.Seq[*CandidateNode] {
	return func(yield func(*CandidateNode) bool) {
		switch c.childMode() {
		case childrenWritten:
			for child := range c.after.Children() {
				if !yield(writeCandidate(child)) {
					return
				}
			}
		case childrenDeleted:
			for child := range c.before.Children() {
				if !yield(deleteCandidate(child)) {
					return
				}
			}
		case childrenDelta:
			for child := range c.after.Children() {
				bc, _ := c.before.Child(child.Identifier())
				if !yield(deltaChild(child.Identifier(), bc, child)) {
					return
				}
			}
			for child := range c.before.Children() {
				if _, ok := c.after.Child(child.Identifier()); ok {
					continue
				}
				if !yield(deleteCandidate(child)) {
					return
				}
			}
		case childrenApplied:
			for _, ca := range c.applied.sortedChildren() {
				if !yield(appliedCandidate(ca)) {
					return
				}
			}
		case childrenNone:
		}
	}
}

// ModifiedChild returns the candidate of the child identified by arg.
func (c *CandidateNode) ModifiedChild(arg data.PathArgument) (*CandidateNode, bool) {
	switch c.childMode() {
	case childrenWritten:
		if child, ok := c.after.Child(arg); ok {
			return writeCandidate(child), true
		}
	case childrenDeleted:
		if child, ok := c.before.Child(arg); ok {
			return deleteCandidate(child), true
		}
	case childrenDelta:
		bc, bok := c.before.Child(arg)
		ac, aok := c.after.Child(arg)
		switch {
		case aok:
			return deltaChild(arg, bc, ac), true
		case bok:
			return deleteCandidate(bc), true
		}
	case childrenApplied:
		if ca, ok := c.applied.children[arg.Key()]; ok {
			return appliedCandidate(ca), true
		}
	case childrenNone:
	}
	return nil, false
}

func deltaChild(arg data.PathArgument, before, after *TreeNode) *CandidateNode {
	if before == nil {
		return writeCandidate(after)
	}
	return deltaCandidate(arg, before, after)
}

type childMode uint8

const (
	childrenNone childMode = iota
	childrenWritten
	childrenDeleted
	childrenDelta
	childrenApplied
)

func (c *CandidateNode) childMode() childMode {
	hasChildren := func(n *TreeNode) bool {
		return n != nil && !n.Data().Kind().HasValue()
	}
	switch c.kind {
	case candidateUnmodified:
		return childrenNone
	case candidateWrite:
		if hasChildren(c.after) {
			return childrenWritten
		}
		return childrenNone
	case candidateDelete:
		if hasChildren(c.before) {
			return childrenDeleted
		}
		return childrenNone
	case candidateApplied:
		// Nodes that were not replaced only lose or gain children
		// through recorded child changes.
		switch c.applied.op {
		case OpTouch:
			return childrenApplied
		case OpMerge:
			if hasChildren(c.before) && hasChildren(c.after) {
				return childrenApplied
			}
		case OpNone, OpWrite, OpDelete:
		}
	case candidateDelta:
	}
	switch {
	case !hasChildren(c.before) && !hasChildren(c.after):
		return childrenNone
	case !hasChildren(c.before):
		return childrenWritten
	case !hasChildren(c.after):
		return childrenDeleted
	}
	return childrenDelta
}

// Candidate is the result of applying a modification to a snapshot,
// described as a tree of CandidateNodes rooted at the tree root.
type Candidate struct {
	rootPath *data.InstanceID
	root     *CandidateNode
	base     *Snapshot
	result   *Snapshot
	mod      *Modification
}

// RootPath returns the absolute path of the tree root.
func (c *Candidate) RootPath() *data.InstanceID { return c.rootPath }

// RootNode returns the candidate of the tree root.
func (c *Candidate) RootNode() *CandidateNode { return c.root }

// ModificationID returns the id of the modification that produced the
// candidate.
func (c *Candidate) ModificationID() uuid.UUID { return c.mod.ID() }

// Snapshot returns the snapshot the candidate would publish.
func (c *Candidate) Snapshot() *Snapshot { return c.result }

// Walk calls fn for every changed node with its absolute path, parents
// before children. Only SubtreeModified nodes are descended into; the
// other changes describe their whole subtree.
func (c *Candidate) Walk(fn func(path *data.InstanceID, n *CandidateNode) error) error {
	return WalkCandidate(c.rootPath, c.root, fn)
}

// WalkCandidate walks the changes below n the way Candidate.Walk does,
// path being the absolute path of n.
func WalkCandidate(
	path *data.InstanceID,
	n *CandidateNode,
	fn func(path *data.InstanceID, n *CandidateNode) error,
) error {
	t := n.ModificationType()
	if t == Unmodified {
		return nil
	}
	if err := fn(path, n); err != nil {
		return err
	}
	if t != SubtreeModified {
		return nil
	}
	for child := range n.ChildNodes() {
		if err := WalkCandidate(path.Append(child.Identifier()), child, fn); err != nil {
			return err
		}
	}
	return nil
}
