// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"
	"time"

	"github.com/danos/datatree/data"
	"github.com/danos/datatree/internal/metrics"
	"github.com/danos/datatree/schema"
)

// Snapshot is an immutable view of a tree at one version together with
// the schema and apply operation it was taken under. Snapshots may be
// read concurrently and are never affected by later changes.
type Snapshot struct {
	root     *TreeNode
	op       *ApplyOperation
	schema   *schema.Context
	version  Version
	rootPath *data.InstanceID
}

// NewSnapshot returns an empty tree described by cfg at the initial
// version.
func NewSnapshot(ctx *schema.Context, cfg TreeConfig) (*Snapshot, error) {
	op, err := NewApplyOperation(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return newSnapshot(ctx, op)
}

func newSnapshot(ctx *schema.Context, op *ApplyOperation) (*Snapshot, error) {
	rootPath, err := op.cfg.rootPath()
	if err != nil {
		return nil, err
	}
	rootPath, err = ctx.Normalize(rootPath)
	if err != nil {
		return nil, err
	}
	root := op.emptyNode(op.schema.Identifier())
	return &Snapshot{
		root:     NewTreeNode(root, InitialVersion()),
		op:       op,
		schema:   ctx,
		version:  InitialVersion(),
		rootPath: rootPath,
	}, nil
}

// RootNode returns the root of the tree.
func (s *Snapshot) RootNode() *TreeNode { return s.root }

// Schema returns the schema the snapshot was taken under.
func (s *Snapshot) Schema() *schema.Context { return s.schema }

// Version returns the version of the snapshot.
func (s *Snapshot) Version() Version { return s.version }

// RootPath returns the absolute path of the tree root.
func (s *Snapshot) RootPath() *data.InstanceID { return s.rootPath }

// ReadNode returns the payload at the absolute path. Paths the schema
// does not know are reported as absent.
func (s *Snapshot) ReadNode(path *data.InstanceID) (*data.Node, bool) {
	n, ok := s.findNode(path)
	if !ok {
		return nil, false
	}
	return n.Data(), true
}

func (s *Snapshot) findNode(path *data.InstanceID) (*TreeNode, bool) {
	norm, err := s.schema.Normalize(path)
	if err != nil || !s.rootPath.IsPrefixOf(norm) {
		return nil, false
	}
	return FindNode(s.root, norm.Suffix(s.rootPath.Len()))
}

// NewModification starts recording changes against the snapshot.
func (s *Snapshot) NewModification() *Modification {
	return newModification(s)
}

// Applied is the result of applying a modification to a snapshot.
type Applied struct {
	root      *TreeNode
	snapshot  *Snapshot
	candidate *Candidate
}

// Root returns the root of the new tree.
func (a *Applied) Root() *TreeNode { return a.root }

// Snapshot returns the new tree as a snapshot.
func (a *Applied) Snapshot() *Snapshot { return a.snapshot }

// Candidate describes the changes made by the modification.
func (a *Applied) Candidate() *Candidate { return a.candidate }

// Apply applies the sealed modification mod to the snapshot, stamping
// every rebuilt node with version, which must be newer than the
// snapshot. The snapshot itself is unchanged.
func (s *Snapshot) Apply(mod *Modification, version Version) (*Applied, error) {
	start := time.Now()
	if !s.version.Less(version) {
		metrics.ObserveApply("error", start)
		return nil, fmt.Errorf("%w: %s is not newer than snapshot %s",
			ErrStaleVersion, version, s.version)
	}
	root, applied, err := s.op.applyRoot(mod, s.root, version)
	switch {
	case errors.Is(err, ErrSchemaValidation):
		metrics.ObserveApply("invalid", start)
		return nil, err
	case err != nil:
		metrics.ObserveApply("error", start)
		return nil, err
	}
	metrics.ObserveApply("ok", start)
	if root == nil {
		root = NewTreeNode(s.op.emptyNode(s.op.schema.Identifier()), version)
	}
	next := &Snapshot{
		root:     root,
		op:       s.op,
		schema:   s.schema,
		version:  version,
		rootPath: s.rootPath,
	}
	return &Applied{
		root:     root,
		snapshot: next,
		candidate: &Candidate{
			rootPath: s.rootPath,
			root:     appliedCandidate(applied),
			base:     s,
			result:   next,
			mod:      mod,
		},
	}, nil
}

// withOperation returns the snapshot bound to another apply operation.
func (s *Snapshot) withOperation(ctx *schema.Context, op *ApplyOperation) *Snapshot {
	return &Snapshot{
		root:     s.root,
		op:       op,
		schema:   ctx,
		version:  s.version,
		rootPath: s.rootPath,
	}
}
