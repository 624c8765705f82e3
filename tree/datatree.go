// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/danos/datatree/internal/metrics"
	"github.com/danos/datatree/schema"
)

// DataTree publishes a sequence of snapshots. Modifications are
// prepared against the newest snapshot and committed by swapping it
// atomically; readers never block and never observe a partial change.
type DataTree struct {
	log    *slog.Logger
	cfg    TreeConfig
	rootOp *RootOperation
	tip    atomic.Pointer[Snapshot]

	schemaMu sync.Mutex
}

// Option configures a DataTree.
type Option func(*DataTree)

// WithLogger sets the logger. The default is slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(t *DataTree) {
		if log != nil {
			t.log = log
		}
	}
}

// WithTreeConfig sets the tree configuration. The default is
// DefaultTreeConfig.
func WithTreeConfig(cfg TreeConfig) Option {
	return func(t *DataTree) {
		t.cfg = cfg
	}
}

// New creates an empty tree for the schema ctx.
func New(ctx *schema.Context, opts ...Option) (*DataTree, error) {
	t := &DataTree{
		log: slog.Default(),
		cfg: DefaultTreeConfig(),
	}
	for _, opt := range opts {
		opt(t)
	}
	rootOp, err := NewRootOperation(ctx, t.cfg)
	if err != nil {
		return nil, err
	}
	snap, err := newSnapshot(ctx, rootOp.Current())
	if err != nil {
		return nil, err
	}
	t.rootOp = rootOp
	t.tip.Store(snap)
	t.log.Debug("data tree created",
		"tree-type", t.cfg.TreeType, "root", snap.rootPath)
	return t, nil
}

// Config returns the configuration of the tree.
func (t *DataTree) Config() TreeConfig { return t.cfg }

// TakeSnapshot returns the newest snapshot.
func (t *DataTree) TakeSnapshot() *Snapshot {
	return t.tip.Load()
}

// Validate checks that mod could be committed now without committing
// it.
func (t *DataTree) Validate(mod *Modification) error {
	if !mod.IsReady() {
		return ErrNotReady
	}
	tip := t.tip.Load()
	if err := t.rebase(mod, tip); err != nil {
		return err
	}
	_, err := tip.Apply(mod, tip.version.Next())
	return err
}

// Prepare applies mod to the newest snapshot. A modification created
// from an older snapshot is rebased when nothing it changes was changed
// since; otherwise Prepare fails with ErrConflictingModification.
func (t *DataTree) Prepare(mod *Modification) (*Candidate, error) {
	if !mod.IsReady() {
		return nil, ErrNotReady
	}
	tip := t.tip.Load()
	if err := t.rebase(mod, tip); err != nil {
		return nil, err
	}
	applied, err := tip.Apply(mod, tip.version.Next())
	if err != nil {
		return nil, err
	}
	return applied.Candidate(), nil
}

// Commit publishes the snapshot of c. If another commit happened since
// c was prepared, the modification is rebased and applied again and c
// is updated to describe what was actually published.
func (t *DataTree) Commit(c *Candidate) error {
	for {
		if t.tip.CompareAndSwap(c.base, c.result) {
			metrics.Commits.Inc()
			t.log.Debug("modification committed",
				"modification", c.ModificationID(),
				"version", c.result.version)
			return nil
		}
		tip := t.tip.Load()
		if err := t.rebase(c.mod, tip); err != nil {
			return err
		}
		applied, err := tip.Apply(c.mod, tip.version.Next())
		if err != nil {
			return err
		}
		*c = *applied.Candidate()
	}
}

// rebase checks that mod, recorded against an older snapshot, can be
// applied to tip.
func (t *DataTree) rebase(mod *Modification, tip *Snapshot) error {
	base := mod.Snapshot()
	if base.root == tip.root {
		return nil
	}
	err := tip.op.checkApplicable(tip.rootPath, mod.root, base.root, tip.root)
	if err != nil {
		metrics.Conflicts.Inc()
		t.log.Warn("modification conflicts with a concurrent change",
			"modification", mod.ID(),
			"base", base.version,
			"tip", tip.version,
			"error", err)
		return err
	}
	metrics.Rebases.Inc()
	t.log.Debug("modification rebased",
		"modification", mod.ID(),
		"base", base.version,
		"tip", tip.version)
	return nil
}

// SetSchemaContext switches the tree to the schema ctx. Snapshots taken
// before keep their schema. The data already in the tree is not
// validated against the new schema.
func (t *DataTree) SetSchemaContext(ctx *schema.Context) error {
	t.schemaMu.Lock()
	defer t.schemaMu.Unlock()
	op, err := t.rootOp.Upgrade(ctx)
	if err != nil {
		return err
	}
	for {
		tip := t.tip.Load()
		if t.tip.CompareAndSwap(tip, tip.withOperation(ctx, op)) {
			t.log.Debug("schema context updated",
				"modules", ctx.Modules(), "version", tip.version)
			return nil
		}
	}
}
