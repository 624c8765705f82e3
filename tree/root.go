// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"sync/atomic"

	"github.com/danos/datatree/internal/metrics"
	"github.com/danos/datatree/schema"
)

// RootOperation holds the apply operation of the tree root. It is
// replaced as a whole when the schema changes; readers always observe
// either the old or the new operation tree, never a mixture.
type RootOperation struct {
	cfg     TreeConfig
	current atomic.Pointer[ApplyOperation]
}

// NewRootOperation builds the root operation for ctx.
func NewRootOperation(ctx *schema.Context, cfg TreeConfig) (*RootOperation, error) {
	op, err := NewApplyOperation(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r := &RootOperation{cfg: cfg}
	r.current.Store(op)
	return r, nil
}

// Current returns the operation in effect.
func (r *RootOperation) Current() *ApplyOperation {
	return r.current.Load()
}

// Upgrade builds the operation tree of ctx and makes it current.
// Snapshots taken earlier keep the operation they were taken under.
func (r *RootOperation) Upgrade(ctx *schema.Context) (*ApplyOperation, error) {
	op, err := NewApplyOperation(ctx, r.cfg)
	if err != nil {
		return nil, err
	}
	r.current.Store(op)
	metrics.SchemaUpgrades.Inc()
	return op, nil
}
