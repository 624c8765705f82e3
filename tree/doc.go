// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package tree implements a persistent, versioned, schema validated
// data tree.
//
// A Snapshot pairs an immutable root TreeNode with the ApplyOperation
// of the schema in effect when it was taken. Readers traverse snapshots
// without locking. Writers record writes, merges and deletes in a
// Modification, and applying it produces a new root that shares every
// untouched subtree with the old one, together with a lazily computed
// Candidate describing the change. A DataTree publishes new snapshots
// with an atomic compare-and-swap and rebases modifications prepared
// against older snapshots when they do not conflict.
package tree
