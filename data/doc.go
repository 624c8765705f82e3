// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package data implements the normalized node model held by the data
// tree. Nodes in this package are immutable: updating a node yields a
// new copy with the change made, sharing all untouched children with
// the original. A Node is one of a leaf, a container, a keyed list and
// its entries, a leaf-list and its entries, a choice or an augmentation.
// Nodes are addressed by InstanceIDs, ordered sequences of
// PathArguments, which may be parsed from and formatted to RFC7951
// instance-identifier strings.
package data
