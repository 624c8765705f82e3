// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package schema holds the compiled schema model the data tree is
// validated against. A Context is built from one or more YAML module
// sources and exposes, for every schema node, its kind, keys,
// cardinality, choice/case membership, augmentations, config flag and
// leaf type.
//
// Schema nodes are seen two ways. The schema view follows the
// declaration: a choice has cases and a case has children. The data
// view follows the shape of instance data: cases are transparent, so a
// choice directly holds the children of its active case, and
// augmentations are addressed by the set of names they contribute.
// DataChild and Normalize work in the data view.
package schema
