// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

// Package codec converts between YAML documents and data nodes.
//
// The document layout follows RFC7951 with YAML syntax. A member is
// named "module:name" when its module differs from the module of the
// enclosing node and plainly "name" otherwise. Lists are sequences of
// mappings, leaf-lists are sequences of scalars and the empty type is
// written [null]. Choices and augmentations do not appear in documents;
// their children are members of the enclosing mapping and the schema
// is used to put them back in place when decoding.
//
// The package also holds edit scripts, ordered write, merge and delete
// actions that are recorded into a tree.Modification, and can derive an
// edit script from a tree.Candidate.
package codec
