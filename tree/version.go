// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import "strconv"

// Version is a generation marker. Versions are totally ordered and
// every successful apply stamps the nodes it touches with a version
// greater than any the tree held before.
type Version uint64

// InitialVersion returns the version of a freshly created tree. It is
// less than every other version.
func InitialVersion() Version { return 0 }

// Next returns the version following v.
func (v Version) Next() Version { return v + 1 }

// Compare returns -1, 0 or 1 when v is less than, equal to or greater
// than other.
func (v Version) Compare(other Version) int {
	switch {
	case v < other:
		return -1
	case v > other:
		return 1
	}
	return 0
}

// Less reports whether v is older than other.
func (v Version) Less(other Version) bool { return v < other }

func (v Version) String() string {
	return "v" + strconv.FormatUint(uint64(v), 10)
}
