// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package data

import "strings"

// QName is a qualified name, a module name and the identifier of a
// node inside that module.
type QName struct {
	Module string
	Name   string
}

// QNameNew creates a QName from a module and a name.
func QNameNew(module, name string) QName {
	return QName{Module: module, Name: name}
}

// QNameParse parses "module:name" into a QName. If no module is present
// the supplied default module is used.
func QNameParse(defaultModule, str string) QName {
	parts := strings.SplitN(str, ":", 2)
	if len(parts) == 1 {
		return QName{Module: defaultModule, Name: parts[0]}
	}
	return QName{Module: parts[0], Name: parts[1]}
}

// String returns the QName as "module:name".
func (q QName) String() string {
	if q.Module == "" {
		return q.Name
	}
	return q.Module + ":" + q.Name
}

// Compare orders QNames by module and then by name.
func (q QName) Compare(other QName) int {
	if c := strings.Compare(q.Module, other.Module); c != 0 {
		return c
	}
	return strings.Compare(q.Name, other.Name)
}

// IsZero returns whether the QName is unset.
func (q QName) IsZero() bool {
	return q.Module == "" && q.Name == ""
}
