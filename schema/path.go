// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/danos/datatree/data"
)

// Path is a sequence of schema node names, either absolute from the
// schema root or relative to some other schema node. Choices and cases
// appear in schema paths, augmentations never do.
type Path struct {
	absolute bool
	names    []data.QName
}

// AbsolutePath creates a Path starting at the schema root.
func AbsolutePath(names ...data.QName) Path {
	return Path{absolute: true, names: slices.Clone(names)}
}

// RelativePath creates a Path relative to another schema node.
func RelativePath(names ...data.QName) Path {
	return Path{names: slices.Clone(names)}
}

// ParsePath parses "/m:a/b/c" into an absolute Path and "m:a/b" into a
// relative one. Names without a prefix inherit the previous module;
// the first name must have one.
func ParsePath(s string) (Path, error) {
	p := Path{absolute: strings.HasPrefix(s, "/")}
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		if p.absolute {
			return p, nil
		}
		return Path{}, fmt.Errorf("empty schema path")
	}
	var module string
	for _, part := range strings.Split(s, "/") {
		if part == "" {
			return Path{}, fmt.Errorf("empty node name in schema path %q", s)
		}
		if module == "" && !strings.Contains(part, ":") {
			return Path{}, fmt.Errorf("unable to determine prefix of %q", part)
		}
		q := data.QNameParse(module, part)
		module = q.Module
		p.names = append(p.names, q)
	}
	return p, nil
}

// IsAbsolute reports whether the path starts at the schema root.
func (p Path) IsAbsolute() bool { return p.absolute }

// Len returns the number of names in the path.
func (p Path) Len() int { return len(p.names) }

// Names returns the names of the path.
func (p Path) Names() []data.QName { return slices.Clone(p.names) }

// Child returns the path extended by q.
func (p Path) Child(q data.QName) Path {
	names := make([]data.QName, 0, len(p.names)+1)
	names = append(names, p.names...)
	return Path{absolute: p.absolute, names: append(names, q)}
}

// Parent returns the path without its last name. The parent of an empty
// path is itself.
func (p Path) Parent() Path {
	if len(p.names) == 0 {
		return p
	}
	return Path{absolute: p.absolute, names: p.names[: len(p.names)-1 : len(p.names)-1]}
}

// Last returns the final name, false for an empty path.
func (p Path) Last() (data.QName, bool) {
	if len(p.names) == 0 {
		return data.QName{}, false
	}
	return p.names[len(p.names)-1], true
}

// Equal reports whether two paths are the same.
func (p Path) Equal(other Path) bool {
	return p.absolute == other.absolute && slices.Equal(p.names, other.names)
}

func (p Path) String() string {
	var b strings.Builder
	var module string
	for i, q := range p.names {
		if i > 0 || p.absolute {
			b.WriteByte('/')
		}
		if q.Module != module {
			b.WriteString(q.Module)
			b.WriteByte(':')
		}
		b.WriteString(q.Name)
		module = q.Module
	}
	if b.Len() == 0 && p.absolute {
		return "/"
	}
	return b.String()
}
