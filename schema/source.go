// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSchema is returned when a schema source cannot be compiled.
var ErrInvalidSchema = errors.New("invalid schema")

func schemaErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidSchema, fmt.Sprintf(format, args...))
}

// Source is one module's schema as written in YAML:
//
//	module: test
//	nodes:
//	  - name: test
//	    kind: container
//	    children:
//	      - name: outer-list
//	        kind: list
//	        key: [id]
//	        children:
//	          - {name: id, kind: leaf, type: uint}
//	augments:
//	  - target: /other:top
//	    nodes:
//	      - {name: extra, kind: leaf, type: string}
type Source struct {
	Module   string          `yaml:"module"`
	Nodes    []NodeSource    `yaml:"nodes"`
	Augments []AugmentSource `yaml:"augments,omitempty"`
}

// NodeSource declares a single schema node.
type NodeSource struct {
	Name        string       `yaml:"name"`
	Kind        string       `yaml:"kind"`
	Type        string       `yaml:"type,omitempty"`
	Enum        []string     `yaml:"enum,omitempty"`
	Key         []string     `yaml:"key,omitempty"`
	Mandatory   bool         `yaml:"mandatory,omitempty"`
	Presence    bool         `yaml:"presence,omitempty"`
	Config      *bool        `yaml:"config,omitempty"`
	MinElements uint64       `yaml:"min-elements,omitempty"`
	MaxElements uint64       `yaml:"max-elements,omitempty"`
	Children    []NodeSource `yaml:"children,omitempty"`
}

// AugmentSource adds nodes of the module to a container or list of
// another module.
type AugmentSource struct {
	Target string       `yaml:"target"`
	Nodes  []NodeSource `yaml:"nodes"`
}

// ParseSource decodes a YAML schema source. Unknown fields are errors.
func ParseSource(b []byte) (*Source, error) {
	return DecodeSource(bytes.NewReader(b))
}

// DecodeSource decodes a YAML schema source from r.
func DecodeSource(r io.Reader) (*Source, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var src Source
	if err := dec.Decode(&src); err != nil {
		return nil, schemaErrorf("%s", err)
	}
	if src.Module == "" {
		return nil, schemaErrorf("source has no module name")
	}
	return &src, nil
}

// LoadSource reads a YAML schema source from a file.
func LoadSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	src, err := DecodeSource(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return src, nil
}
