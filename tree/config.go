// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"os"

	"github.com/danos/datatree/data"
	"gopkg.in/yaml.v3"
)

// TreeType selects which schema nodes a tree may hold.
type TreeType uint8

const (
	// Configuration trees reject nodes declared config false.
	Configuration TreeType = iota
	// Operational trees hold both configuration and state data.
	Operational
)

func (t TreeType) String() string {
	switch t {
	case Configuration:
		return "configuration"
	case Operational:
		return "operational"
	}
	return "unknown"
}

// MarshalYAML implements yaml.Marshaler.
func (t TreeType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TreeType) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	switch s {
	case "configuration", "config":
		*t = Configuration
	case "operational", "oper":
		*t = Operational
	default:
		return fmt.Errorf("unknown tree type %q", s)
	}
	return nil
}

// TreeConfig describes a data tree.
type TreeConfig struct {
	TreeType TreeType `yaml:"tree-type"`
	// MandatoryValidation enables checks of mandatory leaves, mandatory
	// choices and min-elements.
	MandatoryValidation bool `yaml:"mandatory-validation"`
	// RootPath is the instance-identifier of the container the tree
	// is rooted at.
	RootPath string `yaml:"root-path"`
}

// DefaultTreeConfig returns a configuration tree rooted at the schema
// root with mandatory validation enabled.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		TreeType:            Configuration,
		MandatoryValidation: true,
		RootPath:            "/",
	}
}

// ParseTreeConfig decodes a YAML tree configuration. Fields that are
// not present keep their defaults.
func ParseTreeConfig(b []byte) (TreeConfig, error) {
	cfg := DefaultTreeConfig()
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return TreeConfig{}, err
	}
	if _, err := cfg.rootPath(); err != nil {
		return TreeConfig{}, err
	}
	return cfg, nil
}

// LoadTreeConfig reads a YAML tree configuration from a file.
func LoadTreeConfig(path string) (TreeConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return TreeConfig{}, err
	}
	cfg, err := ParseTreeConfig(b)
	if err != nil {
		return TreeConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c TreeConfig) rootPath() (*data.InstanceID, error) {
	if c.RootPath == "" {
		return data.RootInstanceID(), nil
	}
	return data.InstanceIDParse(c.RootPath)
}
