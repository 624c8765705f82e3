// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseTreeConfig(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		expected TreeConfig
	}{{
		name:     "empty",
		in:       "",
		expected: DefaultTreeConfig(),
	}, {
		name: "operational",
		in:   "tree-type: oper\nroot-path: /test:test\n",
		expected: TreeConfig{
			TreeType:            Operational,
			MandatoryValidation: true,
			RootPath:            "/test:test",
		},
	}, {
		name: "no mandatory validation",
		in:   "tree-type: configuration\nmandatory-validation: false\n",
		expected: TreeConfig{
			TreeType: Configuration,
			RootPath: "/",
		},
	}}
	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := ParseTreeConfig([]byte(test.in))
			require.NoError(t, err)
			assert.Equal(t, test.expected, cfg)
		})
	}
}

func TestParseTreeConfigFailures(t *testing.T) {
	for _, in := range []string{
		"tree-type: running\n",
		"root-path: test\n",
		"root-path: /test:test[0]\n",
		"tree-type: [config]\n",
	} {
		_, err := ParseTreeConfig([]byte(in))
		assert.Error(t, err, in)
	}
}

func TestTreeConfigRoundTrip(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.TreeType = Operational
	b, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(b), "tree-type: operational")

	path := filepath.Join(t.TempDir(), "tree.yaml")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	loaded, err := LoadTreeConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	_, err = LoadTreeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRootOperationUpgrade(t *testing.T) {
	ctx := testContext(t, testSchema)
	r, err := NewRootOperation(ctx, DefaultTreeConfig())
	require.NoError(t, err)
	before := r.Current()
	assert.Equal(t, ctx.Root(), before.Schema())

	after, err := r.Upgrade(testContext(t, testSchema, augSchema))
	require.NoError(t, err)
	assert.Same(t, after, r.Current())
	assert.NotSame(t, before, after)

	snap, err := NewSnapshot(ctx, DefaultTreeConfig())
	require.NoError(t, err)
	assert.Equal(t, InitialVersion(), snap.Version())
	assert.Equal(t, 0, snap.RootNode().Length())
}
