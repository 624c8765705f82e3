// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/danos/datatree/codec"
	"github.com/danos/datatree/data"
	"github.com/danos/datatree/schema"
	"github.com/danos/datatree/tree"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	schemaFiles []string
	configFile  string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "datatreectl",
	Short: "Inspect and edit schema-validated data trees",
	Long: `datatreectl loads YAML schema modules and data documents into a
versioned data tree. It can look nodes up, apply edit scripts, compare
documents and print the compiled schema.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().
		StringSliceVarP(&schemaFiles, "schema", "s", nil, "Schema module file (repeatable)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Tree configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(),
		&slog.HandlerOptions{Level: level}))
}

// loadContext compiles the modules named by --schema.
func loadContext(cmd *cobra.Command) (*schema.Context, error) {
	if len(schemaFiles) == 0 {
		return nil, errors.New("at least one --schema is required")
	}
	reg := schema.RegistryNew(logger(cmd))
	for _, f := range schemaFiles {
		src, err := schema.LoadSource(f)
		if err != nil {
			return nil, err
		}
		reg.Register(src)
	}
	return reg.Context()
}

func loadConfig() (tree.TreeConfig, error) {
	if configFile == "" {
		return tree.DefaultTreeConfig(), nil
	}
	return tree.LoadTreeConfig(configFile)
}

func loadDocument(ctx *schema.Context, path string) (*data.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := codec.Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// loadTree creates a data tree and commits the part of the document at
// dataFile that lies below the tree root.
func loadTree(cmd *cobra.Command, ctx *schema.Context, dataFile string) (*tree.DataTree, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	dt, err := tree.New(ctx, tree.WithLogger(logger(cmd)), tree.WithTreeConfig(cfg))
	if err != nil {
		return nil, err
	}
	if dataFile == "" {
		return dt, nil
	}
	doc, err := loadDocument(ctx, dataFile)
	if err != nil {
		return nil, err
	}
	snap := dt.TakeSnapshot()
	payload := doc
	for _, arg := range snap.RootPath().PathArguments() {
		child, ok := payload.Child(arg)
		if !ok {
			return dt, nil
		}
		payload = child
	}
	m := snap.NewModification()
	if err := m.Write(snap.RootPath(), payload); err != nil {
		return nil, fmt.Errorf("%s: %w", dataFile, err)
	}
	m.Ready()
	c, err := dt.Prepare(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dataFile, err)
	}
	if err := dt.Commit(c); err != nil {
		return nil, err
	}
	return dt, nil
}
