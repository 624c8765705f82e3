// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/danos/datatree/codec"
	"github.com/danos/datatree/data"
	"github.com/danos/datatree/tree"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newDiffCmd())
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Compare two data documents",
		Long: `The diff command compares two data documents and prints the edit
script that turns the first into the second.

Example:
  datatreectl diff -s test.yaml before.yaml after.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd, args)
		},
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	before, err := loadDocument(ctx, args[0])
	if err != nil {
		return err
	}
	after, err := loadDocument(ctx, args[1])
	if err != nil {
		return err
	}

	v := tree.InitialVersion()
	changes := tree.Diff(tree.NewTreeNode(before, v), tree.NewTreeNode(after, v.Next()))
	edit, err := codec.EditFromCandidateNode(ctx, data.RootInstanceID(), changes)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), edit.String())
	return err
}
