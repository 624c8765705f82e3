// Copyright (c) 2026, AT&T Intellectual Property.
// All rights reserved.
//
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/danos/datatree/codec"
	"github.com/danos/datatree/data"
	"github.com/danos/datatree/internal/metrics"
	"github.com/danos/datatree/tree"
	"github.com/spf13/cobra"
)

var (
	applyData    string
	applyEdit    string
	applyMetrics bool
)

func init() {
	cmd := newApplyCmd()
	cmd.Flags().StringVarP(&applyData, "data", "d", "", "Data document to load")
	cmd.Flags().StringVarP(&applyEdit, "edit", "e", "", "Edit script to apply")
	cmd.Flags().BoolVar(&applyMetrics, "metrics", false, "Print the tree metrics afterwards")
	rootCmd.AddCommand(cmd)
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply an edit script to a data document",
		Long: `The apply command loads a data document, records the actions of an
edit script into a modification and commits it. The changes and the
resulting document are printed.

Example:
  datatreectl apply -s test.yaml -d data.yaml -e edit.yaml
  datatreectl apply -s test.yaml -d data.yaml -e edit.yaml --metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd)
		},
	}
}

func runApply(cmd *cobra.Command) error {
	if applyEdit == "" {
		return errors.New("--edit is required")
	}
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	dt, err := loadTree(cmd, ctx, applyData)
	if err != nil {
		return err
	}
	edit, err := codec.LoadEditOperation(applyEdit)
	if err != nil {
		return fmt.Errorf("%s: %w", applyEdit, err)
	}

	m := dt.TakeSnapshot().NewModification()
	if err := edit.Apply(m); err != nil {
		return fmt.Errorf("%s: %w", applyEdit, err)
	}
	m.Ready()
	c, err := dt.Prepare(m)
	if err != nil {
		return err
	}
	if err := dt.Commit(c); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	err = c.Walk(func(path *data.InstanceID, n *tree.CandidateNode) error {
		if n.ModificationType() == tree.SubtreeModified {
			return nil
		}
		_, err := fmt.Fprintf(out, "%s %s\n", n.ModificationType(), path)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "---")
	if err := codec.Encode(out, c.Snapshot().RootNode().Data()); err != nil {
		return err
	}
	if applyMetrics {
		return metrics.Write(out)
	}
	return nil
}
