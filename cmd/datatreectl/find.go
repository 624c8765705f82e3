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
	"golang.org/x/sync/errgroup"
)

var findData string

func init() {
	cmd := newFindCmd()
	cmd.Flags().StringVarP(&findData, "data", "d", "", "Data document to load")
	rootCmd.AddCommand(cmd)
}

func newFindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "find <path>...",
		Short: "Print the nodes at instance-identifiers",
		Long: `The find command loads a data document and prints the node at
each path. When a node does not exist the closest existing ancestor is
printed instead.

Example:
  datatreectl find -s test.yaml -d data.yaml /test:test/name
  datatreectl find -s test.yaml -d data.yaml "/test:test/items[id='3']"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args)
		},
	}
}

type findResult struct {
	path    *data.InstanceID
	closest *data.InstanceID
	node    *data.Node
	found   bool
}

func runFind(cmd *cobra.Command, args []string) error {
	ctx, err := loadContext(cmd)
	if err != nil {
		return err
	}
	dt, err := loadTree(cmd, ctx, findData)
	if err != nil {
		return err
	}

	// Every lookup reads the same snapshot.
	snap := dt.TakeSnapshot()
	results := make([]findResult, len(args))
	var g errgroup.Group
	for i, arg := range args {
		g.Go(func() error {
			r, err := find(snap, arg)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.found {
			fmt.Fprintf(out, "# %s\n", r.path)
		} else {
			fmt.Fprintf(out, "# %s not found, closest %s\n", r.path, r.closest)
		}
		if err := codec.Encode(out, r.node); err != nil {
			return err
		}
	}
	return nil
}

func find(snap *tree.Snapshot, arg string) (findResult, error) {
	path, err := data.InstanceIDParse(arg)
	if err != nil {
		return findResult{}, err
	}
	normal, err := snap.Schema().Normalize(path)
	if err != nil {
		return findResult{}, err
	}
	root := snap.RootPath()
	if !root.IsPrefixOf(normal) {
		return findResult{}, fmt.Errorf("%w: %s is outside of the tree root %s",
			tree.ErrInvalidPath, path, root)
	}
	rel := normal.Suffix(root.Len())
	n, at := tree.FindClosest(snap.RootNode(), rel)
	closest, err := snap.Schema().Denormalize(root.Append(at.PathArguments()...))
	if err != nil {
		return findResult{}, err
	}
	return findResult{
		path:    path,
		closest: closest,
		node:    n.Data(),
		found:   at.Len() == rel.Len(),
	}, nil
}
